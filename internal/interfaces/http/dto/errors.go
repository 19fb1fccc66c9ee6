package dto

import (
	"net/http"

	"github.com/canoe/backend/internal/domain/shared"
)

// API error codes. Every code reported in an error envelope is one of these.
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeUnavailable         = "ERR_UNAVAILABLE"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
)

var codeStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeUnavailable:         http.StatusServiceUnavailable,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
}

var domainCodes = map[string]string{
	shared.CodeNotFound:     ErrCodeNotFound,
	shared.CodeInvalidInput: ErrCodeInvalidInput,
	shared.CodeConflict:     ErrCodeConcurrencyConflict,
}

// StatusFor returns the HTTP status of an API error code, 500 when unknown
func StatusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromDomainCode translates a shared.DomainError code. Unknown domain codes
// become ErrCodeInternal so no unlisted code leaks into a response.
func FromDomainCode(code string) string {
	if apiCode, ok := domainCodes[code]; ok {
		return apiCode
	}
	if _, ok := codeStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
