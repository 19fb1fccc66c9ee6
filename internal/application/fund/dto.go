package fund

import (
	"github.com/canoe/backend/internal/domain/fund"
)

// CreateFundRequest represents a request to create a new fund
type CreateFundRequest struct {
	Name      string  `json:"name" binding:"required,notblank,max=255"`
	Manager   *int64  `json:"manager" binding:"required"`
	StartYear *uint16 `json:"start_year" binding:"required"`
}

// UpdateFundRequest represents a sparse fund update.
// fund_manager is accepted as an older spelling of manager.
type UpdateFundRequest struct {
	Name        *string `json:"name" binding:"omitempty,notblank,max=255"`
	Manager     *int64  `json:"manager"`
	FundManager *int64  `json:"fund_manager"`
	StartYear   *uint16 `json:"start_year"`
}

// ToPartial converts the request into a domain partial update
func (r UpdateFundRequest) ToPartial() fund.PartialFund {
	manager := r.Manager
	if manager == nil {
		manager = r.FundManager
	}
	return fund.PartialFund{
		Name:      r.Name,
		Manager:   manager,
		StartYear: r.StartYear,
	}
}

// FundResponse represents a fund in API responses
type FundResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Manager   int64  `json:"manager"`
	StartYear uint16 `json:"start_year"`
	Version   int64  `json:"version"`
}

// ToFundResponse converts a domain fund to a response DTO
func ToFundResponse(f *fund.Fund) FundResponse {
	return FundResponse{
		ID:        f.ID,
		Name:      f.Name,
		Manager:   f.Manager,
		StartYear: f.StartYear,
		Version:   f.Version,
	}
}

// ToFundResponses converts a slice of funds, never returning nil
func ToFundResponses(funds []fund.Fund) []FundResponse {
	responses := make([]FundResponse, len(funds))
	for i := range funds {
		responses[i] = ToFundResponse(&funds[i])
	}
	return responses
}
