package handler

import (
	"net/http"

	fundapp "github.com/canoe/backend/internal/application/fund"
	"github.com/canoe/backend/internal/domain/fund"
	"github.com/canoe/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// FundHandler serves the /funds resource
type FundHandler struct {
	BaseHandler
	funds *fundapp.FundService
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(funds *fundapp.FundService) *FundHandler {
	return &FundHandler{funds: funds}
}

// List returns every fund matching the optional filter.
// Query: filter=name|manager|start_year and value=<match>.
func (h *FundHandler) List(c *gin.Context) {
	filter, err := fund.ParseListFilter(c.Query("filter"), c.Query("value"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	funds, err := h.funds.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, funds)
}

// Create stores a new fund and queues its duplicate check
func (h *FundHandler) Create(c *gin.Context) {
	var req fundapp.CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	created, err := h.funds.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetByID returns one fund
func (h *FundHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid fund id")
		return
	}

	f, err := h.funds.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

// Update applies a partial update; absent fields are left unchanged
func (h *FundHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid fund id")
		return
	}

	var req fundapp.UpdateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	updated, err := h.funds.Update(c.Request.Context(), id, req.ToPartial())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
