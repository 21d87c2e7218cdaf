package handler

import (
	"time"

	billingapp "github.com/bms/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerHandler handles apartment ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	service *billingapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service *billingapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// BalanceData carries an apartment balance in responses
type BalanceData struct {
	Balance decimal.Decimal `json:"balance"`
}

// GetUnpaidObligations returns an apartment's open ledger lines, oldest due
// date first, including the current period's subscription due even before
// it has been materialized.
func (h *LedgerHandler) GetUnpaidObligations(c *gin.Context) {
	apartmentID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid apartment ID")
		return
	}

	ledger, err := h.service.ListUnpaidObligations(c.Request.Context(), apartmentID, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ledger)
}

// GetObligationHistory returns all of an apartment's obligations including
// settled ones
func (h *LedgerHandler) GetObligationHistory(c *gin.Context) {
	apartmentID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid apartment ID")
		return
	}

	obligations, err := h.service.ListObligationHistory(c.Request.Context(), apartmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, obligations)
}

// GetBalance returns an apartment's current balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	apartmentID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid apartment ID")
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), apartmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BalanceData{Balance: balance})
}

// RegisterRoutes registers ledger routes
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	apartments := rg.Group("/apartments")
	{
		apartments.GET("/:id/obligations", h.GetUnpaidObligations)
		apartments.GET("/:id/obligations/history", h.GetObligationHistory)
		apartments.GET("/:id/balance", h.GetBalance)
	}
}
