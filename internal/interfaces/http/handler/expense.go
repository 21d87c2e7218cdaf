package handler

import (
	"time"

	billingapp "github.com/bms/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles expense API endpoints
type ExpenseHandler struct {
	BaseHandler
	service *billingapp.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(service *billingapp.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// expenseListQuery holds the raw query parameters for the expense list
type expenseListQuery struct {
	Category  string `form:"category"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`
	Recurring *bool  `form:"recurring"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CreateExpense creates an expense and bills it to the targeted apartments.
// Recurring requests store a template; instances are billed by the scheduler.
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req billingapp.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	expense, err := h.service.CreateExpense(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, expense)
}

// GetExpense returns an expense
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	expense, err := h.service.GetExpense(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, expense)
}

// ListExpenses returns a building's expenses, newest first
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	buildingID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid building ID")
		return
	}

	var query expenseListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.PageSize <= 0 {
		query.PageSize = 20
	}

	filter := billingapp.ExpenseListFilter{
		Category:  query.Category,
		Recurring: query.Recurring,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.FromDate != "" {
		if t, err := time.Parse("2006-01-02", query.FromDate); err == nil {
			filter.FromDate = &t
		}
	}
	if query.ToDate != "" {
		if t, err := time.Parse("2006-01-02", query.ToDate); err == nil {
			t = t.Add(24*time.Hour - time.Second)
			filter.ToDate = &t
		}
	}

	expenses, total, err := h.service.ListExpenses(c.Request.Context(), buildingID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, expenses, total, query.Page, query.PageSize)
}

// DeleteExpense deletes an expense and restores the billed balances.
// Refused when any share has received a payment.
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid expense ID")
		return
	}

	if err := h.service.DeleteExpense(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers expense routes
func (h *ExpenseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.CreateExpense)
		expenses.GET("/:id", h.GetExpense)
		expenses.DELETE("/:id", h.DeleteExpense)
	}

	rg.GET("/buildings/:id/expenses", h.ListExpenses)
}
