package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
)

// ExpenseHandler serves vendor expenses
type ExpenseHandler struct {
	BaseHandler
	allocation *app.AllocationService
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(allocation *app.AllocationService) *ExpenseHandler {
	return &ExpenseHandler{allocation: allocation}
}

// Create handles POST /expenses
func (h *ExpenseHandler) Create(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.CreateExpenseBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	expense, err := h.allocation.CreateExpense(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

// UpdateAmount handles PUT /expenses/:id/amount
func (h *ExpenseHandler) UpdateAmount(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var body dto.UpdateAmountBody
	if !h.bindJSON(c, &body) {
		return
	}
	amount, err := body.Parse()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	expense, err := h.allocation.UpdateExpenseAmount(c.Request.Context(), tc, id, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

// Delete handles DELETE /expenses/:id
func (h *ExpenseHandler) Delete(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.allocation.DeleteExpense(c.Request.Context(), tc, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Recalculate handles POST /expenses/:id/recalculate
func (h *ExpenseHandler) Recalculate(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	expense, err := h.allocation.RecalculateExpense(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}
