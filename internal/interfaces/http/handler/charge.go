package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
)

// ChargeHandler serves charges and apartment balances
type ChargeHandler struct {
	BaseHandler
	allocation *app.AllocationService
}

// NewChargeHandler creates a new ChargeHandler
func NewChargeHandler(allocation *app.AllocationService) *ChargeHandler {
	return &ChargeHandler{allocation: allocation}
}

// Create handles POST /charges
func (h *ChargeHandler) Create(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.CreateChargeBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	charge, err := h.allocation.CreateCharge(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, charge)
}

// CreateBulk handles POST /charges/bulk. Apartments that already carry a
// charge of the same type and period are skipped.
func (h *ChargeHandler) CreateBulk(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.BulkChargesBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.allocation.CreateBulkCharges(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// UpdateAmount handles PUT /charges/:id/amount
func (h *ChargeHandler) UpdateAmount(c *gin.Context) {
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

	charge, err := h.allocation.UpdateChargeAmount(c.Request.Context(), tc, id, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charge)
}

// Delete handles DELETE /charges/:id
func (h *ChargeHandler) Delete(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.allocation.DeleteCharge(c.Request.Context(), tc, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Recalculate handles POST /charges/:id/recalculate
func (h *ChargeHandler) Recalculate(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	charge, err := h.allocation.RecalculateCharge(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charge)
}

// ApartmentBalance handles GET /apartments/:id/balance
func (h *ChargeHandler) ApartmentBalance(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	balance, err := h.allocation.ApartmentBalance(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}
