package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
)

// PaymentHandler pays vendor expenses
type PaymentHandler struct {
	BaseHandler
	allocation *app.AllocationService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(allocation *app.AllocationService) *PaymentHandler {
	return &PaymentHandler{allocation: allocation}
}

// Pay handles POST /payments
func (h *PaymentHandler) Pay(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.PayBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payment, err := h.allocation.Pay(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// PayMany handles POST /payments/batch
func (h *PaymentHandler) PayMany(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.PayManyBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	payment, err := h.allocation.PayMany(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Void handles DELETE /payments/:id
func (h *PaymentHandler) Void(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.allocation.VoidPayment(c.Request.Context(), tc, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
