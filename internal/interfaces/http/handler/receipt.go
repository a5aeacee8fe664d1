package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
)

// ReceiptHandler collects money against charges
type ReceiptHandler struct {
	BaseHandler
	allocation *app.AllocationService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(allocation *app.AllocationService) *ReceiptHandler {
	return &ReceiptHandler{allocation: allocation}
}

// Collect handles POST /receipts
func (h *ReceiptHandler) Collect(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.CollectBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	receipt, err := h.allocation.Collect(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// CollectMany handles POST /receipts/batch
func (h *ReceiptHandler) CollectMany(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	var body dto.CollectManyBody
	if !h.bindJSON(c, &body) {
		return
	}
	req, err := body.ToRequest()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	receipt, err := h.allocation.CollectMany(c.Request.Context(), tc, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// Void handles DELETE /receipts/:id
func (h *ReceiptHandler) Void(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.allocation.VoidReceipt(c.Request.Context(), tc, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
