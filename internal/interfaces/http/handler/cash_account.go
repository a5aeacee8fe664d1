package handler

import (
	"github.com/gin-gonic/gin"
	app "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/interfaces/http/dto"
)

// CashAccountHandler serves derived balances and statements
type CashAccountHandler struct {
	BaseHandler
	ledger *app.CashLedgerService
}

// NewCashAccountHandler creates a new CashAccountHandler
func NewCashAccountHandler(ledger *app.CashLedgerService) *CashAccountHandler {
	return &CashAccountHandler{ledger: ledger}
}

// List handles GET /cash-accounts
func (h *CashAccountHandler) List(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	balances, err := h.ledger.ListBalances(c.Request.Context(), tc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balances)
}

// Balance handles GET /cash-accounts/:id/balance
func (h *CashAccountHandler) Balance(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	balance, err := h.ledger.GetBalance(c.Request.Context(), tc, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// Statement handles GET /cash-accounts/:id/statement?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *CashAccountHandler) Statement(c *gin.Context) {
	tc, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var query dto.StatementQuery
	if !h.bindQuery(c, &query) {
		return
	}
	from, to, err := query.Parse()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	statement, err := h.ledger.GetStatement(c.Request.Context(), tc, id, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}
