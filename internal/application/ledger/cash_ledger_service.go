package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CashLedgerService derives balances and statements of cash accounts
// from their receipts and payments. Nothing here takes locks.
type CashLedgerService struct {
	repos  ledger.Repositories
	logger *zap.Logger
}

// NewCashLedgerService creates a new CashLedgerService
func NewCashLedgerService(repos ledger.Repositories, logger *zap.Logger) *CashLedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashLedgerService{repos: repos, logger: logger}
}

// CashAccountBalance is the all-time balance of a cash account
type CashAccountBalance struct {
	CashAccountID  uuid.UUID       `json:"cash_account_id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Balance        decimal.Decimal `json:"balance"`
}

// GetBalance returns opening balance plus all receipts minus all payments
func (s *CashLedgerService) GetBalance(ctx context.Context, tc site.TenantContext, cashAccountID uuid.UUID) (*CashAccountBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_ledger", "get_balance")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	account, err := s.repos.CashAccounts().FindByID(ctx, tc, cashAccountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	balance, err := s.balanceAt(ctx, tc, account, ledger.DocumentQuery{})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &CashAccountBalance{
		CashAccountID:  account.ID,
		Name:           account.Name,
		Type:           string(account.Type),
		OpeningBalance: account.OpeningBalance,
		Balance:        balance,
	}, nil
}

// ListBalances returns the balance of every cash account of the site
func (s *CashLedgerService) ListBalances(ctx context.Context, tc site.TenantContext) ([]CashAccountBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_ledger", "list_balances")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	accounts, err := s.repos.CashAccounts().List(ctx, tc)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	balances := make([]CashAccountBalance, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		balance, err := s.balanceAt(ctx, tc, a, ledger.DocumentQuery{})
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		balances = append(balances, CashAccountBalance{
			CashAccountID:  a.ID,
			Name:           a.Name,
			Type:           string(a.Type),
			OpeningBalance: a.OpeningBalance,
			Balance:        balance,
		})
	}
	return balances, nil
}

// GetStatement lists receipts and payments dated within [from, to] with a
// running balance that starts from the balance before from.
func (s *CashLedgerService) GetStatement(ctx context.Context, tc site.TenantContext, cashAccountID uuid.UUID, from, to time.Time) (*Statement, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_ledger", "get_statement")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	from, to = valueobject.DateOnly(from), valueobject.DateOnly(to)
	if to.Before(from) {
		return nil, shared.NewValidationError("INVALID_RANGE", "to", "End date cannot be before start date")
	}
	account, err := s.repos.CashAccounts().FindByID(ctx, tc, cashAccountID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	opening, err := s.balanceAt(ctx, tc, account, ledger.DocumentQuery{Before: &from})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	rangeQuery := ledger.DocumentQuery{From: &from, To: &to}
	receipts, err := s.repos.Receipts().ListByCashAccount(ctx, tc, account.ID, rangeQuery)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	payments, err := s.repos.Payments().ListByCashAccount(ctx, tc, account.ID, rangeQuery)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	lines := make([]StatementLine, 0, len(receipts)+len(payments))
	for _, r := range receipts {
		lines = append(lines, StatementLine{
			Date:           r.PaidAt,
			DocumentID:     r.ID,
			DocumentNumber: r.ReceiptNumber,
			Description:    r.Description,
			Direction:      DirectionIn,
			Amount:         r.TotalAmount,
			createdAt:      r.CreatedAt,
		})
	}
	for _, p := range payments {
		lines = append(lines, StatementLine{
			Date:           p.PaidAt,
			DocumentID:     p.ID,
			DocumentNumber: p.PaymentNumber,
			Description:    p.Description,
			Direction:      DirectionOut,
			Amount:         p.TotalAmount,
			createdAt:      p.CreatedAt,
		})
	}
	sortStatementLines(lines)

	running := opening
	for i := range lines {
		if lines[i].Direction == DirectionIn {
			running = running.Add(lines[i].Amount)
		} else {
			running = running.Sub(lines[i].Amount)
		}
		lines[i].RunningBalance = running
	}

	return &Statement{
		CashAccountID:  account.ID,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Lines:          lines,
		ClosingBalance: running,
	}, nil
}

// balanceAt folds the documents selected by q onto the opening balance
func (s *CashLedgerService) balanceAt(ctx context.Context, tc site.TenantContext, account *ledger.CashAccount, q ledger.DocumentQuery) (decimal.Decimal, error) {
	receipts, err := s.repos.Receipts().ListByCashAccount(ctx, tc, account.ID, q)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.repos.Payments().ListByCashAccount(ctx, tc, account.ID, q)
	if err != nil {
		return decimal.Zero, err
	}
	in := make([]decimal.Decimal, len(receipts))
	for i := range receipts {
		in[i] = receipts[i].TotalAmount
	}
	out := make([]decimal.Decimal, len(payments))
	for i := range payments {
		out[i] = payments[i].TotalAmount
	}
	return account.OpeningBalance.Add(valueobject.SumMoney(in)).Sub(valueobject.SumMoney(out)), nil
}

// sortStatementLines orders by date, then creation time, then document ID
func sortStatementLines(lines []StatementLine) {
	sort.SliceStable(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.DocumentID.String() < b.DocumentID.String()
	})
}
