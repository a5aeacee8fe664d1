package ledger

import (
	"context"
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

// AllocationService applies money to charges and expenses. Every paid
// amount it writes is recomputed from item rows under a row lock.
type AllocationService struct {
	scope   ledger.TransactionScope
	repos   ledger.Repositories
	opts    Options
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	scope ledger.TransactionScope,
	repos ledger.Repositories,
	opts Options,
	logger *zap.Logger,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		scope:   scope,
		repos:   repos,
		opts:    opts.withDefaults(),
		metrics: noopMetrics{},
		logger:  logger,
	}
}

// SetMetrics sets the recorder for receipt and payment counters
func (s *AllocationService) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
}

// ===================== Receivables =====================

// Collect records money received against one charge
func (s *AllocationService) Collect(ctx context.Context, tc site.TenantContext, req CollectRequest) (*ReceiptDTO, error) {
	return s.CollectMany(ctx, tc, CollectManyRequest{
		CashAccountID: req.CashAccountID,
		Method:        req.Method,
		PaidAt:        req.PaidAt,
		Description:   req.Description,
		Items:         []AllocationInput{{TargetID: req.ChargeID, Amount: req.Amount}},
	})
}

// CollectMany records one receipt allocated over several charges of one apartment
func (s *AllocationService) CollectMany(ctx context.Context, tc site.TenantContext, req CollectManyRequest) (*ReceiptDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "collect")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSiteID, tc.SiteID.String(), telemetry.SpanAttrItemsCount, len(req.Items))

	if err := tc.Require(); err != nil {
		return nil, err
	}
	allocs := toAllocations(req.Items)
	if err := ledger.ValidateAllocations(allocs); err != nil {
		return nil, err
	}

	var receipt *ledger.Receipt
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.CashAccounts().FindByID(ctx, tc, req.CashAccountID); err != nil {
			return err
		}
		charges, err := lockCharges(ctx, repos, tc, allocs)
		if err != nil {
			return err
		}

		apartmentID := req.ApartmentID
		if apartmentID == uuid.Nil {
			apartmentID = charges[0].ApartmentID
		}
		today := s.opts.today()
		byID := make(map[uuid.UUID]*ledger.Charge, len(charges))
		for i := range charges {
			c := &charges[i]
			if c.ApartmentID != apartmentID {
				return shared.NewValidationError("APARTMENT_MISMATCH", "items", "All charges of a receipt must belong to the same apartment")
			}
			// Validate against the remaining balance derived from items, not the cached column.
			if err := recomputeCharge(ctx, repos, tc, c, today); err != nil {
				return err
			}
			byID[c.ID] = c
		}
		for _, a := range allocs {
			if err := byID[a.TargetID].CheckAllocation(a.Amount); err != nil {
				return err
			}
		}

		r, err := ledger.NewReceipt(tc.SiteID, apartmentID, ledger.DocumentInput{
			CashAccountID: req.CashAccountID,
			Method:        req.Method,
			PaidAt:        req.PaidAt,
			Description:   req.Description,
		}, allocs)
		if err != nil {
			return err
		}
		seq, err := repos.Sequences().Next(ctx, tc, ledger.DocumentReceipt)
		if err != nil {
			return err
		}
		r.ReceiptNumber = ledger.FormatDocumentNumber(s.opts.ReceiptPrefix, s.opts.now().Year(), seq)
		r.CreatedBy = actorRef(tc)
		if err := repos.Receipts().Create(ctx, tc, r); err != nil {
			return err
		}

		for i := range charges {
			if err := recalculateCharge(ctx, repos, tc, &charges[i], today); err != nil {
				return err
			}
		}
		receipt = r
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	total, _ := receipt.TotalAmount.Float64()
	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentNumber, receipt.ReceiptNumber, telemetry.SpanAttrAmount, total)
	s.metrics.RecordReceipt(tc.SiteID.String(), total)
	s.logger.Info("Receipt recorded",
		zap.String("site_id", tc.SiteID.String()),
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("apartment_id", receipt.ApartmentID.String()),
		zap.String("total", valueobject.FormatMoney(receipt.TotalAmount)),
		zap.Int("items", len(receipt.Items)),
	)
	return toReceiptDTO(receipt), nil
}

// RecalculateCharge rewrites paid_amount and status of a charge from its receipt items
func (s *AllocationService) RecalculateCharge(ctx context.Context, tc site.TenantContext, chargeID uuid.UUID) (*ChargeDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "recalculate_charge")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	var charge *ledger.Charge
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		c, err := repos.Charges().FindByIDForUpdate(ctx, tc, chargeID)
		if err != nil {
			return err
		}
		if err := recalculateCharge(ctx, repos, tc, c, s.opts.today()); err != nil {
			return err
		}
		charge = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := toChargeDTO(charge)
	return &dto, nil
}

// VoidReceipt deletes a receipt and recomputes every charge it covered.
// Its number is not handed out again.
func (s *AllocationService) VoidReceipt(ctx context.Context, tc site.TenantContext, receiptID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "void_receipt")
	defer span.End()

	if err := tc.Require(); err != nil {
		return err
	}
	var number string
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		r, err := repos.Receipts().FindByID(ctx, tc, receiptID)
		if err != nil {
			return err
		}
		number = r.ReceiptNumber
		ids := make([]uuid.UUID, 0, len(r.Items))
		for _, item := range r.Items {
			ids = append(ids, item.ChargeID)
		}
		charges, err := repos.Charges().FindByIDsForUpdate(ctx, tc, ids)
		if err != nil {
			return err
		}
		if err := repos.Receipts().Delete(ctx, tc, receiptID); err != nil {
			return err
		}
		today := s.opts.today()
		for i := range charges {
			if err := recalculateCharge(ctx, repos, tc, &charges[i], today); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Receipt voided",
		zap.String("site_id", tc.SiteID.String()),
		zap.String("receipt_number", number),
	)
	return nil
}

// CreateCharge creates a single charge. A second charge on the same
// apartment, account, period and type is a conflict.
func (s *AllocationService) CreateCharge(ctx context.Context, tc site.TenantContext, req CreateChargeRequest) (*ChargeDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "create_charge")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	var charge *ledger.Charge
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Apartments().FindByID(ctx, tc, req.ApartmentID); err != nil {
			return err
		}
		if _, err := repos.Accounts().FindByID(ctx, tc, req.AccountID); err != nil {
			return err
		}
		c, err := ledger.NewCharge(tc.SiteID, req.ApartmentID, req.AccountID, req.ChargeType, period, req.DueDate, req.Amount, req.Description)
		if err != nil {
			return err
		}
		c.RefreshStatus(s.opts.today())
		created, err := repos.Charges().CreateIfAbsent(ctx, tc, c)
		if err != nil {
			return err
		}
		if !created {
			return shared.NewConflictError("DUPLICATE_CHARGE", "A charge for this apartment, account, period and type already exists")
		}
		charge = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := toChargeDTO(charge)
	return &dto, nil
}

// CreateBulkCharges creates one charge per apartment, skipping apartments
// that already carry a charge with the same account, period and type.
func (s *AllocationService) CreateBulkCharges(ctx context.Context, tc site.TenantContext, req BulkChargesRequest) (*BulkResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "create_bulk_charges")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSiteID, tc.SiteID.String(), telemetry.SpanAttrApartmentsCount, len(req.ApartmentIDs))

	if err := tc.Require(); err != nil {
		return nil, err
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	apartmentIDs := dedupe(req.ApartmentIDs)
	if len(apartmentIDs) == 0 {
		return nil, shared.NewValidationError("NO_APARTMENTS", "apartment_ids", "At least one apartment is required")
	}

	result := &BulkResult{}
	err = s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Accounts().FindByID(ctx, tc, req.AccountID); err != nil {
			return err
		}
		apartments, err := repos.Apartments().FindByIDs(ctx, tc, apartmentIDs)
		if err != nil {
			return err
		}
		if len(apartments) != len(apartmentIDs) {
			return shared.NewNotFoundError("Apartment")
		}
		today := s.opts.today()
		for _, id := range apartmentIDs {
			key := ledger.ChargeKey{ApartmentID: id, AccountID: req.AccountID, Period: period.String(), ChargeType: req.ChargeType}
			exists, err := repos.Charges().Exists(ctx, tc, key)
			if err != nil {
				return err
			}
			if exists {
				result.Skipped++
				continue
			}
			c, err := ledger.NewCharge(tc.SiteID, id, req.AccountID, req.ChargeType, period, req.DueDate, req.Amount, req.Description)
			if err != nil {
				return err
			}
			c.RefreshStatus(today)
			created, err := repos.Charges().CreateIfAbsent(ctx, tc, c)
			if err != nil {
				return err
			}
			if created {
				result.Created++
			} else {
				result.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.logger.Info("Bulk charges created",
		zap.String("site_id", tc.SiteID.String()),
		zap.String("period", period.String()),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// UpdateChargeAmount changes the face amount of a charge nothing was collected for
func (s *AllocationService) UpdateChargeAmount(ctx context.Context, tc site.TenantContext, chargeID uuid.UUID, amount decimal.Decimal) (*ChargeDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "update_charge_amount")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	var charge *ledger.Charge
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		c, err := repos.Charges().FindByIDForUpdate(ctx, tc, chargeID)
		if err != nil {
			return err
		}
		today := s.opts.today()
		if err := recomputeCharge(ctx, repos, tc, c, today); err != nil {
			return err
		}
		previous := c.Amount
		if err := c.ChangeAmount(amount, today); err != nil {
			return err
		}
		if !previous.Equal(c.Amount) {
			if err := repos.Charges().SaveAmount(ctx, tc, c); err != nil {
				return err
			}
		}
		charge = c
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := toChargeDTO(charge)
	return &dto, nil
}

// DeleteCharge removes a charge without recorded payments
func (s *AllocationService) DeleteCharge(ctx context.Context, tc site.TenantContext, chargeID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "delete_charge")
	defer span.End()

	if err := tc.Require(); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		c, err := repos.Charges().FindByIDForUpdate(ctx, tc, chargeID)
		if err != nil {
			return err
		}
		if err := recomputeCharge(ctx, repos, tc, c, s.opts.today()); err != nil {
			return err
		}
		if err := c.CheckDeletable(); err != nil {
			return err
		}
		return repos.Charges().Delete(ctx, tc, chargeID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// ApartmentBalance lists every charge of an apartment with its derived
// status and the sum of what remains open.
func (s *AllocationService) ApartmentBalance(ctx context.Context, tc site.TenantContext, apartmentID uuid.UUID) (*ApartmentBalance, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "apartment_balance")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	apartment, err := s.repos.Apartments().FindByID(ctx, tc, apartmentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	balance := &ApartmentBalance{
		ApartmentID: apartment.ID,
		Label:       apartment.Label(),
		OpenBalance: decimal.Zero,
		Charges:     []ChargeDTO{},
	}
	if owner := ledger.CurrentResident(apartment.Residents, ledger.RelationOwner); owner != nil {
		id := owner.UserID
		balance.OwnerID = &id
	}
	if tenant := ledger.CurrentResident(apartment.Residents, ledger.RelationTenant); tenant != nil {
		id := tenant.UserID
		balance.TenantID = &id
	}

	today := s.opts.today()
	filter := ledger.ChargeFilter{Filter: shared.Filter{Page: 1, PageSize: shared.MaxPageSize, OrderBy: "due_date", OrderDir: "asc"}, ApartmentID: &apartmentID}
	remaining := make([]decimal.Decimal, 0)
	for {
		charges, total, err := s.repos.Charges().List(ctx, tc, filter)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		for i := range charges {
			c := &charges[i]
			c.RefreshStatus(today)
			balance.Charges = append(balance.Charges, toChargeDTO(c))
			if c.Remaining().IsPositive() {
				remaining = append(remaining, c.Remaining())
			}
		}
		if len(charges) == 0 || int64(len(balance.Charges)) >= total {
			break
		}
		filter.Page++
	}
	balance.OpenBalance = valueobject.SumMoney(remaining)
	return balance, nil
}

// ===================== Payables =====================

// Pay records money paid against one expense
func (s *AllocationService) Pay(ctx context.Context, tc site.TenantContext, req PayRequest) (*PaymentDTO, error) {
	return s.PayMany(ctx, tc, PayManyRequest{
		CashAccountID: req.CashAccountID,
		Method:        req.Method,
		PaidAt:        req.PaidAt,
		Description:   req.Description,
		Items:         []AllocationInput{{TargetID: req.ExpenseID, Amount: req.Amount}},
	})
}

// PayMany records one payment allocated over several expenses of one vendor
func (s *AllocationService) PayMany(ctx context.Context, tc site.TenantContext, req PayManyRequest) (*PaymentDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "pay")
	defer span.End()
	telemetry.SetAttributes(span, telemetry.SpanAttrSiteID, tc.SiteID.String(), telemetry.SpanAttrItemsCount, len(req.Items))

	if err := tc.Require(); err != nil {
		return nil, err
	}
	allocs := toAllocations(req.Items)
	if err := ledger.ValidateAllocations(allocs); err != nil {
		return nil, err
	}

	var payment *ledger.Payment
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.CashAccounts().FindByID(ctx, tc, req.CashAccountID); err != nil {
			return err
		}
		expenses, err := lockExpenses(ctx, repos, tc, allocs)
		if err != nil {
			return err
		}

		vendorID := req.VendorID
		if vendorID == nil {
			vendorID = expenses[0].VendorID
		}
		byID := make(map[uuid.UUID]*ledger.Expense, len(expenses))
		for i := range expenses {
			e := &expenses[i]
			if !sameVendor(e.VendorID, vendorID) {
				return shared.NewValidationError("VENDOR_MISMATCH", "items", "All expenses of a payment must belong to the same vendor")
			}
			if err := recomputeExpense(ctx, repos, tc, e); err != nil {
				return err
			}
			byID[e.ID] = e
		}
		for _, a := range allocs {
			if err := byID[a.TargetID].CheckAllocation(a.Amount); err != nil {
				return err
			}
		}

		p, err := ledger.NewPayment(tc.SiteID, vendorID, ledger.DocumentInput{
			CashAccountID: req.CashAccountID,
			Method:        req.Method,
			PaidAt:        req.PaidAt,
			Description:   req.Description,
		}, allocs)
		if err != nil {
			return err
		}
		seq, err := repos.Sequences().Next(ctx, tc, ledger.DocumentPayment)
		if err != nil {
			return err
		}
		p.PaymentNumber = ledger.FormatDocumentNumber(s.opts.PaymentPrefix, s.opts.now().Year(), seq)
		p.CreatedBy = actorRef(tc)
		if err := repos.Payments().Create(ctx, tc, p); err != nil {
			return err
		}

		for i := range expenses {
			if err := recalculateExpense(ctx, repos, tc, &expenses[i]); err != nil {
				return err
			}
		}
		payment = p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	total, _ := payment.TotalAmount.Float64()
	telemetry.SetAttributes(span, telemetry.SpanAttrDocumentNumber, payment.PaymentNumber, telemetry.SpanAttrAmount, total)
	s.metrics.RecordPayment(tc.SiteID.String(), total)
	s.logger.Info("Payment recorded",
		zap.String("site_id", tc.SiteID.String()),
		zap.String("payment_number", payment.PaymentNumber),
		zap.String("total", valueobject.FormatMoney(payment.TotalAmount)),
		zap.Int("items", len(payment.Items)),
	)
	return toPaymentDTO(payment), nil
}

// RecalculateExpense rewrites paid_amount and status of an expense from its payment items
func (s *AllocationService) RecalculateExpense(ctx context.Context, tc site.TenantContext, expenseID uuid.UUID) (*ExpenseDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "recalculate_expense")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	var expense *ledger.Expense
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		e, err := repos.Expenses().FindByIDForUpdate(ctx, tc, expenseID)
		if err != nil {
			return err
		}
		if err := recalculateExpense(ctx, repos, tc, e); err != nil {
			return err
		}
		expense = e
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := toExpenseDTO(expense, s.opts.today())
	return &dto, nil
}

// VoidPayment deletes a payment and recomputes every expense it covered
func (s *AllocationService) VoidPayment(ctx context.Context, tc site.TenantContext, paymentID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "void_payment")
	defer span.End()

	if err := tc.Require(); err != nil {
		return err
	}
	var number string
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		p, err := repos.Payments().FindByID(ctx, tc, paymentID)
		if err != nil {
			return err
		}
		number = p.PaymentNumber
		ids := make([]uuid.UUID, 0, len(p.Items))
		for _, item := range p.Items {
			ids = append(ids, item.ExpenseID)
		}
		expenses, err := repos.Expenses().FindByIDsForUpdate(ctx, tc, ids)
		if err != nil {
			return err
		}
		if err := repos.Payments().Delete(ctx, tc, paymentID); err != nil {
			return err
		}
		for i := range expenses {
			if err := recalculateExpense(ctx, repos, tc, &expenses[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	s.logger.Info("Payment voided",
		zap.String("site_id", tc.SiteID.String()),
		zap.String("payment_number", number),
	)
	return nil
}

// CreateExpense creates a single expense
func (s *AllocationService) CreateExpense(ctx context.Context, tc site.TenantContext, req CreateExpenseRequest) (*ExpenseDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "create_expense")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	var expense *ledger.Expense
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if _, err := repos.Accounts().FindByID(ctx, tc, req.AccountID); err != nil {
			return err
		}
		if req.VendorID != nil {
			if _, err := repos.Vendors().FindByID(ctx, tc, *req.VendorID); err != nil {
				return err
			}
		}
		e, err := ledger.NewExpense(tc.SiteID, req.VendorID, req.AccountID, req.ExpenseDate, req.DueDate, req.Amount, req.Description)
		if err != nil {
			return err
		}
		if err := repos.Expenses().Create(ctx, tc, e); err != nil {
			return err
		}
		expense = e
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := toExpenseDTO(expense, s.opts.today())
	return &dto, nil
}

// UpdateExpenseAmount changes the face amount of an expense nothing was paid for
func (s *AllocationService) UpdateExpenseAmount(ctx context.Context, tc site.TenantContext, expenseID uuid.UUID, amount decimal.Decimal) (*ExpenseDTO, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "update_expense_amount")
	defer span.End()

	if err := tc.Require(); err != nil {
		return nil, err
	}
	var expense *ledger.Expense
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		e, err := repos.Expenses().FindByIDForUpdate(ctx, tc, expenseID)
		if err != nil {
			return err
		}
		if err := recomputeExpense(ctx, repos, tc, e); err != nil {
			return err
		}
		previous := e.Amount
		if err := e.ChangeAmount(amount); err != nil {
			return err
		}
		if !previous.Equal(e.Amount) {
			if err := repos.Expenses().SaveAmount(ctx, tc, e); err != nil {
				return err
			}
		}
		expense = e
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	dto := toExpenseDTO(expense, s.opts.today())
	return &dto, nil
}

// DeleteExpense removes an expense without recorded payments
func (s *AllocationService) DeleteExpense(ctx context.Context, tc site.TenantContext, expenseID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "allocation", "delete_expense")
	defer span.End()

	if err := tc.Require(); err != nil {
		return err
	}
	err := s.scope.Execute(ctx, func(repos ledger.Repositories) error {
		e, err := repos.Expenses().FindByIDForUpdate(ctx, tc, expenseID)
		if err != nil {
			return err
		}
		if err := recomputeExpense(ctx, repos, tc, e); err != nil {
			return err
		}
		if err := e.CheckDeletable(); err != nil {
			return err
		}
		return repos.Expenses().Delete(ctx, tc, expenseID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// ===================== Helpers =====================

func toAllocations(items []AllocationInput) []ledger.Allocation {
	allocs := make([]ledger.Allocation, len(items))
	for i, item := range items {
		allocs[i] = ledger.Allocation{TargetID: item.TargetID, Amount: item.Amount}
	}
	return allocs
}

func allocationTargets(allocs []ledger.Allocation) []uuid.UUID {
	ids := make([]uuid.UUID, len(allocs))
	for i, a := range allocs {
		ids[i] = a.TargetID
	}
	return ids
}

// lockCharges locks the allocation targets. Any target missing from the
// site is reported as not found.
func lockCharges(ctx context.Context, repos ledger.Repositories, tc site.TenantContext, allocs []ledger.Allocation) ([]ledger.Charge, error) {
	charges, err := repos.Charges().FindByIDsForUpdate(ctx, tc, allocationTargets(allocs))
	if err != nil {
		return nil, err
	}
	if len(charges) != len(allocs) {
		return nil, shared.NewNotFoundError("Charge")
	}
	return charges, nil
}

func lockExpenses(ctx context.Context, repos ledger.Repositories, tc site.TenantContext, allocs []ledger.Allocation) ([]ledger.Expense, error) {
	expenses, err := repos.Expenses().FindByIDsForUpdate(ctx, tc, allocationTargets(allocs))
	if err != nil {
		return nil, err
	}
	if len(expenses) != len(allocs) {
		return nil, shared.NewNotFoundError("Expense")
	}
	return expenses, nil
}

// recomputeCharge sets paid_amount from the receipt items without writing it
func recomputeCharge(ctx context.Context, repos ledger.Repositories, tc site.TenantContext, c *ledger.Charge, today time.Time) error {
	amounts, err := repos.Receipts().ItemAmountsForCharge(ctx, tc, c.ID)
	if err != nil {
		return err
	}
	return c.ApplyPaidAmount(valueobject.SumMoney(amounts), today)
}

// recalculateCharge recomputes and stores paid_amount and status
func recalculateCharge(ctx context.Context, repos ledger.Repositories, tc site.TenantContext, c *ledger.Charge, today time.Time) error {
	if err := recomputeCharge(ctx, repos, tc, c, today); err != nil {
		return err
	}
	return repos.Charges().SavePaidState(ctx, tc, c)
}

func recomputeExpense(ctx context.Context, repos ledger.Repositories, tc site.TenantContext, e *ledger.Expense) error {
	amounts, err := repos.Payments().ItemAmountsForExpense(ctx, tc, e.ID)
	if err != nil {
		return err
	}
	return e.ApplyPaidAmount(valueobject.SumMoney(amounts))
}

func recalculateExpense(ctx context.Context, repos ledger.Repositories, tc site.TenantContext, e *ledger.Expense) error {
	if err := recomputeExpense(ctx, repos, tc, e); err != nil {
		return err
	}
	return repos.Expenses().SavePaidState(ctx, tc, e)
}

func sameVendor(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func actorRef(tc site.TenantContext) *uuid.UUID {
	if tc.ActorID == uuid.Nil {
		return nil
	}
	id := tc.ActorID
	return &id
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func parsePeriod(s string) (valueobject.Period, error) {
	p, err := valueobject.ParsePeriod(s)
	if err != nil {
		return valueobject.Period{}, shared.NewValidationError("INVALID_PERIOD", "period", "Period must be in YYYY-MM format")
	}
	return p, nil
}
