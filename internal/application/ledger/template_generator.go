package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sitemanager/backend/internal/domain/ledger"
	"github.com/sitemanager/backend/internal/domain/shared"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/domain/site"
	"github.com/sitemanager/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Job names double as run-lock keys
const (
	JobMonthlyCharges    = "charges:generate-monthly"
	JobRecurringExpenses = "expenses:generate-recurring"
)

// DefaultLockTTL bounds how long a crashed run can hold its lock
const DefaultLockTTL = 30 * time.Minute

// TemplateGenerator expands recurring templates of every active site into
// charges and expenses. Each template is expanded in its own transaction
// and a failing template does not stop the others.
type TemplateGenerator struct {
	scope   ledger.TransactionScope
	repos   ledger.Repositories
	lock    shared.RunLock
	lockTTL time.Duration
	opts    Options
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewTemplateGenerator creates a new TemplateGenerator. A nil lock runs
// without mutual exclusion.
func NewTemplateGenerator(
	scope ledger.TransactionScope,
	repos ledger.Repositories,
	lock shared.RunLock,
	opts Options,
	logger *zap.Logger,
) *TemplateGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateGenerator{
		scope:   scope,
		repos:   repos,
		lock:    lock,
		lockTTL: DefaultLockTTL,
		opts:    opts.withDefaults(),
		metrics: noopMetrics{},
		logger:  logger,
	}
}

// SetLockTTL overrides DefaultLockTTL
func (g *TemplateGenerator) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		g.lockTTL = ttl
	}
}

// SetMetrics sets the recorder for generation counters
func (g *TemplateGenerator) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = noopMetrics{}
	}
	g.metrics = m
}

// CurrentPeriod returns the month containing now in the configured location
func (g *TemplateGenerator) CurrentPeriod() string {
	return valueobject.PeriodOf(g.opts.now()).String()
}

// GenerateMonthlyCharges creates the dues charges of period (YYYY-MM) for
// every active aidat template. Re-running a period only adds what is missing.
// Returns shared.ErrRunInProgress when another run holds the lock, and a
// fatal error alongside the report when any template failed.
func (g *TemplateGenerator) GenerateMonthlyCharges(ctx context.Context, period string) (*GenerationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "template_generator", "generate_monthly_charges",
		telemetry.WithAttribute(telemetry.SpanAttrJob, JobMonthlyCharges),
		telemetry.WithAttribute(telemetry.SpanAttrPeriod, period))
	defer span.End()

	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	release, err := g.acquire(ctx, JobMonthlyCharges)
	if err != nil {
		return nil, err
	}
	defer release()

	report := &GenerationReport{Job: JobMonthlyCharges, Period: p.String()}
	sites, err := g.repos.Sites().ListActive(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewFatalError("GENERATION_FAILED", "Could not list active sites", err)
	}

	today := g.opts.today()
	for _, st := range sites {
		report.Sites++
		tc := site.SystemContext(st.ID)
		templates, err := g.repos.Templates().ListActiveAidat(ctx, tc)
		if err != nil {
			g.fail(report, st.ID, uuid.Nil, "", err)
			continue
		}
		for i := range templates {
			tpl := &templates[i]
			created, skipped, err := g.expandAidat(ctx, tc, tpl, p, today)
			if err != nil {
				g.fail(report, st.ID, tpl.ID, tpl.Name, err)
				continue
			}
			report.Created += created
			report.Skipped += skipped
		}
	}

	g.finish(report)
	if err := report.Err(); err != nil {
		telemetry.RecordError(span, err)
		return report, err
	}
	return report, nil
}

// expandAidat writes the missing charges of one template for period
func (g *TemplateGenerator) expandAidat(ctx context.Context, tc site.TenantContext, tpl *ledger.TemplateAidat, period valueobject.Period, today time.Time) (created, skipped int, err error) {
	err = g.scope.Execute(ctx, func(repos ledger.Repositories) error {
		created, skipped = 0, 0
		if err := tpl.Validate(); err != nil {
			return err
		}
		apartments, err := repos.Apartments().ListActive(ctx, tc)
		if err != nil {
			return err
		}
		for _, apt := range tpl.TargetApartments(apartments) {
			key := ledger.ChargeKey{
				ApartmentID: apt.ID,
				AccountID:   tpl.AccountID,
				Period:      period.String(),
				ChargeType:  ledger.ChargeTypeAidat,
			}
			exists, err := repos.Charges().Exists(ctx, tc, key)
			if err != nil {
				return err
			}
			if exists {
				skipped++
				continue
			}
			c, err := tpl.NewCharge(apt.ID, period)
			if err != nil {
				return err
			}
			c.RefreshStatus(today)
			ok, err := repos.Charges().CreateIfAbsent(ctx, tc, c)
			if err != nil {
				return err
			}
			if ok {
				created++
			} else {
				skipped++
			}
		}
		tpl.MarkGenerated(period)
		return repos.Templates().SaveAidatProgress(ctx, tc, tpl)
	})
	if err != nil {
		return 0, 0, err
	}
	return created, skipped, nil
}

// GenerateRecurringExpenses creates one expense for every active expense
// template whose interval has elapsed. A template produces at most one
// expense per interval no matter how often this runs.
func (g *TemplateGenerator) GenerateRecurringExpenses(ctx context.Context) (*GenerationReport, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "template_generator", "generate_recurring_expenses",
		telemetry.WithAttribute(telemetry.SpanAttrJob, JobRecurringExpenses))
	defer span.End()

	release, err := g.acquire(ctx, JobRecurringExpenses)
	if err != nil {
		return nil, err
	}
	defer release()

	now := g.opts.now()
	report := &GenerationReport{Job: JobRecurringExpenses, Period: valueobject.PeriodOf(now).String()}
	sites, err := g.repos.Sites().ListActive(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, shared.NewFatalError("GENERATION_FAILED", "Could not list active sites", err)
	}

	for _, st := range sites {
		report.Sites++
		tc := site.SystemContext(st.ID)
		templates, err := g.repos.Templates().ListActiveExpense(ctx, tc)
		if err != nil {
			g.fail(report, st.ID, uuid.Nil, "", err)
			continue
		}
		for i := range templates {
			tpl := &templates[i]
			if !tpl.IsDue(now) {
				report.Skipped++
				continue
			}
			created, err := g.expandExpense(ctx, tc, tpl, now)
			if err != nil {
				g.fail(report, st.ID, tpl.ID, tpl.Name, err)
				continue
			}
			if created {
				report.Created++
			} else {
				report.Skipped++
			}
		}
	}

	g.finish(report)
	if err := report.Err(); err != nil {
		telemetry.RecordError(span, err)
		return report, err
	}
	return report, nil
}

// expandExpense inserts the expense and advances the watermark together.
// Reports false when a concurrent run already advanced it.
func (g *TemplateGenerator) expandExpense(ctx context.Context, tc site.TenantContext, tpl *ledger.TemplateExpense, now time.Time) (bool, error) {
	created := false
	err := g.scope.Execute(ctx, func(repos ledger.Repositories) error {
		if err := tpl.Validate(); err != nil {
			return err
		}
		e, err := tpl.NewExpense(now)
		if err != nil {
			return err
		}
		advanced, err := repos.Templates().AdvanceExpenseWatermark(ctx, tc, tpl.ID, tpl.LastGeneratedAt, now.UTC())
		if err != nil {
			return err
		}
		if !advanced {
			return nil
		}
		if err := repos.Expenses().Create(ctx, tc, e); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// acquire takes the run lock of job and returns its release func
func (g *TemplateGenerator) acquire(ctx context.Context, job string) (func(), error) {
	if g.lock == nil {
		return func() {}, nil
	}
	release, ok, err := g.lock.TryAcquire(ctx, job, g.lockTTL)
	if err != nil {
		return nil, shared.NewFatalError("RUN_LOCK_FAILED", "Could not acquire run lock for "+job, err)
	}
	if !ok {
		g.logger.Warn("Generation already running, skipping", zap.String("job", job))
		return nil, shared.ErrRunInProgress
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn("Failed to release run lock", zap.String("job", job), zap.Error(err))
		}
	}, nil
}

func (g *TemplateGenerator) fail(report *GenerationReport, siteID, templateID uuid.UUID, name string, err error) {
	report.Failures = append(report.Failures, TemplateFailure{SiteID: siteID, TemplateID: templateID, Name: name, Err: err})
	g.logger.Error("Template generation failed",
		zap.String("job", report.Job),
		zap.String("site_id", siteID.String()),
		zap.String("template_id", templateID.String()),
		zap.String("template", name),
		zap.Error(err),
	)
}

func (g *TemplateGenerator) finish(report *GenerationReport) {
	g.metrics.RecordGeneration(report.Job, report.Created, report.Skipped, len(report.Failures))
	g.logger.Info("Generation finished",
		zap.String("job", report.Job),
		zap.String("period", report.Period),
		zap.Int("sites", report.Sites),
		zap.Int("created", report.Created),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failures)),
	)
}
