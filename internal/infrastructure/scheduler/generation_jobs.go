package scheduler

import (
	"context"
	"time"

	ledgerapp "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/domain/shared/valueobject"
	"github.com/sitemanager/backend/internal/infrastructure/config"
)

// Generator is the part of the template generator the scheduler drives
type Generator interface {
	GenerateMonthlyCharges(ctx context.Context, period string) (*ledgerapp.GenerationReport, error)
	GenerateRecurringExpenses(ctx context.Context) (*ledgerapp.GenerationReport, error)
}

// GenerationJobs builds the two monthly jobs from scheduler configuration.
// Monthly charges are generated for the month the trigger fires in.
func GenerationJobs(gen Generator, cfg config.SchedulerConfig) []MonthlyJob {
	return []MonthlyJob{
		{
			Name:   ledgerapp.JobMonthlyCharges,
			Day:    cfg.MonthlyChargesDay,
			Hour:   cfg.MonthlyChargesHour,
			Minute: cfg.MonthlyChargesMinute,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := gen.GenerateMonthlyCharges(ctx, valueobject.PeriodOf(now).String())
				return err
			},
		},
		{
			Name:   ledgerapp.JobRecurringExpenses,
			Day:    cfg.RecurringExpensesDay,
			Hour:   cfg.RecurringExpensesHour,
			Minute: cfg.RecurringExpensesMinute,
			Run: func(ctx context.Context, _ time.Time) error {
				_, err := gen.GenerateRecurringExpenses(ctx)
				return err
			},
		},
	}
}
