package scheduler

import (
	"context"
	"testing"
	"time"

	ledgerapp "github.com/sitemanager/backend/internal/application/ledger"
	"github.com/sitemanager/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) GenerateMonthlyCharges(ctx context.Context, period string) (*ledgerapp.GenerationReport, error) {
	args := m.Called(ctx, period)
	report, _ := args.Get(0).(*ledgerapp.GenerationReport)
	return report, args.Error(1)
}

func (m *MockGenerator) GenerateRecurringExpenses(ctx context.Context) (*ledgerapp.GenerationReport, error) {
	args := m.Called(ctx)
	report, _ := args.Get(0).(*ledgerapp.GenerationReport)
	return report, args.Error(1)
}

func TestGenerationJobs(t *testing.T) {
	cfg := config.SchedulerConfig{
		MonthlyChargesDay: 1, MonthlyChargesHour: 2,
		RecurringExpensesDay: 3, RecurringExpensesHour: 4, RecurringExpensesMinute: 30,
	}
	gen := new(MockGenerator)
	gen.On("GenerateMonthlyCharges", mock.Anything, "2025-03").
		Return(&ledgerapp.GenerationReport{Job: ledgerapp.JobMonthlyCharges, Created: 3}, nil).Once()
	gen.On("GenerateRecurringExpenses", mock.Anything).
		Return(&ledgerapp.GenerationReport{Job: ledgerapp.JobRecurringExpenses}, nil).Once()

	jobs := GenerationJobs(gen, cfg)
	require.Len(t, jobs, 2)
	assert.Equal(t, ledgerapp.JobMonthlyCharges, jobs[0].Name)
	assert.Equal(t, ledgerapp.JobRecurringExpenses, jobs[1].Name)
	assert.Equal(t, 30, jobs[1].Minute)

	clock := &fakeClock{now: time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)}
	trig := newTrigger(t, clock, zap.NewNop(), jobs...)

	trig.checkAndTrigger(context.Background())
	gen.AssertNumberOfCalls(t, "GenerateMonthlyCharges", 1)
	gen.AssertNumberOfCalls(t, "GenerateRecurringExpenses", 0)

	clock.Set(time.Date(2025, 3, 3, 4, 30, 0, 0, time.UTC))
	trig.checkAndTrigger(context.Background())
	gen.AssertExpectations(t)
}
