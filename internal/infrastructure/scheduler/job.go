package scheduler

import (
	"context"
	"fmt"
	"time"
)

// MonthlyJob runs once per calendar month, at Day Hour:Minute in the trigger's location.
type MonthlyJob struct {
	Name   string
	Day    int // 1..28
	Hour   int
	Minute int
	Run    func(ctx context.Context, now time.Time) error
}

func (j MonthlyJob) validate() error {
	switch {
	case j.Name == "" || j.Run == nil:
		return fmt.Errorf("%w: name and run func are required", ErrInvalidJob)
	case j.Day < 1 || j.Day > 28:
		return fmt.Errorf("%w: %s day %d outside 1..28", ErrInvalidJob, j.Name, j.Day)
	case j.Hour < 0 || j.Hour > 23 || j.Minute < 0 || j.Minute > 59:
		return fmt.Errorf("%w: %s time %02d:%02d", ErrInvalidJob, j.Name, j.Hour, j.Minute)
	}
	return nil
}

// dueAt reports whether the job should fire at now. A job fires on its day
// once the scheduled time has passed, so a missed tick still triggers it later that day.
func (j MonthlyJob) dueAt(now time.Time) bool {
	if now.Day() != j.Day {
		return false
	}
	return now.Hour()*60+now.Minute() >= j.Hour*60+j.Minute
}

func monthKey(t time.Time) string {
	return t.Format("2006-01")
}
