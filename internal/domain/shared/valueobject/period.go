package valueobject

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Period is a calendar month identified as YYYY-MM
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a YYYY-MM string
func ParsePeriod(s string) (Period, error) {
	if !periodPattern.MatchString(s) {
		return Period{}, fmt.Errorf("period %q must match YYYY-MM", s)
	}
	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:])
	return Period{Year: year, Month: time.Month(month)}, nil
}

// PeriodOf returns the calendar month containing t
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// String formats the period as YYYY-MM
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Day returns midnight UTC of the given day within the period.
// Days past the end of the month are clamped to the last day.
func (p Period) Day(day int) time.Time {
	last := time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day < 1 {
		day = 1
	}
	if day > last {
		day = last
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// Index returns a monotonically increasing month number
func (p Period) Index() int {
	return p.Year*12 + int(p.Month) - 1
}

// MonthsSince returns the number of calendar months from earlier to p
func (p Period) MonthsSince(earlier Period) int {
	return p.Index() - earlier.Index()
}

// DateOnly truncates t to midnight UTC of its calendar date
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
