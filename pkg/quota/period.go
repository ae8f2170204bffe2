package quota

import (
	"fmt"
	"time"
)

// PeriodLayout formats a period key. It sorts lexicographically.
const PeriodLayout = "2006-01"

// PeriodOf returns the UTC calendar month of t as "YYYY-MM".
func PeriodOf(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// PeriodBounds returns the first instant of the period and of the next one.
func PeriodBounds(period string) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(PeriodLayout, period, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// NextPeriodStart is when counters for the period containing t reset.
func NextPeriodStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
