package shared

import (
	"time"
)

// Period is a closed billing date range [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod builds a Period from YYYY-MM-DD bounds.
func ParsePeriod(start, end string) (Period, error) {
	s, err := time.Parse("2006-01-02", start)
	if err != nil {
		return Period{}, ValidationError("invalid period_start: %v", err)
	}
	e, err := time.Parse("2006-01-02", end)
	if err != nil {
		return Period{}, ValidationError("invalid period_end: %v", err)
	}
	p := Period{Start: s, End: e}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Validate checks period bounds ordering.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ValidationError("period bounds are required")
	}
	if p.End.Before(p.Start) {
		return ValidationError("period_end must not precede period_start")
	}
	return nil
}

// Label renders the period for documents and emails, e.g. "January 2025".
func (p Period) Label() string {
	return p.Start.Format("January 2006")
}

// MonthOf returns the calendar month containing t as a Period.
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}
