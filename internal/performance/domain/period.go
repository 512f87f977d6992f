package domain

import (
	"time"
)

// Period is a half-open time window [Start, End).
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// Duration returns the period length.
func (p Period) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// DayPeriod returns the calendar day containing t.
func DayPeriod(t time.Time) Period {
	start := startOfDay(t)
	return Period{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekPeriod returns the Monday-based calendar week containing t.
func WeekPeriod(t time.Time) Period {
	start := startOfDay(t)
	offset := (int(start.Weekday()) + 6) % 7
	start = start.AddDate(0, 0, -offset)
	return Period{Start: start, End: start.AddDate(0, 0, 7)}
}

// MonthPeriod returns the calendar month in the given location.
func MonthPeriod(year int, month time.Month, loc *time.Location) Period {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// RangePeriod returns the window covering whole days from start through endInclusive.
func RangePeriod(start, endInclusive time.Time) Period {
	s := startOfDay(start)
	e := startOfDay(endInclusive).AddDate(0, 0, 1)
	if e.Before(s) {
		s, e = startOfDay(endInclusive), startOfDay(start).AddDate(0, 0, 1)
	}
	return Period{Start: s, End: e}
}

// PreviousPeriod returns the window of equal length immediately before p.
func (p Period) PreviousPeriod() Period {
	return Period{Start: p.Start.Add(-p.Duration()), End: p.Start}
}

// Span returns the smallest period covering both p and q. A zero period is ignored.
func (p Period) Span(q Period) Period {
	switch {
	case p.IsZero():
		return q
	case q.IsZero():
		return p
	}
	out := p
	if q.Start.Before(out.Start) {
		out.Start = q.Start
	}
	if q.End.After(out.End) {
		out.End = q.End
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
