package application

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
)

// DateLayout is the calendar-date format used in filters and cache keys.
const DateLayout = "2006-01-02"

// Filter selects the analytics window: a single day, or an inclusive range of
// days when End is set.
type Filter struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitempty"`
}

// DateFilter selects one calendar day.
func DateFilter(day time.Time) Filter {
	return Filter{Start: day}
}

// RangeFilter selects the days from start through end, both inclusive.
func RangeFilter(start, end time.Time) Filter {
	return Filter{Start: start, End: end}
}

// ParseFilter builds a filter from YYYY-MM-DD strings. An empty end selects
// the single day start.
func ParseFilter(start, end string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	s, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: start %q: %v", domain.ErrInvalidFilter, start, err)
	}
	if end == "" {
		return DateFilter(s), nil
	}
	e, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return Filter{}, fmt.Errorf("%w: end %q: %v", domain.ErrInvalidFilter, end, err)
	}
	f := RangeFilter(s, e)
	return f, f.Validate()
}

// IsRange reports whether the filter spans an explicit date range.
func (f Filter) IsRange() bool {
	return !f.End.IsZero()
}

// Validate rejects filters without a start day or with an inverted range.
func (f Filter) Validate() error {
	if f.Start.IsZero() {
		return fmt.Errorf("%w: missing date", domain.ErrInvalidFilter)
	}
	if f.IsRange() && f.End.Format(DateLayout) < f.Start.Format(DateLayout) {
		return fmt.Errorf("%w: end %s is before start %s",
			domain.ErrInvalidFilter, f.End.Format(DateLayout), f.Start.Format(DateLayout))
	}
	return nil
}

// CacheKey identifies the filter in the result cache:
// "date:YYYY-MM-DD" or "range:YYYY-MM-DD:YYYY-MM-DD".
func (f Filter) CacheKey() string {
	if f.IsRange() {
		return "range:" + f.Start.Format(DateLayout) + ":" + f.End.Format(DateLayout)
	}
	return "date:" + f.Start.Format(DateLayout)
}

// Window returns the half-open period covered by the filter.
func (f Filter) Window() domain.Period {
	if f.IsRange() {
		return domain.RangePeriod(f.Start, f.End)
	}
	return domain.DayPeriod(f.Start)
}

func (f Filter) String() string {
	return f.CacheKey()
}
