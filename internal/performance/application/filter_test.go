package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/teampulse/internal/performance/domain"
)

func TestFilter_CacheKey(t *testing.T) {
	assert.Equal(t, "date:2024-03-04", DateFilter(reportDay.Add(15*time.Hour)).CacheKey())
	assert.Equal(t, "range:2024-03-04:2024-03-10", RangeFilter(reportDay, reportDay.AddDate(0, 0, 6)).CacheKey())
	assert.Equal(t, DateFilter(reportDay).CacheKey(), DateFilter(reportDay).String())
}

func TestFilter_Window(t *testing.T) {
	day := DateFilter(reportDay.Add(9 * time.Hour)).Window()
	assert.Equal(t, reportDay, day.Start)
	assert.Equal(t, reportDay.AddDate(0, 0, 1), day.End)

	week := RangeFilter(reportDay, reportDay.AddDate(0, 0, 6)).Window()
	assert.Equal(t, reportDay, week.Start)
	assert.Equal(t, reportDay.AddDate(0, 0, 7), week.End, "range end day is inclusive")
}

func TestFilter_Validate(t *testing.T) {
	tests := []struct {
		name    string
		filter  Filter
		wantErr bool
	}{
		{"single day", DateFilter(reportDay), false},
		{"range", RangeFilter(reportDay, reportDay.AddDate(0, 0, 3)), false},
		{"same day range", RangeFilter(reportDay, reportDay.Add(5*time.Hour)), false},
		{"missing date", Filter{}, true},
		{"inverted range", RangeFilter(reportDay, reportDay.AddDate(0, 0, -1)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidFilter)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseFilter(t *testing.T) {
	t.Run("single day", func(t *testing.T) {
		f, err := ParseFilter("2024-03-04", "", nil)
		require.NoError(t, err)
		assert.False(t, f.IsRange())
		assert.Equal(t, reportDay, f.Start)
	})

	t.Run("range in location", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		f, err := ParseFilter("2024-03-04", "2024-03-10", loc)
		require.NoError(t, err)
		assert.True(t, f.IsRange())
		assert.Equal(t, loc, f.Start.Location())
		assert.Equal(t, "range:2024-03-04:2024-03-10", f.CacheKey())
	})

	t.Run("malformed start", func(t *testing.T) {
		_, err := ParseFilter("03/04/2024", "", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	})

	t.Run("malformed end", func(t *testing.T) {
		_, err := ParseFilter("2024-03-04", "next week", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := ParseFilter("2024-03-10", "2024-03-04", nil)
		assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	})
}
