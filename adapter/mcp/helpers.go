package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/teampulse/internal/performance/application"
)

func parseUUID(value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.UUID{}, errors.New("id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("invalid id: %w", err)
	}
	return id, nil
}

// parseFilter defaults to today in UTC when no date is given.
func parseFilter(input refreshInput, now time.Time) (application.Filter, error) {
	switch {
	case input.From != "" || input.To != "":
		if input.Date != "" {
			return application.Filter{}, errors.New("use either date or from/to")
		}
		if input.From == "" || input.To == "" {
			return application.Filter{}, errors.New("from and to must be given together")
		}
		return application.ParseFilter(input.From, input.To, time.UTC)
	case input.Date != "":
		return application.ParseFilter(input.Date, "", time.UTC)
	default:
		day := now.UTC()
		return application.DateFilter(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)), nil
	}
}
