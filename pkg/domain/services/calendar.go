package services

import (
	"fmt"
	"time"

	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// CalendarDay is one production date with its drum capacity
type CalendarDay struct {
	Date     time.Time
	Capacity entities.Drums
}

// CapacityCalendar yields the production days of a week
type CapacityCalendar struct {
	defaultCapacity entities.Drums
	overrides       map[string]entities.Drums
}

// NewCapacityCalendar creates a calendar with a default daily capacity and per-date overrides
func NewCapacityCalendar(defaultCapacity entities.Drums, overrides map[string]entities.Drums) (*CapacityCalendar, error) {
	if defaultCapacity <= 0 {
		return nil, fmt.Errorf("daily capacity must be positive, got %d", defaultCapacity)
	}

	normalized := make(map[string]entities.Drums, len(overrides))
	for key, capacity := range overrides {
		date, err := entities.ParseDate(key)
		if err != nil {
			return nil, fmt.Errorf("capacity override: %w", err)
		}
		if capacity < 0 {
			return nil, fmt.Errorf("capacity override for %s cannot be negative, got %d", key, capacity)
		}
		normalized[entities.FormatDate(date)] = capacity
	}

	return &CapacityCalendar{
		defaultCapacity: defaultCapacity,
		overrides:       normalized,
	}, nil
}

// DefaultCapacity returns the capacity of days without an override
func (c *CapacityCalendar) DefaultCapacity() entities.Drums {
	return c.defaultCapacity
}

// Overrides returns a copy of the per-date capacity overrides
func (c *CapacityCalendar) Overrides() map[string]entities.Drums {
	out := make(map[string]entities.Drums, len(c.overrides))
	for k, v := range c.overrides {
		out[k] = v
	}
	return out
}

// CapacityOn returns the drum capacity of a date
func (c *CapacityCalendar) CapacityOn(date time.Time) entities.Drums {
	if capacity, ok := c.overrides[entities.FormatDate(date)]; ok {
		return capacity
	}
	return c.defaultCapacity
}

// Days returns Monday through Sunday of the week with their capacities
func (c *CapacityCalendar) Days(weekStart time.Time) ([]CalendarDay, error) {
	if err := entities.ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}

	start := entities.DateOnly(weekStart)
	days := make([]CalendarDay, 0, entities.DaysPerWeek)
	for i := 0; i < entities.DaysPerWeek; i++ {
		date := start.AddDate(0, 0, i)
		days = append(days, CalendarDay{Date: date, Capacity: c.CapacityOn(date)})
	}
	return days, nil
}
