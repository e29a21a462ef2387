package entities

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidDate         = errors.New("invalid date")
	ErrResolverDegraded    = errors.New("availability resolver degraded")
	ErrCapacityExceeded    = errors.New("daily capacity exceeded")
	ErrNotAllReady         = errors.New("not all schedule days are ready")
	ErrAlreadyApproved     = errors.New("week schedule already approved")
	ErrNotApproved         = errors.New("week schedule is not approved")
	ErrReservationConflict = errors.New("material reservation conflict")
	ErrWeekNotFound        = errors.New("week schedule not found")
	ErrBOMMissing          = errors.New("bill of materials missing")
	ErrConversionMissing   = errors.New("net weight conversion missing")
	ErrCampaignLocked      = errors.New("campaign is approved and can no longer change")
	ErrInsufficientStock   = errors.New("insufficient stock")
)

// DayRef identifies a schedule day that blocks an operation
type DayRef struct {
	Date           time.Time      `json:"date"`
	CampaignID     string         `json:"campaign_id"`
	Status         DayStatus      `json:"status"`
	BlockingReason BlockingReason `json:"blocking_reason"`
}

// NotAllReadyError is returned when approval finds days that are not READY
type NotAllReadyError struct {
	WeekStart time.Time
	Days      []DayRef
}

func (e *NotAllReadyError) Error() string {
	parts := make([]string, 0, len(e.Days))
	for _, d := range e.Days {
		parts = append(parts, fmt.Sprintf("%s %s (%s)", FormatDate(d.Date), d.Status, d.BlockingReason))
	}
	return fmt.Sprintf("week %s: %d schedule days are not ready: %s",
		FormatDate(e.WeekStart), len(e.Days), strings.Join(parts, ", "))
}

func (e *NotAllReadyError) Unwrap() error {
	return ErrNotAllReady
}

// ReservationConflictError is returned when approval cannot reserve material
type ReservationConflictError struct {
	WeekStart  time.Time
	CampaignID string
	ItemID     ItemID
	Quantity   decimal.Decimal
	Cause      error
}

func (e *ReservationConflictError) Error() string {
	return fmt.Sprintf("week %s: failed to reserve %s of %s for campaign %s: %v",
		FormatDate(e.WeekStart), e.Quantity.String(), e.ItemID, e.CampaignID, e.Cause)
}

func (e *ReservationConflictError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrReservationConflict}
	}
	return []error{ErrReservationConflict, e.Cause}
}
