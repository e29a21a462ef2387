package dto

import (
	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// ScheduleResult contains the complete output of a week regeneration
type ScheduleResult struct {
	Week              *entities.WeekSchedule            `json:"week"`
	ReadyCount        int                               `json:"ready_count"`
	BlockedCount      int                               `json:"blocked_count"`
	OverCapacityCount int                               `json:"over_capacity_count"`
	Summary           string                            `json:"summary"`
	Unplanned         []entities.UnplannedCampaign      `json:"unplanned"`
	Requisitions      []entities.ProcurementRequisition `json:"requisitions"`
	Issues            []string                          `json:"issues"`
	Warnings          []string                          `json:"warnings"`
}

// ApprovalResult contains the outcome of a successful week approval
type ApprovalResult struct {
	Week         *entities.WeekSchedule `json:"week"`
	Reservations []entities.Reservation `json:"reservations"`
	Summary      string                 `json:"summary"`
}

// ArrivalsResult lists expected purchase arrivals for a week's requirements
type ArrivalsResult struct {
	WeekStart string                   `json:"week_start"`
	Arrivals  []entities.ArrivalRecord `json:"arrivals"`
	Late      int                      `json:"late"`
}

// ReopenResult contains the outcome of returning an approved week to draft
type ReopenResult struct {
	Week     *entities.WeekSchedule `json:"week"`
	Released int                    `json:"released"`
}
