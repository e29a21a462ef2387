package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/application/dto"
	"github.com/vsinha/drumsched/pkg/application/services/availability"
	"github.com/vsinha/drumsched/pkg/application/services/feasibility"
	"github.com/vsinha/drumsched/pkg/application/services/procurement"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
	"github.com/vsinha/drumsched/pkg/domain/services"
	"github.com/vsinha/drumsched/pkg/infrastructure/locks"
)

const (
	DefaultArrivalLookaheadDays = 14
	DefaultCallTimeout          = 10 * time.Second
)

// Config contains scheduler configuration
type Config struct {
	DailyCapacity        entities.Drums
	CapacityOverrides    map[string]entities.Drums
	ResolverTimeout      time.Duration
	ResolverConcurrency  int
	ArrivalLookaheadDays int
	CallTimeout          time.Duration
}

// DefaultConfig returns the plant defaults
func DefaultConfig() Config {
	return Config{
		DailyCapacity:        entities.DefaultDailyCapacity,
		ResolverTimeout:      availability.DefaultTimeout,
		ResolverConcurrency:  feasibility.DefaultConcurrency,
		ArrivalLookaheadDays: DefaultArrivalLookaheadDays,
		CallTimeout:          DefaultCallTimeout,
	}
}

// Dependencies are the collaborators the scheduler works against
type Dependencies struct {
	JobOrders      repositories.JobOrderRepository
	Inventory      repositories.InventoryRepository
	PurchaseOrders repositories.PurchaseOrderRepository
	Procurement    repositories.ProcurementRepository
	MasterData     repositories.MasterDataRepository
	Schedules      repositories.ScheduleRepository
	Locker         WeekLocker
	Logger         *zap.Logger
	Clock          func() time.Time
}

// Scheduler plans, evaluates and commits weekly drum production
type Scheduler struct {
	jobOrders      repositories.JobOrderRepository
	inventory      repositories.InventoryRepository
	purchaseOrders repositories.PurchaseOrderRepository
	procurement    repositories.ProcurementRepository
	schedules      repositories.ScheduleRepository
	calendar       *services.CapacityCalendar
	builder        *CampaignBuilder
	evaluator      *feasibility.Evaluator
	suggester      *procurement.Suggester
	locker         WeekLocker
	config         Config
	logger         *zap.Logger
	now            func() time.Time
}

var _ ScheduleService = (*Scheduler)(nil)

// NewScheduler creates a new weekly scheduler
func NewScheduler(deps Dependencies, config Config) (*Scheduler, error) {
	switch {
	case deps.JobOrders == nil:
		return nil, fmt.Errorf("job order repository is required")
	case deps.Inventory == nil:
		return nil, fmt.Errorf("inventory repository is required")
	case deps.PurchaseOrders == nil:
		return nil, fmt.Errorf("purchase order repository is required")
	case deps.Procurement == nil:
		return nil, fmt.Errorf("procurement repository is required")
	case deps.MasterData == nil:
		return nil, fmt.Errorf("master data repository is required")
	case deps.Schedules == nil:
		return nil, fmt.Errorf("schedule repository is required")
	}

	defaults := DefaultConfig()
	if config.DailyCapacity <= 0 {
		config.DailyCapacity = defaults.DailyCapacity
	}
	if config.ArrivalLookaheadDays < 0 {
		config.ArrivalLookaheadDays = 0
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaults.CallTimeout
	}

	calendar, err := services.NewCapacityCalendar(config.DailyCapacity, config.CapacityOverrides)
	if err != nil {
		return nil, fmt.Errorf("failed to build capacity calendar: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	locker := deps.Locker
	if locker == nil {
		locker = locks.NewMemoryLocker()
	}
	now := deps.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	resolver := availability.NewResolver(
		deps.Inventory,
		deps.PurchaseOrders,
		availability.Config{Timeout: config.ResolverTimeout},
		logger.Named("resolver"),
	)
	evaluator := feasibility.NewEvaluator(
		resolver,
		feasibility.Config{Concurrency: config.ResolverConcurrency},
		logger.Named("feasibility"),
	)
	explosion := services.NewRequirementExplosion(deps.MasterData)

	return &Scheduler{
		jobOrders:      deps.JobOrders,
		inventory:      deps.Inventory,
		purchaseOrders: deps.PurchaseOrders,
		procurement:    deps.Procurement,
		schedules:      deps.Schedules,
		calendar:       calendar,
		builder:        NewCampaignBuilder(explosion, logger),
		evaluator:      evaluator,
		suggester:      procurement.NewSuggester(logger),
		locker:         locker,
		config:         config,
		logger:         logger,
		now:            now,
	}, nil
}

// Regenerate rebuilds the week from current demand and material
func (s *Scheduler) Regenerate(ctx context.Context, weekStart time.Time) (*dto.ScheduleResult, error) {
	if err := entities.ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	weekStart = entities.DateOnly(weekStart)
	key := entities.WeekKey(weekStart)

	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.loadWeek(ctx, weekStart)
	switch {
	case errors.Is(err, entities.ErrWeekNotFound):
	case err != nil:
		return nil, err
	case existing.IsApproved():
		return nil, fmt.Errorf("week %s: %w", key, entities.ErrAlreadyApproved)
	}

	// Pass 1: consolidate demand into campaigns
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	lines, err := s.jobOrders.GetProductionEligibleLines(callCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to get job order lines: %w", err)
	}

	built, err := s.builder.Build(ctx, weekStart, lines)
	if err != nil {
		return nil, err
	}

	// Pass 2: place campaigns on days
	days, err := s.calendar.Days(weekStart)
	if err != nil {
		return nil, err
	}
	placements := PlaceCampaigns(days, built.Campaigns)

	// Pass 3: evaluate material in production order
	campaigns := make([]*entities.Campaign, len(placements))
	for i, p := range placements {
		p.Campaign.SetRequiredBy(p.Date)
		campaigns[i] = p.Campaign
	}
	results, err := s.evaluator.EvaluateAll(ctx, campaigns)
	if err != nil {
		return nil, err
	}

	week, issues := s.assembleWeek(weekStart, placements, results, built.Unplanned)

	// Pass 4: swap the week in one write
	saveCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	err = s.schedules.SaveWeek(saveCtx, week)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to save week %s: %w", key, err)
	}

	// Pass 5: propose procurement for confirmed shortages
	requisitions, warnings := s.submitSuggestions(ctx, week)

	ready, blocked, over := week.Counts()
	result := &dto.ScheduleResult{
		Week:              week,
		ReadyCount:        ready,
		BlockedCount:      blocked,
		OverCapacityCount: over,
		Unplanned:         week.Unplanned,
		Requisitions:      requisitions,
		Issues:            issues,
		Warnings:          warnings,
	}
	result.Summary = fmt.Sprintf(
		"Week %s: %d campaign day(s) scheduled (%d ready, %d blocked, %d over capacity), %d unplanned, %d requisition(s) submitted",
		key, len(week.Days), ready, blocked, over, len(week.Unplanned), len(requisitions),
	)

	s.logger.Info("week regenerated",
		zap.String("week_start", key),
		zap.String("status", string(week.Status)),
		zap.Int("ready", ready),
		zap.Int("blocked", blocked),
		zap.Int("over_capacity", over),
		zap.Int("unplanned", len(week.Unplanned)),
	)
	return result, nil
}

func (s *Scheduler) assembleWeek(
	weekStart time.Time,
	placements []Placement,
	results []*feasibility.Result,
	unplanned []entities.UnplannedCampaign,
) (*entities.WeekSchedule, []string) {
	week := &entities.WeekSchedule{
		WeekStart:     weekStart,
		DailyCapacity: s.calendar.DefaultCapacity(),
		Status:        entities.WeekDraft,
		Campaigns:     make([]entities.Campaign, 0, len(placements)),
		Days:          make([]entities.ScheduleDay, 0, len(placements)),
		Unplanned:     unplanned,
		GeneratedAt:   s.now(),
	}
	if overrides := s.calendar.Overrides(); len(overrides) > 0 {
		week.CapacityOverrides = overrides
	}

	issues := make([]string, 0)
	for i, p := range placements {
		result := results[i]
		campaign := p.Campaign
		campaign.Requirements = result.Requirements

		day := entities.ScheduleDay{
			ID:               entities.ScheduleDayID(campaign.ID, p.Date),
			Date:             p.Date,
			CampaignID:       campaign.ID,
			ProductID:        campaign.ProductID,
			PackagingID:      campaign.PackagingID,
			PlannedDrums:     campaign.PlannedDrums,
			CapacityExceeded: !p.Fits,
			Shortages:        result.Shortages,
		}
		switch {
		case !result.Ready():
			day.Status = entities.DayBlocked
			day.BlockingReason = entities.ReasonMaterialShortage
		case !p.Fits:
			day.Status = entities.DayOverCapacity
			day.BlockingReason = entities.ReasonCapacityExceeded
		default:
			day.Status = entities.DayReady
			day.BlockingReason = entities.ReasonNone
		}

		for _, degraded := range result.Degraded {
			issues = append(issues, fmt.Sprintf("%s %s/%s: %v",
				entities.FormatDate(p.Date), campaign.ProductID, campaign.PackagingID, degraded))
		}
		if !p.Fits {
			issues = append(issues, fmt.Sprintf("%s %s/%s: %v: %d drums do not fit any day",
				entities.FormatDate(p.Date), campaign.ProductID, campaign.PackagingID,
				entities.ErrCapacityExceeded, campaign.PlannedDrums))
		}

		week.Campaigns = append(week.Campaigns, *campaign)
		week.Days = append(week.Days, day)
	}

	// every campaign on an over-full date carries the flag
	for i := range week.Days {
		if week.PlannedOn(week.Days[i].Date) > s.calendar.CapacityOn(week.Days[i].Date) {
			week.Days[i].CapacityExceeded = true
		}
	}

	week.RefreshStatus()
	return week, issues
}

func (s *Scheduler) submitSuggestions(
	ctx context.Context,
	week *entities.WeekSchedule,
) ([]entities.ProcurementRequisition, []string) {
	suggestions := s.suggester.Suggest(week.WeekStart, week.Campaigns)
	submitted := make([]entities.ProcurementRequisition, 0, len(suggestions))
	warnings := make([]string, 0)

	for i := range suggestions {
		callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
		id, err := s.procurement.SubmitRequisition(callCtx, &suggestions[i])
		cancel()
		if err != nil {
			s.logger.Warn("failed to submit requisition",
				zap.String("week_start", entities.WeekKey(week.WeekStart)),
				zap.Int("lines", len(suggestions[i].Lines)),
				zap.Error(err),
			)
			warnings = append(warnings, fmt.Sprintf("failed to submit requisition: %v", err))
			continue
		}
		suggestions[i].ID = id
		submitted = append(submitted, suggestions[i])
	}
	return submitted, warnings
}

// Approve commits material reservations for every day of a ready week
func (s *Scheduler) Approve(
	ctx context.Context,
	weekStart time.Time,
	opts ApproveOptions,
) (*dto.ApprovalResult, error) {
	if err := entities.ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	weekStart = entities.DateOnly(weekStart)
	key := entities.WeekKey(weekStart)

	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	week, err := s.loadWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	if week.IsApproved() {
		return nil, fmt.Errorf("week %s: %w", key, entities.ErrAlreadyApproved)
	}
	if notReady := week.NotReadyDays(opts.AcceptOverCapacity); len(notReady) > 0 {
		return nil, &entities.NotAllReadyError{WeekStart: weekStart, Days: notReady}
	}

	plan, err := s.planReservations(ctx, week)
	if err != nil {
		s.logger.Warn("approval refused", zap.String("week_start", key), zap.Error(err))
		return nil, err
	}
	reserved, err := s.reserve(ctx, weekStart, plan.stock)
	if err != nil {
		s.logger.Warn("approval rolled back", zap.String("week_start", key), zap.Error(err))
		return nil, err
	}
	reserved = append(reserved, plan.holds...)

	approvedAt := s.now()
	for i := range week.Days {
		week.Days[i].Status = entities.DayReserved
	}
	for i := range week.Campaigns {
		week.Campaigns[i].Status = entities.CampaignApproved
	}
	week.Status = entities.WeekApproved
	week.ApprovedAt = &approvedAt
	week.Reservations = reserved

	saveCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	err = s.schedules.SaveWeek(saveCtx, week)
	cancel()
	if err != nil {
		s.releaseAll(ctx, reserved)
		return nil, fmt.Errorf("failed to save approved week %s: %w", key, err)
	}

	s.logger.Info("week approved",
		zap.String("week_start", key),
		zap.Int("days", len(week.Days)),
		zap.Int("reservations", len(reserved)),
	)
	return &dto.ApprovalResult{
		Week:         week,
		Reservations: reserved,
		Summary:      fmt.Sprintf("Week %s approved: %d day(s) reserved, %d reservation(s)", key, len(week.Days), len(reserved)),
	}, nil
}

// reserve is all-or-nothing: batch when inventory supports it, otherwise
// sequential with compensation
func (s *Scheduler) reserve(
	ctx context.Context,
	weekStart time.Time,
	reqs []entities.ReservationRequest,
) ([]entities.Reservation, error) {
	if len(reqs) == 0 {
		return []entities.Reservation{}, nil
	}

	if batch, ok := s.inventory.(repositories.BatchReserver); ok {
		callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
		defer cancel()
		reserved, err := batch.ReserveAll(callCtx, reqs)
		if err != nil {
			return nil, conflictError(weekStart, err, nil)
		}
		return reserved, nil
	}

	applied := make([]entities.Reservation, 0, len(reqs))
	for i := range reqs {
		callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
		res, err := s.inventory.Reserve(callCtx, reqs[i])
		cancel()
		if err != nil {
			s.releaseAll(ctx, applied)
			return nil, conflictError(weekStart, err, &reqs[i])
		}
		applied = append(applied, *res)
	}
	return applied, nil
}

func conflictError(weekStart time.Time, err error, req *entities.ReservationRequest) error {
	var conflict *entities.ReservationConflictError
	if errors.As(err, &conflict) {
		out := *conflict
		out.WeekStart = weekStart
		return &out
	}
	out := &entities.ReservationConflictError{WeekStart: weekStart, Cause: err}
	if req != nil {
		out.CampaignID = req.CampaignID
		out.ItemID = req.ItemID
		out.Quantity = req.Quantity
	}
	return out
}

// releaseAll runs even when ctx is already cancelled
func (s *Scheduler) releaseAll(ctx context.Context, reservations []entities.Reservation) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CallTimeout)
	defer cancel()

	for _, res := range reservations {
		if res.IsHold() {
			continue
		}
		if err := s.inventory.Release(releaseCtx, res.ID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			s.logger.Error("failed to release reservation",
				zap.String("reservation_id", res.ID),
				zap.String("item_id", string(res.ItemID)),
				zap.Error(err),
			)
		}
	}
}

// Reopen releases an approved week's reservations and returns it to draft
func (s *Scheduler) Reopen(ctx context.Context, weekStart time.Time) (*dto.ReopenResult, error) {
	if err := entities.ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	weekStart = entities.DateOnly(weekStart)
	key := entities.WeekKey(weekStart)

	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	week, err := s.loadWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	if !week.IsApproved() {
		return nil, fmt.Errorf("week %s: %w", key, entities.ErrNotApproved)
	}

	// release everything that can be released; whatever is still held stays
	// on the approved week so a later reopen retries it
	released := 0
	held := make([]entities.Reservation, 0)
	failures := make([]error, 0)
	for _, res := range week.Reservations {
		if res.IsHold() {
			released++
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
		err := s.inventory.Release(callCtx, res.ID)
		cancel()
		switch {
		case err == nil:
			released++
		case errors.Is(err, repositories.ErrNotFound):
		default:
			held = append(held, res)
			failures = append(failures, fmt.Errorf("failed to release reservation %s: %w", res.ID, err))
		}
	}
	if len(failures) > 0 {
		return nil, s.keepUnreleased(ctx, week, held, failures)
	}

	for i := range week.Days {
		day := &week.Days[i]
		if day.BlockingReason == entities.ReasonCapacityExceeded {
			day.Status = entities.DayOverCapacity
		} else {
			day.Status = entities.DayReady
		}
	}
	for i := range week.Campaigns {
		week.Campaigns[i].Status = entities.CampaignDraft
	}
	week.Status = entities.WeekDraft
	week.Reservations = nil
	week.ApprovedAt = nil

	saveCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	err = s.schedules.SaveWeek(saveCtx, week)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to save reopened week %s: %w", key, err)
	}

	s.logger.Info("week reopened", zap.String("week_start", key), zap.Int("released", released))
	return &dto.ReopenResult{Week: week, Released: released}, nil
}

// keepUnreleased stores an approved week that only lists the reservations
// inventory still holds, with the purchase holds kept alongside them
func (s *Scheduler) keepUnreleased(
	ctx context.Context,
	week *entities.WeekSchedule,
	held []entities.Reservation,
	failures []error,
) error {
	key := entities.WeekKey(week.WeekStart)
	stuck := len(held)
	for _, res := range week.Reservations {
		if res.IsHold() {
			held = append(held, res)
		}
	}
	total := len(week.Reservations)
	week.Reservations = held

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.CallTimeout)
	err := s.schedules.SaveWeek(saveCtx, week)
	cancel()
	if err != nil {
		failures = append(failures, fmt.Errorf("failed to save week %s: %w", key, err))
	}

	s.logger.Error("week reopen incomplete",
		zap.String("week_start", key),
		zap.Int("reservations", total),
		zap.Int("still_held", stuck),
		zap.Errors("errors", failures),
	)
	return fmt.Errorf("week %s: %d of %d reservations could not be released: %w",
		key, stuck, total, errors.Join(failures...))
}

// GetSchedule returns the stored week
func (s *Scheduler) GetSchedule(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error) {
	if err := entities.ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	return s.loadWeek(ctx, entities.DateOnly(weekStart))
}

// GetArrivals lists open purchase lines for every item the week needs
func (s *Scheduler) GetArrivals(ctx context.Context, weekStart time.Time) (*dto.ArrivalsResult, error) {
	if err := entities.ValidateWeekStart(weekStart); err != nil {
		return nil, err
	}
	weekStart = entities.DateOnly(weekStart)

	week, err := s.loadWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	earliest := make(map[entities.ItemID]time.Time)
	for _, campaign := range week.Campaigns {
		for _, r := range campaign.Requirements {
			if at, ok := earliest[r.ItemID]; !ok || r.RequiredBy.Before(at) {
				earliest[r.ItemID] = r.RequiredBy
			}
		}
	}
	items := make([]entities.ItemID, 0, len(earliest))
	for item := range earliest {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })

	horizon := entities.WeekEnd(weekStart).AddDate(0, 0, s.config.ArrivalLookaheadDays)
	result := &dto.ArrivalsResult{
		WeekStart: entities.WeekKey(weekStart),
		Arrivals:  make([]entities.ArrivalRecord, 0),
	}
	for _, item := range items {
		callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
		lines, err := s.purchaseOrders.GetOpenLines(callCtx, item, horizon)
		cancel()
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to get open PO lines for %s: %w", item, err)
		}
		for _, line := range lines {
			arrival := entities.NewArrivalRecord(line, earliest[item])
			if !arrival.InTime {
				result.Late++
			}
			result.Arrivals = append(result.Arrivals, arrival)
		}
	}
	return result, nil
}

func (s *Scheduler) loadWeek(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.config.CallTimeout)
	defer cancel()
	return s.schedules.GetWeek(callCtx, weekStart)
}
