package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/application/services/scheduler"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
	"github.com/vsinha/drumsched/pkg/infrastructure/config"
	"github.com/vsinha/drumsched/pkg/infrastructure/events"
	"github.com/vsinha/drumsched/pkg/infrastructure/locks"
	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/erpdb"
	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/drumsched/pkg/infrastructure/repositories/postgres"
)

var errNoSource = errors.New("no ERP source: pass --scenario or configure erp_database")

// Runtime is a fully wired scheduler with the resources it holds open
type Runtime struct {
	Service scheduler.ScheduleService
	Catalog repositories.MasterDataCatalog
	Events  *events.InMemoryEventStore

	closers []func() error
}

// Close releases connections in reverse order of opening
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SchedulerConfig converts the configured plant settings
func SchedulerConfig(c config.SchedulerConfig) scheduler.Config {
	overrides := make(map[string]entities.Drums, len(c.CapacityOverrides))
	for date, capacity := range c.CapacityOverrides {
		overrides[date] = entities.Drums(capacity)
	}
	return scheduler.Config{
		DailyCapacity:        entities.Drums(c.DailyCapacity),
		CapacityOverrides:    overrides,
		ResolverTimeout:      c.ResolverTimeout,
		ResolverConcurrency:  c.ResolverConcurrency,
		ArrivalLookaheadDays: c.ArrivalLookaheadDays,
		CallTimeout:          c.CallTimeout,
	}
}

// openRuntime wires collaborators from the scenario directory or the ERP
// database, the schedule store and the week locker
func (a *app) openRuntime(ctx context.Context) (*Runtime, error) {
	rt := &Runtime{}
	deps := scheduler.Dependencies{Logger: a.logger.Named("scheduler")}

	if err := a.openCollaborators(rt, &deps); err != nil {
		rt.Close()
		return nil, err
	}
	if err := a.openScheduleStore(rt, &deps); err != nil {
		rt.Close()
		return nil, err
	}
	if err := a.openLocker(ctx, rt, &deps); err != nil {
		rt.Close()
		return nil, err
	}

	svc, err := scheduler.NewScheduler(deps, SchedulerConfig(a.cfg.Scheduler))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	rt.Events = events.NewInMemoryEventStore(a.logger.Named("events"))
	if err := subscribeEventLog(rt.Events, a.logger); err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, func() error {
		rt.Events.Drain()
		return nil
	})
	rt.Service = scheduler.NewEventDrivenScheduler(svc, rt.Events, a.logger.Named("events"))

	return rt, nil
}

// subscribeEventLog logs every schedule event at INFO
func subscribeEventLog(store events.EventStore, logger *zap.Logger) error {
	err := store.Subscribe(scheduleEventTypes, &events.HandlerFunc{
		Types: scheduleEventTypes,
		Fn: func(e events.Event) error {
			logger.Info("schedule event",
				zap.String("type", e.Type()),
				zap.String("stream", e.StreamID()),
				zap.Int("version", e.Version()))
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to schedule events: %w", err)
	}
	return nil
}

var scheduleEventTypes = []string{
	events.ScheduleRegeneratedEvent,
	events.ShortageIdentifiedEvent,
	events.RequisitionSuggestedEvent,
	events.WeekApprovedEvent,
	events.ApprovalRejectedEvent,
	events.WeekReopenedEvent,
}

func (a *app) openCollaborators(rt *Runtime, deps *scheduler.Dependencies) error {
	if a.opts.ScenarioDir != "" {
		a.logger.Debug("loading scenario", zap.String("dir", a.opts.ScenarioDir))
		ds, err := csv.NewLoader().LoadScenario(a.opts.ScenarioDir)
		if err != nil {
			return fmt.Errorf("failed to load scenario: %w", err)
		}
		deps.MasterData = ds.MasterData
		deps.Inventory = ds.Inventory
		deps.PurchaseOrders = ds.PurchaseOrders
		deps.JobOrders = ds.JobOrders
		deps.Procurement = memory.NewProcurementRepository()
		rt.Catalog = ds.MasterData
		return nil
	}

	if !a.cfg.ERPDatabase.Enabled() {
		return errNoSource
	}
	db, err := erpdb.Open(a.cfg.ERPDatabase)
	if err != nil {
		return err
	}
	rt.closers = append(rt.closers, db.Close)

	storage := erpdb.NewStorage(db)
	deps.MasterData = storage.MasterData
	deps.Inventory = storage.Inventory
	deps.PurchaseOrders = storage.PurchaseOrders
	deps.JobOrders = storage.JobOrders
	deps.Procurement = storage.Procurement
	rt.Catalog = storage.MasterData
	return nil
}

func (a *app) openScheduleStore(rt *Runtime, deps *scheduler.Dependencies) error {
	if !a.cfg.Database.Enabled() {
		a.logger.Debug("schedule store not configured, keeping weeks in memory")
		deps.Schedules = memory.NewScheduleRepository()
		return nil
	}

	db, err := postgres.Open(a.cfg.Database)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get schedule database handle: %w", err)
	}
	rt.closers = append(rt.closers, sqlDB.Close)

	store, err := postgres.NewScheduleStore(db, a.logger.Named("schedules"))
	if err != nil {
		return err
	}
	deps.Schedules = store
	return nil
}

func (a *app) openLocker(ctx context.Context, rt *Runtime, deps *scheduler.Dependencies) error {
	if !a.cfg.Redis.Enabled() {
		deps.Locker = locks.NewMemoryLocker()
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr(),
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
		PoolSize: a.cfg.Redis.PoolSize,
	})
	rt.closers = append(rt.closers, client.Close)

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", a.cfg.Redis.Addr(), err)
	}
	deps.Locker = locks.NewRedisLocker(client, a.cfg.Redis.KeyPrefix, a.cfg.Redis.LockTTL, a.logger.Named("locks"))
	return nil
}
