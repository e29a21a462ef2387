package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/application/services/scheduler"
	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/interfaces/cli/output"
)

// weekFlag registers the required --week flag
func weekFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "week", "w", "", "week start date, a Monday in YYYY-MM-DD form")
	_ = cmd.MarkFlagRequired("week")
}

// withWeek parses --week, opens the runtime and runs fn against the scheduler
func (a *app) withWeek(
	cmd *cobra.Command,
	week string,
	fn func(ctx context.Context, svc scheduler.ScheduleService, weekStart time.Time, p *output.Printer) error,
) error {
	weekStart, err := entities.ParseWeekStart(week)
	if err != nil {
		return err
	}
	p, err := a.printer(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := a.openRuntime(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			a.logger.Warn("failed to close runtime", zap.Error(err))
		}
	}()

	return fn(ctx, rt.Service, weekStart, p)
}

func newRegenerateCommand(a *app) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Rebuild a week's schedule from open job orders",
		Long: `Regenerate groups open job orders into campaigns, places them on days
within capacity, evaluates material for every day and submits one draft
requisition for the week's shortages.

Example:
  drumsched regenerate --week 2025-01-06 --scenario ./scenarios/plant`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWeek(cmd, week, func(ctx context.Context, svc scheduler.ScheduleService, weekStart time.Time, p *output.Printer) error {
				result, err := svc.Regenerate(ctx, weekStart)
				if err != nil {
					return fmt.Errorf("failed to regenerate week: %w", err)
				}
				return p.ScheduleResult(result)
			})
		},
	}
	weekFlag(cmd, &week)
	return cmd
}

func newApproveCommand(a *app) *cobra.Command {
	var (
		week               string
		acceptOverCapacity bool
	)
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Reserve material for every day of a ready week",
		Long: `Approve commits all of the week's material reservations at once.
Every day must be READY; with --accept-over-capacity, OVER_CAPACITY days
are reserved as well. Nothing is reserved if any reservation fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWeek(cmd, week, func(ctx context.Context, svc scheduler.ScheduleService, weekStart time.Time, p *output.Printer) error {
				result, err := svc.Approve(ctx, weekStart, scheduler.ApproveOptions{AcceptOverCapacity: acceptOverCapacity})
				if err != nil {
					return fmt.Errorf("failed to approve week: %w", err)
				}
				return p.Approval(result)
			})
		},
	}
	weekFlag(cmd, &week)
	cmd.Flags().BoolVar(&acceptOverCapacity, "accept-over-capacity", false, "approve days that exceed capacity")
	return cmd
}

func newReopenCommand(a *app) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "reopen",
		Short: "Release an approved week's reservations and return it to draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWeek(cmd, week, func(ctx context.Context, svc scheduler.ScheduleService, weekStart time.Time, p *output.Printer) error {
				result, err := svc.Reopen(ctx, weekStart)
				if err != nil {
					return fmt.Errorf("failed to reopen week: %w", err)
				}
				return p.Reopen(result)
			})
		},
	}
	weekFlag(cmd, &week)
	return cmd
}

func newScheduleCommand(a *app) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show the stored schedule of a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWeek(cmd, week, func(ctx context.Context, svc scheduler.ScheduleService, weekStart time.Time, p *output.Printer) error {
				schedule, err := svc.GetSchedule(ctx, weekStart)
				if err != nil {
					return err
				}
				return p.Week(schedule)
			})
		},
	}
	weekFlag(cmd, &week)
	return cmd
}

func newArrivalsCommand(a *app) *cobra.Command {
	var week string
	cmd := &cobra.Command{
		Use:   "arrivals",
		Short: "List open purchase lines for the materials a week needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withWeek(cmd, week, func(ctx context.Context, svc scheduler.ScheduleService, weekStart time.Time, p *output.Printer) error {
				result, err := svc.GetArrivals(ctx, weekStart)
				if err != nil {
					return err
				}
				return p.Arrivals(result)
			})
		},
	}
	weekFlag(cmd, &week)
	return cmd
}
