package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vsinha/drumsched/pkg/application/services/scheduler"
	"github.com/vsinha/drumsched/pkg/domain/entities"
)

// ScheduleHandler serves the weekly drum schedule
type ScheduleHandler struct {
	svc    scheduler.ScheduleService
	logger *zap.Logger
}

func NewScheduleHandler(svc scheduler.ScheduleService, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleHandler{svc: svc, logger: logger}
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	weekStart, ok := h.weekStart(c)
	if !ok {
		return
	}
	week, err := h.svc.GetSchedule(c.Request.Context(), weekStart)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, week)
}

func (h *ScheduleHandler) Arrivals(c *gin.Context) {
	weekStart, ok := h.weekStart(c)
	if !ok {
		return
	}
	result, err := h.svc.GetArrivals(c.Request.Context(), weekStart)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, result)
}

func (h *ScheduleHandler) Regenerate(c *gin.Context) {
	weekStart, ok := h.weekStart(c)
	if !ok {
		return
	}
	result, err := h.svc.Regenerate(c.Request.Context(), weekStart)
	if err != nil {
		h.logger.Warn("regeneration failed",
			zap.String("week_start", entities.FormatDate(weekStart)), zap.Error(err))
		fail(c, err)
		return
	}
	success(c, result)
}

func (h *ScheduleHandler) Approve(c *gin.Context) {
	weekStart, ok := h.weekStart(c)
	if !ok {
		return
	}

	var opts scheduler.ApproveOptions
	if raw := c.Query("accept_over_capacity"); raw != "" {
		accept, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, fmt.Errorf("accept_over_capacity must be a boolean, got %q", raw))
			return
		}
		opts.AcceptOverCapacity = accept
	}

	result, err := h.svc.Approve(c.Request.Context(), weekStart, opts)
	if err != nil {
		h.logger.Warn("approval rejected",
			zap.String("week_start", entities.FormatDate(weekStart)), zap.Error(err))
		fail(c, err)
		return
	}
	success(c, result)
}

func (h *ScheduleHandler) Reopen(c *gin.Context) {
	weekStart, ok := h.weekStart(c)
	if !ok {
		return
	}
	result, err := h.svc.Reopen(c.Request.Context(), weekStart)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, result)
}

func (h *ScheduleHandler) weekStart(c *gin.Context) (time.Time, bool) {
	raw := c.Query("week_start")
	if raw == "" {
		badRequest(c, fmt.Errorf("week_start is required"))
		return time.Time{}, false
	}
	weekStart, err := entities.ParseWeekStart(raw)
	if err != nil {
		fail(c, err)
		return time.Time{}, false
	}
	return weekStart, true
}
