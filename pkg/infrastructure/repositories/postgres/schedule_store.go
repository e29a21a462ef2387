package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/vsinha/drumsched/pkg/domain/entities"
	"github.com/vsinha/drumsched/pkg/domain/repositories"
	"github.com/vsinha/drumsched/pkg/infrastructure/config"
)

// Open connects gorm to the schedule database
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(cfg.DSN())
	default:
		return nil, fmt.Errorf("unsupported schedule database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

// ScheduleStore persists weeks in three tables and swaps a week in one transaction
type ScheduleStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repositories.ScheduleRepository = (*ScheduleStore)(nil)

// NewScheduleStore migrates the schedule tables
func NewScheduleStore(db *gorm.DB, logger *zap.Logger) (*ScheduleStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&WeekScheduleModel{}, &CampaignModel{}, &ScheduleDayModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schedule tables: %w", err)
	}
	return &ScheduleStore{db: db, logger: logger}, nil
}

// GetWeek loads a week with its campaigns and days in stored order, all
// three from one snapshot
func (s *ScheduleStore) GetWeek(ctx context.Context, weekStart time.Time) (*entities.WeekSchedule, error) {
	key := entities.WeekKey(weekStart)

	var (
		wm        WeekScheduleModel
		campaigns []CampaignModel
		days      []ScheduleDayModel
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_start = ?", key).First(&wm).Error; err != nil {
			return err
		}
		if err := tx.Where("week_start = ?", key).Order("position ASC").Find(&campaigns).Error; err != nil {
			return fmt.Errorf("failed to get campaigns: %w", err)
		}
		if err := tx.Where("week_start = ?", key).Order("position ASC").Find(&days).Error; err != nil {
			return fmt.Errorf("failed to get days: %w", err)
		}
		return nil
	}, readTxOptions(s.db.Dialector.Name()))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("week %s: %w", key, entities.ErrWeekNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get week %s: %w", key, err)
	}

	return fromModels(&wm, campaigns, days)
}

// readTxOptions asks postgres for one repeatable-read snapshot; sqlite
// transactions are already serializable and take no options
func readTxOptions(dialect string) *sql.TxOptions {
	if dialect != "postgres" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// SaveWeek replaces the stored week, its campaigns and days atomically
func (s *ScheduleStore) SaveWeek(ctx context.Context, week *entities.WeekSchedule) error {
	wm, campaigns, days, err := toModels(week)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("week_start = ?", wm.WeekStart).Delete(&ScheduleDayModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("week_start = ?", wm.WeekStart).Delete(&CampaignModel{}).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "week_start"}},
			UpdateAll: true,
		}).Create(wm).Error; err != nil {
			return err
		}
		if len(campaigns) > 0 {
			if err := tx.Create(&campaigns).Error; err != nil {
				return err
			}
		}
		if len(days) > 0 {
			if err := tx.Create(&days).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save week %s: %w", wm.WeekStart, err)
	}

	s.logger.Debug("week stored",
		zap.String("week_start", wm.WeekStart),
		zap.String("status", wm.Status),
		zap.Int("campaigns", len(campaigns)),
		zap.Int("days", len(days)),
	)
	return nil
}
