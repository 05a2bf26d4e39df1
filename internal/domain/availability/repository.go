package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinicbook/internal/pkg/timegrid"
)

type ruleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) RuleRepository {
	return &ruleRepository{db: db}
}

func (r *ruleRepository) ListActiveRules(ctx context.Context, professionalID int64, weekday time.Weekday) ([]WeeklyRule, error) {
	var rules []WeeklyRule
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND day_of_week = ? AND is_active = ?", professionalID, int(weekday), true).
		Order("start_minute").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("list weekly rules: %w", err)
	}
	return rules, nil
}

// GetException returns nil, nil when the date has no exception.
func (r *ruleRepository) GetException(ctx context.Context, professionalID int64, date timegrid.Date) (*DateException, error) {
	var e DateException
	err := r.db.WithContext(ctx).
		Where("professional_id = ? AND exception_date = ?", professionalID, date.String()).
		First(&e).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get date exception: %w", err)
	}
	return &e, nil
}

func (r *ruleRepository) CreateRule(ctx context.Context, rule *WeeklyRule) error {
	if rule.DayOfWeek < 0 || rule.DayOfWeek > 6 {
		return fmt.Errorf("%w: day_of_week %d", timegrid.ErrInvalidTimeValue, rule.DayOfWeek)
	}
	if _, err := rule.Window(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(rule).Error
}

// UpsertException keeps at most one exception per professional and date.
func (r *ruleRepository) UpsertException(ctx context.Context, e *DateException) error {
	if _, err := timegrid.ParseDate(e.Date); err != nil {
		return err
	}
	if e.IsAvailable && e.HasOverride() {
		if _, err := e.Override(); err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "professional_id"}, {Name: "exception_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_available", "start_minute", "end_minute", "reason", "updated_at"}),
		}).
		Create(e).Error
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&WeeklyRule{}, &DateException{}); err != nil {
		return fmt.Errorf("migrate availability: %w", err)
	}
	return nil
}
