// Package sqlite implements the shift store on the local relational
// database. Consistency relies on the unique date key plus upsert
// semantics, not on locks.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/profit"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
)

// Store is the SQLite-backed shift store. It implements both
// storage.ShiftStore and storage.StatsProvider.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a Store over an open gorm connection.
func New(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

func (s *Store) UpsertShift(ctx context.Context, date time.Time, start, end model.Clock) error {
	shift := model.Shift{
		Date:      model.FormatISODate(date),
		StartTime: start.String(),
		EndTime:   end.String(),
	}

	// Revenue and tips keep their stored values on conflict; a fresh
	// row gets the zero defaults.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"start_time": shift.StartTime,
				"end_time":   shift.EndTime,
				"updated_at": time.Now(),
			}),
		}).
		Create(&shift).Error
	if err != nil {
		s.logger.Error("upsert shift failed", zap.String("date", shift.Date), zap.Error(err))
		return fmt.Errorf("upsert shift: %w", err)
	}
	return nil
}

func (s *Store) UpdateField(ctx context.Context, date time.Time, field storage.Field, value string) error {
	updates := map[string]interface{}{"updated_at": time.Now()}

	switch field {
	case storage.FieldRevenue, storage.FieldTips:
		amount, err := profit.ParseAmount(value)
		if err != nil {
			return storage.ErrInvalidValue
		}
		if field == storage.FieldRevenue {
			updates["revenue"] = amount
		} else {
			updates["tips"] = amount
		}
	case storage.FieldStart, storage.FieldEnd:
		clock, err := model.ParseClock(value)
		if err != nil {
			return storage.ErrInvalidValue
		}
		if field == storage.FieldStart {
			updates["start_time"] = clock.String()
		} else {
			updates["end_time"] = clock.String()
		}
	default:
		return storage.ErrInvalidValue
	}

	res := s.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("date = ?", model.FormatISODate(date)).
		Updates(updates)
	if res.Error != nil {
		s.logger.Error("update field failed",
			zap.String("date", model.FormatISODate(date)),
			zap.String("field", string(field)),
			zap.Error(res.Error))
		return fmt.Errorf("update field: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	// Profit is not a stored column here; ComputeProfit derives it on
	// read, so the recompute contract is satisfied without a write.
	return nil
}

func (s *Store) ComputeProfit(ctx context.Context, date time.Time) (float64, error) {
	var shift model.Shift
	err := s.db.WithContext(ctx).
		Where("date = ?", model.FormatISODate(date)).
		First(&shift).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, storage.ErrNotFound
		}
		s.logger.Error("load shift failed", zap.String("date", model.FormatISODate(date)), zap.Error(err))
		return 0, fmt.Errorf("load shift: %w", err)
	}

	start, err := model.ParseClock(shift.StartTime)
	if err != nil {
		return 0, fmt.Errorf("stored start time: %w", err)
	}
	end, err := model.ParseClock(shift.EndTime)
	if err != nil {
		return 0, fmt.Errorf("stored end time: %w", err)
	}

	return profit.ShiftProfit(start, end, shift.Revenue, shift.Tips), nil
}

func (s *Store) ShiftExists(ctx context.Context, date time.Time) bool {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Shift{}).
		Where("date = ?", model.FormatISODate(date)).
		Count(&count).Error
	if err != nil {
		s.logger.Error("existence check failed", zap.String("date", model.FormatISODate(date)), zap.Error(err))
		return false
	}
	return count > 0
}

func (s *Store) ListShifts(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	var shifts []model.Shift
	err := s.db.WithContext(ctx).
		Where("date BETWEEN ? AND ?", model.FormatISODate(from), model.FormatISODate(to)).
		Order("date ASC").
		Find(&shifts).Error
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	return shifts, nil
}

// statsRow receives the aggregate query; the COALESCEs keep NULL sums
// from empty or sparse data out of the arithmetic.
type statsRow struct {
	ShiftCount   int64
	TotalRevenue float64
	TotalTips    float64
	AvgRevenue   float64
	AvgTips      float64
}

func (s *Store) Statistics(ctx context.Context, from, to time.Time) (*model.Statistics, error) {
	var row statsRow
	err := s.db.WithContext(ctx).
		Model(&model.Shift{}).
		Select(`COUNT(*) AS shift_count,
			COALESCE(SUM(revenue), 0) AS total_revenue,
			COALESCE(SUM(tips), 0) AS total_tips,
			COALESCE(AVG(revenue), 0) AS avg_revenue,
			COALESCE(AVG(tips), 0) AS avg_tips`).
		Where("date BETWEEN ? AND ?", model.FormatISODate(from), model.FormatISODate(to)).
		Scan(&row).Error
	if err != nil {
		s.logger.Error("statistics query failed", zap.Error(err))
		return nil, fmt.Errorf("statistics: %w", err)
	}
	if row.ShiftCount == 0 {
		return nil, storage.ErrNotFound
	}

	return &model.Statistics{
		ShiftCount:   row.ShiftCount,
		TotalRevenue: row.TotalRevenue,
		TotalTips:    row.TotalTips,
		TotalProfit:  profit.PeriodProfitApprox(row.TotalRevenue, row.TotalTips),
		AvgRevenue:   row.AvgRevenue,
		AvgTips:      row.AvgTips,
		AvgProfit:    profit.PeriodProfitApprox(row.AvgRevenue, row.AvgTips),
	}, nil
}
