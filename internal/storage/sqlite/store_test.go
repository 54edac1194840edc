package sqlite

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	// One connection so every query hits the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrapping sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Shift{}); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	return New(db, zap.NewNop())
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parsing date %q: %v", s, err)
	}
	return d
}

func clock(t *testing.T, s string) model.Clock {
	t.Helper()
	c, err := model.ParseClock(s)
	if err != nil {
		t.Fatalf("parsing clock %q: %v", s, err)
	}
	return c
}

func TestUpsertShiftCreates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(t, "01.03.2024")

	if s.ShiftExists(ctx, d) {
		t.Fatal("shift must not exist before upsert")
	}
	if err := s.UpsertShift(ctx, d, clock(t, "10:00"), clock(t, "18:00")); err != nil {
		t.Fatalf("UpsertShift returned error: %v", err)
	}
	if !s.ShiftExists(ctx, d) {
		t.Error("shift must exist after upsert")
	}
}

func TestUpsertShiftReplacesTimesOnly(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(t, "01.03.2024")

	if err := s.UpsertShift(ctx, d, clock(t, "10:00"), clock(t, "18:00")); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldRevenue, "5000"); err != nil {
		t.Fatalf("setting revenue: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldTips, "300"); err != nil {
		t.Fatalf("setting tips: %v", err)
	}

	// Re-upserting the same date replaces times but keeps the money.
	if err := s.UpsertShift(ctx, d, clock(t, "11:00"), clock(t, "19:00")); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	shifts, err := s.ListShifts(ctx, d, d)
	if err != nil {
		t.Fatalf("ListShifts: %v", err)
	}
	if len(shifts) != 1 {
		t.Fatalf("expected exactly one shift, got %d", len(shifts))
	}
	got := shifts[0]
	if got.StartTime != "11:00" || got.EndTime != "19:00" {
		t.Errorf("expected replaced times 11:00-19:00, got %s-%s", got.StartTime, got.EndTime)
	}
	if got.Revenue != 5000 || got.Tips != 300 {
		t.Errorf("expected revenue 5000 and tips 300 preserved, got %v and %v", got.Revenue, got.Tips)
	}
}

func TestUpdateFieldMissingDate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.UpdateField(ctx, day(t, "02.03.2024"), storage.FieldRevenue, "5000")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateFieldInvalidValue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(t, "01.03.2024")

	if err := s.UpsertShift(ctx, d, clock(t, "10:00"), clock(t, "18:00")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldRevenue, "5000"); err != nil {
		t.Fatalf("setting revenue: %v", err)
	}

	for _, value := range []string{"abc", "-100"} {
		err := s.UpdateField(ctx, d, storage.FieldRevenue, value)
		if !errors.Is(err, storage.ErrInvalidValue) {
			t.Errorf("value %q: expected ErrInvalidValue, got %v", value, err)
		}
	}
	if err := s.UpdateField(ctx, d, storage.FieldStart, "25:99"); !errors.Is(err, storage.ErrInvalidValue) {
		t.Errorf("bad clock: expected ErrInvalidValue, got %v", err)
	}

	// Failed validation must leave the stored value untouched.
	shifts, err := s.ListShifts(ctx, d, d)
	if err != nil {
		t.Fatalf("ListShifts: %v", err)
	}
	if shifts[0].Revenue != 5000 {
		t.Errorf("revenue changed after rejected update: %v", shifts[0].Revenue)
	}
}

func TestUpdateFieldTimes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(t, "01.03.2024")

	if err := s.UpsertShift(ctx, d, clock(t, "10:00"), clock(t, "18:00")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldStart, "09:30"); err != nil {
		t.Fatalf("updating start: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldEnd, "17:30"); err != nil {
		t.Fatalf("updating end: %v", err)
	}

	shifts, err := s.ListShifts(ctx, d, d)
	if err != nil {
		t.Fatalf("ListShifts: %v", err)
	}
	if shifts[0].StartTime != "09:30" || shifts[0].EndTime != "17:30" {
		t.Errorf("expected 09:30-17:30, got %s-%s", shifts[0].StartTime, shifts[0].EndTime)
	}
}

func TestComputeProfit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	d := day(t, "01.03.2024")

	// Overnight shift: 8 * 220 + 500 + 1000 * 0.015 = 2275.
	if err := s.UpsertShift(ctx, d, clock(t, "22:00"), clock(t, "06:00")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldRevenue, "1000"); err != nil {
		t.Fatalf("setting revenue: %v", err)
	}
	if err := s.UpdateField(ctx, d, storage.FieldTips, "500"); err != nil {
		t.Fatalf("setting tips: %v", err)
	}

	got, err := s.ComputeProfit(ctx, d)
	if err != nil {
		t.Fatalf("ComputeProfit returned error: %v", err)
	}
	if math.Abs(got-2275) > 1e-9 {
		t.Errorf("expected profit 2275, got %v", got)
	}
}

func TestComputeProfitMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.ComputeProfit(context.Background(), day(t, "09.09.2024"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListShiftsRangeAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Inserted out of order on purpose; the range crosses a month
	// boundary, which the ISO date key sorts correctly.
	for _, ds := range []string{"05.03.2024", "28.02.2024", "01.03.2024"} {
		if err := s.UpsertShift(ctx, day(t, ds), clock(t, "10:00"), clock(t, "18:00")); err != nil {
			t.Fatalf("upsert %s: %v", ds, err)
		}
	}
	// Outside the queried range.
	if err := s.UpsertShift(ctx, day(t, "06.03.2024"), clock(t, "10:00"), clock(t, "18:00")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	shifts, err := s.ListShifts(ctx, day(t, "28.02.2024"), day(t, "05.03.2024"))
	if err != nil {
		t.Fatalf("ListShifts: %v", err)
	}
	if len(shifts) != 3 {
		t.Fatalf("expected 3 shifts, got %d", len(shifts))
	}
	want := []string{"2024-02-28", "2024-03-01", "2024-03-05"}
	for i, w := range want {
		if shifts[i].Date != w {
			t.Errorf("position %d: expected %s, got %s", i, w, shifts[i].Date)
		}
	}
}

func TestStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	data := []struct {
		date    string
		revenue string
		tips    string
	}{
		{"01.03.2024", "1000", "100"},
		{"02.03.2024", "2000", "200"},
	}
	for _, row := range data {
		d := day(t, row.date)
		if err := s.UpsertShift(ctx, d, clock(t, "10:00"), clock(t, "18:00")); err != nil {
			t.Fatalf("upsert %s: %v", row.date, err)
		}
		if err := s.UpdateField(ctx, d, storage.FieldRevenue, row.revenue); err != nil {
			t.Fatalf("revenue %s: %v", row.date, err)
		}
		if err := s.UpdateField(ctx, d, storage.FieldTips, row.tips); err != nil {
			t.Fatalf("tips %s: %v", row.date, err)
		}
	}

	stats, err := s.Statistics(ctx, day(t, "01.03.2024"), day(t, "31.03.2024"))
	if err != nil {
		t.Fatalf("Statistics returned error: %v", err)
	}
	if stats.ShiftCount != 2 {
		t.Errorf("expected 2 shifts, got %d", stats.ShiftCount)
	}
	if stats.TotalRevenue != 3000 || stats.TotalTips != 300 {
		t.Errorf("expected totals 3000/300, got %v/%v", stats.TotalRevenue, stats.TotalTips)
	}
	if stats.TotalProfit != 3300 {
		t.Errorf("expected total profit 3300, got %v", stats.TotalProfit)
	}
	if stats.AvgRevenue != 1500 || stats.AvgTips != 150 {
		t.Errorf("expected averages 1500/150, got %v/%v", stats.AvgRevenue, stats.AvgTips)
	}
	if stats.AvgProfit != 1650 {
		t.Errorf("expected average profit 1650, got %v", stats.AvgProfit)
	}
}

func TestStatisticsEmptyRange(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Statistics(context.Background(), day(t, "01.01.2030"), day(t, "31.01.2030"))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
