// Package sheets implements the shift store on a Google spreadsheet.
// One worksheet, fixed columns A..G: date, start, end, revenue, tips,
// hours, profit. Rows are keyed by exact match on the formatted date in
// column A. Read-modify-write without optimistic concurrency: accepted
// for a single-operator workload.
package sheets

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/profit"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
)

// Column letters of the fixed sheet layout.
const (
	colDate    = "A"
	colStart   = "B"
	colEnd     = "C"
	colRevenue = "D"
	colTips    = "E"
	colHours   = "F"
	colProfit  = "G"
)

// fieldColumns is the exhaustive editable-field → column map.
var fieldColumns = map[storage.Field]string{
	storage.FieldStart:   colStart,
	storage.FieldEnd:     colEnd,
	storage.FieldRevenue: colRevenue,
	storage.FieldTips:    colTips,
}

var headerRow = []string{"Дата", "Начало", "Конец", "Выручка", "Чаевые", "Часы", "Прибыль"}

// Store is the Google-Sheets-backed shift store. It implements
// storage.ShiftStore only; period queries are not available remotely.
type Store struct {
	client    *Client
	worksheet string
	logger    *zap.Logger
}

// New creates a Store over an authenticated client.
func New(client *Client, worksheet string, logger *zap.Logger) *Store {
	return &Store{client: client, worksheet: worksheet, logger: logger}
}

// Init makes sure the worksheet exists, creating it with a header row
// when missing.
func (s *Store) Init(ctx context.Context) error {
	titles, err := s.client.SheetTitles(ctx)
	if err != nil {
		return fmt.Errorf("listing worksheets: %w", err)
	}
	for _, t := range titles {
		if t == s.worksheet {
			return nil
		}
	}

	if err := s.client.AddSheet(ctx, s.worksheet); err != nil {
		return fmt.Errorf("creating worksheet %q: %w", s.worksheet, err)
	}
	if err := s.client.UpdateRange(ctx, s.rng("A1:G1"), [][]string{headerRow}); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	s.logger.Info("worksheet created", zap.String("worksheet", s.worksheet))
	return nil
}

func (s *Store) UpsertShift(ctx context.Context, date time.Time, start, end model.Clock) error {
	formatted := model.FormatDate(date)

	row, err := s.findRow(ctx, formatted)
	if err != nil {
		s.logger.Error("row lookup failed", zap.String("date", formatted), zap.Error(err))
		return fmt.Errorf("upsert shift: %w", err)
	}

	if row == 0 {
		hours := profit.Hours(start, end)
		p := profit.ShiftProfit(start, end, 0, 0)
		newRow := []string{formatted, start.String(), end.String(), "", "", formatNumber(hours), formatNumber(p)}
		if err := s.client.AppendRow(ctx, s.rng("A:G"), newRow); err != nil {
			s.logger.Error("append shift failed", zap.String("date", formatted), zap.Error(err))
			return fmt.Errorf("upsert shift: %w", err)
		}
		return nil
	}

	// Existing record: replace timing only, then rederive hours and
	// profit from the revenue/tips already on the row.
	cells := [][]string{{start.String(), end.String()}}
	if err := s.client.UpdateRange(ctx, s.rng(fmt.Sprintf("B%d:C%d", row, row)), cells); err != nil {
		s.logger.Error("update timing failed", zap.String("date", formatted), zap.Error(err))
		return fmt.Errorf("upsert shift: %w", err)
	}
	if err := s.recompute(ctx, row); err != nil {
		s.logger.Error("profit recompute failed", zap.String("date", formatted), zap.Error(err))
		return fmt.Errorf("upsert shift: %w", err)
	}
	return nil
}

func (s *Store) UpdateField(ctx context.Context, date time.Time, field storage.Field, value string) error {
	column, ok := fieldColumns[field]
	if !ok {
		return storage.ErrInvalidValue
	}

	// Validate before touching the sheet so a bad value never mutates
	// state.
	var normalized string
	if field.Numeric() {
		amount, err := profit.ParseAmount(value)
		if err != nil {
			return storage.ErrInvalidValue
		}
		normalized = formatNumber(amount)
	} else {
		clock, err := model.ParseClock(value)
		if err != nil {
			return storage.ErrInvalidValue
		}
		normalized = clock.String()
	}

	formatted := model.FormatDate(date)
	row, err := s.findRow(ctx, formatted)
	if err != nil {
		s.logger.Error("row lookup failed", zap.String("date", formatted), zap.Error(err))
		return fmt.Errorf("update field: %w", err)
	}
	if row == 0 {
		return storage.ErrNotFound
	}

	cell := fmt.Sprintf("%s%d", column, row)
	if err := s.client.UpdateRange(ctx, s.rng(cell), [][]string{{normalized}}); err != nil {
		s.logger.Error("cell update failed", zap.String("cell", cell), zap.Error(err))
		return fmt.Errorf("update field: %w", err)
	}

	if err := s.recompute(ctx, row); err != nil {
		s.logger.Error("profit recompute failed", zap.String("date", formatted), zap.Error(err))
		return fmt.Errorf("update field: %w", err)
	}
	return nil
}

func (s *Store) ComputeProfit(ctx context.Context, date time.Time) (float64, error) {
	formatted := model.FormatDate(date)

	row, err := s.findRow(ctx, formatted)
	if err != nil {
		s.logger.Error("row lookup failed", zap.String("date", formatted), zap.Error(err))
		return 0, fmt.Errorf("compute profit: %w", err)
	}
	if row == 0 {
		return 0, storage.ErrNotFound
	}

	start, end, revenue, tips, err := s.readShiftCells(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("compute profit: %w", err)
	}
	computed := profit.ShiftProfit(start, end, revenue, tips)

	// Reconcile the stored profit cell when it has drifted.
	stored, err := s.readCell(ctx, fmt.Sprintf("G%d", row))
	if err == nil {
		existing, parseErr := profit.ParseAmount(stored)
		if parseErr != nil || math.Abs(existing-computed) > 0.01 {
			cell := fmt.Sprintf("G%d", row)
			if err := s.client.UpdateRange(ctx, s.rng(cell), [][]string{{formatNumber(computed)}}); err != nil {
				s.logger.Warn("profit reconcile failed", zap.String("cell", cell), zap.Error(err))
			}
		}
	}

	return computed, nil
}

func (s *Store) ShiftExists(ctx context.Context, date time.Time) bool {
	row, err := s.findRow(ctx, model.FormatDate(date))
	if err != nil {
		s.logger.Error("existence check failed", zap.String("date", model.FormatDate(date)), zap.Error(err))
		return false
	}
	return row > 0
}

// findRow scans column A for an exact date match. Returns the 1-based
// row index, or 0 when absent.
func (s *Store) findRow(ctx context.Context, formattedDate string) (int, error) {
	rows, err := s.client.ReadRange(ctx, s.rng("A:A"))
	if err != nil {
		return 0, err
	}
	for i, row := range rows {
		if len(row) > 0 && row[0] == formattedDate {
			return i + 1, nil
		}
	}
	return 0, nil
}

// readShiftCells loads and parses B..E of one row. Blank cells fall
// back to midnight / zero, matching what a half-filled row means.
func (s *Store) readShiftCells(ctx context.Context, row int) (start, end model.Clock, revenue, tips float64, err error) {
	rows, err := s.client.ReadRange(ctx, s.rng(fmt.Sprintf("B%d:E%d", row, row)))
	if err != nil {
		return model.Clock{}, model.Clock{}, 0, 0, err
	}
	var cells []string
	if len(rows) > 0 {
		cells = rows[0]
	}

	start, err = parseClockCell(cellValue(cells, 0))
	if err != nil {
		return model.Clock{}, model.Clock{}, 0, 0, err
	}
	end, err = parseClockCell(cellValue(cells, 1))
	if err != nil {
		return model.Clock{}, model.Clock{}, 0, 0, err
	}
	revenue, err = profit.ParseAmount(cellValue(cells, 2))
	if err != nil {
		return model.Clock{}, model.Clock{}, 0, 0, fmt.Errorf("revenue cell: %w", err)
	}
	tips, err = profit.ParseAmount(cellValue(cells, 3))
	if err != nil {
		return model.Clock{}, model.Clock{}, 0, 0, fmt.Errorf("tips cell: %w", err)
	}
	return start, end, revenue, tips, nil
}

// recompute rewrites the derived hours and profit cells from the
// current row contents.
func (s *Store) recompute(ctx context.Context, row int) error {
	start, end, revenue, tips, err := s.readShiftCells(ctx, row)
	if err != nil {
		return err
	}
	hours := profit.Hours(start, end)
	p := profit.ShiftProfit(start, end, revenue, tips)

	cells := [][]string{{formatNumber(hours), formatNumber(p)}}
	return s.client.UpdateRange(ctx, s.rng(fmt.Sprintf("F%d:G%d", row, row)), cells)
}

func (s *Store) readCell(ctx context.Context, cell string) (string, error) {
	rows, err := s.client.ReadRange(ctx, s.rng(cell))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return rows[0][0], nil
}

// rng qualifies an A1 reference with the worksheet title.
func (s *Store) rng(a1 string) string {
	return fmt.Sprintf("'%s'!%s", s.worksheet, a1)
}

func cellValue(cells []string, idx int) string {
	if idx < len(cells) {
		return cells[idx]
	}
	return ""
}

func parseClockCell(v string) (model.Clock, error) {
	if v == "" {
		return model.Clock{}, nil
	}
	return model.ParseClock(v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
