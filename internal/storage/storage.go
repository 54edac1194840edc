// Package storage defines the shift store contract shared by the local
// relational backend and the remote spreadsheet backend. The
// conversation layer and the reminder scheduler are written against
// these interfaces only.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
)

// Sentinel errors shared by all backends. Anything else returned from a
// store is an opaque storage failure: logged at the boundary, reported
// to the user as a generic error, never retried.
var (
	// ErrNotFound means no shift exists for the given date, or a
	// period aggregate matched zero records.
	ErrNotFound = errors.New("shift not found")
	// ErrInvalidValue means a field value failed validation; storage
	// was not mutated.
	ErrInvalidValue = errors.New("invalid field value")
)

// Field identifies an editable shift attribute.
type Field string

const (
	FieldStart   Field = "start"
	FieldEnd     Field = "end"
	FieldRevenue Field = "revenue"
	FieldTips    Field = "tips"
)

// fieldLabels maps accepted user labels (English and Russian) onto the
// field enumeration. The set is closed: anything outside it is rejected
// at the boundary.
var fieldLabels = map[string]Field{
	"start":   FieldStart,
	"end":     FieldEnd,
	"revenue": FieldRevenue,
	"tips":    FieldTips,
	"начало":  FieldStart,
	"конец":   FieldEnd,
	"выручка": FieldRevenue,
	"чай":     FieldTips,
}

// ParseField resolves a user-entered field label, case-insensitively.
func ParseField(label string) (Field, bool) {
	f, ok := fieldLabels[strings.ToLower(strings.TrimSpace(label))]
	return f, ok
}

// Numeric reports whether the field holds a money amount rather than a
// time of day.
func (f Field) Numeric() bool {
	return f == FieldRevenue || f == FieldTips
}

// ShiftStore is the uniform contract both backends satisfy.
type ShiftStore interface {
	// UpsertShift creates the shift for date, or replaces start/end on
	// the existing record leaving revenue and tips untouched.
	UpsertShift(ctx context.Context, date time.Time, start, end model.Clock) error

	// UpdateField sets one field. Amount fields must parse as
	// non-negative numbers (ErrInvalidValue otherwise); a date with no
	// record yields ErrNotFound. Derived profit is recomputed: persisted
	// where the backend stores it, derived on read where it does not.
	UpdateField(ctx context.Context, date time.Time, field Field, value string) error

	// ComputeProfit returns the canonical hours-based profit for date,
	// or ErrNotFound.
	ComputeProfit(ctx context.Context, date time.Time) (float64, error)

	// ShiftExists never fails: storage errors degrade to false.
	ShiftExists(ctx context.Context, date time.Time) bool
}

// StatsProvider is the optional period query surface. The spreadsheet
// backend does not provide it; stats and export pipelines are disabled
// when it is absent.
type StatsProvider interface {
	// ListShifts returns shifts in the inclusive range, ascending by
	// date. Missing numeric fields read as zero.
	ListShifts(ctx context.Context, from, to time.Time) ([]model.Shift, error)

	// Statistics aggregates the inclusive range; ErrNotFound when no
	// record matches.
	Statistics(ctx context.Context, from, to time.Time) (*model.Statistics, error)
}
