package model

import "time"

// Shift is one calendar day's recorded work session. Date is stored in
// ISO form (2006-01-02) so range queries order correctly; the unique
// index enforces at most one shift per day.
type Shift struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"               json:"id"`
	Date      string  `gorm:"type:text;uniqueIndex:idx_shifts_date;not null" json:"date"`
	StartTime string  `gorm:"type:text;not null"                     json:"start_time"`
	EndTime   string  `gorm:"type:text;not null"                     json:"end_time"`
	Revenue   float64 `gorm:"not null;default:0"                     json:"revenue"`
	Tips      float64 `gorm:"not null;default:0"                     json:"tips"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName maps Shift to the shifts table.
func (Shift) TableName() string { return "shifts" }

// Day returns the shift's calendar day.
func (s *Shift) Day() (time.Time, error) {
	return time.Parse(ISODateLayout, s.Date)
}

// Statistics is the period aggregate over a date range. Profit here is
// the simplified revenue+tips approximation, deliberately distinct from
// the per-shift hours-based formula.
type Statistics struct {
	ShiftCount   int64
	TotalRevenue float64
	TotalTips    float64
	TotalProfit  float64
	AvgRevenue   float64
	AvgTips      float64
	AvgProfit    float64
}
