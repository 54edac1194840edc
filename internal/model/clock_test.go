package model

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("ParseClock returned error: %v", err)
	}
	if c.Hour != 9 || c.Minute != 30 {
		t.Errorf("expected 09:30, got %v", c)
	}
	if c.String() != "09:30" {
		t.Errorf("expected string 09:30, got %s", c.String())
	}
	if c.Minutes() != 570 {
		t.Errorf("expected 570 minutes, got %d", c.Minutes())
	}
}

func TestParseClockMidnight(t *testing.T) {
	c, err := ParseClock("00:00")
	if err != nil {
		t.Fatalf("ParseClock returned error: %v", err)
	}
	if c.Minutes() != 0 {
		t.Errorf("expected 0 minutes, got %d", c.Minutes())
	}
}

func TestParseClockInvalid(t *testing.T) {
	for _, in := range []string{"", "9:3:0", "25:00", "12:60", "abc", "12.30"} {
		if _, err := ParseClock(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("15.03.2024")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("expected %v, got %v", want, d)
	}
	if FormatDate(d) != "15.03.2024" {
		t.Errorf("round trip mismatch: %s", FormatDate(d))
	}
	if FormatISODate(d) != "2024-03-15" {
		t.Errorf("expected ISO 2024-03-15, got %s", FormatISODate(d))
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "2024-03-15", "32.01.2024", "15.13.2024", "сегодня"} {
		if _, err := ParseDate(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}
