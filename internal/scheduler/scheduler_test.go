package scheduler

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/YakushevDanila/tanuki-bot3/config"
	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
)

type fixedStore struct {
	exists bool
}

func (f *fixedStore) UpsertShift(context.Context, time.Time, model.Clock, model.Clock) error {
	return nil
}

func (f *fixedStore) UpdateField(context.Context, time.Time, storage.Field, string) error {
	return nil
}

func (f *fixedStore) ComputeProfit(context.Context, time.Time) (float64, error) {
	return 0, storage.ErrNotFound
}

func (f *fixedStore) ShiftExists(context.Context, time.Time) bool {
	return f.exists
}

type recordingSender struct {
	chatID int64
	texts  []string
}

func (r *recordingSender) Send(_ context.Context, chatID int64, text string) error {
	r.chatID = chatID
	r.texts = append(r.texts, text)
	return nil
}

func newTestScheduler(t *testing.T, store storage.ShiftStore, sender *recordingSender) *Scheduler {
	t.Helper()

	cfg := &config.ReminderConfig{
		Enabled:  true,
		Timezone: "UTC",
		Morning:  "0 10 * * *",
		Evening:  "0 22 * * *",
	}
	s, err := New(cfg, store, sender, 42, zap.NewNop())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	s.nowFunc = func() time.Time {
		return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	}
	return s
}

func TestRemindSkipsDaysWithoutShift(t *testing.T) {
	sender := &recordingSender{}
	s := newTestScheduler(t, &fixedStore{exists: false}, sender)

	s.morningJob()
	s.eveningJob()
	if len(sender.texts) != 0 {
		t.Errorf("expected no reminders, got %v", sender.texts)
	}
}

func TestRemindSendsForRecordedShift(t *testing.T) {
	sender := &recordingSender{}
	s := newTestScheduler(t, &fixedStore{exists: true}, sender)

	s.morningJob()
	if len(sender.texts) != 1 {
		t.Fatalf("expected one reminder, got %d", len(sender.texts))
	}
	if sender.chatID != 42 {
		t.Errorf("expected owner chat 42, got %d", sender.chatID)
	}
	if !strings.Contains(sender.texts[0], "01.03.2024") {
		t.Errorf("expected today's date in reminder: %q", sender.texts[0])
	}

	s.eveningJob()
	if len(sender.texts) != 2 {
		t.Fatalf("expected two reminders, got %d", len(sender.texts))
	}
	if !strings.Contains(sender.texts[1], "/revenue") || !strings.Contains(sender.texts[1], "/tips") {
		t.Errorf("evening reminder must point at the entry commands: %q", sender.texts[1])
	}
}

func TestNewRejectsUnknownTimezone(t *testing.T) {
	cfg := &config.ReminderConfig{Timezone: "Nowhere/Unknown", Morning: "0 10 * * *", Evening: "0 22 * * *"}
	if _, err := New(cfg, &fixedStore{}, &recordingSender{}, 42, zap.NewNop()); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
