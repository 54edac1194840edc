// Package scheduler fires the daily shift reminders. It runs
// independently of any conversation session and only reads the store's
// existence predicate.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/YakushevDanila/tanuki-bot3/config"
	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/notify"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
)

const morningReminder = "🌞 Доброе утро!\nСегодня у тебя смена (%s) 💪\nНе забудь взять хорошее настроение и кофеек ☕️"

const eveningReminder = "🌙 Привет!\nСмена %s подошла к концу (или скоро подойдет) 💫\n" +
	"Пожалуйста, введи данные за день — выручку и чай ☕️💰\n" +
	"Используй команды:\n→ /revenue — чтобы ввести выручку\n→ /tips — чтобы ввести сумму чая"

// Scheduler triggers reminders for the owner chat on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	store   storage.ShiftStore
	sender  notify.Sender
	chatID  int64
	logger  *zap.Logger
	nowFunc func() time.Time
}

// New builds a Scheduler in the configured timezone and registers the
// morning and evening jobs.
func New(cfg *config.ReminderConfig, store storage.ShiftStore, sender notify.Sender, chatID int64, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc)),
		store:   store,
		sender:  sender,
		chatID:  chatID,
		logger:  logger,
		nowFunc: func() time.Time { return time.Now().In(loc) },
	}

	if _, err := s.cron.AddFunc(cfg.Morning, s.morningJob); err != nil {
		return nil, fmt.Errorf("registering morning reminder: %w", err)
	}
	if _, err := s.cron.AddFunc(cfg.Evening, s.eveningJob); err != nil {
		return nil, fmt.Errorf("registering evening reminder: %w", err)
	}

	return s, nil
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reminder scheduler started")
}

// Stop waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("reminder scheduler stopped")
}

func (s *Scheduler) morningJob() {
	s.remind(morningReminder)
}

func (s *Scheduler) eveningJob() {
	s.remind(eveningReminder)
}

// remind sends the reminder only when a shift is recorded for today.
func (s *Scheduler) remind(template string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	today := s.nowFunc()
	if !s.store.ShiftExists(ctx, today) {
		return
	}

	text := fmt.Sprintf(template, model.FormatDate(today))
	if err := s.sender.Send(ctx, s.chatID, text); err != nil {
		s.logger.Error("sending reminder failed", zap.Error(err))
	}
}
