// Package bot implements the conversation layer: command routing and
// the per-chat linear pipelines that collect shift fields before
// calling into the store.
package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/profit"
	"github.com/YakushevDanila/tanuki-bot3/internal/storage"
)

// Overwrite-confirmation vocabulary, case-insensitive.
var (
	confirmYes = map[string]bool{"да": true, "yes": true, "y": true, "д": true}
	confirmNo  = map[string]bool{"нет": true, "no": true, "n": true, "н": true}
)

// Dispatcher routes chat messages into pipelines and pipelines into the
// shift store. Each chat's turn is processed to completion under its
// own lock; sessions are single-threaded state machines.
type Dispatcher struct {
	store       storage.ShiftStore
	stats       storage.StatsProvider // nil when the remote backend is active
	sessions    Sessions
	storageName string
	logger      *zap.Logger
	now         func() time.Time

	mu        sync.Mutex
	chatLocks map[int64]*sync.Mutex
}

// New creates a Dispatcher. stats may be nil, which disables the
// statistics and export pipelines.
func New(store storage.ShiftStore, stats storage.StatsProvider, sessions Sessions, storageName string, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:       store,
		stats:       stats,
		sessions:    sessions,
		storageName: storageName,
		logger:      logger,
		now:         time.Now,
		chatLocks:   make(map[int64]*sync.Mutex),
	}
}

// cleanInput keeps the first whitespace-separated token, discarding
// noise some clients echo after the actual answer.
func cleanInput(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (d *Dispatcher) chatLock(chatID int64) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.chatLocks[chatID]
	if !ok {
		l = &sync.Mutex{}
		d.chatLocks[chatID] = l
	}
	return l
}

// HandleMessage processes one inbound chat message and returns the
// replies to send, in order.
func (d *Dispatcher) HandleMessage(ctx context.Context, chatID int64, text string) []string {
	if !d.checkAccess(chatID) {
		return nil
	}

	lock := d.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "/") {
		return d.handleCommand(ctx, chatID, strings.ToLower(cleanInput(trimmed)))
	}

	sess, err := d.sessions.Get(ctx, chatID)
	if err != nil {
		d.logger.Error("loading session failed", zap.Int64("chat_id", chatID), zap.Error(err))
		sess = nil
	}
	if sess == nil {
		return []string{msgUnknownCommand}
	}

	return d.handleStep(ctx, chatID, sess, cleanInput(text))
}

// handleCommand starts a pipeline or answers an informational command.
// Starting any command abandons whatever pipeline was in flight.
func (d *Dispatcher) handleCommand(ctx context.Context, chatID int64, cmd string) []string {
	d.clear(ctx, chatID)

	switch cmd {
	case "/start", "/help":
		return []string{msgHelp(d.storageName)}
	case "/myid":
		return []string{msgMyID(chatID)}
	case "/add_shift":
		d.begin(ctx, chatID, stepDate)
		return []string{msgAskDate}
	case "/revenue":
		d.begin(ctx, chatID, stepRevenueDate)
		return []string{msgAskAnyDate}
	case "/tips":
		d.begin(ctx, chatID, stepTipsDate)
		return []string{msgAskAnyDate}
	case "/edit":
		d.begin(ctx, chatID, stepEditDate)
		return []string{msgAskAnyDate}
	case "/profit":
		d.begin(ctx, chatID, stepProfitDate)
		return []string{msgAskAnyDate}
	case "/stats":
		if d.stats == nil {
			return []string{msgStatsRemoteOff}
		}
		d.begin(ctx, chatID, stepStatsStart)
		return []string{msgAskStatsStart}
	case "/export":
		if d.stats == nil {
			return []string{msgExportRemoteOff}
		}
		d.begin(ctx, chatID, stepExportStart)
		return []string{msgAskExportStart}
	default:
		return []string{msgUnknownCommand}
	}
}

// handleStep advances the active pipeline by one input.
func (d *Dispatcher) handleStep(ctx context.Context, chatID int64, sess *Session, input string) []string {
	switch sess.Step {
	case stepDate:
		return d.stepAddDate(ctx, chatID, sess, input)
	case stepOverwriteConfirm:
		return d.stepOverwrite(ctx, chatID, sess, input)
	case stepStart:
		return d.stepAddStart(ctx, chatID, sess, input)
	case stepEnd:
		return d.stepAddEnd(ctx, chatID, sess, input)
	case stepRevenueDate:
		return d.stepAmountDate(ctx, chatID, sess, input, stepRevenueAmount, msgAskRevenue)
	case stepRevenueAmount:
		return d.stepAmount(ctx, chatID, sess, input, storage.FieldRevenue)
	case stepTipsDate:
		return d.stepAmountDate(ctx, chatID, sess, input, stepTipsAmount, msgAskTips)
	case stepTipsAmount:
		return d.stepAmount(ctx, chatID, sess, input, storage.FieldTips)
	case stepEditDate:
		return d.stepEditDateFn(ctx, chatID, sess, input)
	case stepEditField:
		return d.stepEditFieldFn(ctx, chatID, sess, input)
	case stepEditValue:
		return d.stepEditValueFn(ctx, chatID, sess, input)
	case stepProfitDate:
		return d.stepProfit(ctx, chatID, input)
	case stepStatsStart:
		return d.stepPeriodStart(ctx, chatID, sess, input, stepStatsEnd)
	case stepStatsEnd:
		return d.stepStats(ctx, chatID, sess, input)
	case stepExportStart:
		return d.stepPeriodStart(ctx, chatID, sess, input, stepExportEnd)
	case stepExportEnd:
		return d.stepExport(ctx, chatID, sess, input)
	default:
		d.logger.Warn("unknown pipeline step", zap.String("step", sess.Step))
		d.clear(ctx, chatID)
		return []string{msgUnknownCommand}
	}
}

// ── Add-shift pipeline ──

func (d *Dispatcher) stepAddDate(ctx context.Context, chatID int64, sess *Session, input string) []string {
	date, err := model.ParseDate(input)
	if err != nil {
		d.clear(ctx, chatID)
		return []string{msgBadDate}
	}

	sess.Data["date"] = input
	if d.store.ShiftExists(ctx, date) {
		d.advance(ctx, chatID, sess, stepOverwriteConfirm)
		return []string{msgShiftExists(input)}
	}
	d.advance(ctx, chatID, sess, stepStart)
	return []string{msgAskStart}
}

func (d *Dispatcher) stepOverwrite(ctx context.Context, chatID int64, sess *Session, input string) []string {
	answer := strings.ToLower(input)
	switch {
	case confirmYes[answer]:
		d.advance(ctx, chatID, sess, stepStart)
		return []string{msgAskStart}
	case confirmNo[answer]:
		d.clear(ctx, chatID)
		return []string{msgAddCancelled}
	default:
		// The one step that re-prompts in place instead of aborting.
		return []string{msgAskOverwriteYN}
	}
}

func (d *Dispatcher) stepAddStart(ctx context.Context, chatID int64, sess *Session, input string) []string {
	if _, err := model.ParseClock(input); err != nil {
		d.clear(ctx, chatID)
		return []string{msgBadTime}
	}
	sess.Data["start"] = input
	d.advance(ctx, chatID, sess, stepEnd)
	return []string{msgAskEnd}
}

func (d *Dispatcher) stepAddEnd(ctx context.Context, chatID int64, sess *Session, input string) []string {
	defer d.clear(ctx, chatID)

	end, err := model.ParseClock(input)
	if err != nil {
		return []string{msgBadTime}
	}
	date, err := model.ParseDate(sess.Data["date"])
	if err != nil {
		return []string{msgAddFailed}
	}
	start, err := model.ParseClock(sess.Data["start"])
	if err != nil {
		return []string{msgAddFailed}
	}

	if err := d.store.UpsertShift(ctx, date, start, end); err != nil {
		d.logger.Error("upsert shift failed", zap.String("date", sess.Data["date"]), zap.Error(err))
		return []string{msgAddFailed}
	}
	return []string{msgShiftAdded(sess.Data["date"], start.String(), end.String())}
}

// ── Revenue / tips pipelines ──

func (d *Dispatcher) stepAmountDate(ctx context.Context, chatID int64, sess *Session, input, nextStep, prompt string) []string {
	date, err := model.ParseDate(input)
	if err != nil {
		d.clear(ctx, chatID)
		return []string{msgBadDate}
	}
	if !d.store.ShiftExists(ctx, date) {
		d.clear(ctx, chatID)
		return []string{msgShiftMissing(input)}
	}

	sess.Data["date"] = input
	d.advance(ctx, chatID, sess, nextStep)
	return []string{prompt}
}

func (d *Dispatcher) stepAmount(ctx context.Context, chatID int64, sess *Session, input string, field storage.Field) []string {
	defer d.clear(ctx, chatID)

	if _, err := profit.ParseAmount(input); err != nil {
		return []string{msgBadNumber}
	}
	date, err := model.ParseDate(sess.Data["date"])
	if err != nil {
		return []string{msgBadDate}
	}

	failed := msgRevenueFailed
	saved := msgRevenueSaved(input, sess.Data["date"])
	if field == storage.FieldTips {
		failed = msgTipsFailed
		saved = msgTipsSaved(input, sess.Data["date"])
	}

	if err := d.store.UpdateField(ctx, date, field, input); err != nil {
		if errors.Is(err, storage.ErrInvalidValue) {
			return []string{msgBadNumber}
		}
		d.logger.Error("update field failed",
			zap.String("date", sess.Data["date"]),
			zap.String("field", string(field)),
			zap.Error(err))
		return []string{failed}
	}
	return []string{saved}
}

// ── Edit pipeline ──

func (d *Dispatcher) stepEditDateFn(ctx context.Context, chatID int64, sess *Session, input string) []string {
	date, err := model.ParseDate(input)
	if err != nil {
		d.clear(ctx, chatID)
		return []string{msgBadDate}
	}
	if !d.store.ShiftExists(ctx, date) {
		d.clear(ctx, chatID)
		return []string{msgShiftMissing(input)}
	}

	sess.Data["date"] = input
	d.advance(ctx, chatID, sess, stepEditField)
	return []string{msgAskEditField}
}

func (d *Dispatcher) stepEditFieldFn(ctx context.Context, chatID int64, sess *Session, input string) []string {
	field, ok := storage.ParseField(input)
	if !ok {
		d.clear(ctx, chatID)
		return []string{msgBadField}
	}

	sess.Data["field"] = string(field)
	sess.Data["label"] = strings.ToLower(input)
	d.advance(ctx, chatID, sess, stepEditValue)
	return []string{msgAskEditValue(sess.Data["label"])}
}

func (d *Dispatcher) stepEditValueFn(ctx context.Context, chatID int64, sess *Session, input string) []string {
	defer d.clear(ctx, chatID)

	date, err := model.ParseDate(sess.Data["date"])
	if err != nil {
		return []string{msgEditFailed}
	}

	if err := d.store.UpdateField(ctx, date, storage.Field(sess.Data["field"]), input); err != nil {
		if !errors.Is(err, storage.ErrInvalidValue) {
			d.logger.Error("edit failed",
				zap.String("date", sess.Data["date"]),
				zap.String("field", sess.Data["field"]),
				zap.Error(err))
		}
		return []string{msgEditFailed}
	}
	return []string{msgEditSaved(sess.Data["label"], input, sess.Data["date"])}
}

// ── Profit pipeline ──

func (d *Dispatcher) stepProfit(ctx context.Context, chatID int64, input string) []string {
	defer d.clear(ctx, chatID)

	date, err := model.ParseDate(input)
	if err != nil {
		return []string{msgBadDate}
	}

	now := d.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today) {
		return []string{msgFutureDate}
	}

	if !d.store.ShiftExists(ctx, date) {
		return []string{msgShiftMissing(input)}
	}

	value, err := d.store.ComputeProfit(ctx, date)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			d.logger.Error("compute profit failed", zap.String("date", input), zap.Error(err))
		}
		return []string{msgNoProfitData}
	}
	return []string{msgProfit(input, value)}
}

// ── Statistics / export pipelines ──

func (d *Dispatcher) stepPeriodStart(ctx context.Context, chatID int64, sess *Session, input, nextStep string) []string {
	if _, err := model.ParseDate(input); err != nil {
		d.clear(ctx, chatID)
		return []string{msgBadDate}
	}
	sess.Data["from"] = input
	d.advance(ctx, chatID, sess, nextStep)
	return []string{msgAskEndDate}
}

func (d *Dispatcher) stepStats(ctx context.Context, chatID int64, sess *Session, input string) []string {
	defer d.clear(ctx, chatID)

	from, to, reply := d.parsePeriod(sess, input)
	if reply != "" {
		return []string{reply}
	}

	stats, err := d.stats.Statistics(ctx, from, to)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			d.logger.Error("statistics failed", zap.Error(err))
		}
		return []string{msgNoPeriodData}
	}
	return []string{formatStats(stats, sess.Data["from"], input)}
}

func (d *Dispatcher) stepExport(ctx context.Context, chatID int64, sess *Session, input string) []string {
	defer d.clear(ctx, chatID)

	from, to, reply := d.parsePeriod(sess, input)
	if reply != "" {
		return []string{reply}
	}

	shifts, err := d.stats.ListShifts(ctx, from, to)
	if err != nil {
		d.logger.Error("list shifts failed", zap.Error(err))
		return []string{msgNoPeriodData}
	}
	if len(shifts) == 0 {
		return []string{msgNoPeriodData}
	}

	report := formatExport(shifts, sess.Data["from"], input)
	return chunkText(report, maxReplyLength)
}

func (d *Dispatcher) parsePeriod(sess *Session, input string) (from, to time.Time, errReply string) {
	to, err := model.ParseDate(input)
	if err != nil {
		return time.Time{}, time.Time{}, msgBadDate
	}
	from, err = model.ParseDate(sess.Data["from"])
	if err != nil {
		return time.Time{}, time.Time{}, msgBadDate
	}
	return from, to, ""
}

// ── Session helpers ──

func (d *Dispatcher) begin(ctx context.Context, chatID int64, step string) {
	if err := d.sessions.Put(ctx, chatID, newSession(step)); err != nil {
		d.logger.Error("saving session failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) advance(ctx context.Context, chatID int64, sess *Session, step string) {
	sess.Step = step
	if err := d.sessions.Put(ctx, chatID, sess); err != nil {
		d.logger.Error("saving session failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) clear(ctx context.Context, chatID int64) {
	if err := d.sessions.Clear(ctx, chatID); err != nil {
		d.logger.Error("clearing session failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
