package bot

import (
	"fmt"
	"strings"

	"github.com/YakushevDanila/tanuki-bot3/internal/model"
	"github.com/YakushevDanila/tanuki-bot3/internal/profit"
)

// maxReplyLength is the chat platform's message size limit; longer
// reports are split into chunks of this many characters.
const maxReplyLength = 4000

// Profit tier thresholds for the encouragement message.
const (
	profitTierLow  = 4000.0
	profitTierHigh = 6000.0
)

// Fixed reply texts. The product surface is Russian, like the rest of
// the bot's vocabulary.
const (
	msgAskDate         = "Введи дату смены (ДД.ММ.ГГГГ):"
	msgAskAnyDate      = "Введи дату (ДД.ММ.ГГГГ):"
	msgAskStart        = "Введи время начала смены (чч:мм):"
	msgAskEnd          = "Теперь время окончания (чч:мм):"
	msgAskRevenue      = "Введи сумму выручки (только число):"
	msgAskTips         = "Введи сумму чаевых (число):"
	msgAskEditField    = "Что редактируем? (чай, начало, конец, выручка)"
	msgAskStatsStart   = "Введи начальную дату для статистики (ДД.ММ.ГГГГ):"
	msgAskExportStart  = "Введи начальную дату для экспорта (ДД.ММ.ГГГГ):"
	msgAskEndDate      = "Введи конечную дату (ДД.ММ.ГГГГ):"
	msgAskOverwriteYN  = "Пожалуйста, ответь 'да' или 'нет'"
	msgBadDate         = "❌ Неверный формат даты. Используй ДД.ММ.ГГГГ (например, 15.03.2024)"
	msgBadTime         = "❌ Неверный формат времени. Используй чч:мм (например, 09:00)"
	msgBadNumber       = "❌ Неверный формат числа. Введи только цифры (например: 5000)"
	msgBadField        = "❌ Такого параметра нет. Используй: чай, начало, конец, выручка"
	msgFutureDate      = "❌ Этот день ещё не наступил 🐾"
	msgNoProfitData    = "❌ Нет данных о прибыли на эту дату 😿"
	msgNoPeriodData    = "❌ Нет данных за указанный период"
	msgAddCancelled    = "❌ Добавление смены отменено. Используй /add_shift чтобы начать заново."
	msgAddFailed       = "❌ Ошибка при добавлении смены"
	msgRevenueFailed   = "❌ Не удалось обновить выручку"
	msgTipsFailed      = "❌ Не удалось добавить чаевые"
	msgEditFailed      = "❌ Ошибка: не удалось сохранить изменения"
	msgStatsRemoteOff  = "❌ Статистика недоступна при использовании Google Sheets. Используй SQLite хранилище."
	msgExportRemoteOff = "❌ Экспорт недоступен при использовании Google Sheets. Используй SQLite хранилище."
	msgUnknownCommand  = "Не понимаю эту команду 😿\nИспользуй /help для списка команд"
)

func msgShiftExists(date string) string {
	return fmt.Sprintf("❌ Смена на дату %s уже существует!\nХочешь перезаписать ее? (да/нет)", date)
}

func msgShiftMissing(date string) string {
	return fmt.Sprintf("❌ Смена на дату %s не найдена. Сначала добавь смену через /add_shift", date)
}

func msgShiftAdded(date, start, end string) string {
	return fmt.Sprintf("✅ Смена %s (%s-%s) добавлена 🩷", date, start, end)
}

func msgRevenueSaved(amount, date string) string {
	return fmt.Sprintf("✅ Выручка %s₽ обновлена для даты %s 💰✨", amount, date)
}

func msgTipsSaved(amount, date string) string {
	return fmt.Sprintf("✅ Чаевые %s₽ добавлены для даты %s ☕️💖", amount, date)
}

func msgEditSaved(field, value, date string) string {
	return fmt.Sprintf("✅ %s изменен на %s для даты %s 🩷", field, value, date)
}

func msgAskEditValue(field string) string {
	return fmt.Sprintf("Введи новое значение для %s:", field)
}

func msgMyID(chatID int64) string {
	return fmt.Sprintf("👤 Ваш ID: %d", chatID)
}

func msgHelp(storageName string) string {
	return "Привет! 🌸\n" +
		"Вот что я умею:\n" +
		"/add_shift — добавить дату и время смены\n" +
		"/revenue — ввести выручку за день\n" +
		"/tips — добавить сумму чаевых 💰\n" +
		"/edit — изменить данные\n" +
		"/profit — узнать прибыль за день\n" +
		"/stats — статистика за период\n" +
		"/export — экспорт данных за период\n" +
		"/myid — показать мой ID\n" +
		"/help — показать это сообщение\n" +
		fmt.Sprintf("\n💾 Хранилище: %s\n", storageName) +
		"💰 Формула прибыли: (часы × 220) + чаевые + (выручка × 0.015)"
}

// msgProfit picks the encouragement tier for the day's profit.
func msgProfit(date string, value float64) string {
	head := fmt.Sprintf("📊 Твоя прибыль за %s: %.2f₽.\n", date, value)
	switch {
	case value < profitTierLow:
		return head + "Не расстраивайся, котик 🐾 — ты отлично поработала!"
	case value <= profitTierHigh:
		return head + "Неплохая смена 😺 — беги радовать себя чем-то вкусным!"
	default:
		return head + "Ты просто суперстар 🌟 — ещё немного, и миллион твой!"
	}
}

func formatStats(stats *model.Statistics, from, to string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Статистика за период %s - %s:\n\n", from, to)
	fmt.Fprintf(&b, "• Количество смен: %d\n", stats.ShiftCount)
	fmt.Fprintf(&b, "• Общая выручка: %.2f₽\n", stats.TotalRevenue)
	fmt.Fprintf(&b, "• Общие чаевые: %.2f₽\n", stats.TotalTips)
	fmt.Fprintf(&b, "• Общая прибыль: %.2f₽\n", stats.TotalProfit)
	fmt.Fprintf(&b, "• Средняя выручка за смену: %.2f₽\n", stats.AvgRevenue)
	fmt.Fprintf(&b, "• Средние чаевые за смену: %.2f₽\n", stats.AvgTips)
	fmt.Fprintf(&b, "• Средняя прибыль за смену: %.2f₽", stats.AvgProfit)
	return b.String()
}

// formatExport renders the period export. Per-line profit uses the
// simplified revenue+tips approximation, like the totals.
func formatExport(shifts []model.Shift, from, to string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Экспорт данных за период %s - %s\n\n", from, to)

	var totalRevenue, totalTips float64
	for _, s := range shifts {
		date := s.Date
		if day, err := s.Day(); err == nil {
			date = model.FormatDate(day)
		}
		fmt.Fprintf(&b, "📅 %s (%s-%s)\n", date, s.StartTime, s.EndTime)
		fmt.Fprintf(&b, "   Выручка: %.2f₽\n", s.Revenue)
		fmt.Fprintf(&b, "   Чаевые: %.2f₽\n", s.Tips)
		fmt.Fprintf(&b, "   Прибыль: %.2f₽\n\n", profit.PeriodProfitApprox(s.Revenue, s.Tips))

		totalRevenue += s.Revenue
		totalTips += s.Tips
	}

	b.WriteString("ИТОГО:\n")
	fmt.Fprintf(&b, "Выручка: %.2f₽\n", totalRevenue)
	fmt.Fprintf(&b, "Чаевые: %.2f₽\n", totalTips)
	fmt.Fprintf(&b, "Общая прибыль: %.2f₽", profit.PeriodProfitApprox(totalRevenue, totalTips))
	return b.String()
}

// chunkText splits a report into platform-sized pieces.
func chunkText(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}
	var chunks []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
