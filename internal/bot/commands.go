package bot

import (
	"bytes"
	"context"
	"errors"

	"vrlounge/internal/metrics"
	"vrlounge/internal/model"
	"vrlounge/internal/report"

	"github.com/rs/zerolog"
)

func (b *Bot) today() string {
	return b.now().In(b.opts.Location).Format(model.DateLayout)
}

func (b *Bot) handleDay(ctx context.Context, chatID int64, arg string) {
	if arg == "" {
		arg = b.today()
	}
	p, err := report.ParseDay(arg)
	if err != nil {
		b.badArgument(ctx, chatID, "day", "Формат даты: ГГГГ-ММ-ДД, например /day 2024-06-01")
		return
	}
	d, err := b.reports.Day(ctx, p)
	if !b.checkReport(ctx, chatID, "day", d != nil, err) {
		return
	}
	b.reply(ctx, chatID, report.FormatDay(d))
}

func (b *Bot) handleWeek(ctx context.Context, chatID int64, arg string) {
	if arg == "" {
		arg = b.today()
	}
	p, err := report.WeekOf(arg)
	if err != nil {
		b.badArgument(ctx, chatID, "week", "Формат даты: ГГГГ-ММ-ДД, например /week 2024-06-03")
		return
	}
	w, err := b.reports.Weekly(ctx, p)
	if !b.checkReport(ctx, chatID, "week", w != nil, err) {
		return
	}
	b.reply(ctx, chatID, report.FormatWeekly(p, w))
}

func (b *Bot) monthArg(arg string) (report.Period, error) {
	if arg == "" {
		return report.MonthOf(b.now().In(b.opts.Location)), nil
	}
	return report.ParseMonth(arg)
}

func (b *Bot) handleSalary(ctx context.Context, chatID int64, arg string) {
	p, err := b.monthArg(arg)
	if err != nil {
		b.badArgument(ctx, chatID, "salary", "Формат месяца: ГГГГ-ММ, например /salary 2024-06")
		return
	}
	m, err := b.reports.Monthly(ctx, p)
	if !b.checkReport(ctx, chatID, "salary", m != nil, err) {
		return
	}
	b.reply(ctx, chatID, report.FormatMonthly(p, m))
}

func (b *Bot) handleExport(ctx context.Context, chatID int64, arg string) {
	p, err := b.monthArg(arg)
	if err != nil {
		b.badArgument(ctx, chatID, "export", "Формат месяца: ГГГГ-ММ, например /export 2024-06")
		return
	}
	var buf bytes.Buffer
	m, err := b.reports.ExportMonthlyExcel(ctx, p, &buf)
	if !b.checkReport(ctx, chatID, "export", m != nil, err) {
		return
	}
	caption := "Зарплата за " + p.Title() + ", фонд оплаты " + report.Money(m.Payout())
	if err := b.sendDocument(ctx, chatID, report.ExportFilename(p), buf.Bytes(), caption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Failed to send export")
		b.observe("export", "error")
		b.reply(ctx, chatID, "Не удалось отправить файл.")
	}
}

// checkReport answers the chat on failure and reports whether a result can be shown.
func (b *Bot) checkReport(ctx context.Context, chatID int64, cmd string, ok bool, err error) bool {
	switch {
	case err == nil:
		b.observe(cmd, "ok")
		return true
	case errors.Is(err, report.ErrAnomalies) && ok:
		b.observe(cmd, "rejected")
		b.reply(ctx, chatID, "❗ Отчёт не сформирован: в данных есть ошибки, а прайс работает в строгом режиме.\n"+err.Error())
		return false
	default:
		zerolog.Ctx(ctx).Error().Err(err).Str("command", cmd).Msg("Report failed")
		b.observe(cmd, "error")
		b.reply(ctx, chatID, "Не удалось сформировать отчёт, попробуйте позже.")
		return false
	}
}

func (b *Bot) badArgument(ctx context.Context, chatID int64, cmd, hint string) {
	b.observe(cmd, "bad_argument")
	b.reply(ctx, chatID, hint)
}

func (b *Bot) observe(cmd, outcome string) {
	metrics.IncBotCommand(cmd, outcome)
}
