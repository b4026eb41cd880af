package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vrlounge/internal/model"
	"vrlounge/internal/report"
)

// SendTomorrowDigest tells managers about the next day's bookings and staffing.
// Nothing is sent for a day without bookings.
func (b *Bot) SendTomorrowDigest(ctx context.Context) error {
	tomorrow := b.now().In(b.opts.Location).AddDate(0, 0, 1)
	p, err := report.ParseDay(tomorrow.Format(model.DateLayout))
	if err != nil {
		return err
	}
	d, err := b.reports.Day(ctx, p)
	if d == nil {
		return fmt.Errorf("tomorrow digest: %w", err)
	}
	if d.Bookings == 0 {
		return nil
	}
	return b.NotifyManagers(ctx, formatReminderMessage(tomorrow, d))
}

func formatReminderMessage(day time.Time, d *report.DayReport) string {
	var sb strings.Builder
	birthdays := 0
	for _, l := range d.Lines {
		if l.Birthday {
			birthdays++
		}
	}
	if birthdays > 0 {
		fmt.Fprintf(&sb, "🎂 Напоминание: завтра (%s) дней рождения: %d\n", day.Format("02.01.2006"), birthdays)
	} else {
		fmt.Fprintf(&sb, "🔔 Напоминание: завтра (%s) записей: %d\n", day.Format("02.01.2006"), d.Bookings)
	}

	for _, l := range d.Lines {
		fmt.Fprintf(&sb, "\n⏰ %s 👤 %s\n", l.StartTime, l.Client)
		if l.Services != "" {
			fmt.Fprintf(&sb, "🎮 %s\n", l.Services)
		}
		fmt.Fprintf(&sb, "💰 Сумма: %s", report.Money(float64(l.Total)))
		if l.FinalTotal != l.Total {
			fmt.Fprintf(&sb, ", итоговая: %s", report.Money(float64(l.FinalTotal)))
		}
		sb.WriteString("\n")
	}

	switch {
	case d.MainAdmin == nil:
		sb.WriteString("\n⚠️ Администратор на смену не назначен.")
	case d.HelperAdmin == nil && birthdays > 0:
		fmt.Fprintf(&sb, "\n👑 Смена: %s, помощник не назначен.", d.MainAdmin.Name)
	case d.HelperAdmin != nil:
		fmt.Fprintf(&sb, "\n👑 Смена: %s, помощник: %s", d.MainAdmin.Name, d.HelperAdmin.Name)
	default:
		fmt.Fprintf(&sb, "\n👑 Смена: %s", d.MainAdmin.Name)
	}
	return sb.String()
}
