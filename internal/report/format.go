package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"vrlounge/internal/model"
	"vrlounge/internal/payroll"
	"vrlounge/internal/pricing"
	"vrlounge/internal/revenue"
)

const nbsp = "\u00a0"

// Money formats an amount the way staff see it: rubles with grouped
// thousands and up to two decimals, e.g. "12 345,5 ₽".
func Money(v float64) string {
	v = roundTo(v, 2)
	neg := v < 0
	if neg {
		v = -v
	}

	whole := math.Floor(v)
	frac := int(math.Round((v - whole) * 100))
	if frac == 100 {
		whole++
		frac = 0
	}

	digits := strconv.FormatFloat(whole, 'f', 0, 64)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteString(nbsp)
		}
		b.WriteRune(r)
	}
	if frac > 0 {
		f := fmt.Sprintf("%02d", frac)
		b.WriteString("," + strings.TrimRight(f, "0"))
	}
	b.WriteString(nbsp + "₽")
	return b.String()
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// FormatMonthly renders the monthly payroll for a Telegram message.
func FormatMonthly(p Period, m *payroll.Monthly) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 Зарплата за %s\n", p.Title())
	fmt.Fprintf(&b, "Выручка: %s\n\n", Money(m.TotalRevenue))

	paid := 0
	for _, rec := range m.Records() {
		if len(rec.Details) == 0 {
			continue
		}
		paid++
		fmt.Fprintf(&b, "👤 %s\n", rec.Name)
		fmt.Fprintf(&b, "   Смен: %d, часов помощи: %d\n", rec.DaysWorked, rec.HoursWorked)
		fmt.Fprintf(&b, "   Оклад: %s, бонус: %s\n", Money(rec.BaseSalary), Money(rec.BonusSalary))
		fmt.Fprintf(&b, "   Итого: %s\n", Money(rec.TotalSalary))
		for _, d := range rec.Details {
			if d.Note != "" {
				fmt.Fprintf(&b, "   ⚠️ %s: %s\n", d.Date, d.Note)
			}
		}
		b.WriteString("\n")
	}
	if paid == 0 {
		b.WriteString("Смен за период нет.\n\n")
	}
	fmt.Fprintf(&b, "Фонд оплаты: %s\n", Money(m.Payout()))
	writeAnomalies(&b, m.Anomalies)
	return strings.TrimRight(b.String(), "\n")
}

// FormatWeekly renders the weekly totals with helper-hour warnings.
func FormatWeekly(p Period, w *payroll.Weekly) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Итоги недели %s\n", p.Title())
	fmt.Fprintf(&b, "Выручка: %s\n\n", Money(w.TotalRevenue))

	for _, t := range w.Records() {
		if t.Total == 0 && len(t.Warnings) == 0 {
			continue
		}
		fmt.Fprintf(&b, "👤 %s: %s\n", t.Name, Money(t.Total))
	}

	if warnings := w.Warnings(); len(warnings) > 0 {
		b.WriteString("\n⚠️ Расхождения по часам помощника:\n")
		for _, wr := range warnings {
			fmt.Fprintf(&b, "• %s\n", wr)
		}
	}
	writeAnomalies(&b, w.Anomalies)
	return strings.TrimRight(b.String(), "\n")
}

// FormatDay renders the card of a single day.
func FormatDay(d *DayReport) string {
	var b strings.Builder
	day, _ := ParseDay(d.Date)
	fmt.Fprintf(&b, "📅 Смена %s\n", day.Title())
	fmt.Fprintf(&b, "Выручка: %s\n", Money(d.TotalRevenue))
	fmt.Fprintf(&b, "Выручка ДР: %s\n", Money(d.BirthdayRevenue))
	fmt.Fprintf(&b, "Бронирований: %d\n", d.Bookings)

	if !d.Staffed {
		b.WriteString("\nАдминистраторы не назначены.\n")
	}
	switch {
	case d.Main != nil:
		fmt.Fprintf(&b, "\n👑 %s: %s (%s + бонус %s)\n",
			d.Main.Name, Money(d.Main.Total), Money(d.Main.Base), Money(d.Main.Bonus))
	case d.MainAdmin != nil:
		fmt.Fprintf(&b, "\n👑 %s\n", d.MainAdmin.Name)
	}
	switch {
	case d.Helper != nil:
		fmt.Fprintf(&b, "🤝 %s: %s (%d ч, бонус %s)\n",
			d.Helper.Name, Money(d.Helper.Total), d.Helper.Hours, Money(d.Helper.Bonus))
		if d.Helper.Note != "" {
			fmt.Fprintf(&b, "   ⚠️ %s\n", d.Helper.Note)
		}
	case d.HelperAdmin != nil:
		fmt.Fprintf(&b, "🤝 %s: без оплаты за день\n", d.HelperAdmin.Name)
	}

	if len(d.Lines) > 0 {
		b.WriteString("\n")
		for _, l := range d.Lines {
			icon := "🎮"
			if l.Birthday {
				icon = "🎂"
			}
			fmt.Fprintf(&b, "%s %s %s: %s", icon, l.StartTime, l.Client, Money(float64(l.FinalTotal)))
			if l.FinalTotal != l.Total {
				fmt.Fprintf(&b, " (без скидки %s)", Money(float64(l.Total)))
			}
			b.WriteString("\n")
		}
	}
	writeAnomalies(&b, d.Anomalies)
	return strings.TrimRight(b.String(), "\n")
}

func writeAnomalies(b *strings.Builder, as model.Anomalies) {
	if len(as) == 0 {
		return
	}
	fmt.Fprintf(b, "\n❗ Проблемы в данных: %d\n", len(as))
	const limit = 5
	for i, a := range as {
		if i == limit {
			fmt.Fprintf(b, "… и ещё %d\n", len(as)-limit)
			break
		}
		fmt.Fprintf(b, "• %s\n", a.Error())
	}
}

// FormatNewBooking renders the managers' notice about a booking that was just
// entered, with its price.
func FormatNewBooking(b *model.Booking, q revenue.Quote) string {
	var sb strings.Builder
	date := b.Date
	if day, err := ParseDay(b.Date); err == nil {
		date = day.Title()
	}

	sb.WriteString("📝 Новая запись клиента!\n\n")
	fmt.Fprintf(&sb, "👤 Клиент: %s\n", b.ClientName)
	if b.ClientPhone != "" {
		fmt.Fprintf(&sb, "📞 Телефон: %s\n", b.ClientPhone)
	}
	fmt.Fprintf(&sb, "📅 Дата: %s\n", date)
	fmt.Fprintf(&sb, "⏰ Время: %s\n", b.StartTime)
	fmt.Fprintf(&sb, "⏱ Длительность: %s ч\n", b.Duration.Raw())
	if services := pricing.Labels(b.SelectedServices); services != "" {
		fmt.Fprintf(&sb, "🎮 Услуги: %s\n", services)
	}

	sb.WriteString("\n💰 Финансы:\n")
	fmt.Fprintf(&sb, "   Сумма: %s\n", Money(float64(q.Total)))
	switch {
	case b.DiscountPercent.Float() > 0:
		fmt.Fprintf(&sb, "   Скидка: %s%%\n", b.DiscountPercent.Raw())
	case b.DiscountAmount.Float() > 0:
		fmt.Fprintf(&sb, "   Скидка: %s\n", Money(b.DiscountAmount.Float()))
	}
	fmt.Fprintf(&sb, "   Итоговая: %s", Money(float64(q.FinalTotal)))

	if notes := strings.TrimSpace(b.Notes); notes != "" {
		fmt.Fprintf(&sb, "\n\n📝 Примечания: %s", notes)
	}
	return sb.String()
}
