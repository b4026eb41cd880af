package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"vrlounge/internal/db"
	"vrlounge/internal/metrics"
	"vrlounge/internal/payroll"
	"vrlounge/internal/report"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const jobTimeout = 5 * time.Minute

// Reports builds the scheduled payroll reports.
type Reports interface {
	Weekly(ctx context.Context, p report.Period) (*payroll.Weekly, error)
	ExportMonthlyExcel(ctx context.Context, p report.Period, out io.Writer) (*payroll.Monthly, error)
}

// Notifier delivers reports to managers.
type Notifier interface {
	NotifyManagers(ctx context.Context, text string) error
	SendDocumentToManagers(ctx context.Context, name string, data []byte, caption string) error
	SendTomorrowDigest(ctx context.Context) error
}

// SheetsExporter mirrors the monthly export to a spreadsheet.
type SheetsExporter interface {
	ExportSheets(ctx context.Context, p report.Period, data []report.Sheet) error
}

// Backuper snapshots the database.
type Backuper interface {
	Backup(dest string) error
	CleanupBackups(dir string, retention time.Duration) (int, error)
}

// Config holds cron specs (5-field, in Location) and backup settings.
// An empty spec disables its job.
type Config struct {
	WeeklySummary  string
	MonthlyExport  string
	TomorrowDigest string
	Backup         string

	BackupDir       string
	BackupRetention time.Duration
	Location        *time.Location
}

// Scheduler runs periodic reports and maintenance.
type Scheduler struct {
	cron     *cron.Cron
	cfg      Config
	reports  Reports
	notifier Notifier
	sheets   SheetsExporter
	backuper Backuper
	logger   *zerolog.Logger
	now      func() time.Time
	base     context.Context
}

// New registers the configured jobs. sheets and backuper may be nil.
func New(cfg Config, reports Reports, notifier Notifier, sheets SheetsExporter, backuper Backuper, logger *zerolog.Logger) (*Scheduler, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	l := logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{l: &l}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cfg:      cfg,
		reports:  reports,
		notifier: notifier,
		sheets:   sheets,
		backuper: backuper,
		logger:   &l,
		now:      time.Now,
		base:     context.Background(),
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{"weekly_summary", cfg.WeeklySummary, s.RunWeeklySummary},
		{"monthly_export", cfg.MonthlyExport, s.RunMonthlyExport},
		{"tomorrow_digest", cfg.TomorrowDigest, s.RunTomorrowDigest},
		{"backup", cfg.Backup, s.RunBackup},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if j.name == "backup" && backuper == nil {
			continue
		}
		name, run := j.name, j.run
		if _, err := s.cron.AddFunc(j.spec, func() { s.execute(name, run) }); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", name, j.spec, err)
		}
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine. Jobs inherit ctx values.
func (s *Scheduler) Start(ctx context.Context) {
	s.base = ctx
	s.cron.Start()
	s.logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop prevents new runs and waits for running jobs or ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Scheduler stop timed out with jobs still running")
	}
}

func (s *Scheduler) execute(name string, run func(context.Context) error) {
	ctx, cancel := context.WithTimeout(s.base, jobTimeout)
	defer cancel()
	l := s.logger.With().Str("job", name).Logger()
	ctx = l.WithContext(ctx)

	start := time.Now()
	if err := run(ctx); err != nil {
		metrics.IncJob(name, "error")
		l.Error().Err(err).Dur("duration", time.Since(start)).Msg("Scheduled job failed")
		return
	}
	metrics.IncJob(name, "ok")
	l.Info().Dur("duration", time.Since(start)).Msg("Scheduled job finished")
}

// RunWeeklySummary sends managers the payroll of the previous week.
func (s *Scheduler) RunWeeklySummary(ctx context.Context) error {
	p := report.PreviousWeek(s.now().In(s.cfg.Location))
	w, err := s.reports.Weekly(ctx, p)
	if err != nil {
		if errors.Is(err, report.ErrAnomalies) && w != nil {
			_ = s.notifier.NotifyManagers(ctx, rejectedText("Итоги недели "+p.Title(), err))
		}
		return fmt.Errorf("weekly summary %s: %w", p.Key(), err)
	}
	return s.notifier.NotifyManagers(ctx, report.FormatWeekly(p, w))
}

// RunMonthlyExport sends the previous month's payroll workbook and mirrors it
// to Google Sheets when configured.
func (s *Scheduler) RunMonthlyExport(ctx context.Context) error {
	p := report.PreviousMonth(s.now().In(s.cfg.Location))
	var buf bytes.Buffer
	m, err := s.reports.ExportMonthlyExcel(ctx, p, &buf)
	if err != nil {
		if errors.Is(err, report.ErrAnomalies) && m != nil {
			_ = s.notifier.NotifyManagers(ctx, rejectedText("Зарплата за "+p.Title(), err))
		}
		return fmt.Errorf("monthly export %s: %w", p.Key(), err)
	}

	caption := "Зарплата за " + p.Title() + ", фонд оплаты " + report.Money(m.Payout())
	var errs []error
	if err := s.notifier.SendDocumentToManagers(ctx, report.ExportFilename(p), buf.Bytes(), caption); err != nil {
		errs = append(errs, err)
	}
	if s.sheets != nil {
		if err := s.sheets.ExportSheets(ctx, p, report.MonthlySheets(p, m)); err != nil {
			errs = append(errs, fmt.Errorf("google sheets: %w", err))
		}
	}
	return errors.Join(errs...)
}

// RunTomorrowDigest reminds managers of the next day's bookings.
func (s *Scheduler) RunTomorrowDigest(ctx context.Context) error {
	return s.notifier.SendTomorrowDigest(ctx)
}

// RunBackup snapshots the database and prunes snapshots past retention.
func (s *Scheduler) RunBackup(ctx context.Context) error {
	if s.backuper == nil {
		return nil
	}
	dest := filepath.Join(s.cfg.BackupDir, db.BackupName(s.now()))
	if err := s.backuper.Backup(dest); err != nil {
		return err
	}
	removed, err := s.backuper.CleanupBackups(s.cfg.BackupDir, s.cfg.BackupRetention)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("path", dest).Int("removed", removed).Msg("Backup created")
	return nil
}

func rejectedText(what string, err error) string {
	return "❗ " + what + ": отчёт не сформирован, в данных есть ошибки.\n" + err.Error()
}

// cronLogger routes cron's own messages to zerolog.
type cronLogger struct {
	l *zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
