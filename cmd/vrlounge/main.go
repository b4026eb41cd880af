package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"vrlounge/internal/api"
	"vrlounge/internal/bot"
	"vrlounge/internal/config"
	"vrlounge/internal/db"
	"vrlounge/internal/google"
	"vrlounge/internal/grpcapi"
	"vrlounge/internal/metrics"
	"vrlounge/internal/pricing"
	"vrlounge/internal/report"
	"vrlounge/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("VRLOUNGE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Telegram.Debug {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid timezone")
	}

	database, err := db.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer database.Close()
	if n, err := database.CountBookings(context.Background()); err == nil {
		logger.Info().Int("bookings", n).Str("path", cfg.Database.Path).Msg("database opened")
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
	}

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := report.NewService(database, nil, report.NewCache(rdb, cfg.CacheTTL()), &logger)

	// Initial load + hot reload of the price table
	if err := config.WatchPrices(ctx, cfg.PricesPath, 30*time.Second, func(t *pricing.Table) {
		svc.SetPrices(t)
		metrics.IncPriceReload("ok")
		logger.Info().Str("version", t.Version).Str("policy", string(t.Policy)).Msg("price table loaded")
	}, func(err error) {
		metrics.IncPriceReload("error")
		logger.Error().Err(err).Msg("price table reload failed, keeping previous prices")
	}); err != nil {
		logger.Fatal().Err(err).Str("path", cfg.PricesPath).Msg("failed to load prices")
	}

	var wg sync.WaitGroup
	goServe := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	var b *bot.Bot
	if cfg.Telegram.BotToken != "" && cfg.Telegram.BotToken != "YOUR_BOT_TOKEN_HERE" {
		b, err = bot.New(cfg.Telegram.BotToken, svc, cfg.Managers, bot.Options{
			Debug:          cfg.Telegram.Debug,
			MessagesPerSec: cfg.Telegram.MessagesPerSec,
			MessagesBurst:  cfg.Telegram.MessagesBurst,
			UpdateTimeout:  cfg.UpdateTimeout(),
			Location:       loc,
		}, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create bot error")
		}
	} else {
		logger.Warn().Msg("telegram.bot_token is not set, bot and report broadcasts are disabled")
	}

	checks := []api.Check{
		{Name: "db", Ping: database.PingContext},
		{Name: "cache", Ping: svc.Ping},
	}
	goServe(func() { startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, checks, &logger) })
	if cfg.Monitoring.PrometheusEnabled {
		goServe(func() { startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger) })
	}
	if cfg.API.Enabled {
		ingest := &api.Ingest{Store: database, APIKey: cfg.API.APIKey}
		if b != nil {
			ingest.Notifier = b
		}
		if cfg.API.APIKey == "" {
			logger.Warn().Msg("api.api_key is not set, write endpoints are open")
		}
		srv := api.NewServer(svc, checks, ingest, &logger).HTTPServer(cfg.API.Port)
		goServe(func() { serveHTTP(ctx, srv, "api", &logger) })
	}
	if cfg.GRPC.Enabled {
		gs := grpcapi.NewServer(svc, &logger)
		goServe(func() { serveGRPC(ctx, gs, cfg.GRPC.Port, &logger) })
	}

	if cfg.Schedule.Enabled {
		sched, err := newScheduler(ctx, cfg, loc, svc, b, database, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("create scheduler error")
		}
		sched.Start(ctx)
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sched.Stop(stopCtx)
		}()
	}

	logger.Info().Msg("vrlounge started")
	if b != nil {
		goServe(func() { b.Start(ctx) })
	}
	<-ctx.Done()
	logger.Info().Msg("shutting down")
	wg.Wait()
}

func newScheduler(ctx context.Context, cfg *config.Config, loc *time.Location, svc *report.Service, b *bot.Bot, database *db.DB, logger *zerolog.Logger) (*scheduler.Scheduler, error) {
	sc := scheduler.Config{
		BackupDir:       cfg.Backup.Path,
		BackupRetention: cfg.BackupRetention(),
		Location:        loc,
	}
	var notifier scheduler.Notifier
	if b != nil {
		notifier = b
		sc.WeeklySummary = cfg.Schedule.WeeklySummary
		sc.MonthlyExport = cfg.Schedule.MonthlyExport
		sc.TomorrowDigest = cfg.Schedule.TomorrowDigest
	}

	var backuper scheduler.Backuper
	if cfg.Backup.Enabled {
		if err := os.MkdirAll(cfg.Backup.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create backup directory: %w", err)
		}
		backuper = database
		sc.Backup = cfg.Schedule.Backup
	}

	var sheets scheduler.SheetsExporter
	if cfg.Google.Enabled && b != nil {
		ss, err := google.NewSheetsService(ctx, cfg.Google.CredentialsFile, cfg.Google.SpreadsheetID, logger)
		if err != nil {
			logger.Error().Err(err).Msg("google sheets disabled")
		} else {
			sheets = ss
		}
	}

	return scheduler.New(sc, svc, notifier, sheets, backuper, logger)
}

func startHealthServer(ctx context.Context, port int, checks []api.Check, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		for _, c := range checks {
			if err := c.Ping(ctxPing); err != nil {
				http.Error(w, c.Name+" not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	serveHTTP(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "health", logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serveHTTP(ctx, &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}, "metrics", logger)
}

func serveHTTP(ctx context.Context, srv *http.Server, name string, logger *zerolog.Logger) {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Str("server", name).Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Str("server", name).Msg("server error")
	}
}

func serveGRPC(ctx context.Context, gs *grpcapi.Server, port int, logger *zerolog.Logger) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		logger.Error().Err(err).Msg("grpc listen error")
		return
	}
	go func() {
		<-ctx.Done()
		gs.Stop()
	}()
	logger.Info().Str("server", "grpc").Str("addr", lis.Addr().String()).Msg("listening")
	if err := gs.Serve(lis); err != nil {
		logger.Error().Err(err).Msg("grpc server error")
	}
}
