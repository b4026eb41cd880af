package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"vrlounge/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("VRLOUNGE_TEST_TOKEN", "123:abc")
	writeFile(t, path, `
telegram:
  bot_token: ${VRLOUNGE_TEST_TOKEN}
database:
  path: `+filepath.Join(dir, "data", "lounge.db")+`
report:
  cache_ttl_seconds: 300
  timezone: UTC
managers: [42, 43]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
	assert.Equal(t, "configs/prices.yaml", cfg.PricesPath)
	assert.Equal(t, "0 10 * * 1", cfg.Schedule.WeeklySummary)
	assert.Equal(t, "0 20 * * *", cfg.Schedule.TomorrowDigest)
	assert.Equal(t, 8090, cfg.Monitoring.HealthCheckPort)
	assert.Equal(t, 14*24*time.Hour, cfg.BackupRetention())
	assert.Contains(t, cfg.Managers, int64(43))
	assert.NotContains(t, cfg.Managers, int64(7))
	assert.DirExists(t, filepath.Join(dir, "data"))

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "telegram: [")
	_, err = Load(bad)
	assert.Error(t, err)

	tz := filepath.Join(dir, "tz.yaml")
	writeFile(t, tz, "database:\n  path: "+filepath.Join(dir, "x.db")+"\nreport:\n  timezone: Mars/Olympus\n")
	_, err = Load(tz)
	assert.ErrorContains(t, err, "report.timezone")
}

const pricesYAML = `
policy: strict
hostess: 2000
hourly:
  weekday_vr1: 500
  karaoke: 1000
birthday:
  1: 4000
  2: 3500
  3: 3000
`

func TestParsePrices(t *testing.T) {
	table, err := ParsePrices([]byte(pricesYAML))
	require.NoError(t, err)

	assert.True(t, table.IsStrict())
	assert.InDelta(t, 2000, table.HostessPrice(), 1e-9)
	assert.InDelta(t, 10500, table.BirthdayTotal(3), 1e-9)
	rate, ok := table.HourlyRate("karaoke")
	assert.True(t, ok)
	assert.InDelta(t, 1000, rate, 1e-9)
	assert.NotEmpty(t, table.Version)

	again, err := ParsePrices([]byte(pricesYAML))
	require.NoError(t, err)
	assert.Equal(t, table.Version, again.Version)

	changed, err := ParsePrices([]byte(pricesYAML + "  4: 2500\n"))
	require.NoError(t, err)
	assert.NotEqual(t, table.Version, changed.Version)
}

func TestParsePrices_DefaultsToLenient(t *testing.T) {
	table, err := ParsePrices([]byte("hourly:\n  karaoke: 1000\n"))
	require.NoError(t, err)
	assert.Equal(t, pricing.Lenient, table.Policy)
	assert.InDelta(t, pricing.DefaultHostessPrice, table.HostessPrice(), 1e-9)
}

func TestParsePrices_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative rate": "hourly:\n  karaoke: -1\n",
		"tier hour":     "birthday:\n  13: 3000\n",
		"reserved key":  "hourly:\n  hostess: 100\n",
		"policy":        "policy: relaxed\n",
		"syntax":        "hourly: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePrices([]byte(body))
			assert.Error(t, err)
		})
	}
}

func TestWatchPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	writeFile(t, path, pricesYAML)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		current *pricing.Table
		errs    []error
	)
	err := WatchPrices(ctx, path, 10*time.Millisecond,
		func(tb *pricing.Table) {
			mu.Lock()
			defer mu.Unlock()
			current = tb
		},
		func(err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		},
	)
	require.NoError(t, err)

	mu.Lock()
	first := current
	mu.Unlock()
	require.NotNil(t, first)

	writeFile(t, path, "hourly:\n  karaoke: -5\n")
	bump(t, path, time.Now().Add(time.Second))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(errs) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Same(t, first, current)
	mu.Unlock()

	writeFile(t, path, "hostess: 2500\n")
	bump(t, path, time.Now().Add(2*time.Second))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return current != first && current.Hostess == 2500
	}, time.Second, 5*time.Millisecond)
}

func TestWatchPrices_InitialLoadFails(t *testing.T) {
	err := WatchPrices(context.Background(), filepath.Join(t.TempDir(), "none.yaml"), time.Second, nil, nil)
	assert.Error(t, err)
}

func bump(t *testing.T, path string, at time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, at, at))
}

func TestShippedConfigs(t *testing.T) {
	table, err := LoadPrices(filepath.Join("..", "..", "configs", "prices.yaml"))
	require.NoError(t, err)

	def := pricing.Default()
	assert.Equal(t, def.Hostess, table.Hostess)
	assert.Equal(t, def.Hourly, table.Hourly)
	assert.Equal(t, def.Birthday, table.Birthday)
	assert.Equal(t, pricing.Lenient, table.Policy)

	cfgPath, err := filepath.Abs(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	t.Setenv("VRLOUNGE_BOT_TOKEN", "42:token")
	// Load creates the database directory relative to the working directory.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "42:token", cfg.Telegram.BotToken)
	assert.Equal(t, "0 20 * * *", cfg.Schedule.TomorrowDigest)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Moscow", loc.String())
}
