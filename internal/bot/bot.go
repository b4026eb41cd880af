package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"vrlounge/internal/payroll"
	"vrlounge/internal/report"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// Reports is what the bot asks for on behalf of managers.
type Reports interface {
	Monthly(ctx context.Context, p report.Period) (*payroll.Monthly, error)
	Weekly(ctx context.Context, p report.Period) (*payroll.Weekly, error)
	Day(ctx context.Context, p report.Period) (*report.DayReport, error)
	ExportMonthlyExcel(ctx context.Context, p report.Period, out io.Writer) (*payroll.Monthly, error)
}

// Options tune the bot.
type Options struct {
	Debug          bool
	MessagesPerSec float64
	MessagesBurst  int
	UpdateTimeout  int
	Location       *time.Location
}

// Bot answers managers' report commands and broadcasts scheduled reports.
type Bot struct {
	tg       telegramClient
	reports  Reports
	managers map[int64]struct{}
	limiter  *rate.Limiter
	opts     Options
	logger   *zerolog.Logger
	now      func() time.Time
}

func New(token string, reports Reports, managers []int64, opts Options, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = opts.Debug
	return newBot(&realTelegramClient{api: api}, reports, managers, opts, logger)
}

// NewWithTelegramClient allows injecting a mocked Telegram client for tests.
func NewWithTelegramClient(tg telegramClient, reports Reports, managers []int64, opts Options, logger *zerolog.Logger) (*Bot, error) {
	return newBot(tg, reports, managers, opts, logger)
}

func newBot(tg telegramClient, reports Reports, managers []int64, opts Options, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, fmt.Errorf("telegram client is nil")
	}
	if reports == nil {
		return nil, fmt.Errorf("reports service is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	mgrs := make(map[int64]struct{}, len(managers))
	for _, id := range managers {
		mgrs[id] = struct{}{}
	}
	if opts.MessagesPerSec <= 0 {
		opts.MessagesPerSec = 20
	}
	if opts.MessagesBurst <= 0 {
		opts.MessagesBurst = 5
	}
	if opts.UpdateTimeout <= 0 {
		opts.UpdateTimeout = 60
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	l := logger.With().Str("component", "bot").Logger()
	return &Bot{
		tg:       tg,
		reports:  reports,
		managers: mgrs,
		limiter:  rate.NewLimiter(rate.Limit(opts.MessagesPerSec), opts.MessagesBurst),
		opts:     opts,
		logger:   &l,
		now:      time.Now,
	}, nil
}

// Start polls updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.opts.UpdateTimeout
	updates := b.tg.GetUpdatesChan(u)
	defer b.tg.StopReceivingUpdates()
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("Bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			requestID := uuid.New().String()
			l := b.logger.With().Str("request_id", requestID).Logger()
			updateCtx := l.WithContext(ctx)
			b.handleUpdate(updateCtx, &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	zerolog.Ctx(ctx).Debug().
		Int64("user_id", update.Message.From.ID).
		Str("text", update.Message.Text).
		Msg("Handling message")
	b.handleMessage(ctx, update.Message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		return
	}
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	if cmd == "start" || cmd == "help" {
		b.reply(ctx, msg.Chat.ID, helpText(b.isManager(msg.From.ID)))
		return
	}
	if !b.isManager(msg.From.ID) {
		zerolog.Ctx(ctx).Warn().Int64("user_id", msg.From.ID).Str("command", cmd).Msg("Report command from non-manager")
		b.observe(cmd, "forbidden")
		b.reply(ctx, msg.Chat.ID, "⛔ Отчёты доступны только управляющим.")
		return
	}

	switch cmd {
	case "day":
		b.handleDay(ctx, msg.Chat.ID, args)
	case "salary":
		b.handleSalary(ctx, msg.Chat.ID, args)
	case "week":
		b.handleWeek(ctx, msg.Chat.ID, args)
	case "export":
		b.handleExport(ctx, msg.Chat.ID, args)
	default:
		b.reply(ctx, msg.Chat.ID, "Неизвестная команда. "+helpText(true))
	}
}

func (b *Bot) isManager(id int64) bool {
	_, ok := b.managers[id]
	return ok
}

func helpText(manager bool) string {
	if !manager {
		return "Бот отчётов VR-клуба. Команды доступны управляющим."
	}
	return "Доступные команды:\n" +
		"/day [ГГГГ-ММ-ДД] — выручка и оплата смены\n" +
		"/week [ГГГГ-ММ-ДД] — итоги недели\n" +
		"/salary [ГГГГ-ММ] — зарплата за месяц\n" +
		"/export [ГГГГ-ММ] — зарплата за месяц в Excel\n" +
		"/help — эта справка"
}
