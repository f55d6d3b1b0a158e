package telegram

import (
	"context"
	"edge_trading/internal/engine"
	"edge_trading/internal/models"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

// Controller is the part of the trading engine the bot drives
type Controller interface {
	Start(ctx context.Context, s engine.Strategy) error
	Stop(s engine.Strategy) error
	IsRunning(s engine.Strategy) bool
	TriggerScan() error
	Connect(ctx context.Context) error
	Stats() models.Stats
	SpotTrades() []models.TradeRecord
	PlacedTrades() []models.PlacedTrade
}

type Bot struct {
	bot          *tele.Bot
	engine       Controller
	authorizedID int64
	startTime    time.Time
	log          zerolog.Logger
	ctx          context.Context
}

// NewBot creates a long-polling bot that only answers authorizedID.
// ctx bounds the strategy loops started from chat.
func NewBot(ctx context.Context, token string, authorizedID int64, ctrl Controller, log zerolog.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		bot:          b,
		engine:       ctrl,
		authorizedID: authorizedID,
		startTime:    time.Now(),
		log:          log.With().Str("component", "telegram").Logger(),
		ctx:          ctx,
	}

	bot.setupHandlers()
	return bot, nil
}

// Start blocks while polling for updates
func (b *Bot) Start() {
	b.log.Info().Msg("📱 Telegram bot started")
	b.bot.Start()
}

func (b *Bot) Stop() {
	b.bot.Stop()
}

func (b *Bot) setupHandlers() {
	// Middleware for authorization
	b.bot.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != b.authorizedID {
				return c.Send("⛔ Unauthorized")
			}
			return next(c)
		}
	})

	// Commands
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/stats", b.handleStats)
	b.bot.Handle("/trades", b.handleTrades)
	b.bot.Handle("/scan", b.handleScan)
	b.bot.Handle("/connect", b.handleConnect)

	// Buttons
	b.bot.Handle(&btnStartSpot, b.toggle(engine.StrategySpot, true))
	b.bot.Handle(&btnStopSpot, b.toggle(engine.StrategySpot, false))
	b.bot.Handle(&btnStartScanner, b.toggle(engine.StrategyScanner, true))
	b.bot.Handle(&btnStopScanner, b.toggle(engine.StrategyScanner, false))
	b.bot.Handle(&btnStats, b.handleStats)
	b.bot.Handle(&btnTrades, b.handleTrades)
	b.bot.Handle(&btnScan, b.handleScan)
	b.bot.Handle(&btnConnect, b.handleConnect)
	b.bot.Handle(&btnRefresh, b.handleStats)
	b.bot.Handle(&btnBack, b.handleStart)
}

var (
	btnStartSpot    = tele.Btn{Text: "▶️ Start spot", Unique: "start_spot"}
	btnStopSpot     = tele.Btn{Text: "⏸️ Stop spot", Unique: "stop_spot"}
	btnStartScanner = tele.Btn{Text: "▶️ Start scanner", Unique: "start_scanner"}
	btnStopScanner  = tele.Btn{Text: "⏸️ Stop scanner", Unique: "stop_scanner"}
	btnStats        = tele.Btn{Text: "📊 Stats", Unique: "stats"}
	btnTrades       = tele.Btn{Text: "📋 Trades", Unique: "trades"}
	btnScan         = tele.Btn{Text: "🔍 Scan now", Unique: "scan"}
	btnConnect      = tele.Btn{Text: "🔌 Reconnect", Unique: "connect"}
	btnRefresh      = tele.Btn{Text: "🔄 Refresh", Unique: "refresh"}
	btnBack         = tele.Btn{Text: "🔙 Back", Unique: "back"}
)

func (b *Bot) handleStart(c tele.Context) error {
	menu := &tele.ReplyMarkup{}

	spotBtn := btnStartSpot
	if b.engine.IsRunning(engine.StrategySpot) {
		spotBtn = btnStopSpot
	}
	scanBtn := btnStartScanner
	if b.engine.IsRunning(engine.StrategyScanner) {
		scanBtn = btnStopScanner
	}

	menu.Inline(
		menu.Row(spotBtn, scanBtn),
		menu.Row(btnStats, btnTrades),
		menu.Row(btnScan, btnConnect),
	)

	msg := fmt.Sprintf(`🤖 *Edge Trading*

📈 Spot: %s
🎯 Scanner: %s

Choose an action:`,
		runningLabel(b.engine.IsRunning(engine.StrategySpot)),
		runningLabel(b.engine.IsRunning(engine.StrategyScanner)),
	)

	return c.Send(msg, menu, tele.ModeMarkdown)
}

func (b *Bot) toggle(s engine.Strategy, start bool) tele.HandlerFunc {
	return func(c tele.Context) error {
		var err error
		if start {
			err = b.engine.Start(b.ctx, s)
		} else {
			err = b.engine.Stop(s)
		}
		if err != nil {
			return c.Send("⚠️ " + err.Error())
		}
		return b.handleStart(c)
	}
}

func (b *Bot) handleStats(c tele.Context) error {
	msg := formatStats(b.engine.Stats(), time.Since(b.startTime), time.Now())

	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(btnRefresh, btnTrades),
		menu.Row(btnBack),
	)

	return c.Send(msg, menu, tele.ModeMarkdown)
}

func (b *Bot) handleTrades(c tele.Context) error {
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(btnBack))
	return c.Send(formatTrades(b.engine.SpotTrades(), b.engine.PlacedTrades(), 5), menu, tele.ModeMarkdown)
}

func (b *Bot) handleScan(c tele.Context) error {
	if err := b.engine.TriggerScan(); err != nil {
		return c.Send("⚠️ " + err.Error())
	}
	return c.Send("🔍 Scan started")
}

func (b *Bot) handleConnect(c tele.Context) error {
	return c.Send(connectReply(b.engine.Connect(b.ctx), b.engine.Stats().Scanner.Balance))
}

func connectReply(err error, balance float64) string {
	switch {
	case err == nil:
		return fmt.Sprintf("🔌 Connected to Kalshi\n💰 Balance: $%.2f", balance)
	case errors.Is(err, models.ErrAuth):
		return "🔐 Kalshi rejected the credentials: " + err.Error()
	}
	return "⚠️ Kalshi unreachable, credentials kept: " + err.Error()
}

func (b *Bot) send(msg string) {
	if _, err := b.bot.Send(&tele.User{ID: b.authorizedID}, msg, tele.ModeMarkdown); err != nil {
		b.log.Warn().Err(err).Msg("notification failed")
	}
}

func (b *Bot) SendTradeOpen(trade models.TradeRecord) {
	b.send(formatTradeOpen(trade))
}

func (b *Bot) SendTradeClose(trade models.TradeRecord) {
	b.send(formatTradeClose(trade))
}

func (b *Bot) SendOrderPlaced(trade models.PlacedTrade) {
	b.send(formatOrderPlaced(trade))
}

func (b *Bot) SendAnalysisUpdate(message string) {
	if _, err := b.bot.Send(&tele.User{ID: b.authorizedID}, message); err != nil {
		b.log.Warn().Err(err).Msg("notification failed")
	}
}

func runningLabel(running bool) string {
	if running {
		return "▶️ Running"
	}
	return "⏸️ Stopped"
}

func plEmoji(v float64) string {
	switch {
	case v > 0:
		return "🟢"
	case v < 0:
		return "🔴"
	}
	return "🟡"
}

func formatStats(stats models.Stats, uptime time.Duration, now time.Time) string {
	spot, sc := stats.Spot, stats.Scanner

	position := "none"
	if spot.Position != nil {
		position = fmt.Sprintf("%.6f @ %.2f", spot.Position.Size, spot.Position.EntryPrice)
	}

	return fmt.Sprintf(`📊 *Statistics*

*Spot* %s
📌 Status: %s
💵 Price: %.2f
💰 Cash: %.2f | Portfolio: %.2f
📈 Position: %s
%s Return: %+.2f%%
📅 Trades: %d | 🏆 %d | 📉 %d
📊 Win rate: %.1f%%
💎 Realized P&L: %+.2f | Unrealized: %+.2f
🧭 Last signal: %s (%d%%)

*Scanner* %s
📌 Status: %s
💰 Balance: $%.2f
%s P&L: %+.2f
🎯 Orders placed: %d
💸 Wagered: $%.2f

🕐 Uptime: %s
🕐 Updated: %s`,
		runningLabel(spot.Running),
		spot.Status,
		spot.Price,
		spot.Cash, spot.PortfolioValue,
		position,
		plEmoji(spot.TotalReturn), spot.TotalReturn,
		spot.TotalTrades, spot.WinningTrades, spot.LosingTrades,
		spot.WinRate,
		spot.RealizedPL, spot.UnrealizedPL,
		orWait(spot.LastSignal.Action), spot.LastSignal.Confidence,
		runningLabel(sc.Running),
		sc.Status,
		sc.Balance,
		plEmoji(sc.PnL), sc.PnL,
		sc.TradesPlaced,
		sc.TotalWagered,
		formatUptime(uptime),
		now.Format("15:04:05"),
	)
}

func orWait(a models.Action) models.Action {
	if a == "" {
		return models.ActionWait
	}
	return a
}

func formatTrades(spot []models.TradeRecord, placed []models.PlacedTrade, limit int) string {
	var sb strings.Builder

	sb.WriteString("📋 *Recent spot trades*\n")
	if len(spot) == 0 {
		sb.WriteString("No trades yet\n")
	}
	for i, t := range spot {
		if i == limit {
			break
		}
		line := fmt.Sprintf("%s %.6f @ %.2f", t.Type, t.Amount, t.Price)
		if t.PnL != nil {
			line += fmt.Sprintf(" | %s %+.2f", plEmoji(*t.PnL), *t.PnL)
		}
		sb.WriteString(fmt.Sprintf("• %s (%s)\n", line, t.Reason))
	}

	sb.WriteString("\n🎯 *Recent scanner orders*\n")
	if len(placed) == 0 {
		sb.WriteString("No orders yet\n")
	}
	for i, t := range placed {
		if i == limit {
			break
		}
		sb.WriteString(fmt.Sprintf("• %d %s @ %d¢ | %s\n", t.Contracts, strings.ToUpper(string(t.Side)), t.Price, t.Title))
	}
	return sb.String()
}

func formatTradeOpen(t models.TradeRecord) string {
	return fmt.Sprintf(`✅ *POSITION OPENED*

📈 Size: %.6f
📊 Entry: %.2f
💡 %s

⏰ %s`,
		t.Amount, t.Price, t.Reason, t.Time.Format("15:04:05"))
}

func formatTradeClose(t models.TradeRecord) string {
	pnl := 0.0
	if t.PnL != nil {
		pnl = *t.PnL
	}
	emoji := "✅"
	if pnl < 0 {
		emoji = "⚠️"
	}

	return fmt.Sprintf(`%s *POSITION CLOSED* (%s)

📊 Exit: %.2f
%s P&L: %+.2f

⏰ %s`,
		emoji, t.Reason, t.Price, plEmoji(pnl), pnl, t.Time.Format("15:04:05"))
}

func formatOrderPlaced(t models.PlacedTrade) string {
	return fmt.Sprintf(`🎯 *ORDER PLACED*

*%s*
%s x%d @ %d¢ (%s)
💸 Cost: $%.2f
📐 Edge: %d¢ | Confidence: %.0f%%
🏷️ %s
💡 %s

⏰ %s`,
		t.Title,
		strings.ToUpper(string(t.Side)), t.Contracts, t.Price, t.OrderType,
		t.Cost,
		t.EdgeCents, t.Confidence*100,
		t.Strategy,
		t.Reason,
		t.Time.Format("15:04:05"),
	)
}

func formatUptime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
