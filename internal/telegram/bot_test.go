package telegram

import (
	"edge_trading/internal/models"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5m", formatUptime(5*time.Minute))
	assert.Equal(t, "2h 15m", formatUptime(2*time.Hour+15*time.Minute))
}

func TestFormatStats(t *testing.T) {
	stats := models.Stats{
		Spot: models.SpotStats{
			Running:        true,
			Status:         "In position",
			Cash:           50,
			PortfolioValue: 1001.5,
			TotalReturn:    0.15,
			Position:       &models.Position{EntryPrice: 100, Size: 9.4905},
			LastSignal:     models.Signal{Action: models.ActionBuy, Confidence: 83},
		},
		Scanner: models.ScannerStats{Balance: 480, PnL: -20, TradesPlaced: 2},
	}

	msg := formatStats(stats, 90*time.Minute, time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC))
	assert.Contains(t, msg, "*Spot* ▶️ Running")
	assert.Contains(t, msg, "*Scanner* ⏸️ Stopped")
	assert.Contains(t, msg, "9.490500 @ 100.00")
	assert.Contains(t, msg, "🟢 Return: +0.15%")
	assert.Contains(t, msg, "🔴 P&L: -20.00")
	assert.Contains(t, msg, "Last signal: BUY (83%)")
	assert.Contains(t, msg, "Uptime: 1h 30m")
	assert.Contains(t, msg, "Updated: 09:30:00")
}

func TestFormatTradesLimitsEachList(t *testing.T) {
	pnl := -1.25
	spot := []models.TradeRecord{
		{Type: models.TradeSell, Price: 99, Amount: 1, PnL: &pnl, Reason: "stop loss"},
		{Type: models.TradeBuy, Price: 100, Amount: 1, Reason: "signal buy (83%)"},
	}
	var placed []models.PlacedTrade

	msg := formatTrades(spot, placed, 1)
	assert.Contains(t, msg, "SELL 1.000000 @ 99.00 | 🔴 -1.25 (stop loss)")
	assert.NotContains(t, msg, "signal buy")
	assert.Contains(t, msg, "No orders yet")
	assert.Equal(t, 1, strings.Count(msg, "•"))
}

func TestFormatOrderPlaced(t *testing.T) {
	msg := formatOrderPlaced(models.PlacedTrade{
		Title:      "Will it rain?",
		Side:       models.SideNo,
		Contracts:  12,
		Price:      37,
		Cost:       4.44,
		EdgeCents:  8,
		Confidence: 0.7,
		Strategy:   "ai_analysis",
		OrderType:  models.OrderMarket,
	})
	assert.Contains(t, msg, "NO x12 @ 37¢ (market)")
	assert.Contains(t, msg, "Cost: $4.44")
	assert.Contains(t, msg, "Edge: 8¢ | Confidence: 70%")
}

func TestConnectReply(t *testing.T) {
	assert.Equal(t, "🔌 Connected to Kalshi\n💰 Balance: $42.50", connectReply(nil, 42.5))

	rejected := connectReply(fmt.Errorf("%w: connect: status 401: invalid key", models.ErrAuth), 0)
	assert.True(t, strings.HasPrefix(rejected, "🔐"))
	assert.Contains(t, rejected, "invalid key")

	unreachable := connectReply(fmt.Errorf("%w: GET /portfolio/balance: timeout", models.ErrNetwork), 0)
	assert.Contains(t, unreachable, "credentials kept")
	assert.NotContains(t, connectReply(errors.New("boom"), 0), "rejected")
}
