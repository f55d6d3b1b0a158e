package engine

import (
	"context"
	"edge_trading/internal/metrics"
	"edge_trading/internal/models"
	"fmt"
)

// RunSpotCycle fetches candles, scores the latest bar and applies the signal
// to the paper book. On a feed error the book is left untouched.
func (e *TradingEngine) RunSpotCycle(ctx context.Context) error {
	if !e.spotBusy.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	defer e.spotBusy.Store(false)

	candles, err := e.feed.Candles(ctx)
	if err == nil && len(candles) == 0 {
		err = fmt.Errorf("%w: empty candle series", models.ErrInsufficientData)
	}
	if err != nil {
		e.mu.Lock()
		e.spotStatus = "⚠️ Feed error"
		e.addActivity(models.ActivityError, "Price feed failed", err.Error())
		e.mu.Unlock()
		metrics.CyclesTotal.WithLabelValues(string(StrategySpot), "error").Inc()
		e.log.Warn().Err(err).Msg("spot cycle failed")
		return err
	}

	sig := e.spotStrategy.Evaluate(candles)
	price := candles[len(candles)-1].Close
	now := e.now()
	metrics.SignalsTotal.WithLabelValues(string(sig.Action)).Inc()

	e.mu.Lock()
	trade := e.book.Apply(sig, price, now)
	e.lastSignal = sig
	e.lastUpdate = now
	switch {
	case len(candles) < e.cfg.Spot.MinCloses:
		e.spotStatus = fmt.Sprintf("Collecting candles (%d/%d)", len(candles), e.cfg.Spot.MinCloses)
	case e.book.Position() != nil:
		e.spotStatus = "In position"
	default:
		e.spotStatus = "Waiting for signal"
	}
	if trade != nil {
		e.addActivity(models.ActivityTrade, describeFill(*trade), trade.Reason)
	}
	e.mu.Unlock()

	e.log.Debug().
		Str("signal", string(sig.Action)).
		Int("confidence", sig.Confidence).
		Float64("price", price).
		Msg("spot signal")

	if trade != nil {
		e.recordFill(*trade)
	}
	metrics.CyclesTotal.WithLabelValues(string(StrategySpot), "ok").Inc()
	return nil
}

func (e *TradingEngine) recordFill(trade models.TradeRecord) {
	if trade.Type == models.TradeBuy {
		metrics.SpotTradesTotal.WithLabelValues("entry").Inc()
		e.log.Info().Float64("price", trade.Price).Float64("size", trade.Amount).Msg("📈 spot position opened")
		if e.onTradeOpen != nil {
			e.onTradeOpen(trade)
		}
		return
	}

	metrics.SpotTradesTotal.WithLabelValues(trade.Reason).Inc()
	e.log.Info().
		Float64("price", trade.Price).
		Float64("pnl", *trade.PnL).
		Str("reason", trade.Reason).
		Msg("📉 spot position closed")
	if e.onTradeClose != nil {
		e.onTradeClose(trade)
	}
}

func describeFill(t models.TradeRecord) string {
	if t.PnL == nil {
		return fmt.Sprintf("%s %.6f @ %.2f", t.Type, t.Amount, t.Price)
	}
	return fmt.Sprintf("%s %.6f @ %.2f (P&L %+.2f)", t.Type, t.Amount, t.Price, *t.PnL)
}
