package engine

import (
	"context"
	"edge_trading/internal/ai"
	"edge_trading/internal/metrics"
	"edge_trading/internal/models"
	"edge_trading/internal/risk"
	"edge_trading/internal/scanner"
	"edge_trading/internal/util"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candidate outcomes, also used as metric labels
const (
	outcomePlaced         = "placed"
	outcomeSkipped        = "skipped"
	outcomeEstimateFailed = "estimate_failed"
	outcomeOrderFailed    = "order_failed"
)

// RunScanCycle lists open markets, shortlists them and evaluates each
// candidate in turn. A failure on one candidate never aborts the cycle.
// Only one scan runs at a time; overlapping calls return ErrCycleInProgress.
func (e *TradingEngine) RunScanCycle(ctx context.Context) error {
	if err := e.acquireScan(); err != nil {
		return err
	}
	defer e.scanning.Store(false)
	return e.scanCycle(ctx)
}

// acquireScan takes the scan guard. The caller must release it.
func (e *TradingEngine) acquireScan() error {
	if err := e.scannerReady(); err != nil {
		return err
	}
	if !e.scanning.CompareAndSwap(false, true) {
		return ErrCycleInProgress
	}
	return nil
}

func (e *TradingEngine) scanCycle(ctx context.Context) error {
	start := e.now()
	e.mu.Lock()
	e.scanStatus = "Scanning"
	e.addActivity(models.ActivityScan, "🔍 Scanning markets", "")
	e.mu.Unlock()
	e.notify("🔍 Scanning prediction markets...")

	quotes, err := e.markets.Markets(ctx, e.cfg.Scanner.MarketLimit)
	if err != nil {
		e.mu.Lock()
		e.scanStatus = "⚠️ Scan error"
		e.addActivity(models.ActivityError, "Scan error", err.Error())
		e.mu.Unlock()
		metrics.CyclesTotal.WithLabelValues(string(StrategyScanner), "error").Inc()
		e.log.Error().Err(err).Msg("market listing failed")
		return err
	}

	targets := scanner.Rank(quotes, start)
	e.mu.Lock()
	e.addActivity(models.ActivityScan,
		fmt.Sprintf("Analyzing top %d of %d markets", len(targets), len(quotes)), "")
	e.mu.Unlock()

	balance := e.refreshBalance(ctx)
	placed := 0
	for i, m := range targets {
		if i > 0 && !util.WaitForContext(ctx, e.candidateDelay) {
			break
		}
		outcome := e.evaluateCandidate(ctx, m, balance)
		metrics.CandidatesTotal.WithLabelValues(outcome).Inc()
		if outcome == outcomePlaced {
			placed++
		}
	}
	e.refreshBalance(ctx)

	e.mu.Lock()
	e.lastScan = e.now()
	e.scanStatus = "Idle"
	e.addActivity(models.ActivityScan,
		fmt.Sprintf("Scan complete: %d analyzed, %d placed", len(targets), placed),
		e.now().Sub(start).Round(time.Second).String())
	e.mu.Unlock()

	metrics.CyclesTotal.WithLabelValues(string(StrategyScanner), "ok").Inc()
	e.log.Info().Int("markets", len(quotes)).Int("candidates", len(targets)).Int("placed", placed).Msg("scan complete")
	return nil
}

// refreshBalance falls back to the last known balance when the exchange call fails
func (e *TradingEngine) refreshBalance(ctx context.Context) float64 {
	balance, err := e.markets.Balance(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.log.Warn().Err(err).Float64("last_known", e.balance).Msg("balance refresh failed")
		return e.balance
	}
	e.balance = balance
	return balance
}

func (e *TradingEngine) evaluateCandidate(ctx context.Context, m models.ScoredMarket, balance float64) string {
	text, err := e.estimator.Estimate(ctx, ai.BuildMarketPrompt(m))
	if err != nil {
		e.logCandidate(models.ActivityError, "AI failed: "+m.Title, err.Error())
		return outcomeEstimateFailed
	}

	rec := ai.ParseRecommendation(text)
	actionable, err := ai.Actionable(rec)
	if err != nil {
		e.logCandidate(models.ActivitySkip, "SKIP "+m.Title, "unreadable estimate")
		return outcomeSkipped
	}
	scfg := e.cfg.Scanner
	if !actionable || rec.EdgeCents < scfg.MinEdge || rec.Confidence < scfg.MinConfidence {
		e.logCandidate(models.ActivitySkip, "SKIP "+m.Title,
			fmt.Sprintf("edge %d¢, confidence %.0f%%", rec.EdgeCents, rec.Confidence*100))
		return outcomeSkipped
	}

	price := m.YesAsk
	if rec.Side == models.SideNo {
		price = m.NoAsk
	}
	bet := e.sizer.BetSize(rec.Confidence, price, balance)
	contracts := risk.Contracts(bet, price)

	order, err := e.executor.Execute(ctx, m.Ticker, rec.Side, contracts, price)
	if err != nil {
		e.logCandidate(models.ActivityError, "Order failed: "+m.Title, err.Error())
		return outcomeOrderFailed
	}

	cost := decimal.New(int64(contracts)*int64(price), -2)
	trade := models.PlacedTrade{
		Ticker:     m.Ticker,
		Title:      m.Title,
		Side:       rec.Side,
		Contracts:  contracts,
		Price:      price,
		Cost:       cost.InexactFloat64(),
		EdgeCents:  rec.EdgeCents,
		Confidence: rec.Confidence,
		Strategy:   rec.Strategy,
		Reason:     rec.Reason,
		OrderType:  order.Type,
		Time:       e.now(),
	}

	e.mu.Lock()
	e.placed.Add(trade)
	e.tradesPlaced++
	e.totalWagered = e.totalWagered.Add(cost)
	e.addActivity(models.ActivityTrade,
		fmt.Sprintf("BUY %d %s @ %d¢: %s", trade.Contracts, trade.Side, trade.Price, trade.Title),
		fmt.Sprintf("%s, edge %d¢, confidence %.0f%%, %s order", trade.Strategy, trade.EdgeCents, trade.Confidence*100, trade.OrderType))
	e.mu.Unlock()

	e.log.Info().
		Str("ticker", trade.Ticker).
		Str("side", string(trade.Side)).
		Int("contracts", trade.Contracts).
		Int("price", trade.Price).
		Str("order_type", string(trade.OrderType)).
		Msg("✅ order placed")
	if e.onOrderPlaced != nil {
		e.onOrderPlaced(trade)
	}
	return outcomePlaced
}

func (e *TradingEngine) logCandidate(kind models.ActivityKind, message, detail string) {
	e.mu.Lock()
	e.addActivity(kind, message, detail)
	e.mu.Unlock()
	e.log.Debug().Str("kind", string(kind)).Str("detail", detail).Msg(message)
}
