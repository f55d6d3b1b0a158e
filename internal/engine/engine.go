package engine

import (
	"context"
	"edge_trading/config"
	"edge_trading/internal/ai"
	"edge_trading/internal/analysis"
	"edge_trading/internal/exchange"
	"edge_trading/internal/models"
	"edge_trading/internal/risk"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const activityLimit = 150

type Strategy string

const (
	StrategySpot    Strategy = "spot"
	StrategyScanner Strategy = "scanner"
)

var (
	ErrCycleInProgress    = errors.New("cycle already in progress")
	ErrUnknownStrategy    = errors.New("unknown strategy")
	ErrScannerUnavailable = errors.New("scanner unavailable")
	ErrSpotUnavailable    = errors.New("spot strategy unavailable")
)

// MarketSource is the prediction-market exchange as seen by the scanner
type MarketSource interface {
	Connect(ctx context.Context) (float64, error)
	Connected() bool
	Balance(ctx context.Context) (float64, error)
	Markets(ctx context.Context, limit int) ([]models.MarketQuote, error)
}

// OrderExecutor places a buy for count contracts quoted at quote cents
type OrderExecutor interface {
	Execute(ctx context.Context, ticker string, side models.Side, count, quote int) (models.Order, error)
}

// Dependencies are the external collaborators of the engine.
// Markets, Estimator and Executor may be nil when the scanner is not configured.
type Dependencies struct {
	Feed      exchange.CandleFeed
	Markets   MarketSource
	Estimator ai.Estimator
	Executor  OrderExecutor
}

type TradingEngine struct {
	cfg            config.StrategyConfig
	log            zerolog.Logger
	now            func() time.Time
	candidateDelay time.Duration

	feed         exchange.CandleFeed
	spotStrategy *analysis.SpotStrategy
	markets      MarketSource
	estimator    ai.Estimator
	executor     OrderExecutor
	sizer        *risk.Sizer

	mu sync.RWMutex

	book       *PositionManager
	spotStatus string
	lastSignal models.Signal
	lastUpdate time.Time

	balance      float64
	startBalance float64
	baselineSet  bool
	scanStatus   string
	placed       *History[models.PlacedTrade]
	tradesPlaced int
	totalWagered decimal.Decimal
	lastScan     time.Time

	activity *History[models.ActivityEntry]

	spotBusy atomic.Bool
	scanning atomic.Bool

	spotDriver *Driver
	scanDriver *Driver

	onTradeOpen   func(models.TradeRecord)
	onTradeClose  func(models.TradeRecord)
	onOrderPlaced func(models.PlacedTrade)
	onAnalysis    func(string)
}

func NewTradingEngine(deps Dependencies, cfg *config.Config, log zerolog.Logger) *TradingEngine {
	e := &TradingEngine{
		cfg:            cfg.Strategy,
		log:            log.With().Str("component", "engine").Logger(),
		now:            time.Now,
		candidateDelay: cfg.CandidateDelay,
		feed:           deps.Feed,
		spotStrategy:   analysis.NewSpotStrategy(cfg.Strategy.Spot),
		markets:        deps.Markets,
		estimator:      deps.Estimator,
		executor:       deps.Executor,
		sizer:          risk.NewSizer(cfg.Strategy.Sizing),
		book:           NewPositionManager(cfg.Strategy.Spot, cfg.SpotStartCash),
		spotStatus:     "Stopped",
		scanStatus:     "Stopped",
		placed:         NewHistory[models.PlacedTrade](cfg.Strategy.Scanner.TradeHistory),
		activity:       NewHistory[models.ActivityEntry](activityLimit),
	}

	e.spotDriver = NewDriver(string(StrategySpot), cfg.SpotPollInterval, func(ctx context.Context) {
		e.logCycleError(StrategySpot, e.RunSpotCycle(ctx))
	}, e.log)
	e.scanDriver = NewDriver(string(StrategyScanner), cfg.ScanInterval, func(ctx context.Context) {
		e.logCycleError(StrategyScanner, e.RunScanCycle(ctx))
	}, e.log)
	return e
}

// SetCallbacks registers notification hooks. Call before Start.
func (e *TradingEngine) SetCallbacks(
	onTradeOpen func(models.TradeRecord),
	onTradeClose func(models.TradeRecord),
	onOrderPlaced func(models.PlacedTrade),
	onAnalysis func(string),
) {
	e.onTradeOpen = onTradeOpen
	e.onTradeClose = onTradeClose
	e.onOrderPlaced = onOrderPlaced
	e.onAnalysis = onAnalysis
}

// Connect authenticates against the prediction-market exchange. The first successful
// connection records the opening balance; later calls reconnect without moving it.
func (e *TradingEngine) Connect(ctx context.Context) error {
	if e.markets == nil {
		return fmt.Errorf("%w: no exchange credentials", ErrScannerUnavailable)
	}

	balance, err := e.markets.Connect(ctx)
	if err != nil {
		e.mu.Lock()
		if errors.Is(err, models.ErrAuth) {
			e.scanStatus = "Auth failed"
		} else {
			e.scanStatus = "Connection failed"
		}
		e.addActivity(models.ActivityError, "Kalshi connection failed", err.Error())
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.balance = balance
	if !e.baselineSet {
		e.startBalance = balance
		e.baselineSet = true
	}
	e.scanStatus = "Connected"
	e.addActivity(models.ActivityInfo, "Connected to Kalshi", fmt.Sprintf("balance $%.2f", balance))
	e.mu.Unlock()
	return nil
}

func (e *TradingEngine) driver(s Strategy) (*Driver, error) {
	switch s {
	case StrategySpot:
		return e.spotDriver, nil
	case StrategyScanner:
		return e.scanDriver, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Start launches the periodic driver of one strategy. Starting a running strategy is a no-op.
func (e *TradingEngine) Start(ctx context.Context, s Strategy) error {
	d, err := e.driver(s)
	if err != nil {
		return err
	}
	if s == StrategyScanner {
		if err := e.scannerReady(); err != nil {
			return err
		}
	}
	if s == StrategySpot && e.feed == nil {
		return fmt.Errorf("%w: no candle feed", ErrSpotUnavailable)
	}

	if d.Start(ctx) {
		e.mu.Lock()
		e.setStatus(s, "Running")
		e.addActivity(models.ActivityInfo, fmt.Sprintf("%s started", s), "")
		e.mu.Unlock()
	}
	return nil
}

// Stop prevents future cycles of one strategy. An in-flight cycle completes.
func (e *TradingEngine) Stop(s Strategy) error {
	d, err := e.driver(s)
	if err != nil {
		return err
	}
	if d.Stop() {
		e.mu.Lock()
		e.setStatus(s, "Stopped")
		e.addActivity(models.ActivityInfo, fmt.Sprintf("%s stopped", s), "")
		e.mu.Unlock()
	}
	return nil
}

func (e *TradingEngine) IsRunning(s Strategy) bool {
	d, err := e.driver(s)
	if err != nil {
		return false
	}
	return d.Running()
}

// Shutdown stops both strategies and waits for in-flight cycles until ctx is done
func (e *TradingEngine) Shutdown(ctx context.Context) error {
	e.spotDriver.Stop()
	e.scanDriver.Stop()
	return errors.Join(e.spotDriver.Wait(ctx), e.scanDriver.Wait(ctx))
}

func (e *TradingEngine) scannerReady() error {
	if e.markets == nil || e.estimator == nil || e.executor == nil {
		return fmt.Errorf("%w: not configured", ErrScannerUnavailable)
	}
	if !e.markets.Connected() {
		return fmt.Errorf("%w: not connected", ErrScannerUnavailable)
	}
	return nil
}

// TriggerScan takes the scan guard and runs one scan cycle in the background.
// It returns ErrCycleInProgress when a scan already holds the guard.
func (e *TradingEngine) TriggerScan() error {
	if err := e.acquireScan(); err != nil {
		return err
	}
	go func() {
		defer e.scanning.Store(false)
		e.logCycleError(StrategyScanner, e.scanCycle(context.Background()))
	}()
	return nil
}

func (e *TradingEngine) logCycleError(s Strategy, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrCycleInProgress):
		e.log.Debug().Str("strategy", string(s)).Msg("cycle skipped, previous one still running")
	default:
		e.log.Warn().Err(err).Str("strategy", string(s)).Msg("cycle failed")
	}
}

func (e *TradingEngine) setStatus(s Strategy, status string) {
	if s == StrategySpot {
		e.spotStatus = status
	} else {
		e.scanStatus = status
	}
}

// addActivity requires e.mu held for writing
func (e *TradingEngine) addActivity(kind models.ActivityKind, message, detail string) {
	e.activity.Add(models.ActivityEntry{
		Time:    e.now(),
		Kind:    kind,
		Message: message,
		Detail:  detail,
	})
}

func (e *TradingEngine) notify(msg string) {
	if e.onAnalysis != nil {
		e.onAnalysis(msg)
	}
}

// Stats returns a snapshot of both strategies
func (e *TradingEngine) Stats() models.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	spot := models.SpotStats{
		Running:    e.spotDriver.Running(),
		Status:     e.spotStatus,
		LastSignal: e.lastSignal,
		LastUpdate: e.lastUpdate,
	}
	e.book.FillStats(&spot)

	scanner := models.ScannerStats{
		Running:      e.scanDriver.Running(),
		Scanning:     e.scanning.Load(),
		Connected:    e.markets != nil && e.markets.Connected(),
		Status:       e.scanStatus,
		Balance:      e.balance,
		StartBalance: e.startBalance,
		PnL:          e.balance - e.startBalance,
		TradesPlaced: e.tradesPlaced,
		TotalWagered: e.totalWagered.InexactFloat64(),
		LastScan:     e.lastScan,
	}
	return models.Stats{Spot: spot, Scanner: scanner}
}

// SpotTrades returns recent spot fills, newest first
func (e *TradingEngine) SpotTrades() []models.TradeRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.book.Trades()
}

// PlacedTrades returns recent scanner orders, newest first
func (e *TradingEngine) PlacedTrades() []models.PlacedTrade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.placed.Items()
}

// Activity returns the activity log, newest first
func (e *TradingEngine) Activity() []models.ActivityEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activity.Items()
}
