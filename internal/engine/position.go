package engine

import (
	"edge_trading/config"
	"edge_trading/internal/models"
	"fmt"
	"time"
)

// Exit reasons recorded on SELL trades
const (
	ReasonStopLoss   = "stop loss"
	ReasonTakeProfit = "take profit"
	ReasonSignalSell = "signal sell"
	ReasonSignalBuy  = "signal buy"
)

// PositionManager runs the paper-trading book of the spot strategy:
// cash, at most one open position and the recent fills.
type PositionManager struct {
	cfg       config.SpotStrategy
	startCash float64
	cash      float64
	position  *models.Position
	trades    *History[models.TradeRecord]
	exits     []float64 // realized PnL of every exit, oldest first
	lastPrice float64
}

func NewPositionManager(cfg config.SpotStrategy, startCash float64) *PositionManager {
	return &PositionManager{
		cfg:       cfg,
		startCash: startCash,
		cash:      startCash,
		trades:    NewHistory[models.TradeRecord](cfg.TradeHistory),
	}
}

// Apply acts on one signal at the given price and returns the fill, if any.
// Exits are checked before entries: stop loss, then take profit, then a new
// entry when flat, then a signal sell.
func (p *PositionManager) Apply(sig models.Signal, price float64, now time.Time) *models.TradeRecord {
	p.lastPrice = price
	if price <= 0 {
		return nil
	}

	if p.position != nil {
		change := (price - p.position.EntryPrice) / p.position.EntryPrice
		switch {
		case change <= -p.cfg.StopLoss:
			return p.exit(price, now, ReasonStopLoss)
		case change >= p.cfg.TakeProfit:
			return p.exit(price, now, ReasonTakeProfit)
		}
	}

	switch sig.Action {
	case models.ActionBuy:
		if p.position == nil && p.cash > p.cfg.MinCash {
			return p.enter(price, now, sig.Confidence)
		}
	case models.ActionSell:
		if p.position != nil {
			return p.exit(price, now, ReasonSignalSell)
		}
	}
	return nil
}

func (p *PositionManager) enter(price float64, now time.Time, confidence int) *models.TradeRecord {
	spend := p.cash * p.cfg.EntryFraction
	size := spend * (1 - p.cfg.FeeRate) / price
	p.cash -= spend
	p.position = &models.Position{EntryPrice: price, Size: size, OpenedAt: now}

	trade := models.TradeRecord{
		Type:   models.TradeBuy,
		Price:  price,
		Amount: size,
		Time:   now,
		Reason: fmt.Sprintf("%s (%d%%)", ReasonSignalBuy, confidence),
	}
	p.trades.Add(trade)
	return &trade
}

func (p *PositionManager) exit(price float64, now time.Time, reason string) *models.TradeRecord {
	pos := p.position
	proceeds := pos.Size * price * (1 - p.cfg.FeeRate)
	pnl := proceeds - pos.Size*pos.EntryPrice
	p.cash += proceeds
	p.position = nil
	p.exits = append(p.exits, pnl)

	trade := models.TradeRecord{
		Type:   models.TradeSell,
		Price:  price,
		Amount: pos.Size,
		PnL:    &pnl,
		Time:   now,
		Reason: reason,
	}
	p.trades.Add(trade)
	return &trade
}

func (p *PositionManager) Cash() float64 { return p.cash }

// Position returns a copy of the open position, nil when flat
func (p *PositionManager) Position() *models.Position {
	if p.position == nil {
		return nil
	}
	pos := *p.position
	return &pos
}

func (p *PositionManager) Trades() []models.TradeRecord {
	return p.trades.Items()
}

// UnrealizedPL values the open position at the last seen price, before exit fees
func (p *PositionManager) UnrealizedPL() float64 {
	if p.position == nil {
		return 0
	}
	return p.position.Size * (p.lastPrice - p.position.EntryPrice)
}

// PortfolioValue is cash plus the open position at the last seen price
func (p *PositionManager) PortfolioValue() float64 {
	if p.position == nil {
		return p.cash
	}
	return p.cash + p.position.Size*p.lastPrice
}

// FillStats fills the book-derived fields of s
func (p *PositionManager) FillStats(s *models.SpotStats) {
	s.Price = p.lastPrice
	s.Cash = p.cash
	s.Position = p.Position()
	s.PortfolioValue = p.PortfolioValue()
	if p.startCash > 0 {
		s.TotalReturn = (s.PortfolioValue - p.startCash) / p.startCash * 100
	}
	s.UnrealizedPL = p.UnrealizedPL()

	s.TotalTrades = len(p.exits)
	for _, pnl := range p.exits {
		if pnl > 0 {
			s.WinningTrades++
			s.AvgProfit += pnl
			if pnl > s.MaxProfit {
				s.MaxProfit = pnl
			}
		} else {
			s.LosingTrades++
			s.AvgLoss += pnl
			if pnl < s.MaxLoss {
				s.MaxLoss = pnl
			}
		}
		s.RealizedPL += pnl
	}

	if s.WinningTrades > 0 {
		s.AvgProfit /= float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss /= float64(s.LosingTrades)
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
}
