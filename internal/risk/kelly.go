package risk

import (
	"edge_trading/config"
	"math"
)

// Sizer turns an estimated win probability into a bet size
type Sizer struct {
	cfg config.Sizing
}

func NewSizer(cfg config.Sizing) *Sizer {
	return &Sizer{cfg: cfg}
}

// BetSize applies fractional Kelly to a contract quoted at price cents.
// The result is capped at MaxBalanceFraction of balance, clamped to [MinBet, MaxBet] and rounded.
// A non-positive Kelly fraction yields MinBet.
func (s *Sizer) BetSize(confidence float64, price int, balance float64) float64 {
	if price <= 0 || price >= 100 {
		return s.cfg.MinBet
	}

	p := confidence
	q := 1 - p
	b := float64(100-price) / float64(price)
	kelly := (p*b - q) / b
	fraction := math.Max(0, kelly*s.cfg.KellyFraction)

	raw := balance * math.Min(fraction, s.cfg.MaxBalanceFraction)
	return math.Round(math.Min(math.Max(raw, s.cfg.MinBet), s.cfg.MaxBet))
}

// Contracts converts a bet in major units into a whole contract count at price cents, at least one
func Contracts(bet float64, price int) int {
	if price <= 0 {
		return 1
	}
	n := int(math.Floor(bet * 100 / float64(price)))
	if n < 1 {
		return 1
	}
	return n
}
