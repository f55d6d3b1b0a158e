package analysis

import (
	"edge_trading/config"
	"edge_trading/internal/models"
	"fmt"
	"math"
)

// SpotStrategy scores the latest bar of a candle series
type SpotStrategy struct {
	Config config.SpotStrategy
}

// NewSpotStrategy creates a new spot strategy instance
func NewSpotStrategy(cfg config.SpotStrategy) *SpotStrategy {
	return &SpotStrategy{Config: cfg}
}

// Evaluate produces a BUY/SELL/WAIT signal from the latest two bars.
// With fewer than MinCloses candles it returns WAIT with no reasons.
func (s *SpotStrategy) Evaluate(candles []models.Candle) models.Signal {
	if len(candles) < s.Config.MinCloses || len(candles) < 2 {
		return models.Signal{Action: models.ActionWait}
	}

	ind := CalculateIndicators(candles)
	n := len(candles) - 1
	sc := &scorecard{}

	// RSI
	curRSI, prevRSI := ind.RSI[n], ind.RSI[n-1]
	switch {
	case curRSI < 30:
		sc.buy(3, fmt.Sprintf("RSI oversold (%.1f)", curRSI))
	case curRSI >= 30 && curRSI < 40 && prevRSI < curRSI:
		sc.buy(2, fmt.Sprintf("RSI rising from low (%.1f)", curRSI))
	}
	switch {
	case curRSI > 70:
		sc.sell(3, fmt.Sprintf("RSI overbought (%.1f)", curRSI))
	case curRSI > 60 && curRSI <= 70 && prevRSI > curRSI:
		sc.sell(2, fmt.Sprintf("RSI falling from high (%.1f)", curRSI))
	}

	// EMA crossover and trend
	cur9, prev9 := ind.EMA9[n], ind.EMA9[n-1]
	cur21, prev21 := ind.EMA21[n], ind.EMA21[n-1]
	if prev9 < prev21 && cur9 > cur21 {
		sc.buy(3, "EMA9 crossed above EMA21 🚀")
	}
	if prev9 > prev21 && cur9 < cur21 {
		sc.sell(3, "EMA9 crossed below EMA21 ⬇️")
	}
	if cur9 > cur21 {
		sc.buy(1, "Uptrend (EMA9 > EMA21)")
	} else {
		sc.sell(1, "Downtrend (EMA9 < EMA21)")
	}

	// MACD, only once the signal line has warmed up
	curMACD, prevMACD := ind.MACD.Line[n], ind.MACD.Line[n-1]
	curSig, prevSig := ind.MACD.Signal[n], ind.MACD.Signal[n-1]
	if Defined(curMACD) && Defined(prevMACD) && Defined(curSig) && Defined(prevSig) {
		if prevMACD < prevSig && curMACD > curSig {
			sc.buy(3, "MACD bullish crossover ✨")
		}
		if prevMACD > prevSig && curMACD < curSig {
			sc.sell(3, "MACD bearish crossover ⚠️")
		}
		if curMACD > 0 && curMACD > curSig {
			sc.buy(1, "MACD positive momentum")
		}
	}

	// Bollinger Bands
	price := ind.Closes[n]
	if lower := ind.Bands.Lower[n]; Defined(lower) && price < lower {
		sc.buy(2, "Price below BB lower band")
	}
	if upper := ind.Bands.Upper[n]; Defined(upper) && price > upper {
		sc.sell(2, "Price above BB upper band")
	}

	// Volume spike confirms an existing buy lead
	if volumeSpike(ind.Volumes, s.Config.VolumeSpike) && sc.buyScore > sc.sellScore {
		sc.buy(1, "High volume confirms move")
	}

	return sc.signal()
}

// volumeSpike compares the latest volume with the average of the last 10 bars (latest included)
func volumeSpike(volumes []float64, multiplier float64) bool {
	window := volumes
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	if len(window) == 0 {
		return false
	}
	sum := 0.0
	for _, v := range window {
		sum += v
	}
	avg := sum / 10
	return volumes[len(volumes)-1] > avg*multiplier
}

type scorecard struct {
	buyScore  int
	sellScore int
	reasons   []models.Reason
}

func (s *scorecard) buy(points int, text string) {
	s.buyScore += points
	s.reasons = append(s.reasons, models.Reason{Polarity: models.PolarityBuy, Text: text})
}

func (s *scorecard) sell(points int, text string) {
	s.sellScore += points
	s.reasons = append(s.reasons, models.Reason{Polarity: models.PolaritySell, Text: text})
}

func (s *scorecard) signal() models.Signal {
	total := s.buyScore + s.sellScore
	sig := models.Signal{Action: models.ActionWait, Reasons: s.reasons}
	if total == 0 {
		return sig
	}

	switch {
	case s.buyScore > s.sellScore && s.buyScore >= 5:
		sig.Action = models.ActionBuy
		sig.Confidence = confidence(s.buyScore, total)
	case s.sellScore > s.buyScore && s.sellScore >= 5:
		sig.Action = models.ActionSell
		sig.Confidence = confidence(s.sellScore, total)
	}
	return sig
}

func confidence(score, total int) int {
	c := int(math.Round(float64(score) / float64(total) * 100))
	if c > 99 {
		c = 99
	}
	if c < 0 {
		c = 0
	}
	return c
}
