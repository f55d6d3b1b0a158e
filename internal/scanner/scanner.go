package scanner

import (
	"edge_trading/internal/models"
	"sort"
	"time"
)

// ShortlistSize is the most markets forwarded to estimation per scan
const ShortlistSize = 10

// unknownHoursLeft is used when a market has no close time
const unknownHoursLeft = 999

// Score rates a market by time to close, price band and liquidity
func Score(q models.MarketQuote, now time.Time) (score int, hoursLeft float64) {
	hoursLeft = unknownHoursLeft
	if !q.CloseTime.IsZero() {
		hoursLeft = q.CloseTime.Sub(now).Hours()
	}

	if hoursLeft < 24 {
		score += 40
	} else if hoursLeft < 72 {
		score += 20
	}
	if q.YesAsk >= 60 && q.YesAsk <= 88 {
		score += 30
	}
	if q.NoAsk >= 8 && q.NoAsk <= 20 {
		score += 25
	}
	if q.Volume > 10000 {
		score += 20
	} else if q.Volume > 1000 {
		score += 10
	}
	if extremePrice(q) {
		score -= 50
	}
	return score, hoursLeft
}

func extremePrice(q models.MarketQuote) bool {
	return q.YesAsk < 5 || q.YesAsk > 95
}

// Rank keeps markets scoring above 20, best first, at most ShortlistSize.
// Markets with an extreme YES price are never selected. Ties keep input order.
func Rank(quotes []models.MarketQuote, now time.Time) []models.ScoredMarket {
	scored := make([]models.ScoredMarket, 0, len(quotes))
	for _, q := range quotes {
		score, hours := Score(q, now)
		if score <= 20 || extremePrice(q) {
			continue
		}
		scored = append(scored, models.ScoredMarket{MarketQuote: q, Score: score, HoursLeft: hours})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > ShortlistSize {
		scored = scored[:ShortlistSize]
	}
	return scored
}
