package ai

import (
	"edge_trading/internal/models"
	"fmt"
	"math"
	"strconv"
)

// BuildMarketPrompt renders the estimation request for one shortlisted market
func BuildMarketPrompt(m models.ScoredMarket) string {
	return fmt.Sprintf(`You are an expert prediction market trader. Analyze this Kalshi market.

Market: "%s"
YES ask: %d¢ | NO ask: %d¢
Volume: %s | Time left: %s

Search the web for latest data. Is this market mispriced?

Respond EXACTLY:
REC: [BUY YES / BUY NO / SKIP]
CONFIDENCE: [50-99]
EDGE: [cents, e.g. 12]
REASON: [one sentence]

Only recommend if 6+ cents genuine edge. Otherwise SKIP.`,
		m.Title, m.YesAsk, m.NoAsk, groupThousands(m.Volume), HoursLabel(m.HoursLeft))
}

// HoursLabel formats time to close as whole hours under a day, else whole days
func HoursLabel(hours float64) string {
	if hours < 24 {
		return fmt.Sprintf("%dh", int(math.Round(hours)))
	}
	return fmt.Sprintf("%dd", int(math.Round(hours/24)))
}

func groupThousands(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return sign + s
}
