package ai

import (
	"edge_trading/internal/models"
	"regexp"
	"strconv"
	"strings"
)

const (
	defaultConfidence = 0.58
	maxConfidence     = 0.99
	maxReasonLength   = 90

	StrategyAI        = "ai_analysis"
	StrategyFavorite  = "favorite_bias"
	StrategyDaily     = "daily_market"
	StrategyCheapNo   = "cheap_no"
	cheapNoConfidence = 0.68
)

// Response grammar tokens, anchored at line start
var (
	recToken        = regexp.MustCompile(`(?im)^\s*rec(?:ommendation)?\s*:\s*(buy\s+yes|buy\s+no|yes|no|skip)\b`)
	confidenceToken = regexp.MustCompile(`(?im)^\s*confidence\s*:\s*(\d+)`)
	edgeToken       = regexp.MustCompile(`(?im)^\s*edge\s*:\s*\+?(\d+)`)
	reasonToken     = regexp.MustCompile(`(?im)^\s*reason\s*:\s*(.+)$`)
)

// Free-text fallbacks
var (
	looseConfidence = regexp.MustCompile(`(?i)confidence[:\s]+(\d+)`)
	looseEdge       = []*regexp.Regexp{
		regexp.MustCompile(`(?i)edge[:\s]+\+?(\d+)`),
		regexp.MustCompile(`(?i)(\d+)[¢c]\s*(?:edge|mispriced)`),
	}
)

type keywordValue[T any] struct {
	keywords []string
	value    T
}

var confidenceKeywords = []keywordValue[float64]{
	{[]string{"very high"}, 0.90},
	{[]string{"high confidence", "confidence: high"}, 0.82},
	{[]string{"medium-high"}, 0.70},
	{[]string{"medium"}, 0.62},
}

var edgeKeywords = []keywordValue[int]{
	{[]string{"strong edge", "large edge"}, 14},
	{[]string{"clear edge", "good edge"}, 9},
	{[]string{"slight edge"}, 5},
}

// ParseRecommendation extracts a Recommendation from estimator text.
// Explicit REC/CONFIDENCE/EDGE lines win; keyword heuristics fill only the fields they leave out.
// Unusable text yields side none with conservative defaults, never an error.
func ParseRecommendation(text string) models.Recommendation {
	lower := strings.ToLower(text)
	rec := models.Recommendation{
		Confidence: defaultConfidence,
		Reason:     parseReason(text),
	}

	strict, loose := 0, 0

	if m := recToken.FindStringSubmatch(text); m != nil {
		rec.Side = sideFromToken(m[1])
		strict++
	} else if side := sideFromKeywords(lower); side != models.SideNone {
		rec.Side = side
		loose++
	}

	if m := confidenceToken.FindStringSubmatch(text); m != nil {
		rec.Confidence = percent(m[1])
		strict++
	} else if m := looseConfidence.FindStringSubmatch(text); m != nil {
		rec.Confidence = percent(m[1])
		loose++
	} else if v, ok := matchKeywords(lower, confidenceKeywords); ok {
		rec.Confidence = v
		loose++
	}

	if m := edgeToken.FindStringSubmatch(text); m != nil {
		rec.EdgeCents, _ = strconv.Atoi(m[1])
		strict++
	} else if v, ok := looseEdgeValue(text); ok {
		rec.EdgeCents = v
		loose++
	} else if v, ok := matchKeywords(lower, edgeKeywords); ok {
		rec.EdgeCents = v
		loose++
	}

	switch {
	case strict == 3:
		rec.Parse = models.ParseStructured
	case strict+loose > 0:
		rec.Parse = models.ParseHeuristic
	default:
		rec.Parse = models.ParseNone
	}

	rec.Strategy = strategyTag(lower, rec)
	return rec
}

// Actionable reports whether the recommendation names a side.
// It returns ErrMalformedEstimate when nothing could be parsed at all.
func Actionable(rec models.Recommendation) (bool, error) {
	if rec.Parse == models.ParseNone {
		return false, models.ErrMalformedEstimate
	}
	return rec.Side != models.SideNone, nil
}

func sideFromToken(token string) models.Side {
	token = strings.Join(strings.Fields(strings.ToLower(token)), " ")
	switch token {
	case "buy yes", "yes":
		return models.SideYes
	case "buy no", "no":
		return models.SideNo
	}
	return models.SideNone
}

func sideFromKeywords(lower string) models.Side {
	switch {
	case strings.Contains(lower, "buy yes"):
		return models.SideYes
	case strings.Contains(lower, "buy no"):
		return models.SideNo
	}
	return models.SideNone
}

func percent(digits string) float64 {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return defaultConfidence
	}
	c := float64(n) / 100
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func looseEdgeValue(text string) (int, bool) {
	for _, re := range looseEdge {
		if m := re.FindStringSubmatch(text); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func matchKeywords[T any](lower string, table []keywordValue[T]) (T, bool) {
	for _, entry := range table {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.value, true
			}
		}
	}
	var zero T
	return zero, false
}

func strategyTag(lower string, rec models.Recommendation) string {
	switch {
	case rec.Side == models.SideNo && rec.Confidence > cheapNoConfidence:
		return StrategyCheapNo
	case strings.Contains(lower, "daily") || strings.Contains(lower, "resolves today"):
		return StrategyDaily
	case strings.Contains(lower, "favorite") || strings.Contains(lower, "heavily favored"):
		return StrategyFavorite
	}
	return StrategyAI
}

func parseReason(text string) string {
	m := reasonToken.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	reason := []rune(strings.TrimSpace(m[1]))
	if len(reason) > maxReasonLength {
		reason = reason[:maxReasonLength]
	}
	return string(reason)
}
