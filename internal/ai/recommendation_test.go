package ai

import (
	"edge_trading/internal/models"
	"errors"
	"strings"
	"testing"
)

func TestParseRecommendationStructured(t *testing.T) {
	rec := ParseRecommendation("REC: BUY YES\nCONFIDENCE: 80\nEDGE: 9\nREASON: test")

	if rec.Side != models.SideYes || rec.Confidence != 0.80 || rec.EdgeCents != 9 {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if rec.Parse != models.ParseStructured {
		t.Fatalf("expected structured parse, got %s", rec.Parse)
	}
	if rec.Reason != "test" || rec.Strategy != StrategyAI {
		t.Fatalf("unexpected reason/strategy: %q / %q", rec.Reason, rec.Strategy)
	}
}

func TestParseRecommendationSkipBeatsKeywords(t *testing.T) {
	text := "Some traders would buy yes here.\nREC: SKIP\nCONFIDENCE: 60\nEDGE: 2\nREASON: priced fairly"
	rec := ParseRecommendation(text)

	if rec.Side != models.SideNone {
		t.Fatalf("explicit SKIP must win over keywords, got %q", rec.Side)
	}
	if rec.Parse != models.ParseStructured {
		t.Fatalf("expected structured parse, got %s", rec.Parse)
	}
	ok, err := Actionable(rec)
	if ok || err != nil {
		t.Fatalf("expected non-actionable without error, got %v / %v", ok, err)
	}
}

func TestParseRecommendationHeuristic(t *testing.T) {
	text := "I would buy no on this one. Very high conviction, the market is 12c mispriced. Resolves today."
	rec := ParseRecommendation(text)

	if rec.Side != models.SideNo {
		t.Fatalf("expected no side, got %q", rec.Side)
	}
	if rec.Confidence != 0.90 {
		t.Fatalf("expected 0.90, got %v", rec.Confidence)
	}
	if rec.EdgeCents != 12 {
		t.Fatalf("expected 12 cent edge, got %d", rec.EdgeCents)
	}
	if rec.Parse != models.ParseHeuristic {
		t.Fatalf("expected heuristic parse, got %s", rec.Parse)
	}
	if rec.Strategy != StrategyCheapNo {
		t.Fatalf("expected cheap_no, got %s", rec.Strategy)
	}
}

func TestParseRecommendationKeywordDefaults(t *testing.T) {
	rec := ParseRecommendation("Buy YES. The favorite has a clear edge with medium-high confidence.")

	if rec.Side != models.SideYes || rec.EdgeCents != 9 {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	// "medium-high confidence" also contains "high confidence", which ranks first
	if rec.Confidence != 0.82 {
		t.Fatalf("unexpected confidence %v", rec.Confidence)
	}
	if rec.Strategy != StrategyFavorite {
		t.Fatalf("expected favorite_bias, got %s", rec.Strategy)
	}
}

func TestParseRecommendationNothing(t *testing.T) {
	rec := ParseRecommendation("I could not find any information about this market.")

	if rec.Side != models.SideNone || rec.Confidence != 0.58 || rec.EdgeCents != 0 {
		t.Fatalf("expected conservative defaults, got %+v", rec)
	}
	if rec.Parse != models.ParseNone {
		t.Fatalf("expected none parse, got %s", rec.Parse)
	}
	if _, err := Actionable(rec); !errors.Is(err, models.ErrMalformedEstimate) {
		t.Fatalf("expected ErrMalformedEstimate, got %v", err)
	}
}

func TestParseRecommendationConfidenceCapped(t *testing.T) {
	rec := ParseRecommendation("REC: BUY NO\nCONFIDENCE: 100\nEDGE: +15")
	if rec.Confidence != 0.99 || rec.EdgeCents != 15 {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
}

func TestParseRecommendationReasonTruncated(t *testing.T) {
	reason := strings.Repeat("x", 120)
	rec := ParseRecommendation("REC: BUY YES\nREASON: " + reason)
	if len(rec.Reason) != 90 {
		t.Fatalf("expected 90 chars, got %d", len(rec.Reason))
	}
}

func TestParseRecommendationIgnoresUnrelatedNumbers(t *testing.T) {
	rec := ParseRecommendation("I would buy yes. The market looks mispriced after the 2024 ruling. Confidence 70")

	if rec.Side != models.SideYes || rec.Confidence != 0.70 {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if rec.EdgeCents != 0 {
		t.Fatalf("a year after \"mispriced\" is not an edge, got %d", rec.EdgeCents)
	}
}
