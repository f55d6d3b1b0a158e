package ai

import (
	"context"
	"edge_trading/internal/models"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestAnthropicEstimateJoinsTextBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Tools) != 1 || req.Tools[0].Name != "web_search" {
			t.Errorf("expected web search tool, got %+v", req.Tools)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"REC: BUY YES"},{"type":"server_tool_use"},{"type":"text","text":"CONFIDENCE: 70"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropicClient("secret", WithBaseURL(srv.URL), WithWebSearch(true))
	text, err := client.Estimate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Estimate returned error: %v", err)
	}
	if text != "REC: BUY YES CONFIDENCE: 70" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestAnthropicEstimateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewAnthropicClient("k", WithBaseURL(srv.URL)).Estimate(context.Background(), "p")
	if !errors.Is(err, models.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestMistralEstimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"REC: SKIP"}}]}`))
	}))
	defer srv.Close()

	text, err := NewMistralClient("key", WithBaseURL(srv.URL)).Estimate(context.Background(), "p")
	if err != nil || text != "REC: SKIP" {
		t.Fatalf("unexpected result %q / %v", text, err)
	}
}

func TestEstimateHonorsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewMistralClient("key", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond)).Estimate(context.Background(), "p")
	if !errors.Is(err, models.ErrNetwork) {
		t.Fatalf("expected ErrNetwork on timeout, got %v", err)
	}
}

func TestBuildMarketPrompt(t *testing.T) {
	prompt := BuildMarketPrompt(models.ScoredMarket{
		MarketQuote: models.MarketQuote{Title: "Will it rain?", YesAsk: 65, NoAsk: 37, Volume: 1234567},
		HoursLeft:   10.4,
	})

	for _, want := range []string{`Market: "Will it rain?"`, "YES ask: 65¢ | NO ask: 37¢", "Volume: 1,234,567 | Time left: 10h", "REC: [BUY YES / BUY NO / SKIP]", "6+ cents"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestHoursLabel(t *testing.T) {
	cases := map[float64]string{0.4: "0h", 23.4: "23h", 36: "2d", 100: "4d"}
	for hours, want := range cases {
		if got := HoursLabel(hours); got != want {
			t.Fatalf("HoursLabel(%v) = %s, want %s", hours, got, want)
		}
	}
}
