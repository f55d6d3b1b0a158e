package exchange

import (
	"context"
	"edge_trading/internal/models"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func ohlcBody(key string, n int) string {
	rows := make([]string, n)
	for i := range rows {
		close := 100 + i
		rows[i] = fmt.Sprintf(`[%d,"%d.0","%d.5","%d.5","%d.0","%d.1","%d.25",12]`, 1700000000+i*900, close, close, close-1, close, close, i+1)
	}
	return fmt.Sprintf(`{"error":[],"result":{"last":1700050000,"%s":[%s]}}`, key, strings.Join(rows, ","))
}

func newKrakenTestFeed(t *testing.T, pairKey string, window int, handler http.HandlerFunc) *KrakenFeed {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewKrakenFeed(srv.URL, "XBTUSD", pairKey, 15, window, 2, time.Second)
}

func TestKrakenFeedCandles(t *testing.T) {
	feed := newKrakenTestFeed(t, "XXBTZUSD", 60, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/OHLC" || r.URL.Query().Get("pair") != "XBTUSD" || r.URL.Query().Get("interval") != "15" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Write([]byte(ohlcBody("XXBTZUSD", 70)))
	})

	candles, err := feed.Candles(context.Background())
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 60 {
		t.Fatalf("expected 60 candles, got %d", len(candles))
	}
	last := candles[len(candles)-1]
	if last.Close != 169 || last.Volume != 70.25 {
		t.Fatalf("unexpected last candle: %+v", last)
	}
	if candles[0].Close != 110 {
		t.Fatalf("expected oldest kept close 110, got %v", candles[0].Close)
	}
}

func TestKrakenFeedFallsBackToFirstPairKey(t *testing.T) {
	feed := newKrakenTestFeed(t, "XXBTZUSD", 60, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ohlcBody("XBTUSD", 5)))
	})

	candles, err := feed.Candles(context.Background())
	if err != nil {
		t.Fatalf("Candles returned error: %v", err)
	}
	if len(candles) != 5 {
		t.Fatalf("expected 5 candles, got %d", len(candles))
	}
}

func TestKrakenFeedAPIError(t *testing.T) {
	calls := 0
	feed := newKrakenTestFeed(t, "", 60, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"error":["EQuery:Unknown asset pair"]}`))
	})

	_, err := feed.Candles(context.Background())
	if !errors.Is(err, models.ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
	if !strings.Contains(err.Error(), "Unknown asset pair") {
		t.Fatalf("expected upstream message, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry after a decoded API error, got %d calls", calls)
	}
}

func TestKrakenFeedRetriesTransientStatus(t *testing.T) {
	calls := 0
	feed := newKrakenTestFeed(t, "XXBTZUSD", 60, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(ohlcBody("XXBTZUSD", 3)))
	})

	candles, err := feed.Candles(context.Background())
	if err != nil || len(candles) != 3 {
		t.Fatalf("expected 3 candles after retry, got %d / %v", len(candles), err)
	}
}

func TestBinanceInterval(t *testing.T) {
	cases := map[int]string{1: "1m", 15: "15m", 60: "1h", 240: "4h", 1440: "1d", 90: "90m"}
	for minutes, want := range cases {
		if got := BinanceInterval(minutes); got != want {
			t.Fatalf("BinanceInterval(%d) = %s, want %s", minutes, got, want)
		}
	}
}
