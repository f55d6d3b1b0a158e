package exchange

import (
	"context"
	"edge_trading/internal/models"
	"edge_trading/internal/util"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// KrakenFeed polls the public Kraken OHLC endpoint
type KrakenFeed struct {
	baseURL  string
	pair     string
	pairKey  string
	interval int
	window   int
	retries  int
	client   *http.Client
}

// NewKrakenFeed returns a feed for pair at interval minutes keeping window candles.
// pairKey is the preferred key of the pair in the response (e.g. XXBTZUSD).
func NewKrakenFeed(baseURL, pair, pairKey string, interval, window, retries int, timeout time.Duration) *KrakenFeed {
	if baseURL == "" {
		baseURL = "https://api.kraken.com/0/public"
	}
	return &KrakenFeed{
		baseURL:  baseURL,
		pair:     pair,
		pairKey:  pairKey,
		interval: interval,
		window:   window,
		retries:  retries,
		client:   &http.Client{Timeout: timeout},
	}
}

func (k *KrakenFeed) Candles(ctx context.Context) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("pair", k.pair)
	q.Set("interval", strconv.Itoa(k.interval))
	endpoint := k.baseURL + "/OHLC?" + q.Encode()

	var body []byte
	err := util.Retry(ctx, k.retries, func() error {
		b, err := k.fetch(ctx, endpoint)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return k.parse(body)
}

func (k *KrakenFeed) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, util.Permanent(err)
	}
	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: kraken OHLC: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read kraken OHLC: %v", models.ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: kraken OHLC status %d", models.ErrNetwork, resp.StatusCode)
	}
	return body, nil
}

func (k *KrakenFeed) parse(body []byte) ([]models.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: kraken OHLC: invalid JSON", models.ErrNetwork)
	}
	if errs := gjson.GetBytes(body, "error"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, fmt.Errorf("%w: kraken OHLC: %s", models.ErrNetwork, errs.Array()[0].String())
	}

	rows := pairRows(gjson.GetBytes(body, "result"), k.pairKey)
	if !rows.Exists() {
		return nil, fmt.Errorf("%w: kraken OHLC: no data for %s", models.ErrNetwork, k.pair)
	}

	var candles []models.Candle
	rows.ForEach(func(_, row gjson.Result) bool {
		// [time, open, high, low, close, vwap, volume, count]
		f := row.Array()
		if len(f) < 7 {
			return true
		}
		candles = append(candles, models.Candle{
			Time:   time.Unix(f[0].Int(), 0),
			Open:   parseFloat(f[1].String()),
			High:   parseFloat(f[2].String()),
			Low:    parseFloat(f[3].String()),
			Close:  parseFloat(f[4].String()),
			Volume: parseFloat(f[6].String()),
		})
		return true
	})

	return lastN(candles, k.window), nil
}

// pairRows picks the configured pair key, else the first array entry of result in document order
func pairRows(result gjson.Result, pairKey string) gjson.Result {
	if pairKey != "" {
		if rows := result.Get(gjson.Escape(pairKey)); rows.IsArray() {
			return rows
		}
	}
	var rows gjson.Result
	result.ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			rows = value
			return false
		}
		return true
	})
	return rows
}
