package kalshi

import (
	"bytes"
	"context"
	"edge_trading/internal/models"
	"edge_trading/internal/util"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const defaultPrice = 50

// Client talks to the Kalshi trade API
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	log     zerolog.Logger

	mu       sync.RWMutex
	auth     Authenticator
	rejected bool
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(k *Client) { k.http = c }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(k *Client) { k.http = &http.Client{Timeout: d} }
}

// WithRetries sets how many times idempotent GETs are attempted
func WithRetries(n int) ClientOption {
	return func(k *Client) { k.retries = n }
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(k *Client) { k.log = l }
}

func NewClient(baseURL string, auth Authenticator, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		retries: 3,
		log:     zerolog.Nop(),
		auth:    auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connected reports whether the client holds credentials the exchange has not rejected
func (c *Client) Connected() bool {
	return c.credentials() != nil
}

func (c *Client) credentials() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.rejected {
		return nil
	}
	return c.auth
}

// Connect verifies the credentials with a balance request. It may be called again to reconnect.
// Credentials are dropped only when the exchange rejects them; transport failures and
// transient statuses return a network error and leave the connection state alone.
func (c *Client) Connect(ctx context.Context) (float64, error) {
	c.mu.RLock()
	auth := c.auth
	c.mu.RUnlock()
	if auth == nil {
		return 0, fmt.Errorf("%w: no credentials", models.ErrAuth)
	}

	status, body, err := c.send(ctx, auth, http.MethodGet, "/portfolio/balance", nil)
	switch {
	case err != nil:
		return 0, fmt.Errorf("connect: %w", err)
	case status == http.StatusTooManyRequests || status >= 500:
		return 0, fmt.Errorf("%w: connect: status %d", models.ErrNetwork, status)
	case status >= 200 && status <= 299:
		balance, err := parseBalance(body)
		if err != nil {
			return 0, err
		}
		c.setRejected(false)
		return balance, nil
	}

	c.setRejected(true)
	msg := errorMessage(body)
	if msg == "" {
		msg = "Auth failed"
	}
	return 0, fmt.Errorf("%w: connect: status %d: %s", models.ErrAuth, status, msg)
}

func (c *Client) setRejected(v bool) {
	c.mu.Lock()
	c.rejected = v
	c.mu.Unlock()
}

// Balance returns the available balance in major currency units
func (c *Client) Balance(ctx context.Context) (float64, error) {
	body, err := c.get(ctx, "/portfolio/balance")
	if err != nil {
		return 0, err
	}
	return parseBalance(body)
}

type marketsResponse struct {
	Markets []struct {
		Ticker    string `json:"ticker"`
		Title     string `json:"title"`
		YesAsk    *int   `json:"yes_ask"`
		NoAsk     *int   `json:"no_ask"`
		Volume    int64  `json:"volume"`
		CloseTime string `json:"close_time"`
	} `json:"markets"`
}

// Markets lists up to limit open markets. Missing or zero asks default to 50 cents.
func (c *Client) Markets(ctx context.Context, limit int) ([]models.MarketQuote, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("status", "open")

	body, err := c.get(ctx, "/markets?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode markets: %v", models.ErrNetwork, err)
	}

	quotes := make([]models.MarketQuote, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		quote := models.MarketQuote{
			Ticker: m.Ticker,
			Title:  m.Title,
			YesAsk: priceOrDefault(m.YesAsk),
			NoAsk:  priceOrDefault(m.NoAsk),
			Volume: m.Volume,
		}
		if m.CloseTime != "" {
			if t, err := time.Parse(time.RFC3339, m.CloseTime); err == nil {
				quote.CloseTime = t
			}
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

type orderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Type          string `json:"type"`
	Action        string `json:"action"`
	Side          string `json:"side"`
	Count         int    `json:"count"`
	YesPrice      *int   `json:"yes_price,omitempty"`
	NoPrice       *int   `json:"no_price,omitempty"`
}

// PlaceOrder submits a buy order. It is never retried.
func (c *Client) PlaceOrder(ctx context.Context, order models.Order) error {
	req := orderRequest{
		Ticker:        order.Ticker,
		ClientOrderID: order.ClientID,
		Type:          string(order.Type),
		Action:        "buy",
		Side:          string(order.Side),
		Count:         order.Count,
	}
	if order.Type == models.OrderLimit {
		price := order.Price
		if order.Side == models.SideYes {
			req.YesPrice = &price
		} else {
			req.NoPrice = &price
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	status, body, err := c.do(ctx, http.MethodPost, "/portfolio/orders", payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &models.OrderRejectedError{Status: status, Message: errorMessage(body)}
	}
	return nil
}

// get performs an idempotent GET with bounded retries
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := util.Retry(ctx, c.retries, func() error {
		status, b, err := c.do(ctx, http.MethodGet, path, nil)
		if err != nil {
			return err
		}
		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return util.Permanent(fmt.Errorf("%w: GET %s: status %d: %s", models.ErrAuth, path, status, errorMessage(b)))
		case status == http.StatusTooManyRequests || status >= 500:
			return fmt.Errorf("%w: GET %s: status %d", models.ErrNetwork, path, status)
		case status < 200 || status > 299:
			return util.Permanent(fmt.Errorf("%w: GET %s: status %d: %s", models.ErrNetwork, path, status, errorMessage(b)))
		}
		body = b
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("path", path).Msg("kalshi request failed")
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	auth := c.credentials()
	if auth == nil {
		return 0, nil, util.Permanent(fmt.Errorf("%w: not connected", models.ErrAuth))
	}
	return c.send(ctx, auth, method, path, payload)
}

func (c *Client) send(ctx context.Context, auth Authenticator, method, path string, payload []byte) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, util.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := auth.Apply(req); err != nil {
		return 0, nil, util.Permanent(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %s %s: %v", models.ErrNetwork, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read %s: %v", models.ErrNetwork, path, err)
	}
	return resp.StatusCode, body, nil
}

func parseBalance(body []byte) (float64, error) {
	v := gjson.GetBytes(body, "balance")
	if !v.Exists() {
		return 0, fmt.Errorf("%w: balance missing from response", models.ErrNetwork)
	}
	cents := decimal.NewFromInt(v.Int())
	balance, _ := cents.Div(decimal.NewFromInt(100)).Float64()
	return balance, nil
}

func priceOrDefault(p *int) int {
	if p == nil || *p == 0 {
		return defaultPrice
	}
	return *p
}

// errorMessage extracts the exchange's error text from a response body
func errorMessage(body []byte) string {
	for _, path := range []string{"message", "error.message", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}
