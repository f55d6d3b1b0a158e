package kalshi

import (
	"context"
	"edge_trading/internal/metrics"
	"edge_trading/internal/models"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderPlacer submits a single order
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order models.Order) error
}

// Executor places a maker limit order one cent inside the quote and falls back to a market order once
type Executor struct {
	placer OrderPlacer
	log    zerolog.Logger
	newID  func() string
}

func NewExecutor(placer OrderPlacer, log zerolog.Logger) *Executor {
	return &Executor{
		placer: placer,
		log:    log,
		newID:  uuid.NewString,
	}
}

// LimitPrice is the maker price for a quote, never below one cent
func LimitPrice(quote int) int {
	if quote-1 < 1 {
		return 1
	}
	return quote - 1
}

// Execute returns the order that was accepted. When both attempts fail the
// error wraps both causes; the caller skips the candidate.
func (e *Executor) Execute(ctx context.Context, ticker string, side models.Side, count, quote int) (models.Order, error) {
	limit := models.Order{
		Ticker:   ticker,
		Side:     side,
		Type:     models.OrderLimit,
		Price:    LimitPrice(quote),
		Count:    count,
		ClientID: e.newID(),
	}
	limitErr := e.placer.PlaceOrder(ctx, limit)
	if limitErr == nil {
		e.record(limit, nil)
		return limit, nil
	}
	e.record(limit, limitErr)

	market := models.Order{
		Ticker:   ticker,
		Side:     side,
		Type:     models.OrderMarket,
		Count:    count,
		ClientID: e.newID(),
	}
	marketErr := e.placer.PlaceOrder(ctx, market)
	if marketErr == nil {
		e.record(market, nil)
		return market, nil
	}
	e.record(market, marketErr)

	return models.Order{}, fmt.Errorf("%s: limit and market orders failed: %w", ticker, errors.Join(limitErr, marketErr))
}

func (e *Executor) record(order models.Order, err error) {
	result := "accepted"
	switch {
	case errors.Is(err, models.ErrOrderRejected):
		result = "rejected"
	case err != nil:
		result = "failed"
	}
	metrics.OrdersTotal.WithLabelValues(string(order.Type), result).Inc()

	ev := e.log.Info()
	if err != nil {
		ev = e.log.Warn().Err(err)
	}
	ev.Str("ticker", order.Ticker).
		Str("side", string(order.Side)).
		Str("type", string(order.Type)).
		Int("price", order.Price).
		Int("count", order.Count).
		Str("client_order_id", order.ClientID).
		Str("result", result).
		Msg("order submitted")
}
