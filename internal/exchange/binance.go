package exchange

import (
	"context"
	"edge_trading/internal/models"
	"edge_trading/internal/util"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
)

// BinanceFeed reads spot klines from Binance
type BinanceFeed struct {
	client   *binance.Client
	symbol   string
	interval string
	window   int
	retries  int
}

// NewBinanceFeed bounds every klines request by timeout and retries transient failures
func NewBinanceFeed(apiKey, secretKey, symbol string, intervalMinutes, window, retries int, timeout time.Duration) *BinanceFeed {
	client := binance.NewClient(apiKey, secretKey)
	client.HTTPClient = &http.Client{Timeout: timeout}
	return &BinanceFeed{
		client:   client,
		symbol:   symbol,
		interval: BinanceInterval(intervalMinutes),
		window:   window,
		retries:  retries,
	}
}

// BinanceInterval maps minutes to a Binance kline interval
func BinanceInterval(minutes int) string {
	switch {
	case minutes >= 1440:
		return "1d"
	case minutes >= 60 && minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	case minutes <= 0:
		return "15m"
	}
	return fmt.Sprintf("%dm", minutes)
}

func (b *BinanceFeed) Candles(ctx context.Context) ([]models.Candle, error) {
	var klines []*binance.Kline
	err := util.Retry(ctx, b.retries, func() error {
		k, err := b.client.NewKlinesService().
			Symbol(b.symbol).
			Interval(b.interval).
			Limit(b.window).
			Do(ctx)
		if err != nil {
			err = fmt.Errorf("%w: binance klines: %w", models.ErrNetwork, err)
			// coded API errors (bad symbol, bad interval) will not go away on retry
			var apiErr *common.APIError
			if errors.As(err, &apiErr) && apiErr.Code != 0 {
				return util.Permanent(err)
			}
			return err
		}
		klines = k
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := make([]models.Candle, len(klines))
	for i, k := range klines {
		result[i] = models.Candle{
			Time:   time.UnixMilli(k.OpenTime),
			Open:   parseFloat(k.Open),
			High:   parseFloat(k.High),
			Low:    parseFloat(k.Low),
			Close:  parseFloat(k.Close),
			Volume: parseFloat(k.Volume),
		}
	}
	return lastN(result, b.window), nil
}
