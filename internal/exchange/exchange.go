package exchange

import (
	"context"
	"edge_trading/internal/models"
	"strconv"
)

// CandleFeed supplies the recent candle history of one pair, oldest first
type CandleFeed interface {
	Candles(ctx context.Context) ([]models.Candle, error)
}

// lastN keeps the most recent n candles
func lastN(candles []models.Candle, n int) []models.Candle {
	if n > 0 && len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}

// Helper function
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
