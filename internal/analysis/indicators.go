package analysis

import (
	"edge_trading/internal/models"
	"math"
)

// Indicator series are aligned index-for-index with their input.
// Positions inside the warmup window hold NaN.

// Defined reports whether an indicator value is available
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// EMA seeds with the SMA of the first period points, then applies k = 2/(period+1)
func EMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	out[period-1] = sum / float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI uses Wilder smoothing. The first value sits at index period.
func RSI(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		diff := values[i] - values[i-1]
		if diff > 0 {
			gains += diff
		} else {
			losses -= diff
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		avgGain = (avgGain*(p-1) + math.Max(diff, 0)) / p
		avgLoss = (avgLoss*(p-1) + math.Max(-diff, 0)) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// MACDSeries holds the MACD line and its signal line
type MACDSeries struct {
	Line   []float64
	Signal []float64
}

// MACD computes EMA12 - EMA26 and an EMA9 signal over the defined MACD values
func MACD(values []float64) MACDSeries {
	fast := EMA(values, 12)
	slow := EMA(values, 26)

	line := undefinedSeries(len(values))
	var defined []float64
	first := -1
	for i := range values {
		if Defined(fast[i]) && Defined(slow[i]) {
			line[i] = fast[i] - slow[i]
			defined = append(defined, line[i])
			if first < 0 {
				first = i
			}
		}
	}

	signal := undefinedSeries(len(values))
	if first >= 0 {
		for j, v := range EMA(defined, 9) {
			signal[first+j] = v
		}
	}
	return MACDSeries{Line: line, Signal: signal}
}

// Bands holds Bollinger Bands
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// BollingerBands uses the population standard deviation of the trailing window
func BollingerBands(values []float64, period int, multiplier float64) Bands {
	b := Bands{
		Upper:  undefinedSeries(len(values)),
		Middle: undefinedSeries(len(values)),
		Lower:  undefinedSeries(len(values)),
	}
	if period <= 0 {
		return b
	}

	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		variance := 0.0
		for _, v := range window {
			variance += (v - mean) * (v - mean)
		}
		sd := math.Sqrt(variance / float64(period))

		b.Middle[i] = mean
		b.Upper[i] = mean + multiplier*sd
		b.Lower[i] = mean - multiplier*sd
	}
	return b
}

// Indicators holds every series the spot strategy reads
type Indicators struct {
	Closes  []float64
	Volumes []float64
	RSI     []float64
	EMA9    []float64
	EMA21   []float64
	MACD    MACDSeries
	Bands   Bands
}

// CalculateIndicators computes technical indicators from candles
func CalculateIndicators(candles []models.Candle) *Indicators {
	closes := make([]float64, len(candles))
	volumes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		volumes[i] = c.Volume
	}

	return &Indicators{
		Closes:  closes,
		Volumes: volumes,
		RSI:     RSI(closes, 14),
		EMA9:    EMA(closes, 9),
		EMA21:   EMA(closes, 21),
		MACD:    MACD(closes),
		Bands:   BollingerBands(closes, 20, 2),
	}
}
