package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type FeedKind string

const (
	FeedKraken  FeedKind = "kraken"
	FeedBinance FeedKind = "binance"
)

type EstimatorProvider string

const (
	ProviderAnthropic EstimatorProvider = "anthropic"
	ProviderMistral   EstimatorProvider = "mistral"
)

// SpotStrategy holds the thresholds of the spot scalper
type SpotStrategy struct {
	FeeRate       float64 `yaml:"fee_rate"`
	StopLoss      float64 `yaml:"stop_loss"`
	TakeProfit    float64 `yaml:"take_profit"`
	EntryFraction float64 `yaml:"entry_fraction"`
	MinCash       float64 `yaml:"min_cash"`
	MinCloses     int     `yaml:"min_closes"`
	VolumeSpike   float64 `yaml:"volume_spike"`
	CandleWindow  int     `yaml:"candle_window"`
	TradeHistory  int     `yaml:"trade_history"`
}

// ScannerStrategy holds the thresholds of the prediction-market scanner
type ScannerStrategy struct {
	MarketLimit   int     `yaml:"market_limit"`
	MinEdge       int     `yaml:"min_edge"`
	MinConfidence float64 `yaml:"min_confidence"`
	TradeHistory  int     `yaml:"trade_history"`
}

// Sizing holds the Kelly bet sizing limits, in major currency units
type Sizing struct {
	KellyFraction      float64 `yaml:"kelly_fraction"`
	MaxBalanceFraction float64 `yaml:"max_balance_fraction"`
	MinBet             float64 `yaml:"min_bet"`
	MaxBet             float64 `yaml:"max_bet"`
}

// StrategyConfig parameterizes the engine. It may be overridden from a YAML file.
type StrategyConfig struct {
	Spot    SpotStrategy    `yaml:"spot"`
	Scanner ScannerStrategy `yaml:"scanner"`
	Sizing  Sizing          `yaml:"sizing"`
}

// DefaultStrategy returns the stock thresholds
func DefaultStrategy() StrategyConfig {
	return StrategyConfig{
		Spot: SpotStrategy{
			FeeRate:       0.001,
			StopLoss:      0.008,
			TakeProfit:    0.015,
			EntryFraction: 0.95,
			MinCash:       10,
			MinCloses:     30,
			VolumeSpike:   1.3,
			CandleWindow:  60,
			TradeHistory:  20,
		},
		Scanner: ScannerStrategy{
			MarketLimit:   50,
			MinEdge:       6,
			MinConfidence: 0.55,
			TradeHistory:  60,
		},
		Sizing: Sizing{
			KellyFraction:      0.5,
			MaxBalanceFraction: 0.08,
			MinBet:             5,
			MaxBet:             10000,
		},
	}
}

type Config struct {
	LogLevel      string
	Port          string
	AutoStart     bool
	EnvFileLoaded bool

	TelegramToken    string
	AuthorizedUserID int64

	SpotFeed         FeedKind
	SpotPair         string
	SpotPairKey      string
	SpotInterval     int // minutes
	SpotPollInterval time.Duration
	SpotStartCash    float64
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceSymbol    string

	KalshiBaseURL        string
	KalshiKeyID          string
	KalshiPrivateKey     string
	KalshiPrivateKeyPath string
	KalshiAPIToken       string
	ScanInterval         time.Duration
	CandidateDelay       time.Duration
	RequestTimeout       time.Duration
	FetchRetries         int

	EstimatorProvider EstimatorProvider
	AnthropicAPIKey   string
	AnthropicModel    string
	MistralAPIKey     string
	MistralModel      string
	EstimatorTimeout  time.Duration

	StrategyFile string
	Strategy     StrategyConfig
}

// Load reads .env (when present), the environment and the optional strategy file
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil

	env := &envReader{}
	cfg := &Config{
		LogLevel:      env.str("LOG_LEVEL", "info"),
		Port:          env.str("PORT", "8080"),
		AutoStart:     env.boolean("AUTO_START", false),
		EnvFileLoaded: loaded,

		TelegramToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		AuthorizedUserID: env.int64("AUTHORIZED_USER_ID", 0),

		SpotFeed:         FeedKind(strings.ToLower(env.str("SPOT_FEED", string(FeedKraken)))),
		SpotPair:         env.str("SPOT_PAIR", "XBTUSD"),
		SpotPairKey:      env.str("SPOT_PAIR_KEY", "XXBTZUSD"),
		SpotInterval:     env.integer("SPOT_INTERVAL_MINUTES", 15),
		SpotPollInterval: env.duration("SPOT_POLL_INTERVAL", 30*time.Second),
		SpotStartCash:    env.float("SPOT_START_CASH", 500),
		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceSecretKey: os.Getenv("BINANCE_SECRET_KEY"),
		BinanceSymbol:    env.str("BINANCE_SYMBOL", "BTCUSDT"),

		KalshiBaseURL:        env.str("KALSHI_BASE_URL", "https://trading-api.kalshi.com/trade-api/v2"),
		KalshiKeyID:          os.Getenv("KALSHI_KEY_ID"),
		KalshiPrivateKey:     os.Getenv("KALSHI_PRIVATE_KEY"),
		KalshiPrivateKeyPath: os.Getenv("KALSHI_PRIVATE_KEY_PATH"),
		KalshiAPIToken:       os.Getenv("KALSHI_API_TOKEN"),
		ScanInterval:         env.duration("SCAN_INTERVAL", 60*time.Minute),
		CandidateDelay:       env.duration("CANDIDATE_DELAY", 1200*time.Millisecond),
		RequestTimeout:       env.duration("REQUEST_TIMEOUT", 15*time.Second),
		FetchRetries:         env.integer("FETCH_RETRIES", 3),

		EstimatorProvider: EstimatorProvider(strings.ToLower(env.str("ESTIMATOR_PROVIDER", string(ProviderAnthropic)))),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:    env.str("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		MistralAPIKey:     os.Getenv("MISTRAL_API_KEY"),
		MistralModel:      env.str("MISTRAL_MODEL", "mistral-small-latest"),
		EstimatorTimeout:  env.duration("ESTIMATOR_TIMEOUT", 60*time.Second),

		StrategyFile: os.Getenv("STRATEGY_FILE"),
		Strategy:     DefaultStrategy(),
	}
	if err := env.err(); err != nil {
		return nil, err
	}

	if cfg.StrategyFile != "" {
		if err := LoadStrategy(cfg.StrategyFile, &cfg.Strategy); err != nil {
			return nil, err
		}
	}

	if cfg.KalshiPrivateKey == "" && cfg.KalshiPrivateKeyPath != "" {
		data, err := os.ReadFile(cfg.KalshiPrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read kalshi private key: %w", err)
		}
		cfg.KalshiPrivateKey = string(data)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadStrategy overlays the YAML file at path onto strategy. Keys absent from the file keep their value.
func LoadStrategy(path string, strategy *StrategyConfig) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open strategy file: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	if err := dec.Decode(strategy); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.SpotFeed {
	case FeedKraken, FeedBinance:
	default:
		errs = append(errs, fmt.Errorf("unknown SPOT_FEED %q", c.SpotFeed))
	}
	switch c.EstimatorProvider {
	case ProviderAnthropic, ProviderMistral:
	default:
		errs = append(errs, fmt.Errorf("unknown ESTIMATOR_PROVIDER %q", c.EstimatorProvider))
	}
	if c.TelegramToken != "" && c.AuthorizedUserID == 0 {
		errs = append(errs, errors.New("AUTHORIZED_USER_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	if c.SpotPollInterval <= 0 || c.ScanInterval <= 0 {
		errs = append(errs, errors.New("poll and scan intervals must be positive"))
	}
	if c.RequestTimeout <= 0 || c.EstimatorTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.CandidateDelay < 0 {
		errs = append(errs, errors.New("CANDIDATE_DELAY must not be negative"))
	}
	if c.FetchRetries < 1 {
		errs = append(errs, errors.New("FETCH_RETRIES must be at least 1"))
	}
	if c.SpotStartCash <= 0 {
		errs = append(errs, errors.New("SPOT_START_CASH must be positive"))
	}

	s := c.Strategy
	if s.Spot.FeeRate < 0 || s.Spot.FeeRate >= 1 {
		errs = append(errs, fmt.Errorf("spot.fee_rate %v out of range [0,1)", s.Spot.FeeRate))
	}
	if s.Spot.StopLoss <= 0 || s.Spot.TakeProfit <= 0 {
		errs = append(errs, errors.New("spot.stop_loss and spot.take_profit must be positive"))
	}
	if s.Spot.EntryFraction <= 0 || s.Spot.EntryFraction > 1 {
		errs = append(errs, fmt.Errorf("spot.entry_fraction %v out of range (0,1]", s.Spot.EntryFraction))
	}
	if s.Spot.MinCloses < 27 {
		// EMA26 plus one previous bar
		errs = append(errs, fmt.Errorf("spot.min_closes %d is below the indicator warmup", s.Spot.MinCloses))
	}
	if s.Spot.CandleWindow < s.Spot.MinCloses {
		errs = append(errs, errors.New("spot.candle_window must cover spot.min_closes"))
	}
	if s.Spot.TradeHistory < 1 || s.Scanner.TradeHistory < 1 {
		errs = append(errs, errors.New("trade history sizes must be positive"))
	}
	if s.Scanner.MarketLimit < 1 {
		errs = append(errs, errors.New("scanner.market_limit must be positive"))
	}
	if s.Scanner.MinConfidence < 0 || s.Scanner.MinConfidence > 1 {
		errs = append(errs, errors.New("scanner.min_confidence must be within [0,1]"))
	}
	if s.Sizing.MinBet <= 0 || s.Sizing.MaxBet < s.Sizing.MinBet {
		errs = append(errs, errors.New("sizing bounds must satisfy 0 < min_bet <= max_bet"))
	}
	if s.Sizing.KellyFraction <= 0 || s.Sizing.MaxBalanceFraction <= 0 {
		errs = append(errs, errors.New("sizing fractions must be positive"))
	}

	return errors.Join(errs...)
}

// HasKalshiCredentials reports whether any Kalshi authentication is configured
func (c *Config) HasKalshiCredentials() bool {
	return (c.KalshiKeyID != "" && c.KalshiPrivateKey != "") || c.KalshiAPIToken != ""
}

// envReader reads typed variables and keeps every parse failure
type envReader struct {
	errs []error
}

func (r *envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *envReader) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) int64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return n
}

func (r *envReader) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return f
}

func (r *envReader) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return b
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s: %w", key, err))
		return def
	}
	return d
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}
