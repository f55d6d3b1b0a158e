package main

import (
	"context"
	"edge_trading/config"
	"edge_trading/internal/ai"
	"edge_trading/internal/engine"
	"edge_trading/internal/exchange"
	"edge_trading/internal/kalshi"
	"edge_trading/internal/telegram"
	"edge_trading/internal/util"
	"edge_trading/internal/web"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const shutdownTimeout = 90 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := util.NewLogger(cfg.LogLevel)
	logger.Info().Bool("env_file", cfg.EnvFileLoaded).Msg("🚀 Starting Edge Trading...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := engine.Dependencies{Feed: newFeed(cfg)}

	if client := newKalshiClient(cfg, logger); client != nil {
		deps.Markets = client
		deps.Executor = kalshi.NewExecutor(client, logger.With().Str("component", "executor").Logger())
	} else {
		logger.Warn().Msg("no Kalshi credentials, scanner disabled")
	}

	if estimator := newEstimator(cfg); estimator != nil {
		deps.Estimator = estimator
	} else {
		logger.Warn().Str("provider", string(cfg.EstimatorProvider)).Msg("no estimator API key, scanner disabled")
	}

	tradingEngine := engine.NewTradingEngine(deps, cfg, logger)

	if deps.Markets != nil {
		if err := tradingEngine.Connect(ctx); err != nil {
			logger.Error().Err(err).Msg("Kalshi connection failed, scanner disabled")
		}
	}

	// Initialize Telegram bot
	var bot *telegram.Bot
	if cfg.TelegramToken != "" {
		bot, err = telegram.NewBot(ctx, cfg.TelegramToken, cfg.AuthorizedUserID, tradingEngine, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create Telegram bot")
		}
		tradingEngine.SetCallbacks(
			bot.SendTradeOpen,
			bot.SendTradeClose,
			bot.SendOrderPlaced,
			bot.SendAnalysisUpdate,
		)
		go bot.Start()
	}

	// Initialize web server
	webServer := web.NewServer(ctx, tradingEngine, cfg.Port, logger)
	webServer.Start()

	if cfg.AutoStart {
		for _, s := range []engine.Strategy{engine.StrategySpot, engine.StrategyScanner} {
			if err := tradingEngine.Start(ctx, s); err != nil {
				logger.Warn().Err(err).Str("strategy", string(s)).Msg("auto start skipped")
			}
		}
	} else {
		logger.Info().Msg("⏸️ Strategies are stopped. Use the dashboard or /start in Telegram to begin.")
	}
	logger.Info().Str("port", cfg.Port).Msg("✅ All systems initialized")

	<-ctx.Done()
	logger.Info().Msg("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if bot != nil {
		bot.Stop()
	}
	if err := tradingEngine.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("in-flight cycle did not finish")
	}
	if err := webServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("web server shutdown")
	}

	logger.Info().Msg("👋 Goodbye!")
}

func newFeed(cfg *config.Config) exchange.CandleFeed {
	window := cfg.Strategy.Spot.CandleWindow
	if cfg.SpotFeed == config.FeedBinance {
		return exchange.NewBinanceFeed(cfg.BinanceAPIKey, cfg.BinanceSecretKey, cfg.BinanceSymbol, cfg.SpotInterval, window, cfg.FetchRetries, cfg.RequestTimeout)
	}
	return exchange.NewKrakenFeed("", cfg.SpotPair, cfg.SpotPairKey, cfg.SpotInterval, window, cfg.FetchRetries, cfg.RequestTimeout)
}

// newKalshiClient prefers RSA-PSS request signing and falls back to a bearer token
func newKalshiClient(cfg *config.Config, logger zerolog.Logger) *kalshi.Client {
	var auth kalshi.Authenticator
	switch {
	case cfg.KalshiKeyID != "" && cfg.KalshiPrivateKey != "":
		signer, err := kalshi.NewSigner(cfg.KalshiKeyID, cfg.KalshiPrivateKey)
		if err != nil {
			logger.Error().Err(err).Msg("Kalshi private key rejected")
			return nil
		}
		auth = signer
	case cfg.KalshiAPIToken != "":
		auth = kalshi.BearerToken(cfg.KalshiAPIToken)
	default:
		return nil
	}

	return kalshi.NewClient(cfg.KalshiBaseURL, auth,
		kalshi.WithTimeout(cfg.RequestTimeout),
		kalshi.WithRetries(cfg.FetchRetries),
		kalshi.WithLogger(logger.With().Str("component", "kalshi").Logger()),
	)
}

func newEstimator(cfg *config.Config) ai.Estimator {
	switch cfg.EstimatorProvider {
	case config.ProviderMistral:
		if cfg.MistralAPIKey == "" {
			return nil
		}
		return ai.NewMistralClient(cfg.MistralAPIKey,
			ai.WithModel(cfg.MistralModel),
			ai.WithTimeout(cfg.EstimatorTimeout),
		)
	default:
		if cfg.AnthropicAPIKey == "" {
			return nil
		}
		return ai.NewAnthropicClient(cfg.AnthropicAPIKey,
			ai.WithModel(cfg.AnthropicModel),
			ai.WithTimeout(cfg.EstimatorTimeout),
			ai.WithWebSearch(true),
		)
	}
}
