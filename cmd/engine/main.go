package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tokenherd/engine/internal/config"
	"github.com/tokenherd/engine/internal/datafetcher"
	"github.com/tokenherd/engine/internal/engine"
	"github.com/tokenherd/engine/internal/logger"
	"github.com/tokenherd/engine/internal/scheduler"
	"github.com/tokenherd/engine/internal/state"
	"github.com/tokenherd/engine/internal/trader"
	"github.com/tokenherd/engine/internal/types"
	"github.com/tokenherd/engine/internal/utils"
	"github.com/tokenherd/engine/internal/wallets"
	"github.com/tokenherd/engine/internal/web"
)

const (
	DEFAULT_LOOP_INTERVAL = 10 * time.Minute
)

// main is the entry point for the decision engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Token survivability engine starting...")

	// Initialize Database Connection
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load Strategy Parameters
	strategyParams, err := state.LoadActiveStrategyParameters(engine.DEFAULT_STRATEGY_CONFIG_NAME)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load active strategy parameters, using defaults and saving.")
		defaultParams := config.DefaultStrategyParameters
		if _, err := state.SaveStrategyParameters(defaultParams, engine.DEFAULT_STRATEGY_CONFIG_NAME, engine.DEFAULT_STRATEGY_CONFIG_VERSION, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default strategy parameters.")
		}
		strategyParams = &defaultParams
	}
	log.Info().Msg("Strategy parameters loaded successfully.")

	// Load the insider-wallet registry
	devWallets, err := datafetcher.LoadDevWalletRegistry(config.DevWalletRegistryPath)
	if err != nil {
		log.Warn().Err(err).Msg("Dev wallet registry unavailable, exhaustion signal runs neutral.")
		devWallets = nil
	}

	// Stop cleanly on SIGINT/SIGTERM; in-flight dispatch waits are released.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build the behavioral-data fetcher
	fetcher, err := datafetcher.NewEventFetcher(config.ProviderBaseURL, config.ProviderAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize event fetcher")
	}

	// Layer the live stream over the poller when a websocket URL is configured.
	var events engine.EventSource = fetcher
	if config.ProviderWSURL != "" {
		listener, err := datafetcher.NewStreamListener(config.ProviderWSURL, config.ProviderAPIKey, config.TargetMint)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize stream listener")
		}
		merged, err := datafetcher.NewMergedSource(fetcher, listener)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize merged event source")
		}
		events = merged

		go func() {
			if err := listener.Run(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Stream listener stopped unexpectedly")
			}
		}()
		log.Info().Msg("Live transfer stream enabled alongside polling.")
	} else {
		log.Info().Msg("No websocket URL configured, polling only.")
	}

	// --- 2. Scheduler Initialization (with Safety Switch) ---
	var sched *scheduler.Scheduler
	var pool *wallets.PoolManager
	engineMode := os.Getenv("ENGINE_MODE")

	if engineMode == "live" {
		log.Warn().Msg("Initializing engine in LIVE mode. Real trades will be dispatched.")

		records, err := loadWalletRecords(strategyParams.TokenPrecision)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load wallet pool records")
		}

		pool, err = wallets.NewPoolManager(records, strategyParams.TokenPrecision, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize wallet pool")
		}

		keys := wallets.NewEnvKeyProvider(config.WalletKeyEnvPrefix)

		liveTrader, err := trader.NewLiveTrader(config.TraderBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize trader client")
		}
		defer liveTrader.Close()

		session := scheduler.NewSessionState(strategyParams.DailySpendLimitTokens)

		sched, err = scheduler.NewScheduler(pool, keys, liveTrader, session, *strategyParams, scheduler.RealClock{}, rand.New(rand.NewSource(time.Now().UnixNano())))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize execution scheduler")
		}
	} else {
		log.Warn().Msg("ENGINE_MODE is not 'live'. Running analysis-only: directives are decided and persisted but never dispatched.")
	}

	// --- Start Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	webServer := web.NewWebServer(webPort, pool, strategyParams.TokenPrecision, engine.DEFAULT_STRATEGY_CONFIG_NAME)
	go func() {
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting engine monitoring API")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 3. Create Engine Instance with Dependency Injection ---
	log.Info().Msg("Creating engine instance with dependency injection...")

	engineConfig := engine.Config{
		Events:          events,
		Scheduler:       sched,
		Mint:            config.TargetMint,
		DevWallets:      devWallets,
		Params:          *strategyParams,
		CapTier:         capTierFromEnv(),
		BuyBudgetTokens: envFloat("BUY_BUDGET_TOKENS", 100),
		PositionTokens:  envFloat("POSITION_TOKENS", 100),
		Profile: types.ExecutionProfile{
			Urgency:     types.UrgencyNormal,
			Personality: types.PersonalityBalanced,
			Stealth:     types.StealthNormal,
			Preference:  types.PreferLeastRecent,
		},
		ConfigName:    engine.DEFAULT_STRATEGY_CONFIG_NAME,
		ConfigVersion: engine.DEFAULT_STRATEGY_CONFIG_VERSION,
	}

	engineInstance, err := engine.NewEngine(engineConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine instance")
	}

	log.Info().Msg("Engine instance created successfully")

	// --- 4. Start Engine Main Loop ---
	interval := DEFAULT_LOOP_INTERVAL
	if minutes := mustAtoi(os.Getenv("LOOP_INTERVAL_MINUTES"), 0); minutes > 0 {
		interval = time.Duration(minutes) * time.Minute
	}
	log.Info().Str("interval", interval.String()).Msg("Starting engine main loop")

	engineInstance.RunLoop(ctx, interval)
	log.Info().Msg("Engine stopped.")
}

// loadWalletRecords builds the actor pool from environment variables:
// WALLET_ADDRESS_1..N, with optional WALLET_ROLE_n and WALLET_BALANCE_TOKENS_n.
func loadWalletRecords(precision int) ([]types.WalletRecord, error) {
	records := make([]types.WalletRecord, 0, config.WalletPoolSize)
	for i := 1; i <= config.WalletPoolSize; i++ {
		address := os.Getenv(fmt.Sprintf("WALLET_ADDRESS_%d", i))
		if address == "" {
			return nil, fmt.Errorf("WALLET_ADDRESS_%d is required for pool size %d", i, config.WalletPoolSize)
		}

		role := types.WalletRole(os.Getenv(fmt.Sprintf("WALLET_ROLE_%d", i)))
		switch role {
		case types.RoleMain, types.RoleSniper, types.RoleDCA, types.RoleReserve:
		case "":
			role = types.RoleDCA
		default:
			return nil, fmt.Errorf("WALLET_ROLE_%d has unknown role %q", i, role)
		}

		balanceTokens := envFloat(fmt.Sprintf("WALLET_BALANCE_TOKENS_%d", i), 0)
		balance, err := utils.TokensToBase(balanceTokens, precision)
		if err != nil {
			return nil, fmt.Errorf("WALLET_BALANCE_TOKENS_%d is invalid: %w", i, err)
		}

		records = append(records, types.WalletRecord{
			Address: address,
			Role:    role,
			Balance: balance,
			Limits: types.WalletLimits{
				DailyTradeLimit: mustAtoi(os.Getenv(fmt.Sprintf("WALLET_DAILY_LIMIT_%d", i)), 0),
				CooldownMinutes: mustAtoi(os.Getenv(fmt.Sprintf("WALLET_COOLDOWN_MINUTES_%d", i)), 0),
			},
		})
	}
	return records, nil
}

// capTierFromEnv maps MARKET_CAP_TIER to the scoring tier, defaulting to micro.
func capTierFromEnv() types.MarketCapTier {
	switch os.Getenv("MARKET_CAP_TIER") {
	case "mid":
		return types.TierMidCap
	case "large":
		return types.TierLargeCap
	default:
		return types.TierMicroCap
	}
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}

func envFloat(key string, defaultValue float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return v
}
