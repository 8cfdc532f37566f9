package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// TargetMint is the token mint this engine instance analyzes and trades.
	TargetMint string

	// ProviderBaseURL is the behavioral-data provider's REST endpoint.
	ProviderBaseURL string
	// ProviderAPIKey authenticates against the behavioral-data provider.
	ProviderAPIKey string
	// ProviderWSURL is the provider's websocket stream endpoint. Optional; when
	// empty the engine falls back to polling only.
	ProviderWSURL string

	// TraderBaseURL is the trade-submission service (quote + swap API).
	TraderBaseURL string

	// DevWalletRegistryPath points at the static insider-wallet registry JSON file.
	DevWalletRegistryPath string

	// WalletKeyEnvPrefix is the prefix of the environment variables holding pool
	// actor key material (WALLET_KEY_1, WALLET_KEY_2, ...).
	WalletKeyEnvPrefix string
	// WalletPoolSize is the number of actor keys to load from the environment.
	WalletPoolSize int
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// All environment variables are required unless noted otherwise.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	TargetMint, err = getEnv("TARGET_TOKEN_MINT")
	if err != nil {
		return err
	}

	ProviderBaseURL, err = getEnv("DATA_PROVIDER_URL")
	if err != nil {
		return err
	}

	ProviderAPIKey, err = getEnv("DATA_PROVIDER_API_KEY")
	if err != nil {
		return err
	}

	// Optional: streaming endpoint
	ProviderWSURL = os.Getenv("DATA_PROVIDER_WS_URL")

	TraderBaseURL, err = getEnv("TRADE_API_URL")
	if err != nil {
		return err
	}

	DevWalletRegistryPath, err = getEnv("DEV_WALLET_REGISTRY")
	if err != nil {
		return err
	}

	WalletKeyEnvPrefix = os.Getenv("WALLET_KEY_ENV_PREFIX")
	if WalletKeyEnvPrefix == "" {
		WalletKeyEnvPrefix = "WALLET_KEY_"
	}

	WalletPoolSize, err = getEnvAsInt("WALLET_POOL_SIZE")
	if err != nil {
		return err
	}
	if WalletPoolSize <= 0 {
		return errors.New("WALLET_POOL_SIZE must be positive")
	}

	log.Debug().
		Str("TargetMint", TargetMint).
		Str("ProviderBaseURL", ProviderBaseURL).
		Int("WalletPoolSize", WalletPoolSize).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt retrieves an environment variable as an int. Returns error if not set or invalid.
func getEnvAsInt(key string) (int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}
