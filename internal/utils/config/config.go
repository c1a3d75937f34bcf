package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/withdrawal-engine/internal/consts"
	"github.com/dwarvesf/withdrawal-engine/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	Networks    map[string]NetworkConfig
	Queue       QueueConfig
	Vault       VaultConfig
	WebhookURL  string
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

// NetworkConfig describes one supported chain: its RPC endpoint, the
// signing key of the custodial hot wallet, and the confirmation depth
// past which a transaction is treated as final.
type NetworkConfig struct {
	RPCEndpoint      string
	ChainID          int64
	FinalityDepth    int64
	SignerPrivateKey string
	TokenDecimals    int
	// TokenDecimalsByAddress overrides TokenDecimals per token contract,
	// keyed by lower-cased address. Networks carrying tokens with mixed
	// precision (e.g. USDC at 6 next to 18-decimal ERC-20s) need this so
	// each amount scales by its own token's decimals.
	TokenDecimalsByAddress map[string]int
}

// DecimalsFor returns the decimals scaling amounts of the given token.
// The empty address means the native asset, which always uses the
// network default.
func (c NetworkConfig) DecimalsFor(tokenAddress string) int {
	if tokenAddress == "" {
		return c.TokenDecimals
	}
	if decimals, ok := c.TokenDecimalsByAddress[strings.ToLower(tokenAddress)]; ok {
		return decimals
	}
	return c.TokenDecimals
}

// QueueConfig bounds the transaction queue's retry and replacement
// behaviour.
type QueueConfig struct {
	MaxBroadcastRetries int
	MaxFeeBumps         int
	RetryBackoff        time.Duration
	ReplaceAfter        time.Duration
	ConfirmPollInterval time.Duration
	PartitionBuffer     int
	RetentionWindow     time.Duration
}

type VaultConfig struct {
	Addr         string
	KVSecretPath string
	Role         string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// this will not override env variables if they already exist
	godotenv.Load(".env." + env)

	return &AppConfig{
		Environment: environments.Environment(env),
		ApiServer: ApiServerConfig{
			Port:           envVarWithDefault("API_PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Networks: loadNetworks(),
		Queue: QueueConfig{
			MaxBroadcastRetries: envVarAtoiWithDefault("QUEUE_MAX_BROADCAST_RETRIES", 5),
			MaxFeeBumps:         envVarAtoiWithDefault("QUEUE_MAX_FEE_BUMPS", 3),
			RetryBackoff:        envVarDuration("QUEUE_RETRY_BACKOFF", 2*time.Second),
			ReplaceAfter:        envVarDuration("QUEUE_REPLACE_AFTER", 3*time.Minute),
			ConfirmPollInterval: envVarDuration("QUEUE_CONFIRM_POLL_INTERVAL", 10*time.Second),
			PartitionBuffer:     envVarAtoiWithDefault("QUEUE_PARTITION_BUFFER", 256),
			RetentionWindow:     envVarDuration("QUEUE_RETENTION_WINDOW", 24*time.Hour),
		},
		Vault: VaultConfig{
			Addr:         os.Getenv("VAULT_ADDR"),
			KVSecretPath: os.Getenv("VAULT_KV_SECRET_PATH"),
			Role:         os.Getenv("VAULT_ROLE"),
		},
		WebhookURL: os.Getenv("WITHDRAWAL_WEBHOOK_URL"),
	}
}

// loadNetworks reads per-network settings from env vars keyed by the
// upper-cased network name, e.g. POLYGON_RPC_ENDPOINT.
func loadNetworks() map[string]NetworkConfig {
	networks := map[string]NetworkConfig{}
	for _, name := range []string{"ethereum", "base", "polygon"} {
		prefix := strings.ToUpper(name)
		endpoint := os.Getenv(prefix + "_RPC_ENDPOINT")
		if endpoint == "" {
			continue
		}
		networks[name] = NetworkConfig{
			RPCEndpoint:            endpoint,
			ChainID:                int64(envVarAtoiWithDefault(prefix+"_CHAIN_ID", 0)),
			FinalityDepth:          int64(envVarAtoiWithDefault(prefix+"_FINALITY_DEPTH", 12)),
			SignerPrivateKey:       os.Getenv(prefix + "_SIGNER_PRIVATE_KEY"),
			TokenDecimals:          envVarAtoiWithDefault(prefix+"_TOKEN_DECIMALS", consts.NATIVE_TOKEN_DECIMALS),
			TokenDecimalsByAddress: parseTokenDecimals(os.Getenv(prefix + "_TOKEN_DECIMALS_OVERRIDES")),
		}
	}
	return networks
}

// parseTokenDecimals parses "0xaddr:decimals" pairs separated by commas,
// e.g. "0xa0b8...:6,0x6b17...:18".
func parseTokenDecimals(raw string) map[string]int {
	overrides := map[string]int{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			continue
		}
		decimals, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		overrides[strings.ToLower(strings.TrimSpace(parts[0]))] = decimals
	}
	return overrides
}

func envVarWithDefault(envName, fallback string) string {
	value := os.Getenv(envName)
	if value == "" {
		return fallback
	}
	return value
}

func envVarAtoiWithDefault(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}

	return value
}

func envVarDuration(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}

	return value
}
