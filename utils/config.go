package utils

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// Config contains all the configuration options
type Config struct {
	// Environment related options

	// Stage is the current execution environment. Can be one of "prod", "dev", "docker" or "test"
	Stage string

	// Logging related options

	// LogFileName is the name of the log file name. "stdout" logs to the standard output
	LogFileName string
	// LogMaxSize is the maximum size(MB) of a log file before it gets rotated
	LogMaxSize int
	// LogLevel determines the log level.
	// Can be one of "debug", "info", "warn", "error"
	LogLevel string

	// Chain related options

	// RPCURL is the JSON-RPC endpoint of the node the ledger adapter talks to
	RPCURL string
	// ChainID is the id of the chain the auction contract is deployed on
	ChainID int64
	// AuctionContract is the hex address of the auction contract
	AuctionContract string
	// ReceiptPollMillis is how often a pending transaction's receipt is polled
	ReceiptPollMillis int
	// ConfirmationTimeoutSeconds bounds the wait for a transaction to be mined
	ConfirmationTimeoutSeconds int

	// Remote service related options

	// ListingURL is the base URL of the auction listing/indexing service
	ListingURL string
	// RelayerURL is the base URL of the encryption relayer
	RelayerURL string
	// RelayerTimeoutSeconds bounds a single encryption request
	RelayerTimeoutSeconds int

	// Cache related options

	// CacheSize is the number of auctions kept in the client cache
	CacheSize int
	// RefreshIntervalSeconds is the polling interval of watched auctions
	RefreshIntervalSeconds int
	// MaxStalenessSeconds is the age after which a cached auction is refetched on read
	MaxStalenessSeconds int
	// PriceTickMillis is the interval at which live prices are recomputed and broadcast
	PriceTickMillis int
}

// Struct to load configurations of all possible modes i.e dev, docker, prod, test
// Only one of them will be selected based on the environment variable AUCTION_ENV
var allConfigurations = struct {

	// Configuration for environment : dev
	Dev Config

	// Configuration for environment : docker
	Docker Config

	// Configuration for environment : prod
	Prod Config

	// Configuration for environment : test
	Test Config
}{}

// config defaults are for tests, so that individual tests don't need a config file
var config = &Config{
	Stage:                      "test",
	LogFileName:                "stdout",
	LogMaxSize:                 50,
	LogLevel:                   "debug",
	RPCURL:                     "http://127.0.0.1:8545",
	ChainID:                    11155111,
	AuctionContract:            "0x0000000000000000000000000000000000000000",
	ReceiptPollMillis:          1000,
	ConfirmationTimeoutSeconds: 90,
	ListingURL:                 "http://127.0.0.1:8080/api",
	RelayerURL:                 "http://127.0.0.1:8090",
	RelayerTimeoutSeconds:      30,
	CacheSize:                  256,
	RefreshIntervalSeconds:     5,
	MaxStalenessSeconds:        10,
	PriceTickMillis:            1000,
}

// InitConfiguration reads the given config file and loads the section
// selected by AUCTION_ENV into the current configuration
func InitConfiguration(configFileName string) {
	stage, exists := os.LookupEnv("AUCTION_ENV")
	if !exists {
		os.Stderr.WriteString("Set environment variable AUCTION_ENV to one of : Dev, Docker, Prod, Test. Taking Dev as default.\n")
		stage = "Dev"
	}

	configFile, err := os.Open(configFileName)
	if err != nil {
		if stage == "Test" {
			return // config is already set to default value for test. nothing to do.
		}
		log.Fatalf("Failed to open %s. Cannot proceed", configFileName)
	}
	defer configFile.Close()

	decoder := json.NewDecoder(configFile)
	if err := decoder.Decode(&allConfigurations); err != nil {
		log.Fatalf("Failed to load configuration. Cannot proceed. Error: %+v", err)
	}

	switch stage {
	case "Docker":
		config = &allConfigurations.Docker
	case "Prod":
		config = &allConfigurations.Prod
	case "Test":
		config = &allConfigurations.Test
	default:
		// Take Dev as default
		config = &allConfigurations.Dev
	}

	log.Printf("Loaded configuration from %s: %+v\n", configFileName, config)
}

// GetConfiguration returns the loaded configuration
func GetConfiguration() *Config {
	return config
}

// Init intializes the utils package. The config is accepted as a parameter for helping with testing.
func Init(config *Config) {
	InitLogger(config)
}

// RefreshInterval returns the polling interval for watched auctions
func (c *Config) RefreshInterval() time.Duration {
	return secondsOr(c.RefreshIntervalSeconds, 5)
}

// MaxStaleness returns the age after which a cached auction is considered stale
func (c *Config) MaxStaleness() time.Duration {
	return secondsOr(c.MaxStalenessSeconds, 10)
}

// ConfirmationTimeout returns how long the pipeline waits for a transaction to be mined
func (c *Config) ConfirmationTimeout() time.Duration {
	return secondsOr(c.ConfirmationTimeoutSeconds, 90)
}

// RelayerTimeout returns how long an encryption request may take
func (c *Config) RelayerTimeout() time.Duration {
	return secondsOr(c.RelayerTimeoutSeconds, 30)
}

// ReceiptPollInterval returns how often pending receipts are polled
func (c *Config) ReceiptPollInterval() time.Duration {
	if c.ReceiptPollMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.ReceiptPollMillis) * time.Millisecond
}

// PriceTick returns the live price recomputation interval
func (c *Config) PriceTick() time.Duration {
	if c.PriceTickMillis <= 0 {
		return time.Second
	}
	return time.Duration(c.PriceTickMillis) * time.Millisecond
}

func secondsOr(v int, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
