package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  string
	DBPath                string
	JWTSecret             string
	OwnerAddress          string
	OwnerPasswordHash     string
	LedgerNodeURL         string
	OracleEndpoint        string
	OracleCallbackAddress string
	OracleSharedSecret    string
	OracleFeeReserve      string
	OracleQueryCadence    time.Duration
	PriceMaxAge           time.Duration
	PaydayCooldown        time.Duration
	AllocationCooldown    time.Duration
}

var (
	AppConfig Config
)

func LoadConfig() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	AppConfig = Config{
		Port:                  getEnvOrDefault("PORT", "3000"),
		DBPath:                getEnvOrDefault("DB_PATH", "payroll.db"),
		JWTSecret:             mustGetEnv("JWT_SECRET"),
		OwnerAddress:          mustGetEnv("OWNER_ADDRESS"),
		OwnerPasswordHash:     mustGetEnv("OWNER_PASSWORD_HASH"),
		LedgerNodeURL:         getEnvOrDefault("LEDGER_NODE_URL", "http://localhost:8545"),
		OracleEndpoint:        getEnvOrDefault("ORACLE_ENDPOINT", "http://localhost:4000"),
		OracleCallbackAddress: mustGetEnv("ORACLE_CALLBACK_ADDRESS"),
		OracleSharedSecret:    mustGetEnv("ORACLE_SHARED_SECRET"),
		OracleFeeReserve:      getEnvOrDefault("ORACLE_FEE_RESERVE", "0"),
		OracleQueryCadence:    getDurationOrDefault("ORACLE_QUERY_CADENCE", 24*time.Hour),
		PriceMaxAge:           getDurationOrDefault("PRICE_MAX_AGE", 60*time.Minute),
		PaydayCooldown:        getDurationOrDefault("PAYDAY_COOLDOWN", 720*time.Hour),
		AllocationCooldown:    getDurationOrDefault("ALLOCATION_COOLDOWN", 4320*time.Hour),
	}
}

func mustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required", key)
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Environment variable %s is not a valid duration: %v", key, err)
	}
	return d
}
