package config

import (
	"os"
	"strconv"

	"fungible-token-demo/internal/flowtx"
)

type Config struct {
	Port           string
	Network        string
	FlowConfigPath string
	AccessHost     string
	Signer         string
	ComputeLimit   uint64
	DatabaseURL    string
	LogLevel       string
	LogFormat      string
}

// Load reads the process environment. Callers load .env first.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Network:        getEnv("FLOW_NETWORK", "emulator"),
		FlowConfigPath: getEnv("FLOW_CONFIG", "flow.json"),
		AccessHost:     getEnv("FLOW_ACCESS_HOST", ""),
		Signer:         getEnv("FLOW_SIGNER", "emulator-account"),
		ComputeLimit:   getEnvUint("COMPUTE_LIMIT", flowtx.DefaultComputeLimit),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvUint(key string, fallback uint64) uint64 {
	if value, ok := os.LookupEnv(key); ok {
		n, err := strconv.ParseUint(value, 10, 64)
		if err == nil {
			return n
		}
	}
	return fallback
}
