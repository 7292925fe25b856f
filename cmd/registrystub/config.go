package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"servicediscovery/adapters/myredis"
)

type RegistryStubConfig struct {
	Redis     myredis.RedisConfig
	HTTPPort  int
	AuthToken string
}

// LoadConfig loads configuration from environment variables.
// REDIS_ADDR, SERVICE_PORT_HTTP and SD_AUTH_TOKEN are required.
func LoadConfig() (*RegistryStubConfig, error) {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}

	httpPortStr := os.Getenv("SERVICE_PORT_HTTP")
	if httpPortStr == "" {
		return nil, fmt.Errorf("SERVICE_PORT_HTTP is required")
	}
	httpPort, err := strconv.Atoi(httpPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVICE_PORT_HTTP: %w", err)
	}
	if httpPort <= 0 || httpPort > 65535 {
		return nil, fmt.Errorf("SERVICE_PORT_HTTP must be 1-65535, got %d", httpPort)
	}

	authToken := strings.TrimSpace(os.Getenv("SD_AUTH_TOKEN"))
	if authToken == "" {
		return nil, fmt.Errorf("SD_AUTH_TOKEN is required")
	}

	return &RegistryStubConfig{
		Redis: myredis.RedisConfig{
			Addr: redisAddr,
		},
		HTTPPort:  httpPort,
		AuthToken: authToken,
	}, nil
}
