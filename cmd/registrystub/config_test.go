package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name          string
		redisAddr     string
		port          string
		token         string
		expectedError string
	}{
		{name: "ok", redisAddr: "redis://localhost:6379", port: "8080", token: "secret"},
		{name: "redis addr required", port: "8080", token: "secret", expectedError: "REDIS_ADDR is required"},
		{name: "port required", redisAddr: "redis://localhost:6379", token: "secret", expectedError: "SERVICE_PORT_HTTP is required"},
		{name: "port not a number", redisAddr: "redis://localhost:6379", port: "http", token: "secret", expectedError: "invalid SERVICE_PORT_HTTP"},
		{name: "port out of range", redisAddr: "redis://localhost:6379", port: "70000", token: "secret", expectedError: "SERVICE_PORT_HTTP must be 1-65535"},
		{name: "token required", redisAddr: "redis://localhost:6379", port: "8080", expectedError: "SD_AUTH_TOKEN is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("REDIS_ADDR", tt.redisAddr)
			t.Setenv("SERVICE_PORT_HTTP", tt.port)
			t.Setenv("SD_AUTH_TOKEN", tt.token)

			cfg, err := LoadConfig()
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Nil(t, cfg)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.Equal(t, "redis://localhost:6379", cfg.Redis.Addr)
			assert.Equal(t, 8080, cfg.HTTPPort)
			assert.Equal(t, "secret", cfg.AuthToken)
		})
	}
}
