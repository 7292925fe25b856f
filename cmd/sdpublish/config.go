package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"servicediscovery/domain"

	"gopkg.in/yaml.v3"
)

// Env variable names.
const (
	envURL              = "SD_URL"
	envAuthToken        = "SD_AUTH_TOKEN"
	envConfigPath       = "CONFIG_PATH"
	envHTTP2            = "SD_HTTP2"
	envRequestTimeoutMs = "SD_REQUEST_TIMEOUT_MS"
)

// Config holds the publisher process configuration: registry access from the environment,
// the instance to register from the YAML file at CONFIG_PATH.
type Config struct {
	URL            string
	AuthToken      string
	HTTP2          bool
	RequestTimeout time.Duration // zero means the client default
	Registration   domain.RegistrationRequest
	Heartbeat      bool
}

// yamlConfig is the registration file.
type yamlConfig struct {
	ServiceName string       `yaml:"service_name"`
	TTL         int          `yaml:"ttl"`
	Status      string       `yaml:"status"`
	Endpoint    yamlEndpoint `yaml:"endpoint"`
	Tags        []string     `yaml:"tags"`
	Heartbeat   *bool        `yaml:"heartbeat"`
}

type yamlEndpoint struct {
	Value string `yaml:"value"`
	Type  string `yaml:"type"`
}

func loadYAMLConfig(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out yamlConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoadConfig reads SD_URL, SD_AUTH_TOKEN, SD_HTTP2, SD_REQUEST_TIMEOUT_MS (all optional) and the registration
// file at CONFIG_PATH (required). service_name, a positive ttl and endpoint.value are required; heartbeat
// defaults to true.
func LoadConfig() (*Config, error) {
	configPath := strings.TrimSpace(os.Getenv(envConfigPath))
	if configPath == "" {
		return nil, fmt.Errorf("%s is required", envConfigPath)
	}
	if !filepath.IsAbs(configPath) {
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return nil, err
		}
		configPath = abs
	}
	raw, err := loadYAMLConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}

	serviceName := strings.TrimSpace(raw.ServiceName)
	if serviceName == "" {
		return nil, fmt.Errorf("service_name is required")
	}
	if raw.TTL <= 0 {
		return nil, fmt.Errorf("ttl must be a positive number of seconds, got %d", raw.TTL)
	}
	endpoint := domain.Endpoint{
		Value: strings.TrimSpace(raw.Endpoint.Value),
		Type:  strings.TrimSpace(raw.Endpoint.Type),
	}
	if endpoint.Value == "" {
		return nil, fmt.Errorf("endpoint.value is required")
	}
	if endpoint.Type == "" {
		endpoint.Type = "http"
	}
	heartbeat := true
	if raw.Heartbeat != nil {
		heartbeat = *raw.Heartbeat
	}

	http2 := false
	if s := strings.TrimSpace(os.Getenv(envHTTP2)); s != "" {
		http2, err = strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean, got %q", envHTTP2, s)
		}
	}
	var requestTimeout time.Duration
	if s := strings.TrimSpace(os.Getenv(envRequestTimeoutMs)); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer (ms), got %q", envRequestTimeoutMs, s)
		}
		requestTimeout = time.Duration(ms) * time.Millisecond
	}

	return &Config{
		URL:            strings.TrimSpace(os.Getenv(envURL)),
		AuthToken:      strings.TrimSpace(os.Getenv(envAuthToken)),
		HTTP2:          http2,
		RequestTimeout: requestTimeout,
		Registration:   domain.NewRegistrationRequest(serviceName, raw.TTL, strings.TrimSpace(raw.Status), endpoint, raw.Tags),
		Heartbeat:      heartbeat,
	}, nil
}
