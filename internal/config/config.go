package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates settings for all binaries in this repository. The
// client sections feed the advisor CLI; Server and AI feed the
// development backend.
type Config struct {
	Client ClientConfig
	Geo    GeoConfig
	Server ServerConfig
	AI     AIConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	geo, err := loadGeoConfig()
	if err != nil {
		return nil, err
	}

	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Client: client, Geo: geo, Server: server, AI: ai}, nil
}

// ClientConfig describes how the advisory client reaches its backend.
type ClientConfig struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	SessionFile    string
	Token          string
}

func loadClientConfig() (ClientConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("PETHEALTH_REQUEST_TIMEOUT"); err != nil {
		return ClientConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ClientConfig{}, fmt.Errorf("PETHEALTH_REQUEST_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return ClientConfig{
		APIBaseURL:     getEnvOrDefault("PETHEALTH_API_URL", "http://localhost:5000"),
		RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
		SessionFile:    getEnvOrDefault("PETHEALTH_SESSION_FILE", "data/session.json"),
		Token:          strings.TrimSpace(os.Getenv("PETHEALTH_TOKEN")),
	}, nil
}

// GeoConfig describes the position source for the emergency workflow.
// When both coordinates are set the lookup service is never contacted.
type GeoConfig struct {
	Endpoint  string
	Timeout   time.Duration
	Latitude  *float64
	Longitude *float64
}

func loadGeoConfig() (GeoConfig, error) {
	lat, err := parseOptionalFloatEnv("PETHEALTH_GEO_LAT")
	if err != nil {
		return GeoConfig{}, err
	}
	lon, err := parseOptionalFloatEnv("PETHEALTH_GEO_LON")
	if err != nil {
		return GeoConfig{}, err
	}

	timeoutSeconds := 10
	if override, err := parseOptionalIntEnv("PETHEALTH_GEO_TIMEOUT"); err != nil {
		return GeoConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return GeoConfig{}, fmt.Errorf("PETHEALTH_GEO_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return GeoConfig{
		Endpoint:  getEnvOrDefault("PETHEALTH_GEO_ENDPOINT", "http://ip-api.com/json"),
		Timeout:   time.Duration(timeoutSeconds) * time.Second,
		Latitude:  lat,
		Longitude: lon,
	}, nil
}

// ServerConfig describes the development backend's listen address.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "5000"
	}

	if strings.Contains(port, ":") {
		// Allow ":5000" or "127.0.0.1:5000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig holds the optional Ark model credentials for the development
// backend's generated replies.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel creates a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("ark credentials missing: set ARK_API_KEY + ARK_MODEL, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
