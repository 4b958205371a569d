package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider selection modes.
const (
	ProviderAuto   = "auto"
	ProviderYtDlp  = "ytdlp"
	ProviderScrape = "scrape"
)

// ConfigOptions holds all application configuration. It is built once at
// startup and never mutated afterwards.
type ConfigOptions struct {
	AppHost             string
	AppPort             string
	APIKey              string
	IndexerName         string
	Provider            string
	YtDlpPath           string
	SearchTimeout       time.Duration
	DefaultLimit        int
	MaxLimit            int
	DebugMode           bool
	WebLogEnabled       bool
	HealthProbeSchedule string
	ShutdownTimeout     time.Duration
}

// fileOptions mirrors ConfigOptions for the optional YAML config file.
// Values from the file act as defaults; environment variables win.
type fileOptions struct {
	Host                string `yaml:"host"`
	Port                string `yaml:"port"`
	APIKey              string `yaml:"api_key"`
	IndexerName         string `yaml:"indexer_name"`
	Provider            string `yaml:"provider"`
	YtDlpPath           string `yaml:"ytdlp_path"`
	SearchTimeout       string `yaml:"search_timeout"`
	DefaultLimit        int    `yaml:"default_limit"`
	MaxLimit            int    `yaml:"max_limit"`
	Debug               bool   `yaml:"debug"`
	WebLog              bool   `yaml:"web_log"`
	HealthProbeSchedule string `yaml:"health_probe_schedule"`
}

// GetConfig loads and validates all configuration. Precedence is environment
// variable, then CONFIG_FILE value, then built-in default.
func GetConfig() (*ConfigOptions, error) {
	file, err := loadFile(GetEnv("CONFIG_FILE", ""))
	if err != nil {
		return nil, err
	}

	config := &ConfigOptions{
		AppHost:             GetEnv("APP_HOST", orDefault(file.Host, "0.0.0.0")),
		AppPort:             GetEnv("APP_PORT", orDefault(file.Port, "9117")),
		APIKey:              GetEnv("API_KEY", orDefault(file.APIKey, GenerateRandomString(16))),
		IndexerName:         GetEnv("INDEXER_NAME", orDefault(file.IndexerName, "YouTube")),
		Provider:            GetEnv("PROVIDER", orDefault(file.Provider, ProviderAuto)),
		YtDlpPath:           GetEnv("YTDLP_PATH", orDefault(file.YtDlpPath, "yt-dlp")),
		SearchTimeout:       GetEnvAsDuration("SEARCH_TIMEOUT", orDurationDefault(file.SearchTimeout, 20*time.Second)),
		DefaultLimit:        GetEnvAsInt("DEFAULT_LIMIT", orIntDefault(file.DefaultLimit, 20)),
		MaxLimit:            GetEnvAsInt("MAX_LIMIT", orIntDefault(file.MaxLimit, 100)),
		DebugMode:           GetEnvAsBool("DEBUG", file.Debug),
		WebLogEnabled:       GetEnvAsBool("WEB_LOG", file.WebLog),
		HealthProbeSchedule: GetEnv("HEALTH_PROBE_SCHEDULE", orDefault(file.HealthProbeSchedule, "@every 5m")),
		ShutdownTimeout:     GetEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// loadFile parses the optional YAML config file. A missing path is not an
// error; a present but unreadable or malformed file is.
func loadFile(path string) (fileOptions, error) {
	var opts fileOptions
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("could not read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return opts, nil
}

// Validate checks if the configuration is valid
func (c *ConfigOptions) Validate() error {
	if port, err := strconv.Atoi(c.AppPort); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("APP_PORT must be a valid port number (1-65535), got: %s", c.AppPort)
	}

	switch c.Provider {
	case ProviderAuto, ProviderYtDlp, ProviderScrape:
	default:
		return fmt.Errorf("PROVIDER must be one of %s, %s or %s, got: %s",
			ProviderAuto, ProviderYtDlp, ProviderScrape, c.Provider)
	}

	if c.YtDlpPath == "" {
		return fmt.Errorf("YTDLP_PATH cannot be empty")
	}

	if c.SearchTimeout < time.Second {
		return fmt.Errorf("SEARCH_TIMEOUT must be at least 1 second, got: %s", c.SearchTimeout)
	}

	if c.MaxLimit < 1 {
		return fmt.Errorf("MAX_LIMIT must be at least 1, got: %d", c.MaxLimit)
	}
	if c.DefaultLimit < 1 || c.DefaultLimit > c.MaxLimit {
		return fmt.Errorf("DEFAULT_LIMIT must be between 1 and MAX_LIMIT (%d), got: %d", c.MaxLimit, c.DefaultLimit)
	}

	return nil
}

// PrintConfig displays current configuration (with sensitive values masked)
func (c *ConfigOptions) PrintConfig() {
	fmt.Println("=== Current Configuration ===")
	fmt.Printf("Listen Address: %s:%s\n", c.AppHost, c.AppPort)
	fmt.Printf("Indexer Name: %s\n", c.IndexerName)
	fmt.Printf("API Key: %s\n", maskSensitive(c.APIKey))
	fmt.Printf("Provider: %s\n", c.Provider)
	fmt.Printf("yt-dlp Path: %s\n", c.YtDlpPath)
	fmt.Printf("Search Timeout: %s\n", c.SearchTimeout)
	fmt.Printf("Result Limits: default=%d max=%d\n", c.DefaultLimit, c.MaxLimit)
	fmt.Printf("Debug Mode: %t\n", c.DebugMode)
	fmt.Printf("Web Log Stream: %t\n", c.WebLogEnabled)
	fmt.Printf("Health Probe Schedule: %s\n", c.HealthProbeSchedule)
	fmt.Println("================================")
}

// PrintConfigHelp displays all available environment variables with descriptions
func PrintConfigHelp() {
	help := `
=== Environment Variables Configuration ===

Server Configuration:
  APP_HOST=0.0.0.0                 Listen host
  APP_PORT=9117                    Server port (1-65535)
  INDEXER_NAME=YouTube             Name advertised in the capabilities document
  DEBUG=false                      Enable debug logging (true/false)
  WEB_LOG=false                    Enable the /logs WebSocket log stream
  SHUTDOWN_TIMEOUT=30s             Grace period for in-flight requests on exit

Search Provider:
  PROVIDER=auto                    auto | ytdlp | scrape
  YTDLP_PATH=yt-dlp                Path to the yt-dlp binary
  SEARCH_TIMEOUT=20s               Upper bound for one provider search
  DEFAULT_LIMIT=20                 Results returned when no limit is requested
  MAX_LIMIT=100                    Hard cap on requested results
  HEALTH_PROBE_SCHEDULE=@every 5m  Cron schedule for provider availability checks

Security:
  API_KEY=<auto-generated>         Shared secret for the Torznab endpoint

Files:
  CONFIG_FILE=                     Optional YAML file with the same settings;
                                   environment variables take precedence

Examples:
  APP_PORT=9118 DEBUG=true ./tube-indexer
  PROVIDER=scrape SEARCH_TIMEOUT=30s ./tube-indexer

Note: the API key is auto-generated and logged at startup if not provided.
=============================================
`
	fmt.Print(help)
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orIntDefault(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func orDurationDefault(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}

func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if valueStr, ok := os.LookupEnv(key); ok {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func GetEnvAsBool(key string, fallback bool) bool {
	val := GetEnv(key, "")
	if val == "" {
		return fallback
	}
	return strings.ToLower(val) == "true" || val == "1"
}

func GetEnvAsInt(key string, fallback int) int {
	if valueStr, ok := os.LookupEnv(key); ok {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return fallback
}

func GenerateRandomString(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return hex.EncodeToString(bytes)
}

// maskSensitive masks sensitive configuration values for display
func maskSensitive(value string) string {
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}
