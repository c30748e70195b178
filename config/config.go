package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped onto
// config keys: FIT_SERVER_PORT -> server.port.
const EnvPrefix = "FIT_"

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "config.yml", "/etc/fitcommunity/config.yaml"}

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	JWT        JWTConfig        `koanf:"jwt"`
	OAuth      OAuthConfig      `koanf:"oauth"`
	Cloudinary CloudinaryConfig `koanf:"cloudinary"`
	Firebase   FirebaseConfig   `koanf:"firebase"`
	Upstream   UpstreamConfig   `koanf:"upstream"`
	Search     SearchConfig     `koanf:"search"`
	Log        LogConfig        `koanf:"log"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
}

type ServerConfig struct {
	Port         string        `koanf:"port"`
	Env          string        `koanf:"env"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // mysql | postgres | sqlite
	DSN             string        `koanf:"dsn"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	LogSQL          bool          `koanf:"log_sql"`
}

type JWTConfig struct {
	AccessSecret  string        `koanf:"access_secret"`
	RefreshSecret string        `koanf:"refresh_secret"`
	AccessExpiry  time.Duration `koanf:"access_expiry"`
	RefreshExpiry time.Duration `koanf:"refresh_expiry"`
	Issuer        string        `koanf:"issuer"`
}

type OAuthConfig struct {
	GoogleClientID     string `koanf:"google_client_id"`
	GoogleClientSecret string `koanf:"google_client_secret"`
	GoogleRedirectURL  string `koanf:"google_redirect_url"`
}

type CloudinaryConfig struct {
	CloudName string `koanf:"cloud_name"`
	APIKey    string `koanf:"api_key"`
	APISecret string `koanf:"api_secret"`
	Folder    string `koanf:"folder"`
}

type FirebaseConfig struct {
	ServiceAccountPath string        `koanf:"service_account_path"`
	PushTimeout        time.Duration `koanf:"push_timeout"`
}

// ServiceConfig describes one third-party HTTP API.
type ServiceConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

type UpstreamConfig struct {
	Geocoder    ServiceConfig `koanf:"geocoder"`
	Quotes      ServiceConfig `koanf:"quotes"`
	CatFacts    ServiceConfig `koanf:"catfacts"`
	Gifs        ServiceConfig `koanf:"gifs"`
	ExerciseDB  ServiceConfig `koanf:"exercisedb"`
	LLM         ServiceConfig `koanf:"llm"`
	LLMModel    string        `koanf:"llm_model"`
	LLMAttempts int           `koanf:"llm_attempts"`
	UserAgent   string        `koanf:"user_agent"`
	CacheTTL    time.Duration `koanf:"cache_ttl"`
}

type SearchConfig struct {
	DefaultRadiusKm float64 `koanf:"default_radius_km"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"rps"`
	Burst             int     `koanf:"burst"`
}

// Default returns the built-in configuration used as the lowest koanf layer.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			Env:          "development",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			DSN:             "fit:fit@tcp(localhost:3306)/fitcommunity?charset=utf8mb4&parseTime=True&loc=Local",
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			AccessSecret:  "change-me-in-production",
			RefreshSecret: "change-me-refresh",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 168 * time.Hour,
			Issuer:        "fitcommunity",
		},
		Cloudinary: CloudinaryConfig{Folder: "fitcommunity"},
		Firebase:   FirebaseConfig{PushTimeout: 5 * time.Second},
		Upstream: UpstreamConfig{
			Geocoder:    ServiceConfig{BaseURL: "https://nominatim.openstreetmap.org", Timeout: 5 * time.Second},
			Quotes:      ServiceConfig{BaseURL: "https://zenquotes.io/api", Timeout: 5 * time.Second},
			CatFacts:    ServiceConfig{BaseURL: "https://catfact.ninja", Timeout: 5 * time.Second},
			Gifs:        ServiceConfig{BaseURL: "https://api.giphy.com/v1/gifs", Timeout: 5 * time.Second},
			ExerciseDB:  ServiceConfig{BaseURL: "https://exercisedb.p.rapidapi.com", Timeout: 10 * time.Second},
			LLM:         ServiceConfig{BaseURL: "https://api.openai.com/v1", Timeout: 30 * time.Second},
			LLMModel:    "gpt-4o-mini",
			LLMAttempts: 3,
			UserAgent:   "fitcommunity/1.0",
			CacheTTL:    30 * time.Minute,
		},
		Search:    SearchConfig{DefaultRadiusKm: 10},
		Log:       LogConfig{Level: "info", Format: "json"},
		RateLimit: RateLimitConfig{RequestsPerSecond: 5, Burst: 30},
	}
}

// Load layers defaults, an optional YAML file and FIT_* environment variables.
// A .env file in the working directory is loaded into the process environment first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql, postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Server.Env == "production" && c.JWT.AccessSecret == Default().JWT.AccessSecret {
		return fmt.Errorf("jwt.access_secret must be set in production")
	}
	if c.Search.DefaultRadiusKm <= 0 {
		return fmt.Errorf("search.default_radius_km must be positive")
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey maps FIT_SECTION_SOME_KEY to section.some_key. Only the first
// underscore separates the section; upstream services nest one level deeper
// (FIT_UPSTREAM_LLM_API_KEY -> upstream.llm.api_key).
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key
	}
	if section == "upstream" {
		for _, svc := range []string{"geocoder", "quotes", "catfacts", "gifs", "exercisedb", "llm"} {
			if strings.HasPrefix(rest, svc+"_") && !strings.HasPrefix(rest, "llm_model") && !strings.HasPrefix(rest, "llm_attempts") {
				return section + "." + svc + "." + strings.TrimPrefix(rest, svc+"_")
			}
		}
	}
	return section + "." + rest
}
