// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultDevAPIURL is the posts API used while developing locally.
	DefaultDevAPIURL = "http://localhost:4460"
	// DefaultProdAPIURL is the posts API used by deployed builds.
	DefaultProdAPIURL = "https://api.yourproductionsite.com"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env         string `mapstructure:"APP_ENV"`
	Port        string `mapstructure:"PORT"`
	APIHostname string `mapstructure:"API_HOSTNAME"`
	APIDevURL   string `mapstructure:"API_DEV_URL"`
	APIProdURL  string `mapstructure:"API_PROD_URL"`

	RenderWaitMS    int    `mapstructure:"RENDER_WAIT_MS"`
	RedisURL        string `mapstructure:"REDIS_URL"`
	CreateRateLimit int    `mapstructure:"CREATE_RATE_LIMIT"`

	// Development posts API.
	APIPort        string `mapstructure:"API_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	SQLitePath     string `mapstructure:"SQLITE_PATH"`

	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = string(EnvDevelopment)
	}

	if ParseEnvironment(env) == EnvProduction {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("invalid profile-specific config 'config.%s.yml': %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	viper.SetDefault("APP_ENV", string(EnvDevelopment))
	viper.SetDefault("PORT", "5173")
	viper.SetDefault("API_HOSTNAME", "")
	viper.SetDefault("API_DEV_URL", DefaultDevAPIURL)
	viper.SetDefault("API_PROD_URL", DefaultProdAPIURL)
	viper.SetDefault("RENDER_WAIT_MS", 1500)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CREATE_RATE_LIMIT", 10)
	viper.SetDefault("API_PORT", "4460")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "newsletter")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "newsletter.db")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and well formed.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if err := validateBaseURL("API_DEV_URL", c.APIDevURL); err != nil {
		return err
	}
	if err := validateBaseURL("API_PROD_URL", c.APIProdURL); err != nil {
		return err
	}
	if c.RenderWaitMS < 0 {
		return errors.New("RENDER_WAIT_MS must not be negative")
	}
	if c.CreateRateLimit < 0 {
		return errors.New("CREATE_RATE_LIMIT must not be negative")
	}
	switch c.DBDriver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported (use postgres or sqlite)", c.DBDriver)
	}

	if c.Environment() == EnvProduction {
		if !strings.HasPrefix(c.APIProdURL, "https://") {
			log.Println("WARNING: API_PROD_URL does not use https in production.")
		}
		if c.DBDriver == "postgres" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must not be 'disable' in production")
		}
	}

	return nil
}

func validateBaseURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

// Environment reports the deployment environment resolved from APP_ENV.
func (c *Config) Environment() Environment {
	return ParseEnvironment(c.Env)
}

// RenderWait is how long a page waits for its data before rendering the loading state.
func (c *Config) RenderWait() time.Duration {
	return time.Duration(c.RenderWaitMS) * time.Millisecond
}

// API resolves the posts API configuration. It is computed once at startup and
// handed to the service client.
func (c *Config) API() APIConfig {
	return APIConfig{
		Environment: c.Environment(),
		BaseURL:     ResolveBaseURL(c.Environment(), c.APIHostname, c.APIDevURL, c.APIProdURL),
		Endpoints:   DefaultEndpoints(),
	}
}
