package config

import (
	"fmt"
	"github.com/bbernstein/tidemap/internal/geocode"
	"github.com/bbernstein/tidemap/internal/storage"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
	"strings"
	"time"
)

const envPrefix = "tidemap"

type Config struct {
	Environment     string
	LogLevel        zerolog.Level
	HTTPTimeout     time.Duration
	APIBaseURL      string
	MapsAPIKey      string
	MapsBaseURL     string
	NominatimServer string
	Port            string
	SessionKey      string
	Storage         storage.Options
}

// envSpec is the TIDEMAP_* environment, e.g. TIDEMAP_API_BASE_URL
type envSpec struct {
	Env             string        `envconfig:"env" default:"production"`
	LogLevel        string        `envconfig:"log_level" default:"info"`
	HTTPTimeout     time.Duration `envconfig:"http_timeout" default:"10s"`
	APIBaseURL      string        `envconfig:"api_base_url"`
	MapsAPIKey      string        `envconfig:"maps_api_key"`
	MapsBaseURL     string        `envconfig:"maps_base_url"`
	NominatimServer string        `envconfig:"nominatim_server"`
	Port            string        `envconfig:"port" default:"8080"`
	SessionKey      string        `envconfig:"session_key"`
	StorageBackend  string        `envconfig:"storage_backend" default:"memory"`
	StorageDir      string        `envconfig:"storage_dir"`
	SQLitePath      string        `envconfig:"sqlite_path"`
	DynamoTable     string        `envconfig:"dynamo_table"`
	DynamoEndpoint  string        `envconfig:"dynamo_endpoint"`
	S3Bucket        string        `envconfig:"s3_bucket"`
	S3Prefix        string        `envconfig:"s3_prefix"`
	PostgresDSN     string        `envconfig:"postgres_dsn"`
}

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

func WithAPIBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.APIBaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithMapsAPIKey(key string) Option {
	return func(c *Config) {
		c.MapsAPIKey = key
	}
}

func WithMapsBaseURL(baseURL string) Option {
	return func(c *Config) {
		if baseURL != "" {
			c.MapsBaseURL = baseURL
		}
	}
}

func WithNominatimServer(server string) Option {
	return func(c *Config) {
		if server != "" {
			c.NominatimServer = server
		}
	}
}

func WithPort(port string) Option {
	return func(c *Config) {
		if port != "" {
			c.Port = port
		}
	}
}

func WithSessionKey(key string) Option {
	return func(c *Config) {
		c.SessionKey = key
	}
}

func WithStorage(opts storage.Options) Option {
	return func(c *Config) {
		c.Storage = opts
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:     "production",
		LogLevel:        zerolog.InfoLevel,
		HTTPTimeout:     10 * time.Second,
		MapsBaseURL:     geocode.DefaultGoogleBaseURL,
		NominatimServer: geocode.DefaultNominatimServer,
		Port:            "8080",
		Storage:         storage.Options{Backend: storage.BackendMemory},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from TIDEMAP_* environment variables
func LoadFromEnv() (*Config, error) {
	var env envSpec
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	return New(
		WithEnvironment(env.Env),
		WithLogLevel(env.LogLevel),
		WithHTTPTimeout(env.HTTPTimeout),
		WithAPIBaseURL(env.APIBaseURL),
		WithMapsAPIKey(env.MapsAPIKey),
		WithMapsBaseURL(env.MapsBaseURL),
		WithNominatimServer(env.NominatimServer),
		WithPort(env.Port),
		WithSessionKey(env.SessionKey),
		WithStorage(storage.Options{
			Backend:        env.StorageBackend,
			Dir:            env.StorageDir,
			SQLitePath:     env.SQLitePath,
			DynamoTable:    env.DynamoTable,
			DynamoEndpoint: env.DynamoEndpoint,
			S3Bucket:       env.S3Bucket,
			S3Prefix:       env.S3Prefix,
			PostgresDSN:    env.PostgresDSN,
		}),
	), nil
}

// Validate reports the external credentials that are required but absent
func (c *Config) Validate() error {
	var missing []string
	if c.APIBaseURL == "" {
		missing = append(missing, "TIDEMAP_API_BASE_URL")
	}
	if c.MapsAPIKey == "" {
		missing = append(missing, "TIDEMAP_MAPS_API_KEY")
	}
	if len(missing) > 0 {
		return NewMissingError(missing)
	}
	return nil
}
