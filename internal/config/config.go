package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type HTTPServer struct {
	Addr string `yaml:"address" env:"HTTP_ADDR" env-default:":8080"`
}

type Database struct {
	Host            string        `yaml:"PG_HOST" env:"PG_HOST" env-default:"localhost"`
	Port            string        `yaml:"PG_PORT" env:"PG_PORT" env-default:"5432"`
	User            string        `yaml:"PG_USER" env:"PG_USER" env-required:"true"`
	Password        string        `yaml:"PG_PASSWORD" env:"PG_PASSWORD" env-required:"true"`
	Name            string        `yaml:"PG_DBNAME" env:"PG_DBNAME" env-required:"true"`
	SSLMode         string        `yaml:"PG_SSLMODE" env:"PG_SSLMODE" env-default:"require"`
	MaxOpenConns    int           `yaml:"MAX_OPEN_CONNS" env:"PG_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `yaml:"MAX_IDLE_CONNS" env:"PG_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"CONN_MAX_LIFETIME" env:"PG_CONN_MAX_LIFETIME" env-default:"30m"`
	ConnMaxIdleTime time.Duration `yaml:"CONN_MAX_IDLE_TIME" env:"PG_CONN_MAX_IDLE_TIME" env-default:"5m"`
}

type RedisConnect struct {
	Host     string `yaml:"REDIS_HOST" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"REDIS_PORT" env:"REDIS_PORT" env-default:"6379"`
	Username string `yaml:"REDIS_USER" env:"REDIS_USER" env-default:""`
	Password string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"REDIS_DB" env:"REDIS_DB" env-default:"0"`
}

type Security struct {
	JWTKey         string `yaml:"JWT_KEY" env:"JWT_KEY" env-required:"true"`
	JWTExpiryHours int    `yaml:"JWT_EXPIRY_HOURS" env:"JWT_EXPIRY_HOURS" env-default:"24"`
}

type RateConfig struct {
	MaxAttempts int64         `yaml:"MAX_ATTEMPTS" env:"MAX_ATTEMPTS" env-default:"5"`
	WindowSize  time.Duration `yaml:"WINDOW_SIZE" env:"WINDOW_SIZE" env-default:"15m"`
}

// Identity provider settings. BaseURL points at the hosted auth backend used
// for password grants; the OIDC block drives the federated redirect flow.
type Provider struct {
	BaseURL string        `yaml:"BASE_URL" env:"PROVIDER_BASE_URL" env-default:""`
	APIKey  string        `yaml:"API_KEY" env:"PROVIDER_API_KEY" env-default:""`
	Timeout time.Duration `yaml:"TIMEOUT" env:"PROVIDER_TIMEOUT" env-default:"10s"`
}

type OIDC struct {
	Enabled      bool     `yaml:"ENABLED" env:"OIDC_ENABLED" env-default:"false"`
	IssuerURL    string   `yaml:"ISSUER_URL" env:"OIDC_ISSUER_URL" env-default:""`
	ClientID     string   `yaml:"CLIENT_ID" env:"OIDC_CLIENT_ID" env-default:""`
	ClientSecret string   `yaml:"CLIENT_SECRET" env:"OIDC_CLIENT_SECRET" env-default:""`
	RedirectURL  string   `yaml:"REDIRECT_URL" env:"OIDC_REDIRECT_URL" env-default:""`
	Scopes       []string `yaml:"SCOPES" env:"OIDC_SCOPES" env-default:"openid,profile,email"`
}

// Storage selects the durable backend for the cart/wishlist snapshot and the
// cached profile. "redis" is the hosted default; "file" keeps everything in a
// local JSON file for development.
type Storage struct {
	Backend  string `yaml:"BACKEND" env:"STORAGE_BACKEND" env-default:"redis"`
	FilePath string `yaml:"FILE_PATH" env:"STORAGE_FILE_PATH" env-default:"./data/engine-state.json"`
}

// DemoDirectory toggles the hard-coded credential fast path. It bypasses the
// identity provider entirely, so it is off unless explicitly enabled for
// environments without a reachable auth backend.
type DemoDirectory struct {
	Enabled bool `yaml:"ENABLED" env:"DEMO_DIRECTORY_ENABLED" env-default:"false"`
}

type Otel struct {
	ServiceName      string  `yaml:"SERVICE_NAME" env:"OTEL_SERVICE_NAME" env-default:"commerce-engine"`
	ExporterEndpoint string  `yaml:"EXPORTER_ENDPOINT" env:"OTEL_EXPORTER_ENDPOINT" env-default:""`
	SamplerRatio     float64 `yaml:"SAMPLER_RATIO" env:"OTEL_SAMPLER_RATIO" env-default:"1.0"`
}

type Config struct {
	Env           string              `yaml:"env" env:"ENV" env-required:"true"`
	HTTPServer    HTTPServer          `yaml:"http_server"`
	Database      Database            `yaml:"database"`
	RedisConnect  RedisConnect        `yaml:"redis"`
	Security      Security            `yaml:"security"`
	RateConfig    RateConfig          `yaml:"rateConfig"`
	Provider      Provider            `yaml:"provider"`
	OIDC          OIDC                `yaml:"oidc"`
	Storage       Storage             `yaml:"storage"`
	DemoDirectory DemoDirectory       `yaml:"demo_directory"`
	Otel          Otel                `yaml:"otel"`
	Capabilities  map[string][]string `yaml:"capabilities"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "path to the config file")
		flag.Parse()

		configPath = *flags

		if configPath == "" {
			configPath = "./config/local.yaml"
		}
	}

	cfg, err := LoadConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("can not read config file: %s", err.Error())
	}

	return cfg
}

func LoadConfigFromPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

func (d *Database) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

func (r *RedisConnect) GetDSN() string {
	return fmt.Sprintf("redis://%s:%s@%s:%s/%d",
		r.Username, r.Password, r.Host, r.Port, r.DB)
}
