package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey    string        `yaml:"api_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CDKConfig struct {
	AcquireAPI  string `yaml:"acquire_api"`
	RenewAPI    string `yaml:"renew_api"`
	ValidateAPI string `yaml:"validate_api"`
}

type AfdianConfig struct {
	QueryOrderAPI  string `yaml:"query_order_api"`
	UserID         string `yaml:"user_id"`
	APIToken       string `yaml:"api_token"`
	WebhookSecret  string `yaml:"webhook_secret"`
	TestOutTradeNo string `yaml:"test_out_trade_no"`
}

type YimapayConfig struct {
	AppID          string `yaml:"app_id"`
	SecretKey      string `yaml:"secret_key"`
	CreateOrderAPI string `yaml:"create_order_api"`
	QueryOrderAPI  string `yaml:"query_order_api"`
	NotifyURL      string `yaml:"notify_url"`
	WebhookSecret  string `yaml:"webhook_secret"`
}

type CheckInConfig struct {
	Secret string `yaml:"secret"`
}

type RevenueConfig struct {
	AllScopeSecret string `yaml:"all_scope_secret"`
}

type NotifyConfig struct {
	URL string `yaml:"url"`
}

type PricingConfig struct {
	URL string `yaml:"url"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	CDK      CDKConfig      `yaml:"cdk"`
	Afdian   AfdianConfig   `yaml:"afdian"`
	Yimapay  YimapayConfig  `yaml:"yimapay"`
	CheckIn  CheckInConfig  `yaml:"check_in"`
	Revenue  RevenueConfig  `yaml:"revenue"`
	Notify   NotifyConfig   `yaml:"notify"`
	Pricing  PricingConfig  `yaml:"pricing"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.CDK.AcquireAPI == "" || cfg.CDK.RenewAPI == "" {
		return nil, errors.New("cdk.acquire_api and cdk.renew_api are required")
	}
	if cfg.CheckIn.Secret == "" {
		return nil, errors.New("check_in.secret is required")
	}
	if cfg.Afdian.WebhookSecret == "" || cfg.Yimapay.WebhookSecret == "" {
		return nil, errors.New("afdian.webhook_secret and yimapay.webhook_secret are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
