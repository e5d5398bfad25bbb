package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/severand/InteriorBot/internal/domain/model"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token"`
	Username string  `yaml:"username"` // without @, used for referral deep links
	Workers  int     `yaml:"workers"`  // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // flow session lifetime
}

type GenerationConfig struct {
	ReplicateToken string        `yaml:"replicate_token"`
	ModelVersion   string        `yaml:"model_version"`
	FallbackURL    string        `yaml:"fallback_url"` // secondary provider endpoint, optional
	PollInterval   time.Duration `yaml:"poll_interval"`
	Timeout        time.Duration `yaml:"timeout"`
}

// ChargePolicy decides what happens to the spent credit when generation fails.
type ChargePolicy string

const (
	// ChargeAttempt charges for the attempt: no refund on failure.
	ChargeAttempt ChargePolicy = "attempt"
	// ChargeRefundOnFailure returns the credit when the backend fails.
	ChargeRefundOnFailure ChargePolicy = "refund_on_failure"
)

type PaymentConfig struct {
	YooKassa struct {
		ShopID    string `yaml:"shop_id"`
		SecretKey string `yaml:"secret_key"`
		ReturnURL string `yaml:"return_url"`
	} `yaml:"yookassa"`
	// TestingMode swaps the real gateway for the always-succeeds stub.
	TestingMode  bool                  `yaml:"testing_mode"`
	ChargePolicy ChargePolicy          `yaml:"charge_policy"`
	Packages     []model.CreditPackage `yaml:"packages"`
}

type ReferralConfig struct {
	WelcomeBonus      int `yaml:"welcome_bonus"`
	InviterBonus      int `yaml:"inviter_bonus"`
	InvitedBonus      int `yaml:"invited_bonus"`
	CommissionPercent int `yaml:"commission_percent"`
	// ExchangeRateRUB is the referral-balance price of one generation when
	// exchanging earnings for credits.
	ExchangeRateRUB int64 `yaml:"exchange_rate_rub"`
}

type AdminConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
	Password  string `yaml:"password"` // login password for the web panel
}

type Config struct {
	Bot        BotConfig        `yaml:"bot"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Generation GenerationConfig `yaml:"generation"`
	Payment    PaymentConfig    `yaml:"payment"`
	Referral   ReferralConfig   `yaml:"referral"`
	Admin      AdminConfig      `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

// Load reads and validates the YAML config. dev comes from the -dev flag and
// loosens some behavior (console logging, stub backends when keys are empty).
func Load(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	switch cfg.Payment.ChargePolicy {
	case ChargeAttempt, ChargeRefundOnFailure:
	default:
		return nil, fmt.Errorf("payment.charge_policy: unknown value %q", cfg.Payment.ChargePolicy)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Generation.PollInterval <= 0 {
		cfg.Generation.PollInterval = 2 * time.Second
	}
	if cfg.Generation.Timeout <= 0 {
		cfg.Generation.Timeout = 90 * time.Second
	}
	if cfg.Payment.ChargePolicy == "" {
		cfg.Payment.ChargePolicy = ChargeAttempt
	}
	if len(cfg.Payment.Packages) == 0 {
		cfg.Payment.Packages = []model.CreditPackage{
			{Key: "small", Credits: 10, PriceRUB: 290, Name: "10 генераций"},
			{Key: "medium", Credits: 25, PriceRUB: 590, Name: "25 генераций"},
			{Key: "large", Credits: 60, PriceRUB: 990, Name: "60 генераций"},
		}
	}
	if cfg.Referral.WelcomeBonus <= 0 {
		cfg.Referral.WelcomeBonus = 3
	}
	if cfg.Referral.InviterBonus <= 0 {
		cfg.Referral.InviterBonus = 2
	}
	if cfg.Referral.InvitedBonus <= 0 {
		cfg.Referral.InvitedBonus = 2
	}
	if cfg.Referral.CommissionPercent <= 0 {
		cfg.Referral.CommissionPercent = 20
	}
	if cfg.Referral.ExchangeRateRUB <= 0 {
		cfg.Referral.ExchangeRateRUB = 29
	}
	if cfg.Admin.Port == 0 {
		cfg.Admin.Port = 8080
	}
}

// IsAdmin reports whether the Telegram id is in the configured admin list.
func (cfg *Config) IsAdmin(tgID int64) bool {
	for _, id := range cfg.Bot.AdminIDs {
		if id == tgID {
			return true
		}
	}
	return false
}
