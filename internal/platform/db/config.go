package db

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFilePath = "config/config.yaml"

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Username string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	DBName   string `yaml:"dbname" env:"DB_NAME"`
}

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
}

// StripeConfig: secret_key が空なら決済は「未設定」扱い (503)
type StripeConfig struct {
	SecretKey string        `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	BaseURL   string        `yaml:"base_url" env:"STRIPE_BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"STRIPE_TIMEOUT"`
}

// PricingConfig は料金ポリシーの設定値。単位はセント。
type PricingConfig struct {
	Currency           string `yaml:"currency"`
	BlockMinutes       int    `yaml:"block_minutes"`
	BlockRateCents     int64  `yaml:"block_rate_cents"`
	DailyCapCents      int64  `yaml:"daily_cap_cents"`
	LateThresholdDays  int    `yaml:"late_threshold_days"`
	LateRentalFeeCents int64  `yaml:"late_rental_fee_cents"`
	PurchaseFeeCents   int64  `yaml:"purchase_fee_cents"`
	ValidationFeeCents int64  `yaml:"validation_fee_cents" env:"VALIDATION_FEE_CENTS"`
}

type PointsConfig struct {
	RentalCompleted int `yaml:"rental_completed"`
	RentalPurchased int `yaml:"rental_purchased"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" env:"METRICS_ENABLED"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode" env:"APP_MODE"`
	Listen      string         `yaml:"listen" env:"LISTEN_ADDR"`
	LogLevel    string         `yaml:"log_level" env:"LOG_LEVEL"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Auth        AuthConfig     `yaml:"auth"`
	Stripe      StripeConfig   `yaml:"stripe"`
	Pricing     PricingConfig  `yaml:"pricing"`
	Points      PointsConfig   `yaml:"points"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// LoadConfig: yaml を読んだあと環境変数で上書きする（.env があれば先に読む）
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = configFilePath
	}
	_ = godotenv.Load()

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込み失敗: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Mode:     "dev",
		Listen:   ":8443",
		LogLevel: "info",
		Stripe:   StripeConfig{Timeout: 10 * time.Second},
		Pricing: PricingConfig{
			Currency:           "eur",
			BlockMinutes:       30,
			BlockRateCents:     100,
			DailyCapCents:      500,
			LateThresholdDays:  5,
			LateRentalFeeCents: 2500,
			PurchaseFeeCents:   2500,
			ValidationFeeCents: 100,
		},
		Points: PointsConfig{RentalCompleted: 10},
	}
}
