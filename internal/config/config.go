package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string   `mapstructure:"PORT"`
	Env                  string   `mapstructure:"ENV"`
	DatabaseURL          string   `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins          []string `mapstructure:"CORS_ORIGINS"`
	AutoApproveThreshold float64  `mapstructure:"AUTO_APPROVE_THRESHOLD"`
	ReviewThreshold      float64  `mapstructure:"REVIEW_THRESHOLD"`
	MaxClaimAmount       float64  `mapstructure:"MAX_CLAIM_AMOUNT"`
	BcryptCost           int      `mapstructure:"BCRYPT_COST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUTO_APPROVE_THRESHOLD", 100)
	v.SetDefault("REVIEW_THRESHOLD", 10000)
	v.SetDefault("MAX_CLAIM_AMOUNT", 50000)
	v.SetDefault("BCRYPT_COST", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTO_APPROVE_THRESHOLD")
	v.BindEnv("REVIEW_THRESHOLD")
	v.BindEnv("MAX_CLAIM_AMOUNT")
	v.BindEnv("BCRYPT_COST")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the decision thresholds are ordered sensibly:
// auto-approval below review routing, review routing below the ceiling.
func (c *Config) Validate() error {
	if c.AutoApproveThreshold <= 0 {
		return fmt.Errorf("AUTO_APPROVE_THRESHOLD must be positive, got %v", c.AutoApproveThreshold)
	}
	if c.ReviewThreshold < c.AutoApproveThreshold {
		return fmt.Errorf("REVIEW_THRESHOLD (%v) must not be below AUTO_APPROVE_THRESHOLD (%v)",
			c.ReviewThreshold, c.AutoApproveThreshold)
	}
	if c.MaxClaimAmount <= c.ReviewThreshold {
		return fmt.Errorf("MAX_CLAIM_AMOUNT (%v) must exceed REVIEW_THRESHOLD (%v)",
			c.MaxClaimAmount, c.ReviewThreshold)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}
