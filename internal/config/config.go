// Package config loads runtime configuration from courtside.yaml plus
// COURTSIDE_* environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Directory holding every CSV artifact.
	DataDir string `mapstructure:"data_dir"`

	Collector CollectorConfig `mapstructure:"collector"`
	Odds      OddsConfig      `mapstructure:"odds"`
	Injury    InjuryConfig    `mapstructure:"injury"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Cron      CronConfig      `mapstructure:"cron"`

	// Rest days assigned to a team's season opener.
	DefaultRestDays int `mapstructure:"default_rest_days"`
}

type CollectorConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	UserAgent          string        `mapstructure:"user_agent"`
	PolitenessInterval time.Duration `mapstructure:"politeness_interval"`
	Retries            int           `mapstructure:"retries"`
	RetryBackoff       time.Duration `mapstructure:"retry_backoff"`
	Timeout            time.Duration `mapstructure:"timeout"`
}

type OddsConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	UserAgent string `mapstructure:"user_agent"`
}

type InjuryConfig struct {
	// Denominator normalizing summed absent-player scores.
	TeamScale float64 `mapstructure:"team_scale"`

	// Score assumed for a listed player with no recorded history.
	DefaultAbsentScore float64 `mapstructure:"default_absent_score"`
}

type PolicyConfig struct {
	LockHigh         float64 `mapstructure:"lock_high"`
	LockLow          float64 `mapstructure:"lock_low"`
	OverconfidentLow float64 `mapstructure:"overconfident_low"`
	StrongLow        float64 `mapstructure:"strong_low"`
	SniperHigh       float64 `mapstructure:"sniper_high"`
	NoiseLow         float64 `mapstructure:"noise_low"`
	NoiseHigh        float64 `mapstructure:"noise_high"`
	LockEdge         float64 `mapstructure:"lock_edge"`
	HighEVEdge       float64 `mapstructure:"high_ev_edge"`
}

type CronConfig struct {
	// robfig cron spec for the daemon's daily run.
	Spec string `mapstructure:"spec"`
}

// Load reads the config file at path (optional) and applies environment
// overrides. Missing file is fine; missing keys fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("COURTSIDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("courtside")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("default_rest_days", 7)

	v.SetDefault("collector.politeness_interval", "3s")
	v.SetDefault("collector.retries", 3)
	v.SetDefault("collector.retry_backoff", "5s")
	v.SetDefault("collector.timeout", "15s")

	v.SetDefault("injury.team_scale", 80.0)
	v.SetDefault("injury.default_absent_score", 5.0)

	v.SetDefault("policy.lock_high", 0.90)
	v.SetDefault("policy.lock_low", 0.20)
	v.SetDefault("policy.overconfident_low", 0.80)
	v.SetDefault("policy.strong_low", 0.70)
	v.SetDefault("policy.sniper_high", 0.30)
	v.SetDefault("policy.noise_low", 0.40)
	v.SetDefault("policy.noise_high", 0.60)
	v.SetDefault("policy.lock_edge", 0.05)
	v.SetDefault("policy.high_ev_edge", 0.15)

	v.SetDefault("cron.spec", "0 6 * * *")
}
