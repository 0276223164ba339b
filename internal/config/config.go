package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"BigPictureWatch/internal/logger"
)

// Config holds all application configuration.
type Config struct {
	History struct {
		MacroYears        float64 `yaml:"macro_years" default:"30" validate:"gt=0"`
		FuturesLongYears  float64 `yaml:"futures_long_years" default:"8" validate:"gt=0,ltefield=MacroYears"`
		FuturesShortYears float64 `yaml:"futures_short_years" default:"1" validate:"gt=0,ltefield=FuturesLongYears"`
	} `yaml:"history"`
	// Cities selects which catalogued Case-Shiller indices are fetched.
	Cities        []string `yaml:"cities" default:"[\"National\",\"Chicago\",\"SanFrancisco\",\"LosAngeles\",\"SanDiego\",\"Portland\",\"Seattle\",\"Phoenix\",\"Dallas\"]" validate:"min=1,dive,required"`
	Normalization struct {
		From string `yaml:"from" default:"1982-01-01" validate:"datetime=2006-01-02"`
		To   string `yaml:"to" default:"2008-05-01" validate:"datetime=2006-01-02"`
	} `yaml:"normalization"`
	Sources struct {
		FredURL      string        `yaml:"fred_url"`
		YahooURL     string        `yaml:"yahoo_url"`
		ShillerURL   string        `yaml:"shiller_url" default:"https://www.multpl.com/shiller-pe/table/by-month" validate:"url"`
		Timeout      time.Duration `yaml:"timeout" default:"30s" validate:"gt=0"`
		TableTimeout time.Duration `yaml:"table_timeout" default:"30s" validate:"gt=0"`
		VsTrader     struct {
			BaseURL string `yaml:"base_url" validate:"omitempty,url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"vstrader"`
	} `yaml:"sources"`
	Cache struct {
		Path string `yaml:"path" default:"data/bigpicture.gob" validate:"required"`
	} `yaml:"cache"`
	// Output is consumed by the chart renderer only.
	Output struct {
		Dir    string `yaml:"dir" default:"pictures"`
		DPI    int    `yaml:"dpi" default:"109" validate:"gt=0"`
		Width  int    `yaml:"width" default:"1920" validate:"gt=0"`
		Height int    `yaml:"height" default:"1080" validate:"gt=0"`
	} `yaml:"output"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" default:"data/bigpicture.db"`
	} `yaml:"database"`
	Metrics struct {
		TextfilePath string `yaml:"textfile_path"`
	} `yaml:"metrics"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Schedule struct {
		DailyCron string `yaml:"daily_cron" default:"0 0 7 * * *"`
	} `yaml:"schedule"`
	Log     logger.Config `yaml:"log"`
	Verbose bool          `yaml:"verbose"`
	Proxy   string        `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.Sources.VsTrader.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.Sources.VsTrader.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_DAILY"); v != "" {
		cfg.Schedule.DailyCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if cfg.Verbose && cfg.Log.Level == "info" {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NormalizationWindow returns the parsed reference window bounds.
func (c *Config) NormalizationWindow() (from, to time.Time, err error) {
	from, err = time.Parse(time.DateOnly, c.Normalization.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("normalization.from: %w", err)
	}
	to, err = time.Parse(time.DateOnly, c.Normalization.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("normalization.to: %w", err)
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("normalization window %s..%s is empty", c.Normalization.From, c.Normalization.To)
	}
	return from, to, nil
}
