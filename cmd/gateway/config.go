package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kuretru/quatt-gateway/entity"
	"github.com/kuretru/quatt-gateway/internal/dashboard"
)

const (
	defaultDashboardListen = ":8099"
	defaultOfflineAfter    = 600 // seconds
	defaultCardName        = "house"
)

type DashboardConfig struct {
	Listen string                            `yaml:"listen"`
	Cards  map[string]dashboard.CardInstance `yaml:"cards"`
}

type Config struct {
	LogLevel string `yaml:"log_level"`
	// OfflineAfter 记录超过该秒数未刷新则被清除，负数表示永不清除
	OfflineAfter int                       `yaml:"offline_after"`
	Collectors   []*entity.CollectorConfig `yaml:"collectors"`
	Publishers   []*entity.PublisherConfig `yaml:"publishers"`
	Dashboard    *DashboardConfig          `yaml:"dashboard"`
}

func loadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file not provided")
	}
	configBytes, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file %v not exist", path)
		}
		return nil, fmt.Errorf("read config file failed, %w", err)
	}
	return parseConfig(configBytes)
}

func parseConfig(configBytes []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config file failed, %w", err)
	}
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.OfflineAfter == 0 {
		c.OfflineAfter = defaultOfflineAfter
	}
	if c.Dashboard != nil {
		c.Dashboard.applyDefaults()
	}
}

func (d *DashboardConfig) applyDefaults() {
	if d.Listen == "" {
		d.Listen = defaultDashboardListen
	}
	if len(d.Cards) == 0 {
		d.Cards = map[string]dashboard.CardInstance{
			defaultCardName: {Type: dashboard.HouseCard{}.Type(), Config: dashboard.DefaultCardConfig()},
		}
	}
	// 实体由网关自己产生，未配置的段使用默认值
	for name, card := range d.Cards {
		card.Config.ApplyDefaults()
		d.Cards[name] = card
	}
}

func (c *Config) validate() error {
	if len(c.Collectors) == 0 {
		return fmt.Errorf("at least one collector is required")
	}
	for i, collector := range c.Collectors {
		if collector == nil {
			return fmt.Errorf("collector %d is empty", i)
		}
	}
	for i, publisher := range c.Publishers {
		if publisher == nil {
			return fmt.Errorf("publisher %d is empty", i)
		}
	}
	return nil
}

func (c *Config) offlineAfter() time.Duration {
	if c.OfflineAfter < 0 {
		return 0
	}
	return time.Duration(c.OfflineAfter) * time.Second
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func setupLogging(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)})
	slog.SetDefault(slog.New(handler))
}
