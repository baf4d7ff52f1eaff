// Package config loads the watchface runtime configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete watchface configuration.
type Config struct {
	Display   DisplayConfig   `yaml:"display"`
	UI        UIConfig        `yaml:"ui"`
	Control   ControlConfig   `yaml:"control"`
	Admin     AdminConfig     `yaml:"admin"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Journal   JournalConfig   `yaml:"journal"`
	Recorder  RecorderConfig  `yaml:"recorder"`
	Theme     ThemeConfig     `yaml:"theme"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DisplayConfig contains the refresh core settings.
type DisplayConfig struct {
	// TickIntervalMS is the active-mode refresh cadence. Defaults to one
	// second, matching the displayed whole-second granularity.
	TickIntervalMS  int `yaml:"tick_interval_ms"`
	EventQueueDepth int `yaml:"event_queue_depth"`
}

// UIConfig contains terminal dashboard settings.
type UIConfig struct {
	Enabled   bool `yaml:"enabled"`
	TargetFPS int  `yaml:"target_fps"`
}

// ControlConfig contains the TCP control interface settings.
type ControlConfig struct {
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	WelcomeMessage string `yaml:"welcome_message"`
}

// AdminConfig contains the admin HTTP interface settings.
type AdminConfig struct {
	HTTPPort    int    `yaml:"http_port"`
	BindAddress string `yaml:"bind_address"`
}

// BroadcastConfig contains the MQTT ambient-update source settings.
type BroadcastConfig struct {
	Enabled             bool   `yaml:"enabled"`
	Broker              string `yaml:"broker"`
	Port                int    `yaml:"port"`
	Topic               string `yaml:"topic"`
	DedupeWindowSeconds int    `yaml:"dedupe_window_seconds"`
}

// JournalConfig contains the refresh event journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// RecorderConfig contains the session recorder settings.
type RecorderConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ThemeConfig points at the optional watch-face theme file.
type ThemeConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load loads configuration from a YAML file and applies defaults.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Display.TickIntervalMS <= 0 {
		c.Display.TickIntervalMS = 1000
	}
	if c.Display.EventQueueDepth <= 0 {
		c.Display.EventQueueDepth = 64
	}
	if c.UI.TargetFPS <= 0 {
		c.UI.TargetFPS = 30
	}
	if c.Control.Port == 0 {
		c.Control.Port = 7340
	}
	if c.Control.MaxConnections <= 0 {
		c.Control.MaxConnections = 16
	}
	if c.Control.WelcomeMessage == "" {
		c.Control.WelcomeMessage = "watchface control console"
	}
	if c.Admin.BindAddress == "" {
		c.Admin.BindAddress = "127.0.0.1"
	}
	if c.Broadcast.Port <= 0 {
		c.Broadcast.Port = 1883
	}
	if c.Broadcast.Topic == "" {
		c.Broadcast.Topic = "watchface/ambient"
	}
	if c.Broadcast.DedupeWindowSeconds <= 0 {
		c.Broadcast.DedupeWindowSeconds = 30
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = 7
	}
}

// Print displays the configuration.
func (c *Config) Print() {
	fmt.Printf("Display: tick every %dms (queue depth %d)\n",
		c.Display.TickIntervalMS, c.Display.EventQueueDepth)
	if c.UI.Enabled {
		fmt.Printf("UI: enabled at %d fps\n", c.UI.TargetFPS)
	}
	fmt.Printf("Control: port %d (max %d connections)\n", c.Control.Port, c.Control.MaxConnections)
	if c.Admin.HTTPPort > 0 {
		fmt.Printf("Admin: http://%s:%d\n", c.Admin.BindAddress, c.Admin.HTTPPort)
	}
	if c.Broadcast.Enabled {
		fmt.Printf("Broadcast: %s:%d (topic: %s)\n", c.Broadcast.Broker, c.Broadcast.Port, c.Broadcast.Topic)
	}
	if c.Journal.Enabled {
		fmt.Printf("Journal: %s\n", c.Journal.Dir)
	}
	if c.Recorder.Enabled {
		fmt.Printf("Recorder: %s\n", c.Recorder.Path)
	}
	if c.Theme.Path != "" {
		fmt.Printf("Theme: %s\n", c.Theme.Path)
	}
}
