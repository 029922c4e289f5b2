package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete ember configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Buffers BufferConfig  `mapstructure:"buffers"`
	Vitals  VitalsConfig  `mapstructure:"vitals"`
	Gauges  GaugeConfig   `mapstructure:"gauges"`
	History HistoryConfig `mapstructure:"history"`
}

// ServerConfig identifies the MUD server to connect to.
type ServerConfig struct {
	// Address is the host:port dialed on startup. Empty means start
	// disconnected.
	Address string `mapstructure:"address"`
}

// BufferConfig sets the line caps of the display buffers.
type BufferConfig struct {
	// OutputLines caps the main output scrollback
	OutputLines int `mapstructure:"output_lines"`
	// ChatLines caps the chat pane
	ChatLines int `mapstructure:"chat_lines"`
}

// VitalsConfig controls interpretation of server status updates.
type VitalsConfig struct {
	// Percent treats incoming vitals as 0-100 percentages of the known
	// maxima instead of absolute values.
	Percent bool `mapstructure:"percent"`
	// Stats lists the quantities shown as gauges, in display order.
	Stats []string `mapstructure:"stats"`
}

// GaugeConfig sets the band thresholds for gauge coloring.
type GaugeConfig struct {
	// HighThreshold is the minimum fraction for the High band
	HighThreshold float64 `mapstructure:"high_threshold"`
	// MidThreshold is the minimum fraction for the Mid band
	MidThreshold float64 `mapstructure:"mid_threshold"`
}

// HistoryConfig controls command history.
type HistoryConfig struct {
	// Limit caps the number of recallable commands
	Limit int `mapstructure:"limit"`
	// Persist stores history in a database under the config dir
	Persist bool `mapstructure:"persist"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "",
		},
		Buffers: BufferConfig{
			OutputLines: 2000,
			ChatLines:   1000,
		},
		Vitals: VitalsConfig{
			Percent: false,
			Stats:   []string{"hp", "mana", "moves"},
		},
		Gauges: GaugeConfig{
			HighThreshold: 0.6,
			MidThreshold:  0.3,
		},
		History: HistoryConfig{
			Limit:   500,
			Persist: true,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.address", defaults.Server.Address)

	viper.SetDefault("buffers.output_lines", defaults.Buffers.OutputLines)
	viper.SetDefault("buffers.chat_lines", defaults.Buffers.ChatLines)

	viper.SetDefault("vitals.percent", defaults.Vitals.Percent)
	viper.SetDefault("vitals.stats", defaults.Vitals.Stats)

	viper.SetDefault("gauges.high_threshold", defaults.Gauges.HighThreshold)
	viper.SetDefault("gauges.mid_threshold", defaults.Gauges.MidThreshold)

	viper.SetDefault("history.limit", defaults.History.Limit)
	viper.SetDefault("history.persist", defaults.History.Persist)
}

// Load reads the configuration from viper and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}

	return &cfg, nil
}

// Validate returns a description of every invalid setting.
func (c *Config) Validate() []string {
	var errs []string

	if c.Buffers.OutputLines <= 0 {
		errs = append(errs, "buffers.output_lines must be positive")
	}
	if c.Buffers.ChatLines <= 0 {
		errs = append(errs, "buffers.chat_lines must be positive")
	}

	if c.Gauges.HighThreshold < 0 || c.Gauges.HighThreshold > 1 {
		errs = append(errs, "gauges.high_threshold must be in [0, 1]")
	}
	if c.Gauges.MidThreshold < 0 || c.Gauges.MidThreshold > 1 {
		errs = append(errs, "gauges.mid_threshold must be in [0, 1]")
	}
	if c.Gauges.MidThreshold > c.Gauges.HighThreshold {
		errs = append(errs, "gauges.mid_threshold must not exceed gauges.high_threshold")
	}

	if c.History.Limit <= 0 {
		errs = append(errs, "history.limit must be positive")
	}

	return errs
}

// Dir returns the ember configuration directory.
// Respects XDG_CONFIG_HOME on Unix, APPDATA on Windows.
func Dir() string {
	var base string

	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	} else {
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, _ := os.UserHomeDir()
			base = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(base, "ember")
}

// InitFile returns the path to init.lua
func InitFile() string {
	return filepath.Join(Dir(), "init.lua")
}

// HistoryFile returns the path to the command history database.
func HistoryFile() string {
	return filepath.Join(Dir(), "history.db")
}
