// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	AppName       = "cwcodec"
	ConfigType    = "yaml"
	DefaultConfig = `# CW Codec Configuration

# Audio device settings
device_index: -1        # -1 for default device (use 'cwcodec devices' to list)
sample_rate: 8000       # Audio sample rate in Hz

# Decoding
sensitivity: 1536       # Mean block amplitude (0-32767) above which a block is tone
units_per_dot: 12       # Noise units per dot at the configured wpm
buffer_seconds: 300     # Seconds of history kept for decoding

# Encoding
tone_frequency: 1000    # CW tone frequency in Hz
volume: 1.0             # Output volume (0.0-1.0)

# Timing
wpm: 20                 # Sending speed, and the expected speed when decoding

# Output
log_level: "info"       # debug, info, warn or error
log_dir: ""             # Empty for the config directory, "-" for stderr
debug: false            # Enable debug output
`
)

// Settings holds all application configuration
type Settings struct {
	// Audio device settings
	DeviceIndex int `mapstructure:"device_index"`
	SampleRate  int `mapstructure:"sample_rate"`

	// Decoding
	Sensitivity   int `mapstructure:"sensitivity"`
	UnitsPerDot   int `mapstructure:"units_per_dot"`
	BufferSeconds int `mapstructure:"buffer_seconds"`

	// Encoding
	ToneFrequency float64 `mapstructure:"tone_frequency"`
	Volume        float64 `mapstructure:"volume"`

	// Timing
	WPM int `mapstructure:"wpm"`

	// Output
	LogLevel string `mapstructure:"log_level"`
	LogDir   string `mapstructure:"log_dir"`
	Debug    bool   `mapstructure:"debug"`
}

// Dir returns the per-user configuration directory for the application.
func Dir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, AppName)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/cwcodec/
func Init() error {
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 8000)
	viper.SetDefault("sensitivity", 1536)
	viper.SetDefault("units_per_dot", 12)
	viper.SetDefault("buffer_seconds", 300)
	viper.SetDefault("tone_frequency", 1000)
	viper.SetDefault("volume", 1.0)
	viper.SetDefault("wpm", 20)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_dir", "")
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")
	userDir := Dir()
	viper.AddConfigPath(userDir)

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	err := viper.ReadInConfig()
	if err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(userDir); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device number, got %d", s.DeviceIndex))
	}
	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", s.SampleRate))
	}

	if s.Sensitivity < 0 || s.Sensitivity > 32767 {
		errs = append(errs, fmt.Errorf("sensitivity must be between 0 and 32767, got %d", s.Sensitivity))
	}
	if s.UnitsPerDot < 4 || s.UnitsPerDot > 100 {
		errs = append(errs, fmt.Errorf("units_per_dot must be between 4 and 100, got %d", s.UnitsPerDot))
	}
	if s.BufferSeconds < 10 || s.BufferSeconds > 3600 {
		errs = append(errs, fmt.Errorf("buffer_seconds must be between 10 and 3600, got %d", s.BufferSeconds))
	}

	if s.ToneFrequency < 100 || s.ToneFrequency > 3000 {
		errs = append(errs, fmt.Errorf("tone_frequency must be between 100 and 3000 Hz, got %v", s.ToneFrequency))
	}
	if s.Volume < 0.0 || s.Volume > 1.0 {
		errs = append(errs, fmt.Errorf("volume must be between 0.0 and 1.0, got %v", s.Volume))
	}

	if s.WPM < 5 || s.WPM > 60 {
		errs = append(errs, fmt.Errorf("wpm must be between 5 and 60, got %d", s.WPM))
	}

	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s.LogLevel))
	}

	// Nyquist check: tone frequency must be less than half the sample rate
	if nyquist := float64(s.SampleRate) / 2; s.ToneFrequency >= nyquist {
		errs = append(errs, fmt.Errorf("tone_frequency (%v Hz) must be less than Nyquist frequency (%v Hz)", s.ToneFrequency, nyquist))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
