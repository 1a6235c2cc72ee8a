// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwcodec/internal/config"
	"github.com/ColonelBlimp/cwcodec/internal/logging"
)

var (
	settings *config.Settings
	logger   *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "cwcodec",
	Short: "CW (Morse code) encoder and decoder",
	Long: `Decodes Morse code from an audio device or WAV file by timing tone and
silence, and encodes text or Morse as tones played live or written to WAV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// flagKeys maps persistent flags to their config keys
var flagKeys = map[string]string{
	"device":      "device_index",
	"frequency":   "tone_frequency",
	"wpm":         "wpm",
	"debug":       "debug",
	"volume":      "volume",
	"sensitivity": "sensitivity",
}

func Execute() {
	err := rootCmd.Execute()
	if cerr := closeLogger(); cerr != nil {
		fmt.Fprintf(os.Stderr, "log close error: %v\n", cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the literal to avoid an initialization cycle
	// (setup -> bindFlags -> rootCmd).
	rootCmd.PersistentPreRunE = setup

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("device", "d", -1, "audio device index (-1 for default)")
	rootCmd.PersistentFlags().Float64P("frequency", "f", 1000, "CW tone frequency in Hz")
	rootCmd.PersistentFlags().IntP("wpm", "w", 20, "sending speed, and the expected speed when decoding")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")
	rootCmd.PersistentFlags().Float64P("volume", "v", 1.0, "output volume (0.0-1.0)")
	rootCmd.PersistentFlags().IntP("sensitivity", "s", 1536, "mean block amplitude above which a block is tone")

	rootCmd.AddCommand(decodeCmd, encodeCmd, translateCmd, devicesCmd)
}

// setup loads the configuration and starts logging before any subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	if err := bindFlags(); err != nil {
		return err
	}
	if err := config.Init(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	s, err := config.Get()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	settings = s

	level := s.LogLevel
	if s.Debug {
		level = "debug"
	}
	l, err := logging.New(level, s.LogDir)
	if err != nil {
		return fmt.Errorf("logging error: %w", err)
	}
	_ = closeLogger()
	logger = l
	logger.SetDefault()
	logger.Debug("command started", "command", cmd.Name())
	return nil
}

// bindFlags is called on every run so that explicit flags survive a viper reset
func bindFlags() error {
	for name, key := range flagKeys {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func closeLogger() error {
	if logger == nil {
		return nil
	}
	err := logger.Close()
	logger = nil
	return err
}
