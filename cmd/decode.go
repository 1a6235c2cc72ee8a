// cmd/decode.go
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwcodec/internal/cli/decode"
)

var decodeOpts decode.Options

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode Morse from an audio device or WAV file",
	Long: `Captures audio until interrupted (Ctrl-C) or the input file ends, then
prints the decoded Morse, the estimated speed and optionally the text.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		decoder, err := decode.NewDecoder(*settings, decodeOpts, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return decoder.Run(ctx)
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeOpts.Input, "input", "i", "", "WAV file to decode instead of the audio device")
	decodeCmd.Flags().BoolVar(&decodeOpts.Fixed, "fixed", false, "classify with the configured wpm instead of estimating")
	decodeCmd.Flags().BoolVarP(&decodeOpts.Text, "text", "t", false, "translate the framed message to text")
}
