// cmd/encode.go
package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwcodec/internal/cli/encode"
)

var encodeOpts encode.Options

var encodeCmd = &cobra.Command{
	Use:   "encode <message...>",
	Short: "Play a message as Morse or write it to a WAV file",
	Long: `Translates the message to framed Morse and plays it on the audio device,
echoing each element as it sounds. With --morse the message is already
Morse and only its framed part is played.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		player := encode.NewPlayer(*settings, encodeOpts, cmd.OutOrStdout())
		return player.Run(ctx, strings.Join(args, " "))
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&encodeOpts.Output, "output", "o", "", "WAV file to write instead of playing")
	encodeCmd.Flags().BoolVarP(&encodeOpts.Morse, "morse", "m", false, "treat the message as Morse")
}
