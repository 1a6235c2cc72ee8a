// cmd/translate.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwcodec/internal/morse"
)

var translateCmd = &cobra.Command{
	Use:   "translate <message...>",
	Short: "Translate text to framed Morse or framed Morse to text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := morse.DefaultCodec().Translate(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("translate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}
