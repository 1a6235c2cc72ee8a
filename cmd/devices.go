// cmd/devices.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/cwcodec/internal/audio"
	"github.com/ColonelBlimp/cwcodec/internal/cli/decode"
	"github.com/ColonelBlimp/cwcodec/internal/cli/encode"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio capture and playback devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		capture, err := decode.ListAudioDevices()
		if err != nil {
			return fmt.Errorf("list capture devices: %w", err)
		}
		playback, err := encode.ListAudioDevices()
		if err != nil {
			return fmt.Errorf("list playback devices: %w", err)
		}

		out := cmd.OutOrStdout()
		printDevices(out, "Capture devices", capture)
		fmt.Fprintln(out)
		printDevices(out, "Playback devices", playback)
		return nil
	},
}

func printDevices(w io.Writer, title string, devices []audio.DeviceInfo) {
	fmt.Fprintf(w, "%s:\n", title)
	if len(devices) == 0 {
		fmt.Fprintln(w, "  (none)")
		return
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Fprintf(w, " %s %d: %s\n", marker, d.Index, d.Name)
	}
}
