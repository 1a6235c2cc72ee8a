// internal/cli/decode/decoder.go
// Package decode runs a decode session from an audio device or WAV file and
// reports the result on the console.
package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/gen2brain/malgo"
	"golang.org/x/sync/errgroup"

	"github.com/ColonelBlimp/cwcodec/internal/audio"
	"github.com/ColonelBlimp/cwcodec/internal/config"
	"github.com/ColonelBlimp/cwcodec/internal/morse"
	"github.com/ColonelBlimp/cwcodec/internal/recovery"
)

// Options selects the source and output of a decode run
type Options struct {
	// Input is a WAV file to decode; empty captures from the configured device
	Input string
	// Fixed classifies with the configured wpm instead of estimating timing
	Fixed bool
	// Text translates the framed message to letters
	Text bool
}

// source is an opened capture line with its sample rate
type source struct {
	line       morse.CaptureLine
	sampleRate int
	close      func() error
}

// Decoder wires a capture source to a decode session.
type Decoder struct {
	settings config.Settings
	opts     Options
	out      io.Writer
	logger   *slog.Logger

	open func(ctx context.Context) (*source, error)
}

// NewDecoder creates a decoder writing its report to out.
func NewDecoder(settings config.Settings, opts Options, out io.Writer) (*Decoder, error) {
	if out == nil {
		out = io.Discard
	}
	d := &Decoder{
		settings: settings,
		opts:     opts,
		out:      out,
		logger:   slog.Default().With("component", "decode"),
	}
	if opts.Input != "" {
		d.open = d.openWAV
	} else {
		d.open = d.openDevice
	}
	return d, nil
}

// ListAudioDevices returns the available capture devices.
func ListAudioDevices() ([]audio.DeviceInfo, error) {
	return audio.ListDevices(malgo.Capture)
}

func (d *Decoder) openWAV(context.Context) (*source, error) {
	r, err := audio.OpenWAV(d.opts.Input)
	if err != nil {
		return nil, err
	}
	return &source{line: r, sampleRate: r.SampleRate(), close: r.Close}, nil
}

func (d *Decoder) openDevice(ctx context.Context) (*source, error) {
	capture := audio.New(audio.Config{
		DeviceIndex: d.settings.DeviceIndex,
		SampleRate:  uint32(d.settings.SampleRate),
		BufferSize:  audio.DefaultConfig().BufferSize,
	})
	if err := capture.Init(); err != nil {
		return nil, err
	}
	if err := capture.Start(ctx); err != nil {
		_ = capture.Close()
		return nil, err
	}
	return &source{line: capture, sampleRate: d.settings.SampleRate, close: func() error {
		if n := capture.Dropped(); n > 0 {
			d.logger.Warn("capture overrun", slog.Uint64("dropped_periods", n))
		}
		return capture.Close()
	}}, nil
}

// Run captures until ctx is cancelled or the source ends, then prints the
// decoded Morse, the timing estimate and optionally the text.
func (d *Decoder) Run(ctx context.Context) (err error) {
	src, err := d.open(ctx)
	if err != nil {
		return fmt.Errorf("open audio source: %w", err)
	}
	defer func() {
		err = errors.Join(err, src.close())
	}()

	session, err := morse.NewSession(morse.SessionConfig{
		SampleRate:    src.sampleRate,
		Sensitivity:   d.settings.Sensitivity,
		WPM:           d.settings.WPM,
		UnitsPerDot:   d.settings.UnitsPerDot,
		BufferSeconds: d.settings.BufferSeconds,
		FixedWPM:      d.opts.Fixed,
	}, morse.NewLogSink(d.logger))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	d.logger.Info("decode started",
		slog.Int("sample_rate", src.sampleRate),
		slog.Int("block_samples", session.BlockSamples()),
		slog.Int("capacity_units", session.Capacity()),
		slog.Bool("fixed_wpm", d.opts.Fixed))

	var result morse.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovery.Guard(func() error {
		var runErr error
		result, runErr = session.Run(gctx, src.line)
		return runErr
	}))
	g.Go(recovery.Guard(func() error {
		for u := range session.Updates() {
			d.logger.Debug("estimate", slog.Int("units", u.Units), slog.Int("wpm", u.WPM))
			fmt.Fprintf(d.out, "~%d wpm\n", u.WPM)
		}
		return nil
	}))
	if err := g.Wait(); err != nil {
		if errors.Is(err, morse.ErrEstimationUndefined) {
			fmt.Fprintln(d.out, "no Morse detected")
		}
		return fmt.Errorf("decode: %w", err)
	}

	return d.report(result)
}

func (d *Decoder) report(result morse.Result) error {
	if d.settings.Debug {
		fmt.Fprintf(d.out, "raw:      %q\n", result.Raw)
	}
	fmt.Fprintf(d.out, "morse:    %s\n", result.Morse())
	fmt.Fprintf(d.out, "wpm:      %d\n", result.WPM)
	fmt.Fprintf(d.out, "dot:      %v (%.1f units)\n", result.Profile.DotDuration(), result.Profile.UnitsPerDot)
	d.logger.Info("decode finished",
		slog.Int("wpm", result.WPM),
		slog.Float64("units_per_dot", result.Profile.UnitsPerDot),
		slog.Int("tokens", len(result.Tokens)))

	if !d.opts.Text {
		return nil
	}
	text, err := morse.DefaultCodec().Decode(result.Morse())
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}
	fmt.Fprintf(d.out, "text:     %s\n", text)
	return nil
}
