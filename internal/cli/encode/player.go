// internal/cli/encode/player.go
// Package encode translates a message to Morse and plays it on an audio
// device or writes it to a WAV file.
package encode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gen2brain/malgo"
	"golang.org/x/sync/errgroup"

	"github.com/ColonelBlimp/cwcodec/internal/audio"
	"github.com/ColonelBlimp/cwcodec/internal/config"
	"github.com/ColonelBlimp/cwcodec/internal/morse"
	"github.com/ColonelBlimp/cwcodec/internal/recovery"
)

// echoQueueSize bounds tokens waiting to be echoed; extras are dropped
const echoQueueSize = 256

// Options selects the input form and destination of an encode run
type Options struct {
	// Output is a WAV file to write; empty plays on the configured device
	Output string
	// Morse treats the message as Morse instead of text
	Morse bool
}

// sink is an opened playback line
type sink struct {
	line  morse.PlaybackLine
	close func() error
}

// Player wires an encoder to a playback line.
type Player struct {
	settings config.Settings
	opts     Options
	out      io.Writer
	logger   *slog.Logger

	open func() (*sink, error)
}

// NewPlayer creates a player echoing played tokens to out.
func NewPlayer(settings config.Settings, opts Options, out io.Writer) *Player {
	if out == nil {
		out = io.Discard
	}
	p := &Player{
		settings: settings,
		opts:     opts,
		out:      out,
		logger:   slog.Default().With("component", "encode"),
	}
	if opts.Output != "" {
		p.open = p.openWAV
	} else {
		p.open = p.openDevice
	}
	return p
}

// ListAudioDevices returns the available playback devices.
func ListAudioDevices() ([]audio.DeviceInfo, error) {
	return audio.ListDevices(malgo.Playback)
}

func (p *Player) openWAV() (*sink, error) {
	w, err := audio.CreateWAV(p.opts.Output, p.settings.SampleRate)
	if err != nil {
		return nil, err
	}
	return &sink{line: w, close: w.Close}, nil
}

func (p *Player) openDevice() (*sink, error) {
	playback := audio.NewPlayback(audio.Config{
		DeviceIndex: p.settings.DeviceIndex,
		SampleRate:  uint32(p.settings.SampleRate),
		BufferSize:  audio.DefaultConfig().BufferSize,
	})
	if err := playback.Init(); err != nil {
		return nil, err
	}
	if err := playback.Start(); err != nil {
		_ = playback.Close()
		return nil, err
	}
	return &sink{line: playback, close: playback.Close}, nil
}

// Tokens converts message to the framed token stream that will be played.
func (p *Player) Tokens(message string) ([]morse.Token, error) {
	code := message
	if !p.opts.Morse {
		var err error
		if code, err = morse.DefaultCodec().Encode(message); err != nil {
			return nil, err
		}
	}
	return morse.FramedTokens(code)
}

// Run plays message and echoes each token as it starts.
func (p *Player) Run(ctx context.Context, message string) (err error) {
	tokens, err := p.Tokens(message)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	enc, err := morse.NewEncoder(morse.EncoderConfig{
		SampleRate:  p.settings.SampleRate,
		FrequencyHz: p.settings.ToneFrequency,
		Volume:      p.settings.Volume,
		WPM:         p.settings.WPM,
		Realtime:    p.opts.Output == "",
	})
	if err != nil {
		return fmt.Errorf("create encoder: %w", err)
	}

	dst, err := p.open()
	if err != nil {
		return fmt.Errorf("open audio output: %w", err)
	}
	defer func() {
		err = errors.Join(err, dst.close())
	}()

	p.logger.Info("encode started",
		slog.Int("wpm", p.settings.WPM),
		slog.Float64("tone_hz", p.settings.ToneFrequency),
		slog.Int("tokens", len(tokens)),
		slog.String("output", p.opts.Output))

	echo := make(chan morse.Token, echoQueueSize)
	enc.SetCallback(func(t morse.Token) {
		select {
		case echo <- t:
		default:
			// Drop echo if the console is too slow
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovery.Guard(func() error {
		defer close(echo)
		return enc.Play(gctx, tokens, dst.line)
	}))
	g.Go(recovery.Guard(func() error {
		var line strings.Builder
		for t := range echo {
			if r := echoSymbol(t); r != "" {
				line.WriteString(r)
				fmt.Fprint(p.out, r)
			}
		}
		fmt.Fprintln(p.out)
		p.logger.Debug("echo finished", slog.String("morse", line.String()))
		return nil
	}))
	if err := g.Wait(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	p.logger.Info("encode finished", slog.Int("tokens", len(tokens)))
	return nil
}

// echoSymbol renders a token for the console; intra-character gaps are silent.
func echoSymbol(t morse.Token) string {
	switch t {
	case morse.IntraGap:
		return ""
	case morse.WordGap:
		return " | "
	default:
		return string(t.Symbol())
	}
}
