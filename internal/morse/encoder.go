// internal/morse/encoder.go
package morse

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

// FadeDivisor sets the linear fade length: samples / 20 at each end of a tone
const FadeDivisor = 20

// PlaybackLine is a blocking sink for S16LE mono audio.
type PlaybackLine interface {
	Write(ctx context.Context, p []byte) (int, error)
}

// Drainer is implemented by playback lines that buffer internally and can
// wait for queued audio to finish playing.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Clock abstracts wall-clock time for paced playback.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ToneSegment is one timed piece of output. Gap tokens produce segments with
// no tone, which are rendered as elapsed time (or silence when writing files).
type ToneSegment struct {
	Token       Token
	FrequencyHz float64
	Duration    time.Duration
	Volume      float64
}

// Tone reports whether the segment is keyed.
func (s ToneSegment) Tone() bool {
	return s.Token.IsTone()
}

// EncoderConfig holds configuration for the tone encoder.
// All values come from the application config file.
type EncoderConfig struct {
	// SampleRate is the output sample rate in Hz (from config: sample_rate)
	SampleRate int
	// FrequencyHz is the tone frequency (from config: tone_frequency)
	FrequencyHz float64
	// Volume is the output amplitude 0.0-1.0 (from config: volume)
	Volume float64
	// WPM is the sending speed (from config: wpm)
	WPM int
	// Realtime paces output against the clock and sleeps through gaps.
	// When false, gaps are written as silence and nothing sleeps, which is
	// what file outputs need.
	Realtime bool
}

// TokenCallback is called as each token starts playing.
// Must be non-blocking and fast.
type TokenCallback func(t Token)

// Encoder renders token streams as timed tone segments.
type Encoder struct {
	config EncoderConfig
	clock  Clock

	callbackPtr atomic.Pointer[TokenCallback]
}

// NewEncoder creates an encoder with the given configuration.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if cfg.WPM <= 0 {
		return nil, ErrInvalidWPM
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.FrequencyHz <= 0 || cfg.FrequencyHz >= float64(cfg.SampleRate)/2 {
		return nil, ErrInvalidFrequency
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		return nil, ErrInvalidVolume
	}
	return &Encoder{config: cfg, clock: SystemClock{}}, nil
}

// SetClock replaces the clock used for pacing.
func (e *Encoder) SetClock(c Clock) {
	if c == nil {
		c = SystemClock{}
	}
	e.clock = c
}

// SetCallback sets the per-token callback.
func (e *Encoder) SetCallback(cb TokenCallback) {
	if cb == nil {
		e.callbackPtr.Store(nil)
	} else {
		e.callbackPtr.Store(&cb)
	}
}

// Config returns the current configuration
func (e *Encoder) Config() EncoderConfig {
	return e.config
}

// DotDuration is 1200/WPM milliseconds (60000 ms/min over 50 dots/word).
func DotDuration(wpm int) time.Duration {
	if wpm <= 0 {
		return 0
	}
	return time.Duration(MillisecondsPerMinute / DitsPerWord / float64(wpm) * float64(time.Millisecond))
}

// Duration returns the nominal duration of a token at the encoder's speed.
func (e *Encoder) Duration(t Token) time.Duration {
	return time.Duration(t.Units() * float64(DotDuration(e.config.WPM)))
}

// Segments plans the output for a token stream. Unknown tokens have no
// duration and are dropped.
func (e *Encoder) Segments(tokens []Token) []ToneSegment {
	segments := make([]ToneSegment, 0, len(tokens))
	for _, t := range tokens {
		if t == Unknown {
			continue
		}
		seg := ToneSegment{Token: t, Duration: e.Duration(t)}
		if t.IsTone() {
			seg.FrequencyHz = e.config.FrequencyHz
			seg.Volume = e.config.Volume
		}
		segments = append(segments, seg)
	}
	return segments
}

// SampleCount is the number of frames covering d at the configured rate.
func (e *Encoder) SampleCount(d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(e.config.SampleRate)))
}

// Synthesize renders a tone segment as samples: a sine at the segment
// frequency scaled by volume, with linear fade-in and fade-out over
// samples/FadeDivisor frames at each end.
func (e *Encoder) Synthesize(seg ToneSegment) []int16 {
	n := e.SampleCount(seg.Duration)
	samples := make([]int16, n)
	if !seg.Tone() {
		return samples
	}

	fade := n / FadeDivisor
	rate := float64(e.config.SampleRate)
	amp := pcm.MaxAmplitude * seg.Volume
	for i := 0; i < n; i++ {
		gain := 1.0
		if fade > 0 {
			if i < fade {
				gain = float64(i) / float64(fade)
			} else if i >= n-fade {
				gain = float64(n-1-i) / float64(fade)
			}
		}
		angle := 2 * math.Pi * seg.FrequencyHz * float64(i) / rate
		samples[i] = pcm.Clamp(int(math.Round(math.Sin(angle) * amp * gain)))
	}
	return samples
}

// Play renders tokens to the playback line. In realtime mode each segment
// occupies at least its nominal duration: after writing, the elapsed time
// is measured and the remainder slept.
func (e *Encoder) Play(ctx context.Context, tokens []Token, line PlaybackLine) error {
	for _, seg := range e.Segments(tokens) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cbPtr := e.callbackPtr.Load(); cbPtr != nil {
			(*cbPtr)(seg.Token)
		}

		start := e.clock.Now()
		switch {
		case seg.Tone():
			if err := writeFull(ctx, line, pcm.Encode(nil, e.Synthesize(seg))); err != nil {
				return err
			}
		case !e.config.Realtime:
			if err := writeFull(ctx, line, pcm.Silence(e.SampleCount(seg.Duration))); err != nil {
				return err
			}
		}

		if e.config.Realtime {
			if remaining := seg.Duration - e.clock.Now().Sub(start); remaining > 0 {
				if err := e.clock.Sleep(ctx, remaining); err != nil {
					return err
				}
			}
		}
	}

	if d, ok := line.(Drainer); ok {
		return d.Drain(ctx)
	}
	return nil
}

// writeFull writes all of p, retrying on short writes.
func writeFull(ctx context.Context, line PlaybackLine, p []byte) error {
	for len(p) > 0 {
		n, err := line.Write(ctx, p)
		if err != nil {
			return fmt.Errorf("write playback: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("write playback: no progress with %d bytes pending", len(p))
		}
		p = p[n:]
	}
	return nil
}
