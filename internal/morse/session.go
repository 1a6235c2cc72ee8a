// internal/morse/session.go
package morse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

// updateQueueSize bounds pending estimate updates; extras are dropped
const updateQueueSize = 16

// ErrSessionUsed indicates Run was called more than once on a session
var ErrSessionUsed = errors.New("decode session already run")

// CaptureLine is a blocking source of S16LE mono audio. Partial reads are
// allowed; io.EOF ends the session normally.
type CaptureLine interface {
	Read(ctx context.Context, p []byte) (int, error)
}

// SessionConfig holds configuration for a decode session.
// All values come from the application config file.
type SessionConfig struct {
	// SampleRate is the capture rate in Hz (from config: sample_rate)
	SampleRate int
	// Sensitivity is the mean amplitude threshold (from config: sensitivity)
	Sensitivity int
	// WPM is the expected speed, used to size noise units (from config: wpm)
	WPM int
	// UnitsPerDot is the buffer resolution at WPM (from config: units_per_dot)
	UnitsPerDot int
	// BufferSeconds is the history kept by the noise buffer (from config: buffer_seconds)
	BufferSeconds int
	// FixedWPM classifies with a profile derived from WPM instead of estimating one
	FixedWPM bool
}

// Update is a live estimate published while capturing.
type Update struct {
	// Units is the number of noise units captured so far
	Units int
	// Profile is the current timing estimate
	Profile TimingProfile
	// WPM is the estimated sending speed
	WPM int
}

// Result is the outcome of a decode session.
type Result struct {
	// Raw is the unsmoothed noise/silence rendering of the buffer
	Raw string
	// Smoothed is the de-noised, trimmed unit sequence
	Smoothed []bool
	// Profile is the timing used for classification
	Profile TimingProfile
	// WPM is the speed implied by Profile
	WPM int
	// Tokens is the classified token stream
	Tokens []Token
}

// Morse renders the result tokens as a transmittable string.
func (r Result) Morse() string {
	return Format(r.Tokens)
}

// Session captures audio into a noise buffer and decodes it on demand.
// Run must be called from a single goroutine; estimates reach other
// goroutines only through Updates.
type Session struct {
	config         SessionConfig
	classifier     *SampleClassifier
	buffer         *NoiseBuffer
	sink           DiagnosticSink
	blockBytes     int
	secondsPerUnit float64
	updateEvery    int

	updates chan Update
	used    atomic.Bool
}

// NewSession creates a decode session. A nil sink discards diagnostics.
func NewSession(cfg SessionConfig, sink DiagnosticSink) (*Session, error) {
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.WPM <= 0 {
		return nil, ErrInvalidWPM
	}
	if cfg.UnitsPerDot <= 0 || cfg.BufferSeconds <= 0 {
		return nil, ErrInvalidCapacity
	}
	if sink == nil {
		sink = NopSink{}
	}

	// units per second = dots per second * units per dot
	unitsPerSecond := float64(cfg.WPM) * DitsPerWord / SecondsPerMinute * float64(cfg.UnitsPerDot)
	blockSamples := int(math.Round(float64(cfg.SampleRate) / unitsPerSecond))
	if blockSamples < 1 {
		return nil, fmt.Errorf("%w: %d Hz cannot resolve %.1f units/s", ErrInvalidBlockSize, cfg.SampleRate, unitsPerSecond)
	}

	buffer, err := NewNoiseBuffer(int(math.Ceil(unitsPerSecond * float64(cfg.BufferSeconds))))
	if err != nil {
		return nil, err
	}

	updateEvery := int(math.Round(unitsPerSecond))
	if updateEvery < 1 {
		updateEvery = 1
	}

	return &Session{
		config:         cfg,
		classifier:     NewSampleClassifier(cfg.Sensitivity),
		buffer:         buffer,
		sink:           sink,
		blockBytes:     blockSamples * pcm.BytesPerSample,
		secondsPerUnit: float64(blockSamples) / float64(cfg.SampleRate),
		updateEvery:    updateEvery,
		updates:        make(chan Update, updateQueueSize),
	}, nil
}

// BlockSamples is the number of samples reduced to one noise unit.
func (s *Session) BlockSamples() int {
	return s.blockBytes / pcm.BytesPerSample
}

// SecondsPerUnit is the duration of one noise unit.
func (s *Session) SecondsPerUnit() float64 {
	return s.secondsPerUnit
}

// Capacity is the noise buffer size in units.
func (s *Session) Capacity() int {
	return s.buffer.Cap()
}

// Updates delivers live WPM estimates. The channel is closed when Run returns.
func (s *Session) Updates() <-chan Update {
	return s.updates
}

// Run captures from line until ctx is cancelled or the line reports io.EOF,
// then classifies the buffered history. Cancellation is a normal stop and
// returns the decoded result with a nil error.
func (s *Session) Run(ctx context.Context, line CaptureLine) (Result, error) {
	if !s.used.CompareAndSwap(false, true) {
		return Result{}, ErrSessionUsed
	}
	defer close(s.updates)

	block := make([]byte, s.blockBytes)
	units := 0
	for ctx.Err() == nil {
		n, err := s.fill(ctx, line, block)
		// a short block is never classified
		if n == len(block) {
			s.buffer.Add(s.classifier.ClassifyPCM(block))
			units++
			if units%s.updateEvery == 0 {
				s.publish(units)
			}
		}
		if err != nil {
			if isStop(err) {
				break
			}
			return Result{}, fmt.Errorf("read capture: %w", err)
		}
		if n < len(block) {
			break
		}
	}

	return s.Finish()
}

// Finish classifies the current buffer contents. It is also called by Run.
func (s *Session) Finish() (Result, error) {
	smoothed := s.buffer.Smoothed()
	result := Result{
		Raw:      s.buffer.Render(),
		Smoothed: smoothed,
	}

	profile, err := s.profile(smoothed)
	if err != nil {
		return result, err
	}
	result.Profile = profile
	result.WPM = profile.WPM()
	result.Tokens = Classify(Runs(smoothed), profile, s.sink)
	return result, nil
}

func (s *Session) profile(smoothed []bool) (TimingProfile, error) {
	if s.config.FixedWPM {
		return ProfileFromWPM(s.config.WPM, s.secondsPerUnit)
	}
	return Estimate(smoothed, s.secondsPerUnit)
}

// fill reads until block is full, the context is cancelled or the line
// fails. It returns the number of bytes read.
func (s *Session) fill(ctx context.Context, line CaptureLine, block []byte) (int, error) {
	total := 0
	for total < len(block) && ctx.Err() == nil {
		n, err := line.Read(ctx, block[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// publish sends a live estimate without blocking the capture loop.
func (s *Session) publish(units int) {
	profile, err := s.profile(s.buffer.Smoothed())
	if err != nil {
		// not enough signal yet
		return
	}
	select {
	case s.updates <- Update{Units: units, Profile: profile, WPM: profile.WPM()}:
	default:
		// Drop update if the consumer is too slow
	}
}

func isStop(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
