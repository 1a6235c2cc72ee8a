// internal/audio/playback.go
package audio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwcodec/internal/morse"
	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

// queueSeconds bounds the audio accepted ahead of the device
const queueSeconds = 1

// Playback plays mono S16LE audio on a device. It implements
// morse.PlaybackLine and morse.Drainer.
type Playback struct {
	config Config
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	mu     sync.Mutex

	running atomic.Bool
	closed  atomic.Bool

	// queue is guarded by qmu; the audio thread consumes from the front
	qmu      sync.Mutex
	queue    []byte
	maxQueue int
	// consumed is signalled after each device period
	consumed chan struct{}
}

// NewPlayback creates a new playback instance
func NewPlayback(cfg Config) *Playback {
	return &Playback{
		config:   cfg,
		maxQueue: int(cfg.SampleRate) * pcm.BytesPerSample * queueSeconds,
		consumed: make(chan struct{}, 1),
	}
}

// Init initializes the audio backend
func (p *Playback) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, err := initContext()
	if err != nil {
		return err
	}
	p.ctx = ctx
	return nil
}

// ListDevices returns available playback devices
func (p *Playback) ListDevices() ([]malgo.DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx == nil {
		return nil, ErrNotInitialized
	}
	return enumerate(p.ctx, malgo.Playback)
}

// Start opens the playback device. Queued audio plays as it is written.
func (p *Playback) Start() error {
	if p.running.Load() {
		return ErrAlreadyRunning
	}
	if p.closed.Load() {
		return ErrClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Playback,
		SampleRate:         p.config.SampleRate,
		PeriodSizeInFrames: p.config.BufferSize,
		Playback: malgo.SubConfig{
			Format:   malgo.FormatS16,
			Channels: 1,
		},
	}

	id, err := selectDevice(p.ctx, malgo.Playback, p.config.DeviceIndex)
	if err != nil {
		return err
	}
	if id != nil {
		deviceConfig.Playback.DeviceID = id.Pointer()
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(outputSamples, _ []byte, _ uint32) {
			p.fillOutput(outputSamples)
		},
	})
	if err != nil {
		return fmt.Errorf("%w: init playback device: %w", morse.ErrCaptureUnavailable, err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("%w: start playback device: %w", morse.ErrCaptureUnavailable, err)
	}

	p.device = device
	p.running.Store(true)
	return nil
}

// fillOutput copies queued audio into a device period, padding with silence.
func (p *Playback) fillOutput(out []byte) {
	p.qmu.Lock()
	n := copy(out, p.queue)
	p.queue = p.queue[n:]
	p.qmu.Unlock()

	clear(out[n:])

	select {
	case p.consumed <- struct{}{}:
	default:
	}
}

// Write queues audio for playback, blocking while the queue is full. It
// returns the number of bytes accepted, which may be less than len(b).
func (p *Playback) Write(ctx context.Context, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for {
		if p.closed.Load() {
			return 0, ErrClosed
		}
		if !p.running.Load() {
			return 0, ErrNotRunning
		}

		p.qmu.Lock()
		space := p.maxQueue - len(p.queue)
		if space > 0 {
			n := min(space, len(b))
			// whole frames only
			n -= n % pcm.BytesPerSample
			if n > 0 {
				p.queue = append(p.queue, b[:n]...)
				p.qmu.Unlock()
				return n, nil
			}
		}
		p.qmu.Unlock()

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-p.consumed:
		}
	}
}

// Drain blocks until every queued byte has been handed to the device.
func (p *Playback) Drain(ctx context.Context) error {
	for p.Queued() > 0 {
		if !p.running.Load() {
			return ErrNotRunning
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.consumed:
		}
	}
	return nil
}

// Queued returns the number of bytes waiting for the device
func (p *Playback) Queued() int {
	p.qmu.Lock()
	defer p.qmu.Unlock()
	return len(p.queue)
}

// Stop stops playback and discards queued audio
func (p *Playback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running.Load() {
		return ErrNotRunning
	}
	if p.device != nil {
		_ = p.device.Stop()
		p.device.Uninit()
		p.device = nil
	}
	p.running.Store(false)

	p.qmu.Lock()
	p.queue = nil
	p.qmu.Unlock()
	return nil
}

// Close releases all audio resources
func (p *Playback) Close() error {
	p.closed.Store(true)
	if p.running.Load() {
		_ = p.Stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		err := freeContext(p.ctx)
		p.ctx = nil
		return err
	}
	return nil
}

// IsRunning returns true if playback is active
func (p *Playback) IsRunning() bool {
	return p.running.Load()
}
