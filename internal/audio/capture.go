// internal/audio/capture.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/cwcodec/internal/morse"
	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

var (
	ErrNotInitialized = errors.New("audio device not initialized")
	ErrAlreadyRunning = errors.New("audio device already running")
	ErrNotRunning     = errors.New("audio device not running")
	ErrClosed         = errors.New("audio device closed")
)

// chunkQueueSize is the number of device periods buffered for Read
const chunkQueueSize = 64

// Config holds audio device configuration. Lines are always mono S16LE.
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // e.g., 8000
	BufferSize  uint32 // frames per callback
}

// DefaultConfig returns sensible defaults for CW decoding
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  8000,
		BufferSize:  256,
	}
}

// SampleCallback is called directly from the audio thread with new samples.
// Must be non-blocking and fast.
type SampleCallback func(samples []int16)

// Capture records mono S16LE audio from a device. It implements
// morse.CaptureLine.
type Capture struct {
	config Config
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	mu     sync.Mutex

	running     atomic.Bool
	closed      atomic.Bool
	closeOnce   sync.Once
	callbackPtr atomic.Pointer[SampleCallback]
	dropped     atomic.Uint64

	// Samples carries raw S16LE periods from the device
	Samples chan []byte

	// pending holds the unread tail of the last chunk; only Read touches it
	pending []byte
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	return &Capture{
		config:  cfg,
		Samples: make(chan []byte, chunkQueueSize),
	}
}

// SetCallback sets a callback for real-time sample processing.
// Safe to call at any time.
func (c *Capture) SetCallback(cb SampleCallback) {
	if cb == nil {
		c.callbackPtr.Store(nil)
	} else {
		c.callbackPtr.Store(&cb)
	}
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := initContext()
	if err != nil {
		return err
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]malgo.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	return enumerate(c.ctx, malgo.Capture)
}

// Start begins audio capture. Capture stops when ctx is cancelled.
func (c *Capture) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}
	if c.closed.Load() {
		return ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DeviceConfig{
		DeviceType:         malgo.Capture,
		SampleRate:         c.config.SampleRate,
		PeriodSizeInFrames: c.config.BufferSize,
		Capture: malgo.SubConfig{
			Format:   malgo.FormatS16,
			Channels: 1,
		},
	}

	id, err := selectDevice(c.ctx, malgo.Capture, c.config.DeviceIndex)
	if err != nil {
		return err
	}
	if id != nil {
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	onRecvFrames := func(_, inputSamples []byte, _ uint32) {
		if len(inputSamples) == 0 || c.closed.Load() {
			return
		}

		// malgo reuses the buffer after the callback returns
		chunk := make([]byte, len(inputSamples))
		copy(chunk, inputSamples)

		if cbPtr := c.callbackPtr.Load(); cbPtr != nil {
			(*cbPtr)(pcm.Decode(nil, chunk))
		}
		c.safeSend(chunk)
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecvFrames,
	})
	if err != nil {
		return fmt.Errorf("%w: init capture device: %w", morse.ErrCaptureUnavailable, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("%w: start capture device: %w", morse.ErrCaptureUnavailable, err)
	}

	c.device = device
	c.running.Store(true)

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return nil
}

// safeSend queues a chunk without blocking the audio thread. Chunks are
// dropped when the reader falls behind or the channel is already closed.
func (c *Capture) safeSend(chunk []byte) {
	defer func() {
		// send on closed channel during shutdown
		_ = recover()
	}()
	select {
	case c.Samples <- chunk:
	default:
		c.dropped.Add(1)
	}
}

// Read implements morse.CaptureLine. It blocks until audio arrives, ctx is
// cancelled, or the capture is closed (io.EOF).
func (c *Capture) Read(ctx context.Context, p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(c.pending) == 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case chunk, ok := <-c.Samples:
			if !ok {
				return 0, io.EOF
			}
			c.pending = chunk
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() {
		return ErrNotRunning
	}

	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}

	c.running.Store(false)
	return nil
}

// Close releases all audio resources. Pending Reads return io.EOF.
func (c *Capture) Close() error {
	c.closed.Store(true)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() && c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
		c.running.Store(false)
	}

	var err error
	if c.ctx != nil {
		err = freeContext(c.ctx)
		c.ctx = nil
	}

	c.closeOnce.Do(func() {
		close(c.Samples)
	})
	return err
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// Dropped returns the number of periods discarded because Read fell behind
func (c *Capture) Dropped() uint64 {
	return c.dropped.Load()
}
