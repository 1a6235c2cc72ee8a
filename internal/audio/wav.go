// internal/audio/wav.go
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ColonelBlimp/cwcodec/internal/morse"
	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

var (
	ErrNotWAV           = errors.New("not a valid WAV file")
	ErrUnsupportedDepth = errors.New("only 16-bit PCM WAV files are supported")
)

// wavPCMFormat is the WAV audio format tag for integer PCM
const wavPCMFormat = 1

// WAVReader replays a 16-bit PCM WAV file as a capture line. Multi-channel
// files are reduced to their first channel.
type WAVReader struct {
	dec    *wav.Decoder
	closer io.Closer
	buf    *goaudio.IntBuffer
}

// OpenWAV opens a WAV file for reading.
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", morse.ErrCaptureUnavailable, err)
	}
	r, err := NewWAVReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewWAVReader reads WAV data from rs. The caller keeps ownership of rs.
func NewWAVReader(rs io.ReadSeeker) (*WAVReader, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %w", morse.ErrCaptureUnavailable, ErrNotWAV)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: read wav header: %w", morse.ErrCaptureUnavailable, err)
	}
	if dec.BitDepth != pcm.BitDepth {
		return nil, fmt.Errorf("%w: %w (got %d)", morse.ErrCaptureUnavailable, ErrUnsupportedDepth, dec.BitDepth)
	}
	if dec.NumChans == 0 {
		return nil, fmt.Errorf("%w: %w: no channels", morse.ErrCaptureUnavailable, ErrNotWAV)
	}
	return &WAVReader{dec: dec}, nil
}

// SampleRate is the file's sample rate in Hz
func (r *WAVReader) SampleRate() int {
	return int(r.dec.SampleRate)
}

// Channels is the number of interleaved channels in the file
func (r *WAVReader) Channels() int {
	return int(r.dec.NumChans)
}

// Read implements morse.CaptureLine. It returns io.EOF after the last frame.
func (r *WAVReader) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	frames := len(p) / pcm.BytesPerSample
	if frames == 0 {
		return 0, nil
	}

	chans := r.Channels()
	want := frames * chans
	if r.buf == nil || cap(r.buf.Data) < want {
		r.buf = &goaudio.IntBuffer{Data: make([]int, want)}
	}
	r.buf.Data = r.buf.Data[:want]

	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil {
		return 0, fmt.Errorf("read wav: %w", err)
	}
	if n == 0 {
		return 0, io.EOF
	}

	out := p[:0]
	for i := 0; i+chans <= n; i += chans {
		s := pcm.Clamp(r.buf.Data[i])
		out = append(out, byte(uint16(s)), byte(uint16(s)>>8))
	}
	return len(out), nil
}

// Close closes the underlying file when the reader opened it.
func (r *WAVReader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// WAVWriter records mono 16-bit PCM to a WAV file. It implements
// morse.PlaybackLine.
type WAVWriter struct {
	enc    *wav.Encoder
	closer io.Closer
	format *goaudio.Format
	frames int
}

// CreateWAV creates (or truncates) a WAV file for writing.
func CreateWAV(path string, sampleRate int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", morse.ErrCaptureUnavailable, err)
	}
	w := NewWAVWriter(f, sampleRate)
	w.closer = f
	return w, nil
}

// NewWAVWriter writes WAV data to ws. Close must be called to finalise the
// header; ws itself is not closed.
func NewWAVWriter(ws io.WriteSeeker, sampleRate int) *WAVWriter {
	return &WAVWriter{
		enc:    wav.NewEncoder(ws, sampleRate, pcm.BitDepth, 1, wavPCMFormat),
		format: &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
	}
}

// Write implements morse.PlaybackLine. A trailing odd byte is not written.
func (w *WAVWriter) Write(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	samples := pcm.Decode(nil, p)
	if len(samples) == 0 {
		return 0, nil
	}
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{Format: w.format, Data: data, SourceBitDepth: pcm.BitDepth}
	if err := w.enc.Write(buf); err != nil {
		return 0, fmt.Errorf("write wav: %w", err)
	}
	w.frames += len(samples)
	return len(samples) * pcm.BytesPerSample, nil
}

// Frames returns the number of frames written so far
func (w *WAVWriter) Frames() int {
	return w.frames
}

// Close finalises the WAV header and closes the file when the writer
// created it.
func (w *WAVWriter) Close() error {
	err := w.enc.Close()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}
