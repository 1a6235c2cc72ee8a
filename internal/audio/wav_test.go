package audio

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ColonelBlimp/cwcodec/internal/morse"
	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

func writeTestWAV(t *testing.T, path string, rate int, samples []int16) {
	t.Helper()
	w, err := CreateWAV(path, rate)
	if err != nil {
		t.Fatalf("CreateWAV() error = %v", err)
	}
	data := pcm.Encode(nil, samples)
	for len(data) > 0 {
		// odd chunking exercises frame alignment
		n := min(len(data), 34)
		m, err := w.Write(context.Background(), data[:n])
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		data = data[m:]
	}
	if w.Frames() != len(samples) {
		t.Errorf("Frames() = %d, want %d", w.Frames(), len(samples))
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func readAll(t *testing.T, r *WAVReader, chunk int) []byte {
	t.Helper()
	var out []byte
	p := make([]byte, chunk)
	for {
		n, err := r.Read(context.Background(), p)
		out = append(out, p[:n]...)
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
	}
}

func TestWAV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := []int16{0, 1, -1, 1000, -1000, 32767, -32768, 42, 7}
	writeTestWAV(t, path, 8000, samples)

	r, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	if r.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", r.SampleRate())
	}
	if r.Channels() != 1 {
		t.Errorf("Channels() = %d, want 1", r.Channels())
	}

	got := pcm.Decode(nil, readAll(t, r, 6))
	if len(got) != len(samples) {
		t.Fatalf("read %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestOpenWAV_Missing(t *testing.T) {
	_, err := OpenWAV(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, morse.ErrCaptureUnavailable) {
		t.Errorf("OpenWAV() error = %v, want ErrCaptureUnavailable", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenWAV() error = %v, want os.ErrNotExist", err)
	}
}

func TestNewWAVReader_NotWAV(t *testing.T) {
	_, err := NewWAVReader(bytes.NewReader([]byte("this is not a riff file at all")))
	if !errors.Is(err, ErrNotWAV) || !errors.Is(err, morse.ErrCaptureUnavailable) {
		t.Errorf("NewWAVReader() error = %v, want ErrNotWAV and ErrCaptureUnavailable", err)
	}
}

func TestWAVReader_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, path, 8000, []int16{1, 2, 3})

	r, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Read(ctx, make([]byte, 4)); !errors.Is(err, context.Canceled) {
		t.Errorf("Read() error = %v, want context.Canceled", err)
	}
}

// A message written to WAV by the encoder decodes back to the same text.
func TestWAV_EncodeDecodeMessage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cq.wav")

	morseText, err := morse.DefaultCodec().Encode("CQ")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	tokens, err := morse.ParseMorse(morseText)
	if err != nil {
		t.Fatalf("ParseMorse() error = %v", err)
	}

	enc, err := morse.NewEncoder(morse.EncoderConfig{SampleRate: 8000, FrequencyHz: 1000, Volume: 0.8, WPM: 20})
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}
	w, err := CreateWAV(path, 8000)
	if err != nil {
		t.Fatalf("CreateWAV() error = %v", err)
	}
	if err := enc.Play(context.Background(), tokens, w); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	r, err := OpenWAV(path)
	if err != nil {
		t.Fatalf("OpenWAV() error = %v", err)
	}
	defer r.Close()

	session, err := morse.NewSession(morse.SessionConfig{
		SampleRate:    r.SampleRate(),
		Sensitivity:   1536,
		WPM:           20,
		UnitsPerDot:   12,
		BufferSeconds: 60,
	}, nil)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	result, err := session.Run(context.Background(), r)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	text, err := morse.DefaultCodec().Decode(result.Morse())
	if err != nil {
		t.Fatalf("Decode(%q) error = %v", result.Morse(), err)
	}
	if text != "CQ" {
		t.Errorf("decoded %q, want %q", text, "CQ")
	}
	if result.WPM != 20 {
		t.Errorf("WPM = %d, want 20", result.WPM)
	}
}
