package morse

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// bufferLine replays captured audio in fixed-size reads, then reports io.EOF
type bufferLine struct {
	data  []byte
	chunk int
}

func (l *bufferLine) Read(_ context.Context, p []byte) (int, error) {
	if len(l.data) == 0 {
		return 0, io.EOF
	}
	n := len(p)
	if l.chunk > 0 && n > l.chunk {
		n = l.chunk
	}
	n = copy(p[:n], l.data)
	l.data = l.data[n:]
	return n, nil
}

// cancelLine cancels its session once data runs out, then blocks like a
// live device until the context ends
type cancelLine struct {
	data   []byte
	cancel context.CancelFunc
}

func (l *cancelLine) Read(ctx context.Context, p []byte) (int, error) {
	if len(l.data) > 0 {
		n := copy(p, l.data)
		l.data = l.data[n:]
		return n, nil
	}
	l.cancel()
	<-ctx.Done()
	return 0, ctx.Err()
}

type failingLine struct {
	good int
	err  error
}

func (l *failingLine) Read(_ context.Context, p []byte) (int, error) {
	if l.good <= 0 {
		return 0, l.err
	}
	n := len(p)
	if n > l.good {
		n = l.good
	}
	l.good -= n
	return n, nil
}

func testSessionConfig() SessionConfig {
	return SessionConfig{
		SampleRate:    8000,
		Sensitivity:   1536,
		WPM:           20,
		UnitsPerDot:   12,
		BufferSeconds: 300,
	}
}

func mustSession(t *testing.T, cfg SessionConfig, sink DiagnosticSink) *Session {
	t.Helper()
	s, err := NewSession(cfg, sink)
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

// renderPCM encodes a Morse string to audio the way a file output would
func renderPCM(t *testing.T, morse string) ([]Token, []byte) {
	t.Helper()
	tokens, err := ParseMorse(morse)
	if err != nil {
		t.Fatalf("ParseMorse(%q) error = %v", morse, err)
	}
	e := mustEncoder(t, testEncoderConfig())
	line := &memoryLine{}
	if err := e.Play(context.Background(), tokens, line); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	return tokens, line.buf.Bytes()
}

func TestNewSession_Geometry(t *testing.T) {
	s := mustSession(t, testSessionConfig(), nil)

	if s.BlockSamples() != 40 {
		t.Errorf("BlockSamples() = %d, want 40", s.BlockSamples())
	}
	if s.SecondsPerUnit() != 0.005 {
		t.Errorf("SecondsPerUnit() = %v, want 0.005", s.SecondsPerUnit())
	}
	if s.Capacity() != 60000 {
		t.Errorf("Capacity() = %d, want 60000", s.Capacity())
	}
}

func TestNewSession_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SessionConfig)
		want   error
	}{
		{"zero sample rate", func(c *SessionConfig) { c.SampleRate = 0 }, ErrInvalidSampleRate},
		{"zero wpm", func(c *SessionConfig) { c.WPM = 0 }, ErrInvalidWPM},
		{"zero units per dot", func(c *SessionConfig) { c.UnitsPerDot = 0 }, ErrInvalidCapacity},
		{"zero buffer", func(c *SessionConfig) { c.BufferSeconds = 0 }, ErrInvalidCapacity},
		{"rate too low for resolution", func(c *SessionConfig) {
			c.SampleRate = 100
			c.WPM = 60
			c.UnitsPerDot = 100
		}, ErrInvalidBlockSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testSessionConfig()
			tt.mutate(&cfg)
			if _, err := NewSession(cfg, nil); !errors.Is(err, tt.want) {
				t.Errorf("NewSession() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSession_EncodeDecodeRoundTrip(t *testing.T) {
	messages := []string{
		"-.-.- ... --- ... ...-.-",
		"-.-.- -.-. --.- | -.. . | --... ...-.-",
	}

	for _, msg := range messages {
		tokens, audio := renderPCM(t, msg)

		sink := &recordingSink{}
		s := mustSession(t, testSessionConfig(), sink)
		result, err := s.Run(context.Background(), &bufferLine{data: audio, chunk: 100})
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		if result.Profile.UnitsPerDot != 12 {
			t.Errorf("%q: UnitsPerDot = %v, want 12", msg, result.Profile.UnitsPerDot)
		}
		if result.WPM != 20 {
			t.Errorf("%q: WPM = %d, want 20", msg, result.WPM)
		}
		if result.Morse() != Format(tokens) {
			t.Errorf("%q: Morse() = %q, want %q", msg, result.Morse(), Format(tokens))
		}
		if len(sink.unknown) != 0 {
			t.Errorf("%q: %d unknown runs reported", msg, len(sink.unknown))
		}
		if len(result.Raw) != len(audio)/(40*2) {
			t.Errorf("%q: Raw has %d units, want %d", msg, len(result.Raw), len(audio)/80)
		}
	}
}

func TestSession_DecodesToText(t *testing.T) {
	_, audio := renderPCM(t, "-.-.- .... .. | - .... . .-. . ...-.-")

	s := mustSession(t, testSessionConfig(), nil)
	result, err := s.Run(context.Background(), &bufferLine{data: audio})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	text, err := DefaultCodec().Decode(result.Morse())
	if err != nil {
		t.Fatalf("Decode(%q) error = %v", result.Morse(), err)
	}
	if text != "HI THERE" {
		t.Errorf("decoded text = %q, want %q", text, "HI THERE")
	}
}

func TestSession_Updates(t *testing.T) {
	_, audio := renderPCM(t, "-.-.- ... --- ... ...-.-")

	s := mustSession(t, testSessionConfig(), nil)
	if _, err := s.Run(context.Background(), &bufferLine{data: audio}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var updates []Update
	for u := range s.Updates() {
		updates = append(updates, u)
	}

	// 756 units at one update every 200
	if len(updates) != 3 {
		t.Fatalf("received %d updates, want 3", len(updates))
	}
	for i, u := range updates {
		if u.Units != (i+1)*200 {
			t.Errorf("update %d Units = %d, want %d", i, u.Units, (i+1)*200)
		}
		if u.WPM != 20 {
			t.Errorf("update %d WPM = %d, want 20", i, u.WPM)
		}
	}
}

func TestSession_CancelDropsPartialBlock(t *testing.T) {
	// ten full tone blocks and half of an eleventh
	block := bytes.Repeat([]byte{0x00, 0x10}, 40)
	data := append(bytes.Repeat(block, 10), block[:40]...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testSessionConfig()
	cfg.FixedWPM = true
	s := mustSession(t, cfg, nil)

	result, err := s.Run(ctx, &cancelLine{data: data, cancel: cancel})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Raw != strings.Repeat(".", 10) {
		t.Errorf("Raw = %q, want 10 tone units", result.Raw)
	}

	// 10 units against a fixed 12 unit dot
	if result.Morse() != "." {
		t.Errorf("Morse() = %q, want %q", result.Morse(), ".")
	}
	if result.WPM != 20 {
		t.Errorf("WPM = %d, want 20", result.WPM)
	}
}

func TestSession_ReadError(t *testing.T) {
	boom := errors.New("device unplugged")
	s := mustSession(t, testSessionConfig(), nil)

	_, err := s.Run(context.Background(), &failingLine{good: 3 * 80, err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want wrapped %v", err, boom)
	}
}

func TestSession_EmptyCapture(t *testing.T) {
	s := mustSession(t, testSessionConfig(), nil)

	result, err := s.Run(context.Background(), &bufferLine{})
	if !errors.Is(err, ErrEstimationUndefined) {
		t.Errorf("Run() error = %v, want ErrEstimationUndefined", err)
	}
	if result.Raw != "" || len(result.Tokens) != 0 {
		t.Errorf("Run() result = %+v, want empty", result)
	}
}

func TestSession_RunOnce(t *testing.T) {
	_, audio := renderPCM(t, "-.-.- . ...-.-")
	s := mustSession(t, testSessionConfig(), nil)

	if _, err := s.Run(context.Background(), &bufferLine{data: audio}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := s.Run(context.Background(), &bufferLine{data: audio}); err != ErrSessionUsed {
		t.Errorf("second Run() error = %v, want ErrSessionUsed", err)
	}
}
