// internal/morse/buffer.go
package morse

import "strings"

const (
	// ToneSymbol renders a noise unit with tone present
	ToneSymbol = '.'
	// SilenceSymbol renders a noise unit without tone
	SilenceSymbol = ' '
)

// NoiseBuffer is a bounded FIFO of noise units, oldest first. When full, the
// oldest unit is evicted before the new one is appended.
//
// NoiseBuffer has no locking. It is owned by a single writer; readers on
// other goroutines must work from Snapshot or Smoothed copies.
type NoiseBuffer struct {
	units []bool // ring storage, len == capacity
	head  int    // index of the oldest unit
	size  int
}

// NewNoiseBuffer creates a buffer holding at most capacity units.
func NewNoiseBuffer(capacity int) (*NoiseBuffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &NoiseBuffer{units: make([]bool, capacity)}, nil
}

// Add appends a unit, evicting the oldest if the buffer is full.
func (b *NoiseBuffer) Add(tone bool) {
	capacity := len(b.units)
	if b.size == capacity {
		b.units[b.head] = tone
		b.head = (b.head + 1) % capacity
		return
	}
	b.units[(b.head+b.size)%capacity] = tone
	b.size++
}

// Len returns the number of buffered units.
func (b *NoiseBuffer) Len() int {
	return b.size
}

// Cap returns the maximum number of units.
func (b *NoiseBuffer) Cap() int {
	return len(b.units)
}

// Reset discards all units.
func (b *NoiseBuffer) Reset() {
	b.head = 0
	b.size = 0
}

// Snapshot returns a private copy of the buffered units in arrival order.
func (b *NoiseBuffer) Snapshot() []bool {
	out := make([]bool, b.size)
	capacity := len(b.units)
	for i := 0; i < b.size; i++ {
		out[i] = b.units[(b.head+i)%capacity]
	}
	return out
}

// Render returns the raw, unsmoothed noise/silence string.
func (b *NoiseBuffer) Render() string {
	return RenderUnits(b.Snapshot())
}

// Smoothed returns a de-noised, trimmed copy of the buffered units.
func (b *NoiseBuffer) Smoothed() []bool {
	return Smooth(b.Snapshot())
}

// SmoothedString renders Smoothed as a noise/silence string.
func (b *NoiseBuffer) SmoothedString() string {
	return RenderUnits(b.Smoothed())
}

// RenderUnits maps tone to '.' and silence to ' '.
func RenderUnits(units []bool) string {
	var sb strings.Builder
	sb.Grow(len(units))
	for _, u := range units {
		if u {
			sb.WriteByte(ToneSymbol)
		} else {
			sb.WriteByte(SilenceSymbol)
		}
	}
	return sb.String()
}

// ParseUnits is the inverse of RenderUnits: '.' is tone, anything else silence.
func ParseUnits(s string) []bool {
	units := make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		units[i] = s[i] == ToneSymbol
	}
	return units
}

// Smooth applies the de-noising pass to a unit sequence and returns a new,
// trimmed sequence. The rules run once each, in order:
//
//  1. a 1-unit silence between two tones becomes tone
//  2. a 2-unit silence between two tones becomes tone
//  3. a 1-unit tone with silence on both sides becomes silence
//  4. a 2-unit tone with silence on both sides becomes silence
//  5. leading and trailing silence is trimmed
//
// Only those literal lengths are touched; longer gaps and blips pass through.
func Smooth(units []bool) []bool {
	runs := Runs(units)
	runs = fillRuns(runs, Silence, 1)
	runs = fillRuns(runs, Silence, 2)
	runs = fillRuns(runs, Tone, 1)
	runs = fillRuns(runs, Tone, 2)
	runs = trimSilence(runs)
	return expandRuns(runs)
}

// SmoothString is Smooth over a rendered noise/silence string.
func SmoothString(s string) string {
	return RenderUnits(Smooth(ParseUnits(s)))
}

// fillRuns flips every interior run of the given kind and exact length to
// the opposite kind, merging it into its neighbours. Runs alternate, so an
// interior run always has opposite-kind runs on both sides; edge runs are
// left alone.
func fillRuns(runs []Run, kind RunKind, length int) []Run {
	if len(runs) < 3 {
		return runs
	}
	out := make([]Run, 0, len(runs))
	for i, r := range runs {
		interior := i > 0 && i < len(runs)-1
		if interior && r.Kind == kind && r.Len == length {
			out[len(out)-1].Len += r.Len
			continue
		}
		if len(out) > 0 && out[len(out)-1].Kind == r.Kind {
			out[len(out)-1].Len += r.Len
			continue
		}
		out = append(out, r)
	}
	return out
}

func trimSilence(runs []Run) []Run {
	for len(runs) > 0 && runs[0].Kind == Silence {
		runs = runs[1:]
	}
	for len(runs) > 0 && runs[len(runs)-1].Kind == Silence {
		runs = runs[:len(runs)-1]
	}
	return runs
}

func expandRuns(runs []Run) []bool {
	total := 0
	for _, r := range runs {
		total += r.Len
	}
	units := make([]bool, 0, total)
	for _, r := range runs {
		tone := r.Kind == Tone
		for i := 0; i < r.Len; i++ {
			units = append(units, tone)
		}
	}
	return units
}
