package morse

import (
	"testing"
)

// recordingSink collects diagnostics for assertions
type recordingSink struct {
	unknown []Run
	indexes []int
	errs    []error
}

func (s *recordingSink) UnknownRun(index int, r Run) {
	s.indexes = append(s.indexes, index)
	s.unknown = append(s.unknown, r)
}

func (s *recordingSink) Error(err error) {
	s.errs = append(s.errs, err)
}

// synthesizeUnits renders tokens as noise units at unitsPerDot units per dot
func synthesizeUnits(tokens []Token, unitsPerDot int) []bool {
	var units []bool
	for _, tok := range tokens {
		n := int(tok.Units()) * unitsPerDot
		for i := 0; i < n; i++ {
			units = append(units, tok.IsTone())
		}
	}
	return units
}

func TestRuns_Partition(t *testing.T) {
	inputs := []string{
		"",
		".",
		" ",
		"... ...",
		"   ...   .  ..........     ",
		". . . . .",
	}

	for _, in := range inputs {
		units := ParseUnits(in)
		runs := Runs(units)

		total := 0
		for i, r := range runs {
			if r.Len < 1 {
				t.Errorf("Runs(%q)[%d].Len = %d, want >= 1", in, i, r.Len)
			}
			if i > 0 && runs[i-1].Kind == r.Kind {
				t.Errorf("Runs(%q)[%d] has same kind as previous run", in, i)
			}
			total += r.Len
		}
		if total != len(units) {
			t.Errorf("Runs(%q) total length = %d, want %d", in, total, len(units))
		}
	}
}

func TestRuns_Values(t *testing.T) {
	runs := Runs(ParseUnits("...  .   "))
	want := []Run{{Tone, 3}, {Silence, 2}, {Tone, 1}, {Silence, 3}}

	if len(runs) != len(want) {
		t.Fatalf("Runs() length = %d, want %d", len(runs), len(want))
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("Runs()[%d] = %+v, want %+v", i, runs[i], want[i])
		}
	}
}

func TestClassifyRun_Bands(t *testing.T) {
	// u = 12, tol = 4
	profile := NewTimingProfile(12, 0.005)

	tests := []struct {
		name string
		run  Run
		want Token
	}{
		{"dot centre", Run{Tone, 12}, Dot},
		{"dot low edge", Run{Tone, 9}, Dot},
		{"dot high edge", Run{Tone, 15}, Dot},
		{"between dot and dash", Run{Tone, 20}, Unknown},
		{"dash low edge", Run{Tone, 25}, Dash},
		{"dash centre", Run{Tone, 36}, Dash},
		{"dash high edge", Run{Tone, 47}, Dash},
		{"too long tone", Run{Tone, 48}, Unknown},
		{"short tone", Run{Tone, 8}, Unknown},
		{"intra gap centre", Run{Silence, 12}, IntraGap},
		{"intra gap shortest", Run{Silence, 1}, IntraGap},
		{"intra gap high edge", Run{Silence, 23}, IntraGap},
		{"between intra and letter", Run{Silence, 26}, Unknown},
		{"letter gap low edge", Run{Silence, 29}, LetterGap},
		{"letter gap centre", Run{Silence, 36}, LetterGap},
		{"letter band wins overlap", Run{Silence, 40}, LetterGap},
		{"word gap after letter band", Run{Silence, 44}, WordGap},
		{"word gap centre", Run{Silence, 84}, WordGap},
		{"word gap high edge", Run{Silence, 131}, WordGap},
		{"too long silence", Run{Silence, 132}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRun(tt.run, profile); got != tt.want {
				t.Errorf("ClassifyRun(%+v) = %v, want %v", tt.run, got, tt.want)
			}
		})
	}
}

func TestClassifyRun_ToleranceBoundary(t *testing.T) {
	run := Run{Tone, 6}

	// u + tol = 6.133, so 6 sits just inside the dot band
	inside := NewTimingProfile(4.6, 0.005)
	if got := ClassifyRun(run, inside); got != Dot {
		t.Errorf("ClassifyRun(6) with u=4.6 = %v, want Dot", got)
	}

	// u + tol = 5.867, so 6 sits just outside; the dash band starts at 8.8
	outside := NewTimingProfile(4.4, 0.005)
	if got := ClassifyRun(run, outside); got != Unknown {
		t.Errorf("ClassifyRun(6) with u=4.4 = %v, want Unknown", got)
	}
}

func TestClassify_ReportsUnknownAndContinues(t *testing.T) {
	profile := NewTimingProfile(12, 0.005)
	runs := []Run{{Tone, 12}, {Silence, 26}, {Tone, 36}, {Silence, 200}, {Tone, 20}, {Silence, 12}, {Tone, 12}}

	sink := &recordingSink{}
	got := Classify(runs, profile, sink)
	want := []Token{Dot, Unknown, Dash, Unknown, Unknown, IntraGap, Dot}

	if len(got) != len(want) {
		t.Fatalf("Classify() length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Classify()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if len(sink.unknown) != 3 {
		t.Fatalf("sink received %d unknown runs, want 3", len(sink.unknown))
	}
	wantIdx := []int{1, 3, 4}
	for i, idx := range wantIdx {
		if sink.indexes[i] != idx {
			t.Errorf("sink index[%d] = %d, want %d", i, sink.indexes[i], idx)
		}
	}
	if sink.unknown[2] != (Run{Tone, 20}) {
		t.Errorf("sink unknown[2] = %+v, want tone run of 20", sink.unknown[2])
	}
}

func TestClassify_NilSink(t *testing.T) {
	profile := NewTimingProfile(12, 0.005)
	got := Classify([]Run{{Tone, 100}}, profile, nil)
	if len(got) != 1 || got[0] != Unknown {
		t.Errorf("Classify() with nil sink = %v, want [Unknown]", got)
	}
}

func TestClassifyUnits_RoundTrip(t *testing.T) {
	messages := []string{
		"-.-.- ... --- ... ...-.-",
		"-.-.- .- | -... ...-.-",
		"-- . .-.. | -.. . | .-.-.- | -.-",
	}

	for _, unitsPerDot := range []int{3, 5, 12} {
		for _, msg := range messages {
			tokens, err := ParseMorse(msg)
			if err != nil {
				t.Fatalf("ParseMorse(%q) error = %v", msg, err)
			}

			b, _ := NewNoiseBuffer(100000)
			for _, u := range synthesizeUnits(tokens, unitsPerDot) {
				b.Add(u)
			}

			profile, err := EstimateBuffer(b, 0.005)
			if err != nil {
				t.Fatalf("EstimateBuffer() error = %v", err)
			}
			if profile.UnitsPerDot != float64(unitsPerDot) {
				t.Errorf("UnitsPerDot = %v, want %d", profile.UnitsPerDot, unitsPerDot)
			}

			sink := &recordingSink{}
			got := Classify(Runs(b.Smoothed()), profile, sink)
			if Format(got) != Format(tokens) || len(got) != len(tokens) {
				t.Errorf("u=%d %q: round trip = %q, want %q", unitsPerDot, msg, Format(got), Format(tokens))
			}
			if len(sink.unknown) != 0 {
				t.Errorf("u=%d %q: %d unknown runs", unitsPerDot, msg, len(sink.unknown))
			}
		}
	}
}
