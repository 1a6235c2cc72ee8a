// internal/morse/classifier.go
package morse

import "math"

// RunKind distinguishes tone runs from silence runs.
type RunKind uint8

const (
	Silence RunKind = iota
	Tone
)

func (k RunKind) String() string {
	if k == Tone {
		return "tone"
	}
	return "silence"
}

// Run is a maximal stretch of identical noise units.
type Run struct {
	Kind RunKind
	Len  int
}

// Runs partitions a unit sequence into alternating tone and silence runs.
// The run lengths always sum to len(units).
func Runs(units []bool) []Run {
	var runs []Run
	for _, u := range units {
		kind := Silence
		if u {
			kind = Tone
		}
		if n := len(runs); n > 0 && runs[n-1].Kind == kind {
			runs[n-1].Len++
			continue
		}
		runs = append(runs, Run{Kind: kind, Len: 1})
	}
	return runs
}

// ClassifyRun maps one run to a token using the first matching band.
func ClassifyRun(r Run, profile TimingProfile) Token {
	u := profile.UnitsPerDot
	tol := profile.Tolerance
	l := float64(r.Len)

	if r.Kind == Tone {
		switch {
		case math.Abs(l-u) < tol:
			return Dot
		case math.Abs(l-DahDitRatio*u) < 3*tol:
			return Dash
		default:
			return Unknown
		}
	}

	switch {
	case math.Abs(l-IntraCharSpaceRatio*u) < 3*tol:
		return IntraGap
	case math.Abs(l-InterCharSpaceRatio*u) < 2*tol:
		return LetterGap
	case math.Abs(l-WordSpaceRatio*u) < 12*tol:
		return WordGap
	default:
		return Unknown
	}
}

// Classify turns runs into tokens. Runs matching no band become Unknown
// tokens and are reported to sink; classification carries on regardless.
func Classify(runs []Run, profile TimingProfile, sink DiagnosticSink) []Token {
	if sink == nil {
		sink = NopSink{}
	}
	tokens := make([]Token, 0, len(runs))
	for i, r := range runs {
		t := ClassifyRun(r, profile)
		if t == Unknown {
			sink.UnknownRun(i, r)
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// ClassifyUnits smooths the units, partitions them into runs and classifies them.
func ClassifyUnits(units []bool, profile TimingProfile, sink DiagnosticSink) []Token {
	return Classify(Runs(Smooth(units)), profile, sink)
}
