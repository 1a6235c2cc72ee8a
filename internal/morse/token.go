// internal/morse/token.go
package morse

import (
	"fmt"
	"strings"
)

// Token is one element of a Morse stream: a tone, a gap, or an unclassified run.
type Token uint8

const (
	Dot Token = iota
	Dash
	IntraGap
	LetterGap
	WordGap
	Unknown
)

// Symbol is the canonical one-character rendering of the token.
func (t Token) Symbol() byte {
	switch t {
	case Dot:
		return '.'
	case Dash:
		return '-'
	case IntraGap:
		return '_'
	case LetterGap:
		return ' '
	case WordGap:
		return '|'
	default:
		return '?'
	}
}

func (t Token) String() string {
	switch t {
	case Dot:
		return "Dot"
	case Dash:
		return "Dash"
	case IntraGap:
		return "IntraGap"
	case LetterGap:
		return "LetterGap"
	case WordGap:
		return "WordGap"
	default:
		return "Unknown"
	}
}

// IsTone reports whether the token is a keyed element.
func (t Token) IsTone() bool {
	return t == Dot || t == Dash
}

// IsGap reports whether the token is one of the three spacer classes.
func (t Token) IsGap() bool {
	return t == IntraGap || t == LetterGap || t == WordGap
}

// Units is the nominal duration of the token in dot units.
func (t Token) Units() float64 {
	switch t {
	case Dot:
		return 1
	case Dash:
		return DahDitRatio
	case IntraGap:
		return IntraCharSpaceRatio
	case LetterGap:
		return InterCharSpaceRatio
	case WordGap:
		return WordSpaceRatio
	default:
		return 0
	}
}

// Format renders tokens as a transmittable Morse string. Unknown tokens are
// dropped; they have already been reported to the diagnostic sink.
func Format(tokens []Token) string {
	var b strings.Builder
	b.Grow(len(tokens))
	for _, t := range tokens {
		if t == Unknown {
			continue
		}
		b.WriteByte(t.Symbol())
	}
	return b.String()
}

// ParseMorse converts a Morse string into an explicit token stream.
//
// Accepted symbols are '.', '-', '_' (intra-character gap), whitespace
// (letter gap) and '|' or '/' (word gap). Adjacent elements without an
// explicit '_' get an implied IntraGap, runs of whitespace collapse into one
// LetterGap, and whitespace around a word separator is absorbed by it.
// Leading and trailing gaps are dropped.
func ParseMorse(s string) ([]Token, error) {
	var tokens []Token
	last := func() (Token, bool) {
		if len(tokens) == 0 {
			return 0, false
		}
		return tokens[len(tokens)-1], true
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '.', '-':
			if prev, ok := last(); ok && prev.IsTone() {
				tokens = append(tokens, IntraGap)
			}
			if c == '.' {
				tokens = append(tokens, Dot)
			} else {
				tokens = append(tokens, Dash)
			}
		case '_':
			if prev, ok := last(); ok && prev.IsTone() {
				tokens = append(tokens, IntraGap)
			}
		case ' ', '\t', '\n', '\r':
			prev, ok := last()
			if !ok {
				continue
			}
			switch prev {
			case IntraGap:
				tokens[len(tokens)-1] = LetterGap
			case Dot, Dash:
				tokens = append(tokens, LetterGap)
			}
		case '|', '/':
			prev, ok := last()
			if !ok {
				continue
			}
			switch prev {
			case IntraGap, LetterGap:
				tokens[len(tokens)-1] = WordGap
			case WordGap:
				// consecutive separators are one word gap
			default:
				tokens = append(tokens, WordGap)
			}
		default:
			return nil, fmt.Errorf("%w: %q at offset %d", ErrInvalidSymbol, c, i)
		}
	}

	// trailing gaps carry no timing
	for len(tokens) > 0 && tokens[len(tokens)-1].IsGap() {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens, nil
}
