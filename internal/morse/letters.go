// internal/morse/letters.go
package morse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// WordSeparator is the Morse rendering of a space between words
const WordSeparator = "|"

// Letters and Codes pair up by index. Space maps to the word separator and
// newline sends AA (.-.-).
var (
	Letters = []string{
		"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
		"N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y", "Z",
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
		".", ",", "?", "'", "!", "/", "(", ")", "&", ":", ";", "=", "+",
		"-", "_", "\"", "$", "@", " ", "\n",
	}
	Codes = []string{
		".-", "-...", "-.-.", "-..", ".", "..-.", "--.", "....", "..", ".---", "-.-", ".-..", "--",
		"-.", "---", ".--.", "--.-", ".-.", "...", "-", "..-", "...-", ".--", "-..-", "-.--", "--..",
		"-----", ".----", "..---", "...--", "....-", ".....", "-....", "--...", "---..", "----.",
		".-.-.-", "--..--", "..--..", ".----.", "-.-.--", "-..-.", "-.--.", "-.--.-", ".-...", "---...", "-.-.-.", "-...-", ".-.-.",
		"-....-", "..--.-", ".-..-.", "...-..-", ".--.-.", WordSeparator, ".-.-",
	}
)

// CharacterError reports a character or Morse letter missing from the table.
type CharacterError struct {
	Character string
}

func (e *CharacterError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidCharacter, e.Character)
}

func (e *CharacterError) Unwrap() error {
	return ErrInvalidCharacter
}

// LetterCodec is an immutable mapping between characters and Morse letters.
type LetterCodec struct {
	toMorse map[rune]string
	toText  map[string]rune
}

var defaultCodec = mustLetterCodec(Letters, Codes)

// DefaultCodec returns the International Morse table.
func DefaultCodec() *LetterCodec {
	return defaultCodec
}

func mustLetterCodec(letters, codes []string) *LetterCodec {
	c, err := NewLetterCodec(letters, codes)
	if err != nil {
		panic(err)
	}
	return c
}

// NewLetterCodec builds a codec from paired tables. The tables must have the
// same length, each letter must be a single character, and neither side may
// repeat.
func NewLetterCodec(letters, codes []string) (*LetterCodec, error) {
	if len(letters) != len(codes) {
		return nil, fmt.Errorf("%w: letters: %d, morse: %d", ErrTableMismatch, len(letters), len(codes))
	}
	c := &LetterCodec{
		toMorse: make(map[rune]string, len(letters)),
		toText:  make(map[string]rune, len(codes)),
	}
	for i, l := range letters {
		r := []rune(l)
		if len(r) != 1 {
			return nil, fmt.Errorf("%w: letter %q at %d is not a single character", ErrTableMismatch, l, i)
		}
		if _, dup := c.toMorse[r[0]]; dup {
			return nil, fmt.Errorf("%w: duplicate letter %q", ErrTableMismatch, l)
		}
		if _, dup := c.toText[codes[i]]; dup {
			return nil, fmt.Errorf("%w: duplicate code %q", ErrTableMismatch, codes[i])
		}
		c.toMorse[r[0]] = codes[i]
		c.toText[codes[i]] = r[0]
	}
	return c, nil
}

// Len returns the number of table entries.
func (c *LetterCodec) Len() int {
	return len(c.toMorse)
}

// CharToMorse returns the Morse letter for one character (case-insensitive).
func (c *LetterCodec) CharToMorse(r rune) (string, error) {
	m, ok := c.toMorse[unicode.ToUpper(r)]
	if !ok {
		return "", &CharacterError{Character: string(r)}
	}
	return m, nil
}

// MorseToChar returns the character for one Morse letter.
func (c *LetterCodec) MorseToChar(code string) (rune, error) {
	r, ok := c.toText[code]
	if !ok {
		return 0, &CharacterError{Character: code}
	}
	return r, nil
}

// Encode converts text into a framed Morse message: the start signal, each
// letter separated by a space, and the end signal.
func (c *LetterCodec) Encode(text string) (string, error) {
	parts := []string{StartSignal}
	for _, r := range text {
		m, err := c.CharToMorse(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, m)
	}
	parts = append(parts, EndSignal)
	return strings.Join(parts, " "), nil
}

// Decode finds the framed message in a Morse string and converts it to text.
func (c *LetterCodec) Decode(morse string) (string, error) {
	words, err := Unframe(morse)
	if err != nil {
		return "", err
	}
	return c.DecodeWords(words)
}

// DecodeWords converts Morse words (each a list of letters) to text, joining
// words with a single space.
func (c *LetterCodec) DecodeWords(words [][]string) (string, error) {
	var b strings.Builder
	for i, word := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		for _, letter := range word {
			r, err := c.MorseToChar(letter)
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// Translate converts text to framed Morse, or framed Morse back to text,
// depending on which the input looks like.
func (c *LetterCodec) Translate(input string) (string, error) {
	if IsMorse(input) {
		return c.Decode(input)
	}
	return c.Encode(input)
}

// IsMorse reports whether s contains only Morse symbols and whitespace.
func IsMorse(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r == '.', r == '-', r == '_', r == '|', r == '/':
		case unicode.IsSpace(r):
		default:
			return false
		}
	}
	return true
}

// SplitWords splits a Morse string into words of letters. Word separators
// are '|' or '/'; letters are separated by whitespace; '_' intra-character
// gaps are ignored.
func SplitWords(morse string) [][]string {
	morse = strings.ReplaceAll(morse, "_", "")
	var words [][]string
	for _, w := range strings.FieldsFunc(morse, func(r rune) bool { return r == '|' || r == '/' }) {
		if letters := strings.Fields(w); len(letters) > 0 {
			words = append(words, letters)
		}
	}
	return words
}

// Unframe locates the first start signal and the first end signal after it,
// both as whole letters, and returns the words between them. The signals
// are matched as letters, so a full stop (.-.-.-) is never mistaken for the
// start signal.
func Unframe(morse string) ([][]string, error) {
	words := SplitWords(morse)

	type pos struct{ word, letter int }
	start, end := pos{-1, -1}, pos{-1, -1}
	for wi, word := range words {
		for li, letter := range word {
			if start.word < 0 {
				if letter == StartSignal {
					start = pos{wi, li}
				}
				continue
			}
			if letter == EndSignal {
				end = pos{wi, li}
				break
			}
		}
		if end.word >= 0 {
			break
		}
	}
	if start.word < 0 || end.word < 0 {
		return nil, ErrInvalidFraming
	}

	var out [][]string
	for wi := start.word; wi <= end.word; wi++ {
		lo, hi := 0, len(words[wi])
		if wi == start.word {
			lo = start.letter + 1
		}
		if wi == end.word {
			hi = end.letter
		}
		if lo < hi {
			out = append(out, words[wi][lo:hi])
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrInvalidFraming)
	}
	return out, nil
}

// FramedTokens parses a Morse string and returns only the framed part,
// signals included, ready for playback.
func FramedTokens(morse string) ([]Token, error) {
	words, err := Unframe(morse)
	if err != nil {
		return nil, err
	}
	msg := make([]string, len(words))
	for i, w := range words {
		msg[i] = strings.Join(w, " ")
	}
	return ParseMorse(StartSignal + " " + strings.Join(msg, " "+WordSeparator+" ") + " " + EndSignal)
}

// IsInvalidCharacter reports whether err is a table lookup failure and
// returns the offending character.
func IsInvalidCharacter(err error) (string, bool) {
	var ce *CharacterError
	if errors.As(err, &ce) {
		return ce.Character, true
	}
	return "", false
}
