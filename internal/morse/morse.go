// internal/morse/morse.go
// Package morse implements the timing-based CW codec: amplitude blocks are
// reduced to noise units, buffered, smoothed and classified into Morse
// tokens, and tokens are rendered back into timed tone segments.
package morse

import "errors"

// Morse code timing ratios (ITU standard)
const (
	// DahDitRatio is the ratio of dah duration to dit duration (ITU: 3:1)
	DahDitRatio = 3.0
	// IntraCharSpaceRatio is the gap between elements of one character (ITU: 1:1)
	IntraCharSpaceRatio = 1.0
	// InterCharSpaceRatio is the gap between characters (ITU: 3:1)
	InterCharSpaceRatio = 3.0
	// WordSpaceRatio is the gap between words (ITU: 7:1)
	WordSpaceRatio = 7.0

	// MillisecondsPerMinute is used for WPM calculations
	MillisecondsPerMinute = 60000.0
	// SecondsPerMinute is used for WPM calculations
	SecondsPerMinute = 60.0
	// DitsPerWord is the standard word "PARIS" = 50 dit units
	DitsPerWord = 50.0

	// ToleranceDivisor sets the classification band half-width: unitsPerDot / 3
	ToleranceDivisor = 3.0
)

// Framing signals bracketing a complete transmission
const (
	StartSignal = "-.-.-"
	EndSignal   = "...-.-"
)

var (
	// ErrCaptureUnavailable indicates the capture or playback line cannot be opened
	ErrCaptureUnavailable = errors.New("audio line unavailable")
	// ErrEstimationUndefined indicates there are no dot candidates to estimate timing from
	ErrEstimationUndefined = errors.New("timing estimation undefined: no dot candidates")
	// ErrUnknownRun indicates a run matched no tolerance band
	ErrUnknownRun = errors.New("run matched no tolerance band")
	// ErrInvalidFraming indicates a message lacks matching start/end signals
	ErrInvalidFraming = errors.New("incorrect placement of starting and ending signals")
	// ErrInvalidCharacter indicates a character or Morse letter has no table entry
	ErrInvalidCharacter = errors.New("invalid character")
	// ErrTableMismatch indicates the letter and code tables differ in length
	ErrTableMismatch = errors.New("letter and morse tables do not match")
	// ErrInvalidSymbol indicates a character that is not part of the Morse alphabet . - _ space | /
	ErrInvalidSymbol = errors.New("invalid morse symbol")
	// ErrInvalidWPM indicates WPM must be positive
	ErrInvalidWPM = errors.New("WPM must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidVolume indicates volume must be between 0 and 1
	ErrInvalidVolume = errors.New("volume must be between 0.0 and 1.0")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("tone frequency must be positive and less than Nyquist frequency")
	// ErrInvalidBlockSize indicates a noise unit needs at least one sample
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidCapacity indicates the noise buffer needs room for at least one unit
	ErrInvalidCapacity = errors.New("buffer capacity must be positive")
)
