// internal/pcm/pcm.go
// Package pcm converts between raw signed 16-bit little-endian PCM bytes and
// sample values. Every audio line in cwcodec moves mono S16LE frames.
package pcm

const (
	// BytesPerSample is the width of one mono S16LE frame
	BytesPerSample = 2
	// BitDepth is the sample width in bits
	BitDepth = 16
	// MaxAmplitude is the largest positive sample value
	MaxAmplitude = 32767
)

// Decode converts S16LE bytes into samples, appending to dst.
// A trailing odd byte is ignored.
func Decode(dst []int16, data []byte) []int16 {
	n := len(data) / BytesPerSample
	for i := 0; i < n; i++ {
		off := i * BytesPerSample
		dst = append(dst, int16(uint16(data[off])|uint16(data[off+1])<<8))
	}
	return dst
}

// Encode converts samples into S16LE bytes, appending to dst.
func Encode(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		u := uint16(s)
		dst = append(dst, byte(u), byte(u>>8))
	}
	return dst
}

// Silence returns n zero-valued frames as bytes.
func Silence(n int) []byte {
	if n <= 0 {
		return nil
	}
	return make([]byte, n*BytesPerSample)
}

// Clamp limits v to the int16 range.
func Clamp(v int) int16 {
	if v > MaxAmplitude {
		return MaxAmplitude
	}
	if v < -MaxAmplitude-1 {
		return -MaxAmplitude - 1
	}
	return int16(v)
}
