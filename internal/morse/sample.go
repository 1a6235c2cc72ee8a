// internal/morse/sample.go
package morse

import "github.com/ColonelBlimp/cwcodec/internal/pcm"

// SampleClassifier reduces one block of samples to a tone-present decision.
// There is no hysteresis: a single flipped block near the threshold is
// corrected later by smoothing.
type SampleClassifier struct {
	// Sensitivity is the mean absolute amplitude a block must exceed
	Sensitivity int

	scratch []int16
}

// NewSampleClassifier creates a classifier with the given sensitivity.
func NewSampleClassifier(sensitivity int) *SampleClassifier {
	return &SampleClassifier{Sensitivity: sensitivity}
}

// Classify reports whether mean(|sample|) over the block exceeds the
// sensitivity. An empty block is silence.
func (c *SampleClassifier) Classify(block []int16) bool {
	if len(block) == 0 {
		return false
	}
	var sum int64
	for _, s := range block {
		v := int64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	// integer mean, as the amplitude threshold is an integer
	return sum/int64(len(block)) > int64(c.Sensitivity)
}

// ClassifyPCM decodes a block of S16LE bytes and classifies it.
func (c *SampleClassifier) ClassifyPCM(block []byte) bool {
	c.scratch = pcm.Decode(c.scratch[:0], block)
	return c.Classify(c.scratch)
}
