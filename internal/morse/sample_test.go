package morse

import (
	"testing"

	"github.com/ColonelBlimp/cwcodec/internal/pcm"
)

func TestSampleClassifier_Classify(t *testing.T) {
	c := NewSampleClassifier(100)

	tests := []struct {
		name  string
		block []int16
		want  bool
	}{
		{"empty block", nil, false},
		{"silence", []int16{0, 0, 0, 0}, false},
		{"mean equal to threshold", []int16{100, -100, 100, -100}, false},
		{"mean above threshold", []int16{101, -101, 101, -101}, true},
		{"negative samples count", []int16{-500, -500}, true},
		{"integer mean truncates", []int16{101, 100, 100}, false},
		{"most negative sample", []int16{-32768}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.block); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.block, got, tt.want)
			}
		})
	}
}

func TestSampleClassifier_BlockLengthIndependent(t *testing.T) {
	c := NewSampleClassifier(1000)
	for _, n := range []int{1, 7, 40, 441} {
		block := make([]int16, n)
		for i := range block {
			block[i] = 2000
		}
		if !c.Classify(block) {
			t.Errorf("Classify(%d samples of 2000) = false, want true", n)
		}
	}
}

func TestSampleClassifier_ClassifyPCM(t *testing.T) {
	c := NewSampleClassifier(1536)

	loud := pcm.Encode(nil, []int16{4000, -4000, 4000, -4000})
	if !c.ClassifyPCM(loud) {
		t.Error("ClassifyPCM(loud) = false, want true")
	}
	quiet := pcm.Encode(nil, []int16{10, -10, 10, -10})
	if c.ClassifyPCM(quiet) {
		t.Error("ClassifyPCM(quiet) = true, want false")
	}
	if c.ClassifyPCM(nil) {
		t.Error("ClassifyPCM(nil) = true, want false")
	}
}
