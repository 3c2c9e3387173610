// Package watermarktest plants synthetic watermarks in sample streams.
package watermarktest

import (
	"github.com/simonhull/mqaid/internal/types"
	"github.com/simonhull/mqaid/internal/watermark"
)

// Carrier returns n stereo samples with a zero difference signal. Left and
// Right follow the same slow ramp so the stream is not pure silence.
func Carrier(n int) []types.SamplePair {
	samples := make([]types.SamplePair, n)
	for i := range samples {
		v := int32(i%200) - 100
		samples[i] = types.SamplePair{Left: v, Right: v}
	}
	return samples
}

// Mark describes where and what to plant.
type Mark struct {
	Start      int  // first sample carrying the sync word
	Bit        uint // absolute bit position in the difference signal
	RateCode   uint8
	Provenance uint8
}

// Plant writes the sync word and payload into samples and returns the index
// of the sample that completes the sync word. Payload bits that would fall
// past the end of samples are dropped.
func Plant(samples []types.SamplePair, m Mark) int {
	for j := range 36 {
		setBit(samples, m.Start+j, m.Bit, watermark.SyncWord>>(35-j)&1 == 1)
	}
	at := m.Start + 35
	for j := range 4 {
		setBit(samples, at+3+j, m.Bit, m.RateCode>>(3-j)&1 == 1)
	}
	for j := range 5 {
		setBit(samples, at+29+j, m.Bit, m.Provenance>>(4-j)&1 == 1)
	}
	return at
}

func setBit(samples []types.SamplePair, i int, pos uint, on bool) {
	if !on || i >= len(samples) {
		return
	}
	samples[i].Left ^= int32(1) << pos
}

// Split separates pairs into per-channel slices.
func Split(samples []types.SamplePair) (left, right []int32) {
	left = make([]int32, len(samples))
	right = make([]int32, len(samples))
	for i, p := range samples {
		left[i], right[i] = p.Left, p.Right
	}
	return left, right
}
