package watermark

import "github.com/simonhull/mqaid/internal/types"

// Offsets is the number of adjacent bit-planes tested above the base position.
const Offsets = 3

// Payload field positions, relative to the sample that completed the sync word.
const (
	rateFirst       = 3
	rateLast        = 6
	provenanceFirst = 29
	provenanceLast  = 33
)

// Payload carries the raw fields read after a sync word match.
type Payload struct {
	RateCode   uint8
	Provenance uint8
	// Complete is false when the stream ended before the last payload sample.
	Complete bool
}

// Scanner slides a 36-bit window over three bit-planes of the stereo
// difference signal.
//
// A Scanner is stateless between calls; Scan may be called concurrently.
type Scanner struct {
	// Base is the lowest tested bit position, BitsPerSample-16.
	Base uint
}

// NewScanner returns a Scanner for the given sample depth.
func NewScanner(bitsPerSample uint32) Scanner {
	return Scanner{Base: uint(bitsPerSample) - 16}
}

// Scan returns the first sync word match in samples and the payload read
// after it. Offset 0 wins over 1, and 1 over 2, when several planes match on
// the same sample. The boolean is false when no plane carries the sync word.
func (s Scanner) Scan(samples []types.SamplePair) (types.Match, Payload, bool) {
	var regs [Offsets]uint64

	for i, p := range samples {
		d := diff(p)
		for k := range regs {
			regs[k] = (regs[k]<<1)&syncMask | uint64(d>>(s.Base+uint(k))&1)
		}

		for k, r := range regs {
			if r != SyncWord {
				continue
			}
			m := types.Match{BitOffset: uint(k), SampleIndex: uint64(i)}
			return m, s.payload(samples, i, uint(k)), true
		}
	}

	return types.Match{}, Payload{}, false
}

func (s Scanner) payload(samples []types.SamplePair, at int, k uint) Payload {
	if len(samples)-1-at < provenanceLast {
		return Payload{}
	}

	shift := s.Base + k
	return Payload{
		RateCode:   field(samples[at+rateFirst:at+rateLast+1], shift),
		Provenance: field(samples[at+provenanceFirst:at+provenanceLast+1], shift),
		Complete:   true,
	}
}

// field packs one bit per sample, most significant sample first.
func field(samples []types.SamplePair, shift uint) uint8 {
	var v uint8
	for _, p := range samples {
		v = v<<1 | uint8(diff(p)>>shift&1)
	}
	return v
}

func diff(p types.SamplePair) uint32 {
	return uint32(p.Left) ^ uint32(p.Right)
}
