package watermark

import "testing"

// BenchmarkScanner_NoMatch covers the common case: a full three second
// window at 44.1kHz with nothing to find.
func BenchmarkScanner_NoMatch(b *testing.B) {
	samples := carrier(3 * 44100)
	s := NewScanner(24)
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, _, ok := s.Scan(samples); ok {
			b.Fatal("unexpected match")
		}
	}
}

func BenchmarkScanner_LateMatch(b *testing.B) {
	samples := carrier(3 * 44100)
	inject(samples, len(samples)-200, 8+2)
	s := NewScanner(24)
	b.ReportAllocs()
	b.ResetTimer()
	for b.Loop() {
		if _, _, ok := s.Scan(samples); !ok {
			b.Fatal("expected match")
		}
	}
}
