package watermark

import (
	"errors"
	"testing"

	"github.com/simonhull/mqaid/internal/types"
)

func TestDecodeOriginalRate_Table(t *testing.T) {
	want := [16]uint32{
		0b0000: 44100,
		0b0001: 48000,
		0b0010: 705600,
		0b0011: 768000,
		0b0100: 176400,
		0b0101: 192000,
		0b0110: 5644800,
		0b0111: 6144000,
		0b1000: 88200,
		0b1001: 96000,
		0b1010: 2822400,
		0b1011: 3072000,
		0b1100: 352800,
		0b1101: 384000,
		0b1110: 11289600,
		0b1111: 12288000,
	}

	for code, hz := range want {
		got, err := DecodeOriginalRate(uint8(code))
		if err != nil {
			t.Fatalf("DecodeOriginalRate(%04b) unexpected error: %v", code, err)
		}
		if got != hz {
			t.Errorf("DecodeOriginalRate(%04b) = %d, want %d", code, got, hz)
		}
	}
}

func TestDecodeOriginalRate_Invalid(t *testing.T) {
	for _, code := range []uint8{16, 31, 0xFF} {
		_, err := DecodeOriginalRate(code)
		var bc *types.InvalidBytecodeError
		if !errors.As(err, &bc) {
			t.Fatalf("DecodeOriginalRate(%d) error = %v, want InvalidBytecodeError", code, err)
		}
		if bc.Code != code {
			t.Errorf("InvalidBytecodeError.Code = %d, want %d", bc.Code, code)
		}
	}
}

func TestDecodeProvenance(t *testing.T) {
	for v := range uint8(32) {
		if got, want := DecodeProvenance(v), v > 8; got != want {
			t.Errorf("DecodeProvenance(%d) = %v, want %v", v, got, want)
		}
	}
	if DecodeProvenance(8) {
		t.Error("DecodeProvenance(8) should be false")
	}
	if !DecodeProvenance(9) {
		t.Error("DecodeProvenance(9) should be true")
	}
}

func TestRateLabel(t *testing.T) {
	tests := []struct {
		hz   uint32
		want string
	}{
		{44100, "44.1K"},
		{48000, "48K"},
		{88200, "88.2K"},
		{96000, "96K"},
		{176400, "176.4K"},
		{352800, "352.8K"},
		{705600, "705.6K"},
		{768000, "768K"},
		{1411200, "DSD32"},
		{2822400, "DSD64"},
		{11289600, "DSD256"},
		{1536000, "DSD32x48"},
		{12288000, "DSD256x48"},
	}

	for _, tt := range tests {
		if got := RateLabel(tt.hz); got != tt.want {
			t.Errorf("RateLabel(%d) = %q, want %q", tt.hz, got, tt.want)
		}
	}
}
