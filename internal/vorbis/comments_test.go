package vorbis

import (
	"bytes"
	"encoding/binary"
	"testing"

	mqbinary "github.com/simonhull/mqaid/internal/binary"
)

// buildBlock creates a raw Vorbis comment block body.
func buildBlock(vendor string, comments ...string) []byte {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, uint32(len(vendor)))
	buf.WriteString(vendor)
	binary.Write(buf, binary.LittleEndian, uint32(len(comments)))
	for _, c := range comments {
		binary.Write(buf, binary.LittleEndian, uint32(len(c)))
		buf.WriteString(c)
	}
	return buf.Bytes()
}

func parseBlock(t *testing.T, data []byte) *Comments {
	t.Helper()
	sr := mqbinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.flac")
	c, err := Parse(sr, 0, int64(len(data)))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	return c
}

func TestParseComment(t *testing.T) {
	tests := []struct {
		comment   string
		wantKey   string
		wantValue string
		wantErr   bool
	}{
		{comment: "TITLE=Test Song", wantKey: "TITLE", wantValue: "Test Song"},
		{comment: "ORIGINALSAMPLERATE=96000", wantKey: "ORIGINALSAMPLERATE", wantValue: "96000"},
		{comment: "COMMENT=a=b", wantKey: "COMMENT", wantValue: "a=b"},
		{comment: "EMPTY=", wantKey: "EMPTY", wantValue: ""},
		{comment: "no separator", wantErr: true},
		{comment: "=value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			key, value, err := ParseComment(tt.comment)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if key != tt.wantKey || value != tt.wantValue {
				t.Errorf("ParseComment() = %q, %q; want %q, %q", key, value, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestParse(t *testing.T) {
	data := buildBlock("reference libFLAC 1.4.3 20230623", "TITLE=Song", "MQAENCODER=MQAEncode v1.1")
	c := parseBlock(t, data)

	if c.Vendor != "reference libFLAC 1.4.3 20230623" {
		t.Errorf("Vendor = %q", c.Vendor)
	}
	if len(c.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(c.Entries))
	}
	if v, ok := c.Get("mqaencoder"); !ok || v != "MQAEncode v1.1" {
		t.Errorf("Get(mqaencoder) = %q, %v", v, ok)
	}
	if c.Has("ORIGINALSAMPLERATE") {
		t.Error("Has(ORIGINALSAMPLERATE) should be false")
	}
}

func TestParse_Overrun(t *testing.T) {
	data := buildBlock("vendor", "TITLE=Song")
	// Claim a longer comment than the block holds.
	binary.LittleEndian.PutUint32(data[4+6+4:], 200)

	sr := mqbinary.NewSafeReader(bytes.NewReader(data), int64(len(data)), "test.flac")
	if _, err := Parse(sr, 0, int64(len(data))); err == nil {
		t.Fatal("expected error for overrunning comment, got nil")
	}
}

func TestComments_EncodeRoundTrip(t *testing.T) {
	data := buildBlock("vendor", "ARTIST=Someone", "Title=Mixed Case")
	c := parseBlock(t, data)

	got, err := c.Encode()
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Encode() did not reproduce the input block\n got %x\nwant %x", got, data)
	}
}

func TestComments_Add(t *testing.T) {
	c := &Comments{Vendor: DefaultVendor}
	c.Add("originalSampleRate", "96000")

	if c.Entries[0] != "ORIGINALSAMPLERATE=96000" {
		t.Errorf("Entries[0] = %q", c.Entries[0])
	}
	if !c.Has("OriginalSampleRate") {
		t.Error("Has() should match case-insensitively")
	}

	encoded, err := c.Encode()
	if err != nil {
		t.Fatalf("Encode() unexpected error: %v", err)
	}
	decoded := parseBlock(t, encoded)
	if decoded.Vendor != DefaultVendor || len(decoded.Entries) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}
