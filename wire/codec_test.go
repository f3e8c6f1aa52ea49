package wire

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gomelsec/mc3e/proto"
)

func TestEncodeBinary(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		f     Format
		want  []byte
	}{
		{"u8", 0x12, U8, []byte{0x12}},
		{"i8 negative", -1, I8, []byte{0xFF}},
		{"u16", 0x1234, U16, []byte{0x34, 0x12}},
		{"i16 negative", -1, I16, []byte{0xFF, 0xFF}},
		{"u32", 0x12345678, U32, []byte{0x78, 0x56, 0x34, 0x12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.value, tt.f, proto.Binary)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Encode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeASCII(t *testing.T) {
	got, err := Encode(0x1A, U16, proto.ASCII)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(got) != "001A" {
		t.Errorf("Encode ascii u16 = %q, want %q", got, "001A")
	}
}

func TestEncodeASCIIOutOfRange(t *testing.T) {
	if _, err := Encode(256, U8, proto.ASCII); err == nil {
		t.Error("expected range error encoding 256 into a u8")
	}
	if _, err := Encode(-129, I8, proto.ASCII); err == nil {
		t.Error("expected range error encoding -129 into an i8")
	}
}

func TestRoundTripBinary(t *testing.T) {
	for _, f := range []Format{I8, U8, I16, U16, I32, U32} {
		var value int64 = 42
		if f == I8 || f == I16 || f == I32 {
			value = -42
		}
		enc, err := Encode(value, f, proto.Binary)
		if err != nil {
			t.Fatalf("Encode(%v): %v", f, err)
		}
		dec, err := Decode(enc, f, proto.Binary)
		if err != nil {
			t.Fatalf("Decode(%v): %v", f, err)
		}
		if dec != value {
			t.Errorf("round trip %v: got %d, want %d", f, dec, value)
		}
	}
}

func TestRoundTripASCII(t *testing.T) {
	for _, f := range []Format{I8, U8, I16, U16, I32, U32} {
		var value int64 = 7
		if f == I8 || f == I16 || f == I32 {
			value = -7
		}
		enc, err := Encode(value, f, proto.ASCII)
		if err != nil {
			t.Fatalf("Encode(%v): %v", f, err)
		}
		dec, err := Decode(enc, f, proto.ASCII)
		if err != nil {
			t.Fatalf("Decode(%v): %v", f, err)
		}
		if dec != value {
			t.Errorf("round trip %v: got %d, want %d", f, dec, value)
		}
	}
}

func TestEncodeSubheader(t *testing.T) {
	if got := EncodeSubheader(0x5000, proto.Binary); string(got) != "\x50\x00" {
		t.Errorf("binary subheader = % X", got)
	}
	if got := EncodeSubheader(0x5000, proto.ASCII); string(got) != "5000" {
		t.Errorf("ascii subheader = %q, want %q", got, "5000")
	}
}
