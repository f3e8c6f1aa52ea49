// Package wire implements the MC protocol value codec: encoding and
// decoding fixed-width integers in either the packed little-endian binary
// encoding or the uppercase hex-ASCII encoding, per §4.1 of the
// specification. It replaces the source's single-character format-code
// dispatch ("b", "h", "l", "B", "H", "L") with a tagged Format enum
// (DESIGN NOTES: Codec overloading).
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/gomelsec/mc3e/mcerr"
	"github.com/gomelsec/mc3e/proto"
)

// Format is the tagged set of integer widths/signedness the codec supports.
type Format int

const (
	I8 Format = iota
	U8
	I16
	U16
	I32
	U32
)

func (f Format) bits() int {
	switch f {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32:
		return 32
	default:
		return 0
	}
}

func (f Format) signed() bool {
	return f == I8 || f == I16 || f == I32
}

func (f Format) byteWidth() int { return f.bits() / 8 }

func (f Format) String() string {
	switch f {
	case I8:
		return "i8"
	case U8:
		return "u8"
	case I16:
		return "i16"
	case U16:
		return "u16"
	case I32:
		return "i32"
	case U32:
		return "u32"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

func twosComp(val uint64, bits int) int64 {
	v := int64(val)
	if val&(1<<(uint(bits)-1)) != 0 {
		v -= 1 << uint(bits)
	}
	return v
}

// Encode packs value into the wire encoding for comm, using fmt to
// determine byte width and signedness. value is taken as the signed or
// unsigned representation implied by fmt; binary mode serializes two's
// complement directly, ascii mode validates range then masks to unsigned
// before formatting as zero-padded uppercase hex.
func Encode(value int64, f Format, comm proto.CommType) ([]byte, error) {
	width := f.byteWidth()
	if width == 0 {
		return nil, mcerr.NewArgError("encode: unsupported format %v", f)
	}

	if comm == proto.Binary {
		buf := make([]byte, width)
		switch f {
		case I8, U8:
			buf[0] = byte(uint8(value))
		case I16, U16:
			binary.LittleEndian.PutUint16(buf, uint16(value))
		case I32, U32:
			binary.LittleEndian.PutUint32(buf, uint32(value))
		}
		return buf, nil
	}

	bits := f.bits()
	var lo, hi int64
	if f.signed() {
		lo, hi = -(1 << uint(bits-1)), (1<<uint(bits-1))-1
	} else {
		lo, hi = 0, (1<<uint(bits))-1
	}
	if value < lo || value > hi {
		return nil, &mcerr.RangeError{Format: f.String(), Value: value}
	}
	mask := uint64(1)<<uint(bits) - 1
	masked := uint64(value) & mask
	hexWidth := width * 2
	text := fmt.Sprintf("%0*X", hexWidth, masked)
	return []byte(text), nil
}

// Decode inverts Encode: it reads exactly the on-wire byte width for fmt
// from b[0:] and returns the integer value, applying two's complement in
// ascii mode for signed formats.
func Decode(b []byte, f Format, comm proto.CommType) (int64, error) {
	width := f.byteWidth()
	if width == 0 {
		return 0, mcerr.NewArgError("decode: unsupported format %v", f)
	}

	if comm == proto.Binary {
		if len(b) < width {
			return 0, mcerr.NewArgError("decode: need %d bytes, got %d", width, len(b))
		}
		switch f {
		case U8:
			return int64(b[0]), nil
		case I8:
			return int64(int8(b[0])), nil
		case U16:
			return int64(binary.LittleEndian.Uint16(b)), nil
		case I16:
			return int64(int16(binary.LittleEndian.Uint16(b))), nil
		case U32:
			return int64(binary.LittleEndian.Uint32(b)), nil
		case I32:
			return int64(int32(binary.LittleEndian.Uint32(b))), nil
		}
	}

	hexWidth := width * 2
	if len(b) < hexWidth {
		return 0, mcerr.NewArgError("decode: need %d ascii hex digits, got %d", hexWidth, len(b))
	}
	var raw uint64
	if _, err := fmt.Sscanf(string(b[:hexWidth]), "%X", &raw); err != nil {
		return 0, mcerr.NewArgError("decode: invalid hex %q: %v", b[:hexWidth], err)
	}
	if f.signed() {
		return twosComp(raw, f.bits()), nil
	}
	return int64(raw), nil
}

// EncodeSubheader emits the fixed 3E frame subheader: 2 bytes big-endian in
// binary mode, or its hex digits uppercased and left-justified with '0' on
// the right to 4 characters in ascii mode (§4.3/§6).
func EncodeSubheader(subheader uint16, comm proto.CommType) []byte {
	if comm == proto.Binary {
		buf := make([]byte, 2)
		binary.BigEndian.PutUint16(buf, subheader)
		return buf
	}
	text := fmt.Sprintf("%X", subheader)
	for len(text) < 4 {
		text += "0"
	}
	return []byte(text)
}

