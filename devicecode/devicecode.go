// Package devicecode implements the MC protocol device-address grammar
// (§4.2): splitting a device reference like "D1000" or "X0x1A" into a
// mnemonic and number, looking up the mnemonic's wire code and numeric
// base, and emitting the on-wire device bytes for the active PLC family
// and communication type.
package devicecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gomelsec/mc3e/mcerr"
	"github.com/gomelsec/mc3e/proto"
)

var (
	mnemonicRe = regexp.MustCompile(`^\D+`)
	numberRe   = regexp.MustCompile(`\d.*$`)
)

// entry is one row of the device table: the wire code and the base used
// to parse the device's numeric address from a caller-supplied string.
type entry struct {
	code uint16
	base int
}

// table reproduces the standard MELSEC device set. The same code/base
// pairs are shared by every PLC family (DESIGN NOTES: Open question,
// device table per-family variance) — what differs per family is the
// field width, handled by proto.Dialect, not the code value.
var table = map[string]entry{
	"SM": {0x91, 10},
	"SD": {0xA9, 10},
	"X":  {0x9C, 16},
	"Y":  {0x9D, 16},
	"M":  {0x90, 10},
	"L":  {0x92, 10},
	"F":  {0x93, 10},
	"V":  {0x94, 10},
	"B":  {0xA0, 16},
	"D":  {0xA8, 10},
	"W":  {0xB4, 16},
	"TS": {0xC1, 10},
	"TC": {0xC0, 10},
	"TN": {0xC2, 10},
	"SS": {0xC7, 10},
	"SC": {0xC6, 10},
	"SN": {0xC8, 10},
	"CS": {0xC4, 10},
	"CC": {0xC3, 10},
	"CN": {0xC5, 10},
	"SB": {0xA1, 16},
	"SW": {0xB5, 16},
	"DX": {0xA2, 16},
	"DY": {0xA3, 16},
	"Z":  {0xCC, 10},
	"R":  {0xAF, 10},
	"ZR": {0xB0, 16},
}

// asciiCode returns the ascii-mode device code string for mnemonic: the
// mnemonic itself, unmodified (invariant 5: "for multi-character
// mnemonics the ASCII code length matches the mnemonic").
func asciiCode(mnemonic string) string { return mnemonic }

// Split separates device into its leading mnemonic and trailing number,
// failing *mcerr.DeviceError if either half is empty.
func Split(device string) (mnemonic, number string, err error) {
	mnemonic = mnemonicRe.FindString(device)
	number = numberRe.FindString(device)
	if mnemonic == "" || number == "" {
		return "", "", mcerr.NewDeviceError("invalid device reference %q", device)
	}
	return mnemonic, number, nil
}

func lookup(mnemonic string) (entry, error) {
	e, ok := table[strings.ToUpper(mnemonic)]
	if !ok {
		return entry{}, mcerr.NewDeviceError("unknown device mnemonic %q", mnemonic)
	}
	return e, nil
}

func parseNumber(number string, base int) (uint64, error) {
	n := number
	if strings.HasPrefix(n, "0x") || strings.HasPrefix(n, "0X") {
		n = n[2:]
		base = 16
	}
	v, err := strconv.ParseUint(n, base, 64)
	if err != nil {
		return 0, mcerr.NewDeviceError("invalid device number %q: %v", number, err)
	}
	return v, nil
}

// Encode parses device and emits its on-wire representation for family and
// comm, per §4.2 step 4.
func Encode(device string, family proto.PLCFamily, comm proto.CommType) ([]byte, error) {
	mnemonic, numberStr, err := Split(device)
	if err != nil {
		return nil, err
	}
	e, err := lookup(mnemonic)
	if err != nil {
		return nil, err
	}
	number, err := parseNumber(numberStr, e.base)
	if err != nil {
		return nil, err
	}

	dialect := proto.DialectFor(family)

	if comm == proto.Binary {
		out := make([]byte, 0, dialect.DevNumBytes+dialect.DevCodeBytes)
		numBuf := make([]byte, 8)
		for i := range numBuf {
			numBuf[i] = byte(number >> (8 * uint(i)))
		}
		out = append(out, numBuf[:dialect.DevNumBytes]...)
		codeBuf := make([]byte, 8)
		for i := range codeBuf {
			codeBuf[i] = byte(e.code >> (8 * uint(i)))
		}
		out = append(out, codeBuf[:dialect.DevCodeBytes]...)
		return out, nil
	}

	code := asciiCode(strings.ToUpper(mnemonic))
	numText := fmt.Sprintf("%0*d", dialect.AsciiNumWidth, number)
	return []byte(code + numText), nil
}
