// Package frame composes the 3E frame header described in §4.3/§6 around
// an already-built command body, sizing the length field to the on-wire
// size of timer||body.
package frame

import (
	"github.com/gomelsec/mc3e/proto"
	"github.com/gomelsec/mc3e/wire"
)

const subheader3E uint16 = 0x5000

// Header carries the routing fields every 3E request frame needs beyond
// the subheader and body (§3 "Access options").
type Header struct {
	Network       uint8
	PC            uint8
	DestModuleIO  uint16
	DestModuleSta uint8
	Timer         uint16
}

// Build assembles the full wire-ready request frame for comm, wrapping
// body (an already-encoded command+subcommand+payload) with the fixed 3E
// header. The length field equals wordsize + len(body) counted in on-wire
// bytes (§3 Frame invariant).
func Build(h Header, body []byte, comm proto.CommType) ([]byte, error) {
	out := wire.EncodeSubheader(subheader3E, comm)

	network, err := wire.Encode(int64(h.Network), wire.U8, comm)
	if err != nil {
		return nil, err
	}
	pc, err := wire.Encode(int64(h.PC), wire.U8, comm)
	if err != nil {
		return nil, err
	}
	destIO, err := wire.Encode(int64(h.DestModuleIO), wire.U16, comm)
	if err != nil {
		return nil, err
	}
	destSta, err := wire.Encode(int64(h.DestModuleSta), wire.U8, comm)
	if err != nil {
		return nil, err
	}

	bodyOnWireLen := len(body)
	length := comm.WordSize() + bodyOnWireLen
	lengthField, err := wire.Encode(int64(length), wire.U16, comm)
	if err != nil {
		return nil, err
	}
	timer, err := wire.Encode(int64(h.Timer), wire.U16, comm)
	if err != nil {
		return nil, err
	}

	out = append(out, network...)
	out = append(out, pc...)
	out = append(out, destIO...)
	out = append(out, destSta...)
	out = append(out, lengthField...)
	out = append(out, timer...)
	out = append(out, body...)
	return out, nil
}
