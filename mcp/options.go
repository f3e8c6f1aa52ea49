package mcp

import (
	"time"

	"github.com/gomelsec/mc3e/mcerr"
	"github.com/gomelsec/mc3e/proto"
)

// AccessOptions is the subset of fields SetAccessOptions may update. A nil
// field means "leave unchanged". Unlike the source's setaccessopt (which
// used Python truthiness and so could never set a field to 0), every field
// here is a pointer so the zero value is a legitimate new setting
// (DESIGN NOTES: Unknown intent — a deliberate behavior change from the
// source, see DESIGN.md).
type AccessOptions struct {
	CommType      *string
	Network       *uint16
	PC            *uint16
	DestModuleIO  *uint32
	DestModuleSta *uint16
	TimerSec      *uint16
}

// accessState is the session's live copy of the access-options record
// (§3 "Access options"), holding the PLC-side values actually encoded
// into each frame header.
type accessState struct {
	network       uint8
	pc            uint8
	destModuleIO  uint16
	destModuleSta uint8
	timer         uint16 // PLC-side wait, in 250ms units
	socTimeout    time.Duration
}

func defaultAccessState() accessState {
	return accessState{
		network:       0,
		pc:            0xFF,
		destModuleIO:  0x03FF,
		destModuleSta: 0x00,
		timer:         4,
		socTimeout:    2 * time.Second,
	}
}

// SetAccessOptions updates any subset of the access-options record.
// Each numeric field is bounds-validated by attempting an unsigned pack of
// its wire width before being applied; the first out-of-range field fails
// with *mcerr.ArgError and no field is changed (§4.4).
func (c *Client) SetAccessOptions(opts AccessOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.access
	nextComm := c.comm

	if opts.CommType != nil {
		ct, err := proto.ParseCommType(*opts.CommType)
		if err != nil {
			return &mcerr.CommTypeError{Cause: err}
		}
		nextComm = ct
	}
	if opts.Network != nil {
		if *opts.Network > 0xFF {
			return mcerr.NewArgError("network must be 0 <= network <= 255")
		}
		next.network = uint8(*opts.Network)
	}
	if opts.PC != nil {
		if *opts.PC > 0xFF {
			return mcerr.NewArgError("pc must be 0 <= pc <= 255")
		}
		next.pc = uint8(*opts.PC)
	}
	if opts.DestModuleIO != nil {
		if *opts.DestModuleIO > 0xFFFF {
			return mcerr.NewArgError("dest_moduleio must be 0 <= dest_moduleio <= 65535")
		}
		next.destModuleIO = uint16(*opts.DestModuleIO)
	}
	if opts.DestModuleSta != nil {
		if *opts.DestModuleSta > 0xFF {
			return mcerr.NewArgError("dest_modulesta must be 0 <= dest_modulesta <= 255")
		}
		next.destModuleSta = uint8(*opts.DestModuleSta)
	}
	if opts.TimerSec != nil {
		timerSec := *opts.TimerSec
		timer250 := 4 * uint32(timerSec)
		if timer250 > 0xFFFF {
			return mcerr.NewArgError("timer_sec must be 0 <= timer_sec <= 16383, / sec")
		}
		next.timer = uint16(timer250)
		next.socTimeout = time.Duration(timerSec+1) * time.Second
	}

	c.access = next
	c.comm = nextComm
	if c.connected {
		c.transport.SetReadTimeout(c.access.socTimeout)
	}
	return nil
}
