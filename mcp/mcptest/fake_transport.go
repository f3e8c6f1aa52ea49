// Package mcptest provides an in-memory mcp.Transport for exercising the
// mcp package's session and operation logic without a real PLC or socket
// (mirrors the request/response-queue shape a fake transport needs to
// stand in for CaptainPineapple-go-mcprotocol's raw net.TCPConn).
package mcptest

import (
	"context"
	"time"

	"github.com/gomelsec/mc3e/mcerr"
)

// Exchange is one request/response pair the Fake transport expects to see,
// in order.
type Exchange struct {
	WantSend []byte
	Reply    []byte
	// RecvErr, if set, is returned from Recv instead of Reply — used to
	// simulate a PLC that drops the connection before answering (remote
	// reset recovery).
	RecvErr error
}

// Fake is a scripted Transport: each Send is checked (if WantSend is
// non-nil) against the next queued Exchange, and the matching Reply or
// RecvErr is returned from the following Recv.
type Fake struct {
	Exchanges []Exchange
	Connects  int
	Closes    int

	pos     int
	pending []byte
	timeout time.Duration

	// ConnectErr, when set, is returned by every Connect call.
	ConnectErr error
}

func (f *Fake) Connect(_ context.Context, _ string, _ int) error {
	f.Connects++
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	return nil
}

func (f *Fake) SetReadTimeout(d time.Duration) { f.timeout = d }

func (f *Fake) Send(data []byte) error {
	if f.pos >= len(f.Exchanges) {
		return mcerr.NewArgError("mcptest: unexpected send, no exchange queued: % X", data)
	}
	ex := f.Exchanges[f.pos]
	if ex.WantSend != nil {
		if string(ex.WantSend) != string(data) {
			return mcerr.NewArgError("mcptest: send mismatch at exchange %d:\n want % X\n got  % X", f.pos, ex.WantSend, data)
		}
	}
	f.pending = data
	return nil
}

func (f *Fake) Recv() ([]byte, error) {
	if f.pos >= len(f.Exchanges) {
		return nil, mcerr.NewArgError("mcptest: unexpected recv, no exchange queued")
	}
	ex := f.Exchanges[f.pos]
	f.pos++
	f.pending = nil
	if ex.RecvErr != nil {
		return nil, ex.RecvErr
	}
	return ex.Reply, nil
}

func (f *Fake) Close() error {
	f.Closes++
	return nil
}
