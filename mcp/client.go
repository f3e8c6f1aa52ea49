// Package mcp implements the MC protocol 3E-frame session: connection
// management, frame exchange, status checking, and the public read/write/
// control operations layered on top of the wire, devicecode and frame
// packages (§4.4, §4.5). It is a from-scratch generalisation of the
// teacher's client3E: the same "build request string, write it, read one
// response buffer" shape, reworked around the dialect-aware codec
// packages instead of hex.DecodeString over hand-formatted strings.
package mcp

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gomelsec/mc3e/frame"
	"github.com/gomelsec/mc3e/mcerr"
	"github.com/gomelsec/mc3e/proto"
	"github.com/gomelsec/mc3e/wire"
)

// PasswordPrompt is an injected callback for interactively obtaining a
// remote-lock password, lifting the source's input() call out of the
// core (DESIGN NOTES: Password prompt).
type PasswordPrompt func() (string, error)

// Client is a single MC protocol 3E session: one TCP connection to one
// PLC, strictly synchronous (§5).
type Client struct {
	mu sync.Mutex

	transport Transport
	host      string
	port      int

	family proto.PLCFamily
	comm   proto.CommType
	access accessState

	connected bool

	log            *logrus.Logger
	passwordPrompt PasswordPrompt
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithLogger installs lg as the session's logger. Passing nil leaves the
// package default (a logger with output discarded) in place.
func WithLogger(lg *logrus.Logger) Option {
	return func(c *Client) {
		if lg != nil {
			c.log = lg
		}
	}
}

// WithTransport overrides the default TCP transport — used by tests to
// substitute mcptest.Fake.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		if t != nil {
			c.transport = t
		}
	}
}

// WithPasswordPrompt installs the callback RemoteUnlock/RemoteLock use
// when asked to read the password interactively.
func WithPasswordPrompt(p PasswordPrompt) Option {
	return func(c *Client) { c.passwordPrompt = p }
}

func defaultLogger() *logrus.Logger {
	lg := logrus.New()
	lg.SetLevel(logrus.PanicLevel + 1) // silent unless caller opts in via WithLogger
	return lg
}

// New builds a Client for plcFamily ("Q", "L", "QnA", "iQ-L" or "iQ-R"),
// binary comm type, and the documented access-option defaults (§3). It
// does not connect; call Connect.
func New(plcFamily string, opts ...Option) (*Client, error) {
	family, err := proto.ParsePLCFamily(plcFamily)
	if err != nil {
		return nil, &mcerr.PlcTypeError{Cause: err}
	}
	c := &Client{
		transport: newTCPTransport(),
		family:    family,
		comm:      proto.Binary,
		access:    defaultAccessState(),
		log:       defaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect opens the transport to host:port, applies the current socket
// timeout, and marks the session connected (§4.4).
func (c *Client) Connect(ctx context.Context, host string, port int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx, host, port)
}

func (c *Client) connectLocked(ctx context.Context, host string, port int) error {
	if err := c.transport.Connect(ctx, host, port); err != nil {
		return err
	}
	c.host, c.port = host, port
	c.transport.SetReadTimeout(c.access.socTimeout)
	c.connected = true
	c.log.WithFields(logrus.Fields{"host": host, "port": port}).Info("mc3e: connected")
	return nil
}

// Close releases the transport. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return nil
	}
	err := c.transport.Close()
	c.connected = false
	c.log.Info("mc3e: connection closed")
	return err
}

// Connected reports whether the session currently owns a live transport.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// mkCmd encodes the command+subcommand pair every operation body starts
// with (§4.5).
func mkCmd(cmd, subcmd uint16, comm proto.CommType) ([]byte, error) {
	out, err := wire.Encode(int64(cmd), wire.U16, comm)
	if err != nil {
		return nil, err
	}
	sub, err := wire.Encode(int64(subcmd), wire.U16, comm)
	if err != nil {
		return nil, err
	}
	return append(out, sub...), nil
}

// answerStatusIndex / answerDataIndex are the encoding-dependent response
// offsets from §6.
func answerStatusIndex(comm proto.CommType) int {
	if comm == proto.Binary {
		return 9
	}
	return 18
}

func answerDataIndex(comm proto.CommType) int {
	if comm == proto.Binary {
		return 11
	}
	return 22
}

// exchange builds the full frame around body, transmits it, reads one
// response, validates its status, and returns the raw response buffer
// (not just the payload) so callers can index from answerDataIndex
// themselves (§4.4). A *mcerr.TransportError from Send or Recv closes the
// transport and leaves the session disconnected.
func (c *Client) exchange(body []byte) ([]byte, error) {
	if !c.connected {
		return nil, &mcerr.DisconnectedError{}
	}

	h := frame.Header{
		Network:       c.access.network,
		PC:            c.access.pc,
		DestModuleIO:  c.access.destModuleIO,
		DestModuleSta: c.access.destModuleSta,
		Timer:         c.access.timer,
	}
	sendData, err := frame.Build(h, body, c.comm)
	if err != nil {
		return nil, err
	}

	c.log.WithField("frame", hexString(sendData)).Debug("mc3e: send")
	var te *mcerr.TransportError
	if err := c.transport.Send(sendData); err != nil {
		if errors.As(err, &te) {
			_ = c.transport.Close()
			c.connected = false
		}
		return nil, err
	}

	recv, err := c.transport.Recv()
	if err != nil {
		if errors.As(err, &te) {
			_ = c.transport.Close()
			c.connected = false
		}
		return nil, err
	}
	c.log.WithField("frame", hexString(recv)).Debug("mc3e: recv")

	if err := c.checkStatus(recv); err != nil {
		c.log.WithError(err).Warn("mc3e: PLC returned an error status")
		return nil, err
	}
	return recv, nil
}

func (c *Client) checkStatus(recv []byte) error {
	idx := answerStatusIndex(c.comm)
	wordsize := c.comm.WordSize()
	if len(recv) < idx+wordsize {
		return mcerr.NewArgError("response too short to contain a status field")
	}
	status, err := wire.Decode(recv[idx:idx+wordsize], wire.U16, c.comm)
	if err != nil {
		return err
	}
	return mcerr.CheckStatus(uint16(status))
}

func hexString(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0F]
	}
	return string(out)
}
