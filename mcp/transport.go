package mcp

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/gomelsec/mc3e/mcerr"
)

// sockBufSize is the receive buffer size. The protocol guarantees each
// response fits in one read (§4.4 exchange).
const sockBufSize = 4096

// Transport is the byte-stream socket abstraction the session is built
// on (§1(b): "the TCP socket — treated as a byte-stream transport with
// configurable read timeout"). Production code uses tcpTransport; tests
// substitute mcptest.Fake.
type Transport interface {
	Connect(ctx context.Context, host string, port int) error
	SetReadTimeout(d time.Duration)
	Send(data []byte) error
	Recv() ([]byte, error)
	Close() error
}

// tcpTransport is the default Transport, backed by a single *net.TCPConn.
type tcpTransport struct {
	conn    net.Conn
	timeout time.Duration
}

func newTCPTransport() *tcpTransport {
	return &tcpTransport{timeout: 2 * time.Second}
}

func (t *tcpTransport) Connect(ctx context.Context, host string, port int) error {
	dialer := net.Dialer{Timeout: t.timeout}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return mcerr.NewTransportError(err)
	}
	t.conn = conn
	return nil
}

func (t *tcpTransport) SetReadTimeout(d time.Duration) {
	t.timeout = d
	if t.conn != nil {
		_ = t.conn.SetReadDeadline(time.Now().Add(d))
	}
}

func (t *tcpTransport) Send(data []byte) error {
	if t.conn == nil {
		return &mcerr.DisconnectedError{}
	}
	_, err := t.conn.Write(data)
	return mcerr.NewTransportError(err)
}

func (t *tcpTransport) Recv() ([]byte, error) {
	if t.conn == nil {
		return nil, &mcerr.DisconnectedError{}
	}
	_ = t.conn.SetReadDeadline(time.Now().Add(t.timeout))
	buf := make([]byte, sockBufSize)
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, &mcerr.TimeoutError{Cause: err}
		}
		return nil, mcerr.NewTransportError(err)
	}
	return buf[:n], nil
}

func (t *tcpTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return mcerr.NewTransportError(err)
}
