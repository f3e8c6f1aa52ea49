package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/gomelsec/mc3e/devicecode"
	"github.com/gomelsec/mc3e/frame"
	"github.com/gomelsec/mc3e/mcerr"
	"github.com/gomelsec/mc3e/proto"
	"github.com/gomelsec/mc3e/wire"
)

const (
	cmdBatchReadWrite  uint16 = 0x0401
	cmdBatchWrite      uint16 = 0x1401
	cmdRandomReadWrite uint16 = 0x0403
	cmdRandomWrite     uint16 = 0x1402
	cmdRemoteRun       uint16 = 0x1001
	cmdRemoteStop      uint16 = 0x1002
	cmdRemotePause     uint16 = 0x1003
	cmdRemoteLatch     uint16 = 0x1005
	cmdRemoteReset     uint16 = 0x1006
	cmdReadCPUType     uint16 = 0x0101
	cmdRemoteUnlock    uint16 = 0x1630
	cmdRemoteLock      uint16 = 0x1631
	cmdEchoTest        uint16 = 0x0619
)

func (c *Client) dev(device string) ([]byte, error) {
	return devicecode.Encode(device, c.family, c.comm)
}

// BatchReadWordUnits reads readSize consecutive 16-bit words starting at
// headDevice (§4.5 "Batch read word units").
func (c *Client) BatchReadWordUnits(headDevice string, readSize int) ([]int16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdBatchReadWrite, dialect.WordSubcmd, c.comm)
	if err != nil {
		return nil, err
	}
	devBytes, err := c.dev(headDevice)
	if err != nil {
		return nil, err
	}
	sizeBytes, err := wire.Encode(int64(readSize), wire.U16, c.comm)
	if err != nil {
		return nil, err
	}
	req = append(req, devBytes...)
	req = append(req, sizeBytes...)

	recv, err := c.exchange(req)
	if err != nil {
		return nil, err
	}

	idx := answerDataIndex(c.comm)
	wordsize := c.comm.WordSize()
	values := make([]int16, 0, readSize)
	for i := 0; i < readSize; i++ {
		v, err := wire.Decode(recv[idx:idx+wordsize], wire.I16, c.comm)
		if err != nil {
			return nil, err
		}
		values = append(values, int16(v))
		idx += wordsize
	}
	return values, nil
}

// BatchReadBitUnits reads readSize consecutive bit devices starting at
// headDevice, each returned as 0 or 1 (§4.5 "Batch read bit units").
func (c *Client) BatchReadBitUnits(headDevice string, readSize int) ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdBatchReadWrite, dialect.BitSubcmd, c.comm)
	if err != nil {
		return nil, err
	}
	devBytes, err := c.dev(headDevice)
	if err != nil {
		return nil, err
	}
	sizeBytes, err := wire.Encode(int64(readSize), wire.U16, c.comm)
	if err != nil {
		return nil, err
	}
	req = append(req, devBytes...)
	req = append(req, sizeBytes...)

	recv, err := c.exchange(req)
	if err != nil {
		return nil, err
	}

	idx := answerDataIndex(c.comm)
	values := make([]int, 0, readSize)
	if c.comm == proto.Binary {
		for i := 0; i < readSize; i++ {
			b := recv[idx+i/2]
			var bit int
			if i%2 == 0 {
				if b&(1<<4) != 0 {
					bit = 1
				}
			} else {
				if b&(1<<0) != 0 {
					bit = 1
				}
			}
			values = append(values, bit)
		}
	} else {
		for i := 0; i < readSize; i++ {
			ch := recv[idx+i]
			if ch == '1' {
				values = append(values, 1)
			} else {
				values = append(values, 0)
			}
		}
	}
	return values, nil
}

// BatchWriteWordUnits writes values to len(values) consecutive words starting
// at headDevice (§4.5 "Batch write word units").
func (c *Client) BatchWriteWordUnits(headDevice string, values []int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdBatchWrite, dialect.WordSubcmd, c.comm)
	if err != nil {
		return err
	}
	devBytes, err := c.dev(headDevice)
	if err != nil {
		return err
	}
	sizeBytes, err := wire.Encode(int64(len(values)), wire.U16, c.comm)
	if err != nil {
		return err
	}
	req = append(req, devBytes...)
	req = append(req, sizeBytes...)
	for _, v := range values {
		vb, err := wire.Encode(int64(v), wire.I16, c.comm)
		if err != nil {
			return err
		}
		req = append(req, vb...)
	}

	_, err = c.exchange(req)
	return err
}

// BatchWriteBitUnits writes values (each 0 or 1) to len(values) consecutive
// bit devices starting at headDevice (§4.5 "Batch write bit units").
func (c *Client) BatchWriteBitUnits(headDevice string, values []int) error {
	for _, v := range values {
		if v != 0 && v != 1 {
			return mcerr.NewArgError("each value must be 0 or 1, got %d", v)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdBatchWrite, dialect.BitSubcmd, c.comm)
	if err != nil {
		return err
	}
	devBytes, err := c.dev(headDevice)
	if err != nil {
		return err
	}
	sizeBytes, err := wire.Encode(int64(len(values)), wire.U16, c.comm)
	if err != nil {
		return err
	}
	req = append(req, devBytes...)
	req = append(req, sizeBytes...)

	if c.comm == proto.Binary {
		packed := make([]byte, (len(values)+1)/2)
		for i, v := range values {
			bitIndex := 4
			if i%2 != 0 {
				bitIndex = 0
			}
			packed[i/2] |= byte(v << uint(bitIndex))
		}
		req = append(req, packed...)
	} else {
		for _, v := range values {
			if v == 1 {
				req = append(req, '1')
			} else {
				req = append(req, '0')
			}
		}
	}

	_, err = c.exchange(req)
	return err
}

// randomRead is the shared body of RandomRead and RandomReadBytes
// (§4.5 "Random read").
func (c *Client) randomRead(wordDevices, dwordDevices []string) ([]byte, int, error) {
	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdRandomReadWrite, dialect.WordSubcmd, c.comm)
	if err != nil {
		return nil, 0, err
	}
	wc, err := wire.Encode(int64(len(wordDevices)), wire.U8, c.comm)
	if err != nil {
		return nil, 0, err
	}
	dc, err := wire.Encode(int64(len(dwordDevices)), wire.U8, c.comm)
	if err != nil {
		return nil, 0, err
	}
	req = append(req, wc...)
	req = append(req, dc...)
	for _, d := range wordDevices {
		db, err := c.dev(d)
		if err != nil {
			return nil, 0, err
		}
		req = append(req, db...)
	}
	for _, d := range dwordDevices {
		db, err := c.dev(d)
		if err != nil {
			return nil, 0, err
		}
		req = append(req, db...)
	}

	recv, err := c.exchange(req)
	if err != nil {
		return nil, 0, err
	}
	return recv, answerDataIndex(c.comm), nil
}

// RandomRead reads wordDevices as signed 16-bit words and dwordDevices as
// signed 32-bit double-words, in one request.
func (c *Client) RandomRead(wordDevices, dwordDevices []string) ([]int16, []int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recv, idx, err := c.randomRead(wordDevices, dwordDevices)
	if err != nil {
		return nil, nil, err
	}
	wordsize := c.comm.WordSize()

	words := make([]int16, 0, len(wordDevices))
	for range wordDevices {
		v, err := wire.Decode(recv[idx:idx+wordsize], wire.I16, c.comm)
		if err != nil {
			return nil, nil, err
		}
		words = append(words, int16(v))
		idx += wordsize
	}
	dwords := make([]int32, 0, len(dwordDevices))
	for range dwordDevices {
		v, err := wire.Decode(recv[idx:idx+wordsize*2], wire.I32, c.comm)
		if err != nil {
			return nil, nil, err
		}
		dwords = append(dwords, int32(v))
		idx += wordsize * 2
	}
	return words, dwords, nil
}

// RandomReadBytes is the companion variant of RandomRead that returns the
// raw on-wire byte slices instead of decoded integers.
func (c *Client) RandomReadBytes(wordDevices, dwordDevices []string) ([][]byte, [][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recv, idx, err := c.randomRead(wordDevices, dwordDevices)
	if err != nil {
		return nil, nil, err
	}
	wordsize := c.comm.WordSize()

	words := make([][]byte, 0, len(wordDevices))
	for range wordDevices {
		words = append(words, append([]byte(nil), recv[idx:idx+wordsize]...))
		idx += wordsize
	}
	dwords := make([][]byte, 0, len(dwordDevices))
	for range dwordDevices {
		dwords = append(dwords, append([]byte(nil), recv[idx:idx+wordsize*2]...))
		idx += wordsize * 2
	}
	return words, dwords, nil
}

// RandomWrite writes wordValues to wordDevices and dwordValues to
// dwordDevices in one request (§4.5 "Random write").
func (c *Client) RandomWrite(wordDevices []string, wordValues []int16, dwordDevices []string, dwordValues []int32) error {
	if len(wordDevices) != len(wordValues) {
		return mcerr.NewArgError("word_devices and word_values must be same length")
	}
	if len(dwordDevices) != len(dwordValues) {
		return mcerr.NewArgError("dword_devices and dword_values must be same length")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdRandomWrite, dialect.WordSubcmd, c.comm)
	if err != nil {
		return err
	}
	wc, err := wire.Encode(int64(len(wordDevices)), wire.U8, c.comm)
	if err != nil {
		return err
	}
	dc, err := wire.Encode(int64(len(dwordDevices)), wire.U8, c.comm)
	if err != nil {
		return err
	}
	req = append(req, wc...)
	req = append(req, dc...)
	for i, d := range wordDevices {
		db, err := c.dev(d)
		if err != nil {
			return err
		}
		vb, err := wire.Encode(int64(wordValues[i]), wire.I16, c.comm)
		if err != nil {
			return err
		}
		req = append(req, db...)
		req = append(req, vb...)
	}
	for i, d := range dwordDevices {
		db, err := c.dev(d)
		if err != nil {
			return err
		}
		vb, err := wire.Encode(int64(dwordValues[i]), wire.I32, c.comm)
		if err != nil {
			return err
		}
		req = append(req, db...)
		req = append(req, vb...)
	}

	_, err = c.exchange(req)
	return err
}

// RandomWriteBits writes values (each 0 or 1) to bitDevices in one request
// (§4.5 "Random write bits").
func (c *Client) RandomWriteBits(bitDevices []string, values []int) error {
	if len(bitDevices) != len(values) {
		return mcerr.NewArgError("bit_devices and values must be same length")
	}
	for _, v := range values {
		if v != 0 && v != 1 {
			return mcerr.NewArgError("each value must be 0 or 1, got %d", v)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dialect := proto.DialectFor(c.family)
	req, err := mkCmd(cmdRandomWrite, dialect.BitSubcmd, c.comm)
	if err != nil {
		return err
	}
	wc, err := wire.Encode(int64(len(values)), wire.U8, c.comm)
	if err != nil {
		return err
	}
	req = append(req, wc...)

	valueFormat := wire.I8
	if c.family == proto.IQR {
		valueFormat = wire.I16
	}
	for i, d := range bitDevices {
		db, err := c.dev(d)
		if err != nil {
			return err
		}
		vb, err := wire.Encode(int64(values[i]), valueFormat, c.comm)
		if err != nil {
			return err
		}
		req = append(req, db...)
		req = append(req, vb...)
	}

	_, err = c.exchange(req)
	return err
}

// runModeFor computes the mode value shared by RemoteRun and RemotePause:
// 0x0003 when forceExec else 0x0001.
func runModeFor(forceExec bool) uint16 {
	if forceExec {
		return 0x0003
	}
	return 0x0001
}

// RemoteRun starts the PLC. clearMode must be 0 (no clear), 1 (clear
// except latch devices) or 2 (clear all); forceExec overrides a remote
// operation lock held by another device (§4.5 "Remote run").
func (c *Client) RemoteRun(clearMode int, forceExec bool) error {
	if clearMode != 0 && clearMode != 1 && clearMode != 2 {
		return mcerr.NewArgError("clear_mode must be 0, 1 or 2")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := mkCmd(cmdRemoteRun, 0x0000, c.comm)
	if err != nil {
		return err
	}
	mode, err := wire.Encode(int64(runModeFor(forceExec)), wire.U16, c.comm)
	if err != nil {
		return err
	}
	cm, err := wire.Encode(int64(clearMode), wire.U8, c.comm)
	if err != nil {
		return err
	}
	pad, err := wire.Encode(0, wire.U8, c.comm)
	if err != nil {
		return err
	}
	req = append(req, mode...)
	req = append(req, cm...)
	req = append(req, pad...)

	_, err = c.exchange(req)
	return err
}

// RemoteStop stops the PLC (§4.5 "Remote stop").
func (c *Client) RemoteStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fixedBody(cmdRemoteStop, 0x0001)
}

// RemotePause pauses the PLC; forceExec overrides a remote lock held by
// another device (§4.5 "Remote pause").
func (c *Client) RemotePause(forceExec bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := mkCmd(cmdRemotePause, 0x0000, c.comm)
	if err != nil {
		return err
	}
	mode, err := wire.Encode(int64(runModeFor(forceExec)), wire.U16, c.comm)
	if err != nil {
		return err
	}
	req = append(req, mode...)

	_, err = c.exchange(req)
	return err
}

// RemoteLatchClear clears latch devices; the PLC must already be stopped
// (caller's responsibility, §4.5 "Remote latch-clear").
func (c *Client) RemoteLatchClear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fixedBody(cmdRemoteLatch, 0x0001)
}

// fixedBody sends cmd/subcmd 0x0000 with a single fixed u16 payload word,
// the shape shared by RemoteStop and RemoteLatchClear.
func (c *Client) fixedBody(cmd uint16, fixed uint16) error {
	req, err := mkCmd(cmd, 0x0000, c.comm)
	if err != nil {
		return err
	}
	payload, err := wire.Encode(int64(fixed), wire.U16, c.comm)
	if err != nil {
		return err
	}
	req = append(req, payload...)
	_, err = c.exchange(req)
	return err
}

// RemoteReset resets the PLC. The PLC is free to tear down the socket
// before a response ever arrives: the client narrows the read timeout to
// 1s for this one exchange, and on any transport failure marks the
// session disconnected, sleeps 1s, and reconnects to the last-known
// host/port (§4.5 "Remote reset", §8 scenario f). sleep defaults to
// time.Sleep(time.Second) when nil, letting tests substitute a no-op.
func (c *Client) RemoteReset(ctx context.Context, sleep func(time.Duration)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return &mcerr.DisconnectedError{}
	}
	if sleep == nil {
		sleep = time.Sleep
	}

	req, err := mkCmd(cmdRemoteReset, 0x0000, c.comm)
	if err != nil {
		return err
	}
	payload, err := wire.Encode(0x0001, wire.U16, c.comm)
	if err != nil {
		return err
	}
	req = append(req, payload...)

	h := frame.Header{
		Network:       c.access.network,
		PC:            c.access.pc,
		DestModuleIO:  c.access.destModuleIO,
		DestModuleSta: c.access.destModuleSta,
		Timer:         c.access.timer,
	}
	sendData, err := frame.Build(h, req, c.comm)
	if err != nil {
		return err
	}
	if err := c.transport.Send(sendData); err != nil {
		return err
	}

	c.transport.SetReadTimeout(1 * time.Second)
	recv, recvErr := c.transport.Recv()
	if recvErr != nil {
		c.connected = false
		c.log.WithError(recvErr).Warn("mc3e: remote reset dropped the connection, reconnecting")
		sleep(1 * time.Second)
		return c.connectLocked(ctx, c.host, c.port)
	}

	c.transport.SetReadTimeout(c.access.socTimeout)
	return c.checkStatus(recv)
}

// ReadCPUType reads the PLC CPU model name and code (§4.5 "Read CPU
// type"). The response carries a 16-byte model name (returned with
// trailing spaces trimmed) followed by the CPU code: in binary mode a
// 2-byte little-endian value rendered as a 4-digit lowercase-hex string,
// in ascii mode a 4-byte ascii string taken verbatim.
func (c *Client) ReadCPUType() (name string, code string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := mkCmd(cmdReadCPUType, 0x0000, c.comm)
	if err != nil {
		return "", "", err
	}

	recv, err := c.exchange(req)
	if err != nil {
		return "", "", err
	}

	idx := answerDataIndex(c.comm)
	const nameWireLen = 16
	name = string(recv[idx : idx+nameWireLen])
	for len(name) > 0 && name[len(name)-1] == ' ' {
		name = name[:len(name)-1]
	}

	codeIdx := idx + nameWireLen
	if c.comm == proto.ASCII {
		return name, string(recv[codeIdx : codeIdx+4]), nil
	}
	v, err := wire.Decode(recv[codeIdx:codeIdx+2], wire.U16, proto.Binary)
	if err != nil {
		return "", "", err
	}
	return name, fmt.Sprintf("%04x", v), nil
}

// remoteLockUnlock is the shared body of RemoteLock and RemoteUnlock: both
// send cmd/subcmd 0x0000 with the password length as a u16 followed by the
// password bytes, the password being obtained via c.passwordPrompt when
// password is empty and checked against the dialect's length bounds
// (§4.5 "Remote lock"/"Remote unlock").
func (c *Client) remoteLockUnlock(cmd uint16, password string) error {
	dialect := proto.DialectFor(c.family)
	if password == "" {
		if c.passwordPrompt == nil {
			return mcerr.NewArgError("password required and no password prompt configured")
		}
		p, err := c.passwordPrompt()
		if err != nil {
			return err
		}
		password = p
	}
	if len(password) < dialect.PasswordMin || len(password) > dialect.PasswordMax {
		return mcerr.NewArgError("password must be between %d and %d characters", dialect.PasswordMin, dialect.PasswordMax)
	}
	for i := 0; i < len(password); i++ {
		if password[i] > 0x7F {
			return mcerr.NewArgError("password must be ASCII")
		}
	}

	req, err := mkCmd(cmd, 0x0000, c.comm)
	if err != nil {
		return err
	}
	passLen, err := wire.Encode(int64(len(password)), wire.U16, c.comm)
	if err != nil {
		return err
	}
	req = append(req, passLen...)
	req = append(req, []byte(password)...)

	_, err = c.exchange(req)
	return err
}

// RemoteLock re-engages the remote operation lock, optionally releasing
// control others gained via RemoteUnlock (§4.5 "Remote lock"). An empty
// password triggers the injected PasswordPrompt.
func (c *Client) RemoteLock(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteLockUnlock(cmdRemoteLock, password)
}

// RemoteUnlock releases the remote operation lock so other devices may
// issue remote-control commands (§4.5 "Remote unlock"). An empty password
// triggers the injected PasswordPrompt.
func (c *Client) RemoteUnlock(password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remoteLockUnlock(cmdRemoteUnlock, password)
}

// EchoTest round-trips data through the PLC and returns the echoed
// payload; a well-behaved PLC returns data unchanged, but verifying
// that is left to the caller (§4.5 "Echo test", §8 scenario e).
func (c *Client) EchoTest(data string) (string, error) {
	if !isAlnum(data) {
		return "", mcerr.NewArgError("echo data must be only letters or digits")
	}
	if len(data) < 1 || len(data) > 960 {
		return "", mcerr.NewArgError("echo data length must be from 1 to 960, got %d", len(data))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	req, err := mkCmd(cmdEchoTest, 0x0000, c.comm)
	if err != nil {
		return "", err
	}
	dataLen, err := wire.Encode(int64(len(data)), wire.U16, c.comm)
	if err != nil {
		return "", err
	}
	req = append(req, dataLen...)
	req = append(req, []byte(data)...)

	recv, err := c.exchange(req)
	if err != nil {
		return "", err
	}

	idx := answerDataIndex(c.comm)
	wordsize := c.comm.WordSize()
	echoedLen, err := wire.Decode(recv[idx:idx+wordsize], wire.U16, c.comm)
	if err != nil {
		return "", err
	}
	return string(recv[idx+wordsize : idx+wordsize+int(echoedLen)]), nil
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// HealthCheck confirms the session is usable by round-tripping the
// canonical self-test payload through EchoTest and checking it comes
// back unchanged. It is not part of the source protocol; it mirrors the
// teacher client3E's HealthCheck convenience method, rebuilt on top of
// the new EchoTest operation (SPEC_FULL supplemented operations).
func (c *Client) HealthCheck() error {
	const probe = "ABCDE"
	echoed, err := c.EchoTest(probe)
	if err != nil {
		return err
	}
	if echoed != probe {
		return mcerr.NewArgError("health check echo mismatch: sent %q, received %q", probe, echoed)
	}
	return nil
}
