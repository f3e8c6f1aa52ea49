package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomelsec/mc3e/mcp/mcptest"
)

// statusOKHeader is a plausible zeroed 9-byte response header (subheader,
// network, pc, destIO, destModuleSta, length) followed by a zero status
// word — every operations test below only cares about the status and data
// past it, not the echoed routing fields.
func statusOKHeader() []byte {
	return []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0x00, 0x00}
}

func TestBatchReadWordUnits(t *testing.T) {
	reply := append(statusOKHeader(), 0x64, 0x00, 0xFB, 0xFF) // 100, -5
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: reply}}}
	c := newTestClient(t, fake)

	values, err := c.BatchReadWordUnits("D100", 2)
	require.NoError(t, err)
	assert.Equal(t, []int16{100, -5}, values)
}

func TestBatchReadBitUnits(t *testing.T) {
	// bits [1,0,1] packed two per byte, high nibble first: byte0 = 0x10 (bit0=1,bit1=0), byte1 = 0x10 (bit2=1)
	reply := append(statusOKHeader(), 0x10, 0x10)
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: reply}}}
	c := newTestClient(t, fake)

	values, err := c.BatchReadBitUnits("M0", 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, values)
}

func TestBatchWriteWordUnits(t *testing.T) {
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: statusOKHeader()}}}
	c := newTestClient(t, fake)

	err := c.BatchWriteWordUnits("D100", []int16{1, -1, 300})
	require.NoError(t, err)
}

func TestBatchWriteBitUnitsRejectsNonBinaryValue(t *testing.T) {
	fake := &mcptest.Fake{}
	c := newTestClient(t, fake)

	err := c.BatchWriteBitUnits("M0", []int{0, 1, 2})
	assert.Error(t, err)
}

func TestBatchWriteBitUnitsPacksBits(t *testing.T) {
	// M0, [1,0,1,1,0]: even index -> bit 4, odd index -> bit 0, packed two bits per byte.
	wantSend := []byte{
		0x50, 0x00, 0x00, 0xff, 0xff, 0x03, 0x00, 0x0f, 0x00, 0x04, 0x00,
		0x01, 0x14, 0x01, 0x00, 0x00, 0x00, 0x00, 0x90, 0x05, 0x00,
		0x10, 0x11, 0x00,
	}
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{WantSend: wantSend, Reply: statusOKHeader()}}}
	c := newTestClient(t, fake)

	err := c.BatchWriteBitUnits("M0", []int{1, 0, 1, 1, 0})
	require.NoError(t, err)
}

func TestRandomReadAndWrite(t *testing.T) {
	writeFake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: statusOKHeader()}}}
	c := newTestClient(t, writeFake)
	err := c.RandomWrite([]string{"D100"}, []int16{42}, []string{"D200"}, []int32{100000})
	require.NoError(t, err)

	readReply := append(statusOKHeader(),
		0x2A, 0x00, // word D100 = 42
		0xA0, 0x86, 0x01, 0x00, // dword D200 = 100000
	)
	readFake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: readReply}}}
	c2 := newTestClient(t, readFake)
	words, dwords, err := c2.RandomRead([]string{"D100"}, []string{"D200"})
	require.NoError(t, err)
	assert.Equal(t, []int16{42}, words)
	assert.Equal(t, []int32{100000}, dwords)
}

func TestRandomWriteBitsRejectsMismatchedLengths(t *testing.T) {
	c := newTestClient(t, &mcptest.Fake{})
	err := c.RandomWriteBits([]string{"M0", "M1"}, []int{1})
	assert.Error(t, err)
}

func TestRemoteRunStopPause(t *testing.T) {
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{
		{Reply: statusOKHeader()},
		{Reply: statusOKHeader()},
		{Reply: statusOKHeader()},
	}}
	c := newTestClient(t, fake)

	require.NoError(t, c.RemoteRun(0, false))
	require.NoError(t, c.RemoteStop())
	require.NoError(t, c.RemotePause(true))
}

func TestRemoteRunRejectsBadClearMode(t *testing.T) {
	c := newTestClient(t, &mcptest.Fake{})
	assert.Error(t, c.RemoteRun(3, false))
}

func TestRemoteRunForceExecWithClearMode(t *testing.T) {
	wantSend := []byte{
		0x50, 0x00, 0x00, 0xff, 0xff, 0x03, 0x00, 0x0a, 0x00, 0x04, 0x00,
		0x01, 0x10, 0x00, 0x00, 0x03, 0x00, 0x01, 0x00,
	}
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{WantSend: wantSend, Reply: statusOKHeader()}}}
	c := newTestClient(t, fake)

	require.NoError(t, c.RemoteRun(1, true))
}

func TestReadCPUType(t *testing.T) {
	name := "Q06UDV          " // 16 bytes, trailing spaces
	reply := append(append(statusOKHeader(), []byte(name)...), 0x06, 0x00)
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: reply}}}
	c := newTestClient(t, fake)

	got, code, err := c.ReadCPUType()
	require.NoError(t, err)
	assert.Equal(t, "Q06UDV", got)
	assert.Equal(t, "0006", code)
}

func TestEchoTest(t *testing.T) {
	reply := append(statusOKHeader(), 0x02, 0x00)
	reply = append(reply, []byte("hi")...)
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: reply}}}
	c := newTestClient(t, fake)

	echoed, err := c.EchoTest("hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", echoed)
}

func TestEchoTestRejectsNonAlphanumeric(t *testing.T) {
	c := newTestClient(t, &mcptest.Fake{})
	_, err := c.EchoTest("hi there!")
	assert.Error(t, err)
}

func TestEchoTestReturnsMismatchedEcho(t *testing.T) {
	reply := append(statusOKHeader(), 0x02, 0x00)
	reply = append(reply, []byte("no")...)
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: reply}}}
	c := newTestClient(t, fake)

	echoed, err := c.EchoTest("hi")
	require.NoError(t, err)
	assert.Equal(t, "no", echoed)
}

func TestHealthCheck(t *testing.T) {
	reply := append(statusOKHeader(), 0x05, 0x00)
	reply = append(reply, []byte("ABCDE")...)
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: reply}}}
	c := newTestClient(t, fake)

	require.NoError(t, c.HealthCheck())
}

func TestRemoteLockRequiresPasswordOrPrompt(t *testing.T) {
	c := newTestClient(t, &mcptest.Fake{})
	err := c.RemoteLock("")
	assert.Error(t, err)
}

func TestRemoteLockUsesPasswordPrompt(t *testing.T) {
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{{Reply: statusOKHeader()}}}
	c, err := New("Q", WithTransport(fake), WithPasswordPrompt(func() (string, error) { return "1234", nil }))
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background(), "10.0.0.1", 5007))

	require.NoError(t, c.RemoteLock(""))
}

func TestRemoteLockRejectsBadPasswordLength(t *testing.T) {
	c := newTestClient(t, &mcptest.Fake{})
	assert.Error(t, c.RemoteLock("1"))
}

func TestRemoteResetReconnectsOnDroppedSocket(t *testing.T) {
	fake := &mcptest.Fake{Exchanges: []mcptest.Exchange{
		{RecvErr: errors.New("connection reset by peer")},
	}}
	c := newTestClient(t, fake)
	assert.Equal(t, 1, fake.Connects)

	noSleep := func(_ time.Duration) {}
	err := c.RemoteReset(context.Background(), noSleep)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Connects)
	assert.True(t, c.Connected())
}
