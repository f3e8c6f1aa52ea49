package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomelsec/mc3e/mcerr"
	"github.com/gomelsec/mc3e/mcp/mcptest"
)

func newTestClient(t *testing.T, fake *mcptest.Fake) *Client {
	t.Helper()
	c, err := New("Q", WithTransport(fake))
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background(), "10.0.0.1", 5007))
	return c
}

func TestNewUnknownFamily(t *testing.T) {
	_, err := New("ZZ")
	assert.Error(t, err)
	var plcErr *mcerr.PlcTypeError
	assert.ErrorAs(t, err, &plcErr)
}

func TestConnectAndClose(t *testing.T) {
	fake := &mcptest.Fake{}
	c := newTestClient(t, fake)
	assert.True(t, c.Connected())
	assert.Equal(t, 1, fake.Connects)

	require.NoError(t, c.Close())
	assert.False(t, c.Connected())
	assert.Equal(t, 1, fake.Closes)

	// Close is idempotent.
	require.NoError(t, c.Close())
	assert.Equal(t, 1, fake.Closes)
}

func TestExchangeRejectsWhenDisconnected(t *testing.T) {
	c, err := New("Q", WithTransport(&mcptest.Fake{}))
	require.NoError(t, err)

	_, err = c.exchange([]byte{0x01, 0x04, 0x00, 0x00})
	var disconnected *mcerr.DisconnectedError
	assert.ErrorAs(t, err, &disconnected)
}

func TestExchangeSurfacesProtocolError(t *testing.T) {
	fake := &mcptest.Fake{
		Exchanges: []mcptest.Exchange{
			{Reply: []byte{
				0xD0, 0x00, // subheader echoed back
				0x00, 0xFF, 0x03, 0x00, // network/pc/destIO
				0x00,       // destModuleSta
				0x02, 0x00, // length
				0x50, 0xC0, // status = 0xC050
			}},
		},
	}
	c := newTestClient(t, fake)

	_, err := c.exchange([]byte{0x01, 0x04, 0x00, 0x00})
	require.Error(t, err)
	pe, ok := mcerr.IsProtocolError(err)
	require.True(t, ok)
	assert.Equal(t, uint16(0xC050), pe.Code)
}
