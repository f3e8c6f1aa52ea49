package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomelsec/mc3e/proto"
)

func TestBuildBinaryLengthInvariant(t *testing.T) {
	h := Header{Network: 0, PC: 0xFF, DestModuleIO: 0x03FF, DestModuleSta: 0, Timer: 4}
	body := []byte{0x01, 0x04, 0x00, 0x00, 0xA8, 0x00, 0x10, 0x00, 0x01, 0x00}

	out, err := Build(h, body, proto.Binary)
	require.NoError(t, err)

	// subheader(2) + network(1) + pc(1) + destIO(2) + destSta(1) + length(2) + timer(2) + body
	wantLen := 2 + 1 + 1 + 2 + 1 + 2 + 2 + len(body)
	assert.Len(t, out, wantLen)

	lengthField := out[7:9]
	gotLength := int(lengthField[0]) | int(lengthField[1])<<8
	assert.Equal(t, proto.Binary.WordSize()+len(body), gotLength)
}

func TestBuildASCIISubheader(t *testing.T) {
	h := Header{Network: 0, PC: 0xFF, DestModuleIO: 0x03FF, DestModuleSta: 0, Timer: 4}
	out, err := Build(h, []byte("0401000000A8001000100001"), proto.ASCII)
	require.NoError(t, err)
	assert.Equal(t, "5000", string(out[:4]))
}
