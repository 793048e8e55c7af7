package hdlc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFCS16_CheckValue(t *testing.T) {
	// Standard CRC-16/X.25 check value.
	assert.Equal(t, uint16(0x906E), FCS16([]byte("123456789")))
}

func TestFCS16_Empty(t *testing.T) {
	// FCS of no data is the inverted initial value.
	assert.Equal(t, uint16(0x0000), FCS16(nil))
}

func TestValidFCS_Residue(t *testing.T) {
	data := []byte{0xA0, 0x07, 0x03, 0x03, 0x93}
	fcs := FCS16(data)

	// Appending the FCS in wire order (low byte first) yields the fixed residue.
	wire := binary.LittleEndian.AppendUint16(data, fcs)
	assert.True(t, validFCS(wire))

	// Any corruption breaks the residue.
	wire[0] ^= 0x01
	assert.False(t, validFCS(wire))
}
