package hdlc

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddresses(t *testing.T) (client, server Address) {
	t.Helper()

	client, err := NewClientAddress(1)
	require.NoError(t, err)

	server, err = NewServerAddress(1)
	require.NoError(t, err)

	return client, server
}

func TestSNRMFrame_Bytes(t *testing.T) {
	client, server := testAddresses(t)

	data, err := (&SNRMFrame{Dest: server, Src: client}).Bytes()
	require.NoError(t, err)

	// Flag, format (type 3, length 7), dest, src, control, FCS, flag.
	require.Len(t, data, 9)
	assert.Equal(t, FlagByte, data[0])
	assert.Equal(t, byte(0xA0), data[1])
	assert.Equal(t, byte(0x07), data[2])
	assert.Equal(t, byte(0x03), data[3])
	assert.Equal(t, byte(0x03), data[4])
	assert.Equal(t, byte(0x93), data[5], "SNRM control byte with poll bit")
	assert.Equal(t, FlagByte, data[8])

	frame, err := ParseFrame(data)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeSNRM, frame.Type())
}

func TestUAFrame_ControlByte(t *testing.T) {
	client, server := testAddresses(t)

	data, err := (&UAFrame{Dest: client, Src: server}).Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x73), data[5], "UA control byte with final bit")
}

func TestDisconnectFrame_ControlByte(t *testing.T) {
	client, server := testAddresses(t)

	data, err := (&DisconnectFrame{Dest: server, Src: client}).Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x53), data[5], "DISC control byte with poll bit")

	frame, err := ParseFrame(data)
	require.NoError(t, err)
	assert.Equal(t, FrameTypeDisconnect, frame.Type())
}

func TestReceiveReadyFrame_RoundTrip(t *testing.T) {
	client, server := testAddresses(t)

	rr, err := NewReceiveReadyFrame(server, client, 1)
	require.NoError(t, err)

	data, err := rr.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0x31), data[5], "RR control byte with N(R)=1 and poll bit")

	frame, err := ParseFrame(data)
	require.NoError(t, err)

	parsed, ok := frame.(*ReceiveReadyFrame)
	require.True(t, ok)
	assert.Equal(t, uint8(1), parsed.ReceiveSequenceNumber)

	_, err = NewReceiveReadyFrame(server, client, 8)
	assert.ErrorIs(t, err, ErrInvalidSequenceNumber)
}

func TestInformationFrame_RoundTrip(t *testing.T) {
	client, server := testAddresses(t)
	payload := []byte{0xE6, 0xE6, 0x00, 0x60, 0x1D, 0xA1, 0x09}

	info, err := NewInformationFrame(server, client, 3, 5, false, false, payload)
	require.NoError(t, err)

	data, err := info.Bytes()
	require.NoError(t, err)

	// control = rsn<<5 | P | ssn<<1 = 0xA0 | 0x10 | 0x06.
	assert.Equal(t, byte(0xB6), data[5])

	frame, err := ParseFrame(data)
	require.NoError(t, err)

	parsed, ok := frame.(*InformationFrame)
	require.True(t, ok)
	assert.Equal(t, uint8(3), parsed.SendSequenceNumber)
	assert.Equal(t, uint8(5), parsed.ReceiveSequenceNumber)
	assert.Equal(t, payload, parsed.Payload)
	assert.False(t, parsed.Segmented)
	assert.Equal(t, FrameTypeInformation, frame.Type())
}

func TestInformationFrame_Segmented(t *testing.T) {
	client, server := testAddresses(t)

	info, err := NewInformationFrame(server, client, 0, 0, false, true, []byte{0x01})
	require.NoError(t, err)

	data, err := info.Bytes()
	require.NoError(t, err)

	// Segmentation bit lives in the format field.
	assert.Equal(t, byte(0xA8), data[1])

	frame, err := ParseFrame(data)
	require.NoError(t, err)

	parsed, ok := frame.(*InformationFrame)
	require.True(t, ok)
	assert.True(t, parsed.Segmented)
	assert.Equal(t, FrameTypeSegmentedInfoRequest, frame.Type())

	parsed.ResponseFrame = true
	assert.Equal(t, FrameTypeSegmentedInfoResponse, frame.Type())
}

func TestInformationFrame_SequenceNumberValidation(t *testing.T) {
	client, server := testAddresses(t)

	_, err := NewInformationFrame(server, client, 8, 0, false, false, nil)
	assert.ErrorIs(t, err, ErrInvalidSequenceNumber)

	_, err = NewInformationFrame(server, client, 0, 8, false, false, nil)
	assert.ErrorIs(t, err, ErrInvalidSequenceNumber)
}

func TestParseFrame_FCSMismatch(t *testing.T) {
	client, server := testAddresses(t)

	data, err := (&SNRMFrame{Dest: server, Src: client}).Bytes()
	require.NoError(t, err)

	// Corrupt one FCS byte.
	data[len(data)-2] ^= 0xFF

	_, err = ParseFrame(data)
	assert.ErrorIs(t, err, ErrFCSMismatch)
}

func TestParseFrame_HCSMismatch(t *testing.T) {
	client, server := testAddresses(t)

	info, err := NewInformationFrame(server, client, 0, 0, false, false, []byte{0x01, 0x02})
	require.NoError(t, err)

	data, err := info.Bytes()
	require.NoError(t, err)

	// Corrupt the HCS, then repair the FCS so only the HCS check fails.
	content := data[1 : len(data)-1]
	content[5] ^= 0xFF
	binary.LittleEndian.PutUint16(content[len(content)-2:], FCS16(content[:len(content)-2]))

	_, err = ParseFrame(data)
	assert.ErrorIs(t, err, ErrHCSMismatch)
}

func TestParseFrame_InvalidFormat(t *testing.T) {
	_, err := ParseFrame([]byte{0x7E, 0xA0, 0x7E})
	assert.ErrorIs(t, err, ErrInvalidFrameFormat)

	// Wrong format type in the top four bits.
	data := []byte{0x50, 0x07, 0x03, 0x03, 0x93, 0x00, 0x00}
	_, err = ParseFrame(data)
	assert.ErrorIs(t, err, ErrInvalidFrameFormat)

	// Length field disagrees with the content size.
	client, server := testAddresses(t)
	encoded, err := (&SNRMFrame{Dest: server, Src: client}).Bytes()
	require.NoError(t, err)

	_, err = ParseFrame(append(encoded[:len(encoded)-1], 0x00, 0x7E))
	assert.ErrorIs(t, err, ErrInvalidFrameFormat)
}

func TestParseFrame_UnknownFrameType(t *testing.T) {
	buildRaw := func(control byte) []byte {
		content := []byte{0xA0, 0x07, 0x03, 0x03, control}
		content = binary.LittleEndian.AppendUint16(content, FCS16(content))

		out := append([]byte{FlagByte}, content...)

		return append(out, FlagByte)
	}

	// DM response (unnumbered, not in the catalogue).
	_, err := ParseFrame(buildRaw(0x1F))
	assert.ErrorIs(t, err, ErrUnknownFrameType)

	// RNR supervisory frame.
	_, err = ParseFrame(buildRaw(0x15))
	assert.ErrorIs(t, err, ErrUnknownFrameType)
}

func TestFrameType_String(t *testing.T) {
	assert.Equal(t, "SNRM", FrameTypeSNRM.String())
	assert.Equal(t, "UA", FrameTypeUA.String())
	assert.Equal(t, "I", FrameTypeInformation.String())
	assert.Equal(t, "segmented-I-request", FrameTypeSegmentedInfoRequest.String())
	assert.Equal(t, "segmented-I-response", FrameTypeSegmentedInfoResponse.String())
	assert.Equal(t, "DISC", FrameTypeDisconnect.String())
	assert.Equal(t, "RR", FrameTypeReceiveReady.String())
	assert.Equal(t, "unknown", FrameType(0xFF).String())
}
