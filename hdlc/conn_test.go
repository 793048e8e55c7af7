package hdlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConnection(t *testing.T) *Connection {
	t.Helper()

	client, server := testAddresses(t)

	return NewConnection(client, server)
}

func TestConnection_Send(t *testing.T) {
	conn := testConnection(t)

	data, err := conn.Send(&SNRMFrame{Dest: conn.ServerAddress(), Src: conn.ClientAddress()})
	require.NoError(t, err)
	assert.Equal(t, FlagByte, data[0])
	assert.Equal(t, FlagByte, data[len(data)-1])
	assert.Equal(t, AwaitingConnectionState, conn.State().State())
}

func TestConnection_SendRejected(t *testing.T) {
	conn := testConnection(t)

	// UA is not a frame the client may send from NotConnectedState.
	_, err := conn.Send(&UAFrame{Dest: conn.ServerAddress(), Src: conn.ClientAddress()})
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, NotConnectedState, conn.State().State())
}

func TestConnection_NextEvent(t *testing.T) {
	conn := testConnection(t)

	_, err := conn.Send(&SNRMFrame{Dest: conn.ServerAddress(), Src: conn.ClientAddress()})
	require.NoError(t, err)

	ua, err := (&UAFrame{Dest: conn.ClientAddress(), Src: conn.ServerAddress()}).Bytes()
	require.NoError(t, err)

	conn.ReceiveData(ua)

	frame, err := conn.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, FrameTypeUA, frame.Type())
	assert.Equal(t, IdleState, conn.State().State())
}

func TestConnection_NextEvent_NeedData(t *testing.T) {
	conn := testConnection(t)
	conn.State().state = AwaitingConnectionState

	ua, err := (&UAFrame{Dest: conn.ClientAddress(), Src: conn.ServerAddress()}).Bytes()
	require.NoError(t, err)

	// Empty buffer.
	_, err = conn.NextEvent()
	require.ErrorIs(t, err, ErrNeedData)

	// Feed the frame one byte at a time; only the last byte completes it.
	for _, b := range ua[:len(ua)-1] {
		conn.ReceiveData([]byte{b})

		_, err = conn.NextEvent()
		require.ErrorIs(t, err, ErrNeedData)
	}

	conn.ReceiveData(ua[len(ua)-1:])

	frame, err := conn.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, FrameTypeUA, frame.Type())
}

func TestConnection_NextEvent_SkipsNoise(t *testing.T) {
	conn := testConnection(t)
	conn.State().state = AwaitingConnectionState

	ua, err := (&UAFrame{Dest: conn.ClientAddress(), Src: conn.ServerAddress()}).Bytes()
	require.NoError(t, err)

	// Line noise before the opening flag, and idle flag fill in front of the
	// frame, must both be skipped.
	conn.ReceiveData([]byte{0x00, 0xFF, 0x42, FlagByte, FlagByte})
	conn.ReceiveData(ua)

	frame, err := conn.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, FrameTypeUA, frame.Type())
}

func TestConnection_NextEvent_AdjacentFrames(t *testing.T) {
	conn := testConnection(t)
	conn.State().state = AwaitingResponseState

	seg, err := NewInformationFrame(conn.ClientAddress(), conn.ServerAddress(), 0, 0, false, true, []byte{0x01})
	require.NoError(t, err)

	segBytes, err := seg.Bytes()
	require.NoError(t, err)

	final, err := NewInformationFrame(conn.ClientAddress(), conn.ServerAddress(), 0, 0, false, false, []byte{0x02})
	require.NoError(t, err)

	finalBytes, err := final.Bytes()
	require.NoError(t, err)

	// Back-to-back frames sharing one flag byte between them.
	conn.ReceiveData(append(segBytes, finalBytes[1:]...))

	frame, err := conn.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, FrameTypeSegmentedInfoResponse, frame.Type())
	assert.Equal(t, ShouldSendReadyToReceiveState, conn.State().State())

	rr, err := NewReceiveReadyFrame(conn.ServerAddress(), conn.ClientAddress(), conn.State().ClientRSN())
	require.NoError(t, err)

	_, err = conn.Send(rr)
	require.NoError(t, err)

	frame, err = conn.NextEvent()
	require.NoError(t, err)
	assert.Equal(t, FrameTypeInformation, frame.Type())
	assert.Equal(t, IdleState, conn.State().State())
	assert.Equal(t, []byte{0x02}, frame.(*InformationFrame).Payload)
}

func TestConnection_NextEvent_SetsResponseFlag(t *testing.T) {
	conn := testConnection(t)
	conn.State().state = AwaitingResponseState

	info, err := NewInformationFrame(conn.ClientAddress(), conn.ServerAddress(), 0, 0, false, false, []byte{0x01})
	require.NoError(t, err)

	data, err := info.Bytes()
	require.NoError(t, err)

	conn.ReceiveData(data)

	frame, err := conn.NextEvent()
	require.NoError(t, err)

	// Parsed off the wire the frame carries no direction; the connection
	// marks it as a response because it came from the server's address.
	parsed, ok := frame.(*InformationFrame)
	require.True(t, ok)
	assert.True(t, parsed.ResponseFrame)
	assert.Equal(t, IdleState, conn.State().State())
}

func TestConnection_NextEvent_StateRejection(t *testing.T) {
	conn := testConnection(t)

	// A UA arriving in NotConnectedState parses fine but the state machine
	// rejects it.
	ua, err := (&UAFrame{Dest: conn.ClientAddress(), Src: conn.ServerAddress()}).Bytes()
	require.NoError(t, err)

	conn.ReceiveData(ua)

	_, err = conn.NextEvent()
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, NotConnectedState, conn.State().State())
}

func TestConnection_NextEvent_CorruptFrame(t *testing.T) {
	conn := testConnection(t)
	conn.State().state = AwaitingConnectionState

	ua, err := (&UAFrame{Dest: conn.ClientAddress(), Src: conn.ServerAddress()}).Bytes()
	require.NoError(t, err)

	corrupt := make([]byte, len(ua))
	copy(corrupt, ua)
	corrupt[len(corrupt)-2] ^= 0xFF

	conn.ReceiveData(corrupt)

	_, err = conn.NextEvent()
	require.ErrorIs(t, err, ErrFCSMismatch)
}
