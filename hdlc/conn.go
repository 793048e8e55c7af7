package hdlc

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Connection is the sans-I/O driver for one HDLC link: it combines the frame
// codec with the connection state machine, without performing any I/O.
//
// Outgoing frames pass through Send, which validates them against the state
// machine before encoding. Incoming wire bytes are fed in with ReceiveData
// and consumed as frames with NextEvent. All operations are synchronous and
// never block; the owner of the connection performs the actual reads and
// writes and serializes access.
type Connection struct {
	client Address
	server Address

	state *ConnStateMachine

	recvBuf bytes.Buffer
}

// NewConnection creates a Connection for the given client and server
// addresses, with a fresh state machine in NotConnectedState.
//
// Optional handlers are invoked on every successful state transition.
func NewConnection(client, server Address, handlers ...StateChangeHandler) *Connection {
	return &Connection{
		client: client,
		server: server,
		state:  NewConnStateMachine(handlers...),
	}
}

// State returns the connection's state machine.
func (c *Connection) State() *ConnStateMachine { return c.state }

// ClientAddress returns the client-side address of the link.
func (c *Connection) ClientAddress() Address { return c.client }

// ServerAddress returns the server-side address of the link.
func (c *Connection) ServerAddress() Address { return c.server }

// Send runs an outgoing frame through the state machine and returns its wire
// encoding. A frame the state machine rejects is not encoded and the
// connection state is left unchanged (subject to the counter-advance
// ordering documented on ProcessFrame).
func (c *Connection) Send(frame Frame) ([]byte, error) {
	if err := c.state.ProcessFrame(frame); err != nil {
		return nil, err
	}

	return frame.Bytes()
}

// ReceiveData appends raw bytes read from the wire to the receive buffer.
func (c *Connection) ReceiveData(data []byte) {
	c.recvBuf.Write(data)
}

// NextEvent extracts the next complete frame from the receive buffer, runs
// it through the state machine, and returns it.
//
// It returns ErrNeedData when the buffer does not yet hold a complete frame;
// the caller should read more bytes from the wire, feed them in with
// ReceiveData, and call NextEvent again.
func (c *Connection) NextEvent() (Frame, error) {
	raw, err := c.extractFrame()
	if err != nil {
		return nil, err
	}

	frame, err := ParseFrame(raw)
	if err != nil {
		return nil, err
	}

	// Everything the client receives comes from the server, so information
	// frames from the server's address are replies to the client's requests.
	if info, ok := frame.(*InformationFrame); ok && info.Src == c.server {
		info.ResponseFrame = true
	}

	if err := c.state.ProcessFrame(frame); err != nil {
		return nil, err
	}

	return frame, nil
}

// extractFrame removes and returns the next flag-delimited frame from the
// receive buffer. Frame boundaries are determined by the length subfield of
// the format field, so payload bytes that happen to equal the flag byte do
// not split frames.
//
// Noise bytes before the opening flag are discarded; adjacent frames may
// share a single flag byte, which is left in the buffer to open the next
// frame.
func (c *Connection) extractFrame() ([]byte, error) {
	for {
		buf := c.recvBuf.Bytes()

		start := bytes.IndexByte(buf, FlagByte)
		if start < 0 {
			c.recvBuf.Reset()

			return nil, ErrNeedData
		}
		if start > 0 {
			c.recvBuf.Next(start)
			buf = c.recvBuf.Bytes()
		}

		// Idle line: collapse repeated flags.
		if len(buf) >= 2 && buf[1] == FlagByte {
			c.recvBuf.Next(1)

			continue
		}

		if len(buf) < 1+formatSize {
			return nil, ErrNeedData
		}

		format := binary.BigEndian.Uint16(buf[1 : 1+formatSize])
		if format>>12 != frameFormatType {
			return nil, fmt.Errorf("%w: format type %#X after flag, want %#X", ErrInvalidFrameFormat, format>>12, frameFormatType)
		}

		length := int(format & maxFrameLength)
		if len(buf) < 1+length+1 {
			return nil, ErrNeedData
		}

		if buf[1+length] != FlagByte {
			return nil, fmt.Errorf("%w: missing closing flag after %d content bytes", ErrInvalidFrameFormat, length)
		}

		raw := make([]byte, length)
		copy(raw, buf[1:1+length])

		// Consume the frame but keep the closing flag: adjacent frames may
		// share it as the next opening flag.
		c.recvBuf.Next(1 + length)

		return raw, nil
	}
}
