package hdlc

import "errors"

var (
	// ErrSequenceMismatch is returned when an information frame carries a send or
	// receive sequence number that does not match the connection's counters.
	// The connection must be torn down and re-established after this error.
	ErrSequenceMismatch = errors.New("hdlc: sequence number mismatch")

	// ErrInvalidTransition is returned when a frame is processed that has no
	// transition from the current connection state.
	// The connection must be torn down and re-established after this error.
	ErrInvalidTransition = errors.New("hdlc: invalid state transition")
)

var (
	// ErrInvalidSequenceNumber indicates a sequence number outside the
	// modulo-8 range [0, 7].
	ErrInvalidSequenceNumber = errors.New("hdlc: invalid sequence number, should be in range of [0, 7]")

	// ErrInvalidAddress indicates an address that cannot be encoded or decoded
	// with the HDLC extension-bit scheme.
	ErrInvalidAddress = errors.New("hdlc: invalid address")

	// ErrInvalidFrameFormat indicates a malformed frame: bad format field,
	// length mismatch, or truncated content.
	ErrInvalidFrameFormat = errors.New("hdlc: invalid frame format")

	// ErrFrameTooLong indicates a frame that exceeds the 11-bit length field.
	ErrFrameTooLong = errors.New("hdlc: frame exceeds maximum length")

	// ErrFCSMismatch indicates a frame check sequence verification failure.
	ErrFCSMismatch = errors.New("hdlc: frame check sequence mismatch")

	// ErrHCSMismatch indicates a header check sequence verification failure.
	ErrHCSMismatch = errors.New("hdlc: header check sequence mismatch")

	// ErrUnknownFrameType indicates a control byte outside the supported
	// frame catalogue (SNRM, UA, DISC, RR, I).
	ErrUnknownFrameType = errors.New("hdlc: unknown frame type")

	// ErrNeedData is returned by Connection.NextEvent when the receive buffer
	// does not yet hold a complete frame.
	ErrNeedData = errors.New("hdlc: need more data")
)
