package hdlc

import (
	"encoding/binary"
	"fmt"
)

// FlagByte delimits HDLC frames on the wire.
const FlagByte byte = 0x7E

// Frame format field layout (HDLC frame format type 3).
const (
	// frameFormatType is the fixed type subfield in the top four bits of
	// the format field.
	frameFormatType = 0xA

	// segmentationBit marks a frame carrying one segment of a larger message.
	segmentationBit = 0x0800

	// maxFrameLength is the largest value of the 11-bit length subfield.
	maxFrameLength = 0x07FF

	formatSize = 2
	hcsSize    = 2
	fcsSize    = 2

	// minFrameLength is format + one-byte dest + one-byte src + control + FCS.
	minFrameLength = formatSize + 1 + 1 + 1 + fcsSize
)

// Control byte values. pfBit is the poll bit on command frames and the final
// bit on response frames; the client sets it on every frame it sends.
const (
	controlSNRM byte = 0x83
	controlUA   byte = 0x63
	controlDISC byte = 0x43

	pfBit byte = 0x10
)

// MaxSequenceNumber is the largest modulo-8 send/receive sequence number.
const MaxSequenceNumber = 7

// FrameType identifies one variant of the closed set of frame kinds the
// link exchanges.
type FrameType uint8

const (
	// FrameTypeSNRM is the Set Normal Response Mode connection request.
	FrameTypeSNRM FrameType = iota
	// FrameTypeUA is the Unnumbered Acknowledgment sent by the server to
	// accept a connection or disconnection request.
	FrameTypeUA
	// FrameTypeInformation is a numbered data frame.
	FrameTypeInformation
	// FrameTypeSegmentedInfoRequest is a data frame carrying one segment of a
	// larger request.
	FrameTypeSegmentedInfoRequest
	// FrameTypeSegmentedInfoResponse is a data frame carrying one segment of
	// a larger response.
	FrameTypeSegmentedInfoResponse
	// FrameTypeDisconnect is the disconnection request.
	FrameTypeDisconnect
	// FrameTypeReceiveReady acknowledges a segment and asks the server to
	// send the next one.
	FrameTypeReceiveReady
)

// String returns the string representation of the frame type.
func (ft FrameType) String() string {
	switch ft {
	case FrameTypeSNRM:
		return "SNRM"
	case FrameTypeUA:
		return "UA"
	case FrameTypeInformation:
		return "I"
	case FrameTypeSegmentedInfoRequest:
		return "segmented-I-request"
	case FrameTypeSegmentedInfoResponse:
		return "segmented-I-response"
	case FrameTypeDisconnect:
		return "DISC"
	case FrameTypeReceiveReady:
		return "RR"
	default:
		return "unknown"
	}
}

// Frame is one discrete unit of link traffic.
type Frame interface {
	// Type returns the frame's variant in the frame catalogue.
	Type() FrameType
	// Bytes returns the full wire encoding of the frame, including the
	// opening and closing flag bytes.
	Bytes() ([]byte, error)
}

// SNRMFrame requests a new connection (Set Normal Response Mode).
// Payload optionally carries connection parameter negotiation data.
type SNRMFrame struct {
	Dest    Address
	Src     Address
	Payload []byte
}

func (f *SNRMFrame) Type() FrameType { return FrameTypeSNRM }

func (f *SNRMFrame) Bytes() ([]byte, error) {
	return encodeFrame(f.Dest, f.Src, controlSNRM|pfBit, false, f.Payload)
}

// UAFrame acknowledges a connection or disconnection request.
// Payload optionally carries the negotiated connection parameters.
type UAFrame struct {
	Dest    Address
	Src     Address
	Payload []byte
}

func (f *UAFrame) Type() FrameType { return FrameTypeUA }

func (f *UAFrame) Bytes() ([]byte, error) {
	return encodeFrame(f.Dest, f.Src, controlUA|pfBit, false, f.Payload)
}

// DisconnectFrame requests disconnection.
type DisconnectFrame struct {
	Dest Address
	Src  Address
}

func (f *DisconnectFrame) Type() FrameType { return FrameTypeDisconnect }

func (f *DisconnectFrame) Bytes() ([]byte, error) {
	return encodeFrame(f.Dest, f.Src, controlDISC|pfBit, false, nil)
}

// ReceiveReadyFrame acknowledges received frames up to ReceiveSequenceNumber
// and signals readiness for the next segment of a segmented response.
type ReceiveReadyFrame struct {
	Dest                  Address
	Src                   Address
	ReceiveSequenceNumber uint8
}

// NewReceiveReadyFrame creates a ReceiveReadyFrame, validating the sequence number.
func NewReceiveReadyFrame(dest, src Address, rsn uint8) (*ReceiveReadyFrame, error) {
	if rsn > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: receive sequence number %d", ErrInvalidSequenceNumber, rsn)
	}

	return &ReceiveReadyFrame{Dest: dest, Src: src, ReceiveSequenceNumber: rsn}, nil
}

func (f *ReceiveReadyFrame) Type() FrameType { return FrameTypeReceiveReady }

func (f *ReceiveReadyFrame) Bytes() ([]byte, error) {
	if f.ReceiveSequenceNumber > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: receive sequence number %d", ErrInvalidSequenceNumber, f.ReceiveSequenceNumber)
	}

	control := f.ReceiveSequenceNumber<<5 | pfBit | 0x01

	return encodeFrame(f.Dest, f.Src, control, false, nil)
}

// InformationFrame is a numbered data frame carrying application bytes.
//
// ResponseFrame is true when the frame is a reply to an earlier request
// rather than a request. Segmented marks the frame as one segment of a
// larger message; segmented frames form their own frame types and are
// exempt from sequence validation.
type InformationFrame struct {
	Dest    Address
	Src     Address
	Payload []byte

	SendSequenceNumber    uint8
	ReceiveSequenceNumber uint8
	ResponseFrame         bool
	Segmented             bool
}

// NewInformationFrame creates an InformationFrame, validating the sequence numbers.
func NewInformationFrame(dest, src Address, ssn, rsn uint8, responseFrame, segmented bool, payload []byte) (*InformationFrame, error) {
	if ssn > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: send sequence number %d", ErrInvalidSequenceNumber, ssn)
	}
	if rsn > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: receive sequence number %d", ErrInvalidSequenceNumber, rsn)
	}

	return &InformationFrame{
		Dest:                  dest,
		Src:                   src,
		Payload:               payload,
		SendSequenceNumber:    ssn,
		ReceiveSequenceNumber: rsn,
		ResponseFrame:         responseFrame,
		Segmented:             segmented,
	}, nil
}

func (f *InformationFrame) Type() FrameType {
	if f.Segmented {
		if f.ResponseFrame {
			return FrameTypeSegmentedInfoResponse
		}

		return FrameTypeSegmentedInfoRequest
	}

	return FrameTypeInformation
}

func (f *InformationFrame) Bytes() ([]byte, error) {
	if f.SendSequenceNumber > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: send sequence number %d", ErrInvalidSequenceNumber, f.SendSequenceNumber)
	}
	if f.ReceiveSequenceNumber > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: receive sequence number %d", ErrInvalidSequenceNumber, f.ReceiveSequenceNumber)
	}

	control := f.ReceiveSequenceNumber<<5 | pfBit | f.SendSequenceNumber<<1

	return encodeFrame(f.Dest, f.Src, control, f.Segmented, f.Payload)
}

// encodeFrame assembles the wire format of a frame:
//
//	[Flag][Format(2)][Dest][Src][Control][HCS(2)][Info][FCS(2)][Flag]
//
// The HCS and info field are present only when payload is non-empty. The
// length subfield of the format field counts every byte between the flags.
func encodeFrame(dest, src Address, control byte, segmented bool, payload []byte) ([]byte, error) {
	destBytes, err := dest.Encode()
	if err != nil {
		return nil, fmt.Errorf("destination %w", err)
	}

	srcBytes, err := src.Encode()
	if err != nil {
		return nil, fmt.Errorf("source %w", err)
	}

	length := formatSize + len(destBytes) + len(srcBytes) + 1 + fcsSize
	if len(payload) > 0 {
		length += hcsSize + len(payload)
	}

	if length > maxFrameLength {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrFrameTooLong, length, maxFrameLength)
	}

	format := uint16(frameFormatType)<<12 | uint16(length) //nolint:gosec // bounded by maxFrameLength
	if segmented {
		format |= segmentationBit
	}

	content := make([]byte, 0, length)
	content = binary.BigEndian.AppendUint16(content, format)
	content = append(content, destBytes...)
	content = append(content, srcBytes...)
	content = append(content, control)

	if len(payload) > 0 {
		content = binary.LittleEndian.AppendUint16(content, FCS16(content))
		content = append(content, payload...)
	}

	content = binary.LittleEndian.AppendUint16(content, FCS16(content))

	out := make([]byte, 0, length+2)
	out = append(out, FlagByte)
	out = append(out, content...)
	out = append(out, FlagByte)

	return out, nil
}

// ParseFrame decodes a single frame. data may include the opening and
// closing flag bytes; everything between them must be exactly one frame.
//
// ParseFrame validates the format field, the length subfield, the HCS (when
// an info field is present), and the FCS, then classifies the control byte
// into the frame catalogue. Information frames are returned with
// ResponseFrame unset; the Connection sets it from the frame direction.
func ParseFrame(data []byte) (Frame, error) {
	if len(data) > 0 && data[0] == FlagByte {
		data = data[1:]
	}
	if len(data) > 0 && data[len(data)-1] == FlagByte {
		data = data[:len(data)-1]
	}

	if len(data) < minFrameLength {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum frame size %d", ErrInvalidFrameFormat, len(data), minFrameLength)
	}

	format := binary.BigEndian.Uint16(data[0:formatSize])
	if format>>12 != frameFormatType {
		return nil, fmt.Errorf("%w: format type %#X, want %#X", ErrInvalidFrameFormat, format>>12, frameFormatType)
	}

	segmented := format&segmentationBit != 0

	length := int(format & maxFrameLength)
	if length != len(data) {
		return nil, fmt.Errorf("%w: length field %d does not match %d content bytes", ErrInvalidFrameFormat, length, len(data))
	}

	if !validFCS(data) {
		wire := binary.LittleEndian.Uint16(data[len(data)-fcsSize:])

		return nil, fmt.Errorf("%w: wire=%#04X, computed=%#04X", ErrFCSMismatch, wire, FCS16(data[:len(data)-fcsSize]))
	}

	pos := formatSize

	dest, n, err := decodeAddress(data[pos : len(data)-fcsSize])
	if err != nil {
		return nil, fmt.Errorf("destination %w", err)
	}
	pos += n

	src, n, err := decodeAddress(data[pos : len(data)-fcsSize])
	if err != nil {
		return nil, fmt.Errorf("source %w", err)
	}
	pos += n

	if pos >= len(data)-fcsSize {
		return nil, fmt.Errorf("%w: missing control byte", ErrInvalidFrameFormat)
	}

	control := data[pos]
	pos++

	var payload []byte

	if pos < len(data)-fcsSize {
		// An info field is present, preceded by the HCS over the header bytes.
		if pos+hcsSize > len(data)-fcsSize {
			return nil, fmt.Errorf("%w: truncated header check sequence", ErrInvalidFrameFormat)
		}

		wireHCS := binary.LittleEndian.Uint16(data[pos : pos+hcsSize])
		if calc := FCS16(data[:pos]); calc != wireHCS {
			return nil, fmt.Errorf("%w: wire=%#04X, computed=%#04X", ErrHCSMismatch, wireHCS, calc)
		}

		info := data[pos+hcsSize : len(data)-fcsSize]
		payload = make([]byte, len(info))
		copy(payload, info)
	}

	return classifyFrame(dest, src, control, segmented, payload)
}

// classifyFrame maps a control byte onto a concrete frame type.
func classifyFrame(dest, src Address, control byte, segmented bool, payload []byte) (Frame, error) {
	switch {
	case control&0x01 == 0: // I-frame
		return &InformationFrame{
			Dest:                  dest,
			Src:                   src,
			Payload:               payload,
			SendSequenceNumber:    control >> 1 & 0x07,
			ReceiveSequenceNumber: control >> 5 & 0x07,
			Segmented:             segmented,
		}, nil

	case control&0x03 == 0x01: // S-frame
		if control&0x0C != 0 {
			// RNR, REJ and SREJ are not part of the supported catalogue.
			return nil, fmt.Errorf("%w: supervisory control byte %#02X", ErrUnknownFrameType, control)
		}

		return &ReceiveReadyFrame{
			Dest:                  dest,
			Src:                   src,
			ReceiveSequenceNumber: control >> 5 & 0x07,
		}, nil

	default: // U-frame
		switch control &^ pfBit {
		case controlSNRM:
			return &SNRMFrame{Dest: dest, Src: src, Payload: payload}, nil
		case controlUA:
			return &UAFrame{Dest: dest, Src: src, Payload: payload}, nil
		case controlDISC:
			return &DisconnectFrame{Dest: dest, Src: src}, nil
		default:
			return nil, fmt.Errorf("%w: unnumbered control byte %#02X", ErrUnknownFrameType, control)
		}
	}
}
