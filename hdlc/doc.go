// Package hdlc implements the client side of the HDLC data link layer used
// by DLMS/COSEM metering devices (IEC 62056-46).
//
// The package is sans-I/O: it covers frame encoding and decoding, HDLC
// addressing, the FCS/HCS check sequences, and the connection state machine,
// but performs no reads or writes itself. The serial package drives it over
// an actual byte stream.
//
// # Protocol Overview
//
// The link is half-duplex and client-driven. The client sets up a connection
// with an SNRM frame, which the server (meter) accepts with a UA frame. Data
// is exchanged with numbered information frames carrying modulo-8 send and
// receive sequence numbers; both ends track four counters (client and server
// send/receive) and every information frame is cross-checked against them,
// so a lost or duplicated frame is detected before any counter advances.
// Responses too large for one frame arrive as segmented information frames,
// each acknowledged by the client with an RR frame. A DISC/UA exchange tears
// the connection down.
//
// # Connection state machine
//
// ConnStateMachine is the authority on what the link may do next: every
// frame, sent or received, passes through ProcessFrame, which validates
// sequence numbers for information frames and consults a fixed transition
// table. Both failure modes (ErrSequenceMismatch, ErrInvalidTransition) are
// fatal to the connection; the caller discards the machine and renegotiates.
//
// # Wire format
//
// Frames use HDLC frame format type 3:
//
//	[0x7E][Format(2)][Dest addr][Src addr][Control][HCS(2)][Info][FCS(2)][0x7E]
//
// The format field carries the frame length and the segmentation bit; the
// HCS and info field are present only on frames with a payload. Check
// sequences are the 16-bit FCS of ISO/IEC 13239 (CRC-16/X.25).
package hdlc
