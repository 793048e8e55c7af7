package hdlc

import "fmt"

// ConnState represents the stages of an HDLC connection between the client
// and the server (meter).
type ConnState uint8

// HDLC connection states.
const (
	// NotConnectedState indicates a session exists but no HDLC connection has
	// been negotiated with the server yet. An SNRM frame starts negotiation.
	NotConnectedState ConnState = iota
	// AwaitingConnectionState indicates an SNRM has been sent and the client
	// is waiting for the server's UA.
	AwaitingConnectionState
	// IdleState indicates the connection is established and no data exchange
	// is in progress.
	IdleState
	// AwaitingResponseState indicates a request has been sent and the client
	// is waiting for the server's reply.
	AwaitingResponseState
	// ShouldSendReadyToReceiveState indicates the server's reply is segmented
	// and the client must send an RR frame to receive the next segment.
	ShouldSendReadyToReceiveState
	// AwaitingDisconnectState indicates a DISC has been sent and the client
	// is waiting for the server's UA.
	AwaitingDisconnectState
	// ClosedState is a terminal state reserved for future use; no transition
	// reaches it.
	ClosedState
	// NeedDataState is reserved for future use; no transition reaches it.
	NeedDataState
)

// String returns the string representation of the connection state.
func (cs ConnState) String() string {
	switch cs {
	case NotConnectedState:
		return "not-connected"
	case AwaitingConnectionState:
		return "awaiting-connection"
	case IdleState:
		return "idle"
	case AwaitingResponseState:
		return "awaiting-response"
	case ShouldSendReadyToReceiveState:
		return "should-send-ready-to-receive"
	case AwaitingDisconnectState:
		return "awaiting-disconnect"
	case ClosedState:
		return "closed"
	case NeedDataState:
		return "need-data"
	default:
		return "unknown"
	}
}

// IsNotConnected returns if the state is the not-connected state.
func (cs ConnState) IsNotConnected() bool { return cs == NotConnectedState }

// IsIdle returns if the state is the idle state.
func (cs ConnState) IsIdle() bool { return cs == IdleState }

// IsReceiveState returns if the state is one in which the client waits for a
// frame from the server before it may send again.
func (cs ConnState) IsReceiveState() bool {
	return cs == AwaitingConnectionState || cs == AwaitingResponseState || cs == AwaitingDisconnectState
}

// IsSendState returns if the state is one in which the client holds the right
// to send the next frame.
func (cs ConnState) IsSendState() bool {
	return cs == NotConnectedState || cs == IdleState || cs == ShouldSendReadyToReceiveState
}

// stateTransitions is the authoritative protocol graph: for each state, the
// frame types that may be processed and the state each one leads to. Any
// (state, frame type) pair absent from the table is an invalid transition;
// there is no default.
var stateTransitions = map[ConnState]map[FrameType]ConnState{
	NotConnectedState: {
		FrameTypeSNRM: AwaitingConnectionState,
	},
	AwaitingConnectionState: {
		FrameTypeUA: IdleState,
	},
	IdleState: {
		FrameTypeInformation:          AwaitingResponseState,
		FrameTypeSegmentedInfoRequest: AwaitingResponseState,
		FrameTypeDisconnect:           AwaitingDisconnectState,
	},
	AwaitingResponseState: {
		FrameTypeInformation:           IdleState,
		FrameTypeSegmentedInfoResponse: ShouldSendReadyToReceiveState,
	},
	ShouldSendReadyToReceiveState: {
		FrameTypeReceiveReady: AwaitingResponseState,
	},
	AwaitingDisconnectState: {
		FrameTypeUA: NotConnectedState,
	},
}

// NextState looks up the transition table for the state reached by processing
// a frame of type ft in state cur. It returns false when no transition exists.
func NextState(cur ConnState, ft FrameType) (ConnState, bool) {
	next, ok := stateTransitions[cur][ft]

	return next, ok
}

// nextSeqNumber increments a modulo-8 sequence number, wrapping 7 to 0.
func nextSeqNumber(n uint8) uint8 {
	if n >= MaxSequenceNumber {
		return 0
	}

	return n + 1
}

// StateChangeHandler is a function type invoked after every successful state
// transition with the previous and new states.
//
// Handlers are observation-only: they run synchronously and must not attempt
// to influence the connection. Long-running handlers delay frame processing.
type StateChangeHandler func(prevState, newState ConnState)

// ConnStateMachine tracks the state of an HDLC connection and the four
// modulo-8 sequence counters, for the client side of the link.
//
// Every frame the client sends or receives is passed to ProcessFrame, which
// validates it against the current state and either commits the transition
// or rejects the frame. A rejected frame is fatal to the connection: the
// caller must discard the machine and renegotiate from NotConnectedState
// with a fresh instance.
//
// This type is NOT goroutine-safe. One instance is bound to one connection
// and must be driven from a single goroutine at a time.
type ConnStateMachine struct {
	state ConnState

	clientSSN uint8
	clientRSN uint8
	serverSSN uint8
	serverRSN uint8

	handlers []StateChangeHandler
}

// NewConnStateMachine creates a ConnStateMachine in NotConnectedState with
// all sequence counters at zero.
//
// It accepts optional StateChangeHandler functions that will be invoked on
// every successful state transition.
func NewConnStateMachine(handlers ...StateChangeHandler) *ConnStateMachine {
	return &ConnStateMachine{
		state:    NotConnectedState,
		handlers: handlers,
	}
}

// State returns the current connection state.
func (m *ConnStateMachine) State() ConnState { return m.state }

// ClientSSN returns the client send sequence number.
func (m *ConnStateMachine) ClientSSN() uint8 { return m.clientSSN }

// ClientRSN returns the client receive sequence number.
func (m *ConnStateMachine) ClientRSN() uint8 { return m.clientRSN }

// ServerSSN returns the server send sequence number.
func (m *ConnStateMachine) ServerSSN() uint8 { return m.serverSSN }

// ServerRSN returns the server receive sequence number.
func (m *ConnStateMachine) ServerRSN() uint8 { return m.serverRSN }

// AddHandler adds one or more StateChangeHandler functions to be invoked on
// state transitions.
func (m *ConnStateMachine) AddHandler(handlers ...StateChangeHandler) {
	m.handlers = append(m.handlers, handlers...)
}

// ProcessFrame validates a frame against the current connection state and
// commits the resulting transition. It is the sole mutation path of the
// machine.
//
// Information frames (the plain, unsegmented kind) have their sequence
// numbers validated against the connection counters before the transition
// table is consulted; on success the matching counter pair advances. All
// other frame kinds go straight to the table lookup.
//
// A sequence mismatch returns an error wrapping ErrSequenceMismatch with the
// machine untouched. A missing table entry returns an error wrapping
// ErrInvalidTransition with the state untouched; note that for an
// information frame that passed validation the counters have already
// advanced at that point — validation strictly precedes the lookup and is
// not rolled back.
func (m *ConnStateMachine) ProcessFrame(frame Frame) error {
	if info, ok := frame.(*InformationFrame); ok && !info.Segmented {
		if err := m.validateInformationFrame(info); err != nil {
			return err
		}
	}

	next, ok := NextState(m.state, frame.Type())
	if !ok {
		return fmt.Errorf("%w: cannot handle %s frame in %s state", ErrInvalidTransition, frame.Type(), m.state)
	}

	prev := m.state
	m.state = next

	for _, handler := range m.handlers {
		if handler != nil {
			handler(prev, next)
		}
	}

	return nil
}

// validateInformationFrame cross-checks an information frame's sequence
// numbers against the connection counters and advances the matching pair.
//
// A response frame must carry the client's own counters: the server is
// echoing back how many frames it has seen from us and sent to us. A request
// frame is accounted against the server pair. Either way both ends must
// agree on the exchange counts before any counter advances.
func (m *ConnStateMachine) validateInformationFrame(frame *InformationFrame) error {
	if frame.ResponseFrame {
		if frame.SendSequenceNumber != m.clientSSN {
			return fmt.Errorf("%w: client send sequence number: frame carries %d, connection expects %d",
				ErrSequenceMismatch, frame.SendSequenceNumber, m.clientSSN)
		}
		if frame.ReceiveSequenceNumber != m.clientRSN {
			return fmt.Errorf("%w: client receive sequence number: frame carries %d, connection expects %d",
				ErrSequenceMismatch, frame.ReceiveSequenceNumber, m.clientRSN)
		}

		m.serverRSN = nextSeqNumber(m.serverRSN)
		m.clientSSN = nextSeqNumber(m.clientSSN)

		return nil
	}

	if frame.SendSequenceNumber != m.serverSSN {
		return fmt.Errorf("%w: server send sequence number: frame carries %d, connection expects %d",
			ErrSequenceMismatch, frame.SendSequenceNumber, m.serverSSN)
	}
	if frame.ReceiveSequenceNumber != m.serverRSN {
		return fmt.Errorf("%w: server receive sequence number: frame carries %d, connection expects %d",
			ErrSequenceMismatch, frame.ReceiveSequenceNumber, m.serverRSN)
	}

	m.serverSSN = nextSeqNumber(m.serverSSN)
	m.clientRSN = nextSeqNumber(m.clientRSN)

	return nil
}
