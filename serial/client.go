package serial

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dlmsio/go-dlms/hdlc"
	"github.com/dlmsio/go-dlms/internal/queue"
	"github.com/dlmsio/go-dlms/logger"
)

const readChunkSize = 256

// Client drives an HDLC connection to a single meter over a TCP byte
// stream. It owns the transport and pumps the sans-I/O hdlc.Connection:
// outgoing frames pass through the send buffer and the state machine before
// hitting the wire, and incoming bytes are fed back until a complete frame
// is available.
//
// All exported methods are safe for concurrent use; the half-duplex link
// admits only one exchange at a time, so calls serialize on an internal
// mutex.
//
// A protocol error (hdlc.ErrSequenceMismatch, hdlc.ErrInvalidTransition) is
// fatal to the connection. After one, the caller must Close the client and
// Connect again to renegotiate from scratch.
type Client struct {
	cfg     *ConnectionConfig
	logger  logger.Logger
	metrics ClientMetrics

	mu      sync.Mutex
	conn    net.Conn
	hconn   *hdlc.Connection
	sendBuf *queue.Queue[hdlc.Frame]

	// dial is swapped out in tests to connect over a pipe.
	dial func(ctx context.Context) (net.Conn, error)
}

// NewClient creates a new HDLC client from the configuration. The client
// starts disconnected; call Connect to negotiate the link.
func NewClient(cfg *ConnectionConfig) *Client {
	c := &Client{
		cfg:    cfg,
		logger: cfg.GetLogger().With("remote", cfg.Addr(), "server", cfg.ServerAddress().String()),
	}
	c.dial = c.dialTCP

	return c
}

// Metrics returns the client metrics.
func (c *Client) Metrics() *ClientMetrics { return &c.metrics }

// IsConnected reports whether the transport is open and the link is
// negotiated.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil
}

// Connect dials the meter and negotiates the HDLC connection with an
// SNRM/UA exchange. On success the link is in the idle state and ready for
// Send.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return ErrAlreadyConnected
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.conn = conn
	c.hconn = hdlc.NewConnection(c.cfg.ClientAddress(), c.cfg.ServerAddress(), c.logStateChange)
	c.sendBuf = queue.New[hdlc.Frame](c.cfg.sendQueueSize)

	c.sendBuf.Enqueue(&hdlc.SNRMFrame{Dest: c.cfg.ServerAddress(), Src: c.cfg.ClientAddress()})
	if err := c.drainSendBuffer(ctx); err != nil {
		c.teardown()

		return fmt.Errorf("connect: %w", err)
	}

	frame, err := c.readFrame(ctx, c.cfg.responseTimeout)
	if err != nil {
		c.teardown()

		return fmt.Errorf("connect: %w", err)
	}

	if frame.Type() != hdlc.FrameTypeUA {
		c.teardown()

		return fmt.Errorf("connect: %w: %s in reply to SNRM", ErrUnexpectedFrame, frame.Type())
	}

	c.metrics.incConnectCount()
	c.logger.Info("hdlc connection established")

	return nil
}

// Disconnect performs the DISC/UA exchange and closes the transport. The
// transport is closed even when the exchange fails; the returned error
// reports what went wrong with the exchange.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}

	defer c.teardown()

	c.sendBuf.Enqueue(&hdlc.DisconnectFrame{Dest: c.cfg.ServerAddress(), Src: c.cfg.ClientAddress()})
	if err := c.drainSendBuffer(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	frame, err := c.readFrame(ctx, c.cfg.closeTimeout)
	if err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}

	if frame.Type() != hdlc.FrameTypeUA {
		return fmt.Errorf("disconnect: %w: %s in reply to DISC", ErrUnexpectedFrame, frame.Type())
	}

	c.logger.Info("hdlc connection released")

	return nil
}

// Close closes the transport immediately, without the DISC/UA exchange.
// It is the way out after a protocol error has poisoned the connection
// state. Close on a disconnected client is a no-op.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil
	c.hconn = nil
	c.sendBuf = nil

	return err
}

// Send transmits one request telegram as an information frame and returns
// the meter's response telegram. Segmented responses are acknowledged
// segment by segment with RR frames and reassembled before returning.
//
// The link must be idle: one exchange completes before the next may start.
func (c *Client) Send(ctx context.Context, telegram []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}

	state := c.hconn.State()
	if !state.State().IsIdle() {
		return nil, fmt.Errorf("%w: cannot send in %s state", hdlc.ErrInvalidTransition, state.State())
	}

	req, err := hdlc.NewInformationFrame(
		c.cfg.ServerAddress(), c.cfg.ClientAddress(),
		state.ClientSSN(), state.ClientRSN(),
		false, false, telegram,
	)
	if err != nil {
		return nil, err
	}

	c.sendBuf.Enqueue(req)
	if err := c.drainSendBuffer(ctx); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	c.metrics.incTelegramSendCount()

	var response []byte

	for {
		frame, err := c.readFrame(ctx, c.cfg.responseTimeout)
		if err != nil {
			return nil, fmt.Errorf("send: %w", err)
		}

		info, ok := frame.(*hdlc.InformationFrame)
		if !ok {
			return nil, fmt.Errorf("send: %w: %s while awaiting response", ErrUnexpectedFrame, frame.Type())
		}

		response = append(response, info.Payload...)

		if !info.Segmented {
			c.metrics.incTelegramRecvCount()

			return response, nil
		}

		// One segment down; acknowledge it so the meter sends the next.
		rr, err := hdlc.NewReceiveReadyFrame(c.cfg.ServerAddress(), c.cfg.ClientAddress(), state.ClientRSN())
		if err != nil {
			return nil, err
		}

		c.sendBuf.Enqueue(rr)
		if err := c.drainSendBuffer(ctx); err != nil {
			return nil, fmt.Errorf("send: %w", err)
		}
	}
}

// drainSendBuffer writes queued frames to the wire, each one passing
// through the state machine first. Draining stops as soon as the state
// machine hands the turn to the server; remaining frames wait in the queue.
func (c *Client) drainSendBuffer(ctx context.Context) error {
	for !c.sendBuf.IsEmpty() && c.hconn.State().State().IsSendState() {
		frame, _ := c.sendBuf.Dequeue()

		data, err := c.hconn.Send(frame)
		if err != nil {
			return err
		}

		if err := c.write(ctx, data); err != nil {
			return err
		}

		c.metrics.incFrameSendCount()
		c.logger.Debug("frame sent", "type", frame.Type().String(), "bytes", len(data))
	}

	return nil
}

// readFrame feeds wire bytes into the connection until it produces one
// complete frame. The deadline is the response timeout, capped by the
// context deadline when that is earlier.
func (c *Client) readFrame(ctx context.Context, timeout time.Duration) (hdlc.Frame, error) {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	buf := make([]byte, readChunkSize)

	for {
		frame, err := c.hconn.NextEvent()
		if err == nil {
			c.metrics.incFrameRecvCount()
			c.logger.Debug("frame received", "type", frame.Type().String())

			return frame, nil
		}

		if !errors.Is(err, hdlc.ErrNeedData) {
			c.metrics.incFrameErrCount()

			return nil, err
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			c.hconn.ReceiveData(buf[:n])
		}
		if err != nil {
			return nil, fmt.Errorf("read frame: %w", err)
		}
	}
}

func (c *Client) write(ctx context.Context, data []byte) error {
	deadline := time.Now().Add(c.cfg.sendTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	return nil
}

func (c *Client) dialTCP(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: c.cfg.connectTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.cfg.Addr())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.cfg.Addr(), err)
	}

	return conn, nil
}

func (c *Client) teardown() {
	if c.conn != nil {
		_ = c.conn.Close()
	}

	c.conn = nil
	c.hconn = nil
	c.sendBuf = nil
}

func (c *Client) logStateChange(prev, next hdlc.ConnState) {
	c.logger.Debug("hdlc state changed", "prev", prev.String(), "next", next.String())
}
