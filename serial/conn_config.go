package serial

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/dlmsio/go-dlms/hdlc"
	"github.com/dlmsio/go-dlms/logger"
)

// Default configuration values.
const (
	// DefaultClientAddress is the DLMS public client address.
	DefaultClientAddress uint8 = 0x10
	// DefaultServerLogicalAddress is the management logical device.
	DefaultServerLogicalAddress uint16 = 0x01

	DefaultConnectTimeout  = 3 * time.Second
	DefaultResponseTimeout = 5 * time.Second
	DefaultSendTimeout     = 3 * time.Second
	DefaultCloseTimeout    = 3 * time.Second

	DefaultSendQueueSize = 8
)

// ConnectionConfig holds all configuration for an HDLC client talking to a
// meter over a TCP byte stream (a serial-to-TCP bridge or a direct TCP
// transport).
type ConnectionConfig struct {
	host string
	port int

	// client and server are the HDLC addresses of the two ends of the link.
	client hdlc.Address
	server hdlc.Address

	connectTimeout  time.Duration
	responseTimeout time.Duration
	sendTimeout     time.Duration
	closeTimeout    time.Duration

	sendQueueSize int

	logger logger.Logger
}

// NewConnectionConfig creates a new HDLC client configuration.
//
// host is the remote address of the meter or serial bridge. port is the TCP
// port. opts are functional options applied in order; see With* functions.
func NewConnectionConfig(host string, port int, opts ...ConnOption) (*ConnectionConfig, error) {
	client, err := hdlc.NewClientAddress(DefaultClientAddress)
	if err != nil {
		return nil, err
	}

	server, err := hdlc.NewServerAddress(DefaultServerLogicalAddress)
	if err != nil {
		return nil, err
	}

	cfg := &ConnectionConfig{
		client:          client,
		server:          server,
		connectTimeout:  DefaultConnectTimeout,
		responseTimeout: DefaultResponseTimeout,
		sendTimeout:     DefaultSendTimeout,
		closeTimeout:    DefaultCloseTimeout,
		sendQueueSize:   DefaultSendQueueSize,
		logger:          logger.GetLogger(),
	}

	if err := cfg.setHost(host); err != nil {
		return nil, err
	}
	if err := cfg.setPort(port); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (cfg *ConnectionConfig) setHost(host string) error {
	if ip := net.ParseIP(host); ip != nil {
		cfg.host = host
		return nil
	}

	host = strings.TrimPrefix(host, ".")
	host = strings.TrimSuffix(host, ".")
	if _, err := net.LookupHost(host); err == nil {
		cfg.host = host
		return nil
	}

	return fmt.Errorf("serial: invalid host %q", host)
}

func (cfg *ConnectionConfig) setPort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("serial: port %d out of range [0, 65535]", port)
	}
	cfg.port = port

	return nil
}

// --- Getters ---

// Host returns the configured host address.
func (cfg *ConnectionConfig) Host() string { return cfg.host }

// Port returns the configured TCP port.
func (cfg *ConnectionConfig) Port() int { return cfg.port }

// Addr returns "host:port".
func (cfg *ConnectionConfig) Addr() string { return fmt.Sprintf("%s:%d", cfg.host, cfg.port) }

// ClientAddress returns the client-side HDLC address.
func (cfg *ConnectionConfig) ClientAddress() hdlc.Address { return cfg.client }

// ServerAddress returns the server-side HDLC address.
func (cfg *ConnectionConfig) ServerAddress() hdlc.Address { return cfg.server }

// ConnectTimeout returns the TCP dial timeout.
func (cfg *ConnectionConfig) ConnectTimeout() time.Duration { return cfg.connectTimeout }

// ResponseTimeout returns the per-frame read timeout.
func (cfg *ConnectionConfig) ResponseTimeout() time.Duration { return cfg.responseTimeout }

// SendTimeout returns the TCP write timeout.
func (cfg *ConnectionConfig) SendTimeout() time.Duration { return cfg.sendTimeout }

// CloseTimeout returns the timeout for the disconnect exchange.
func (cfg *ConnectionConfig) CloseTimeout() time.Duration { return cfg.closeTimeout }

// GetLogger returns the configured logger.
func (cfg *ConnectionConfig) GetLogger() logger.Logger { return cfg.logger }

// --- ConnOption ---

// ConnOption is a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc func(*ConnectionConfig) error

func (f connOptFunc) apply(cfg *ConnectionConfig) error { return f(cfg) }

// WithClientAddress sets the client-side HDLC address. Must fit in 7 bits.
func WithClientAddress(addr uint8) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		client, err := hdlc.NewClientAddress(addr)
		if err != nil {
			return err
		}
		cfg.client = client

		return nil
	})
}

// WithServerAddress sets the server-side HDLC address to a logical-only
// address. Must fit in 7 bits.
func WithServerAddress(logical uint8) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		server, err := hdlc.NewServerAddress(uint16(logical))
		if err != nil {
			return err
		}
		cfg.server = server

		return nil
	})
}

// WithServerPhysicalAddress sets the server-side HDLC address to a
// logical+physical pair, for multi-drop setups. Each part must fit in
// 14 bits.
func WithServerPhysicalAddress(logical, physical uint16) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		server, err := hdlc.NewServerPhysicalAddress(logical, physical)
		if err != nil {
			return err
		}
		cfg.server = server

		return nil
	})
}

// WithConnectTimeout sets the TCP dial timeout.
func WithConnectTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("serial: connect timeout must be positive")
		}
		cfg.connectTimeout = d

		return nil
	})
}

// WithResponseTimeout sets the per-frame read timeout: the longest the
// client waits for the meter's reply to any single frame.
func WithResponseTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("serial: response timeout must be positive")
		}
		cfg.responseTimeout = d

		return nil
	})
}

// WithSendTimeout sets the TCP write timeout.
func WithSendTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("serial: send timeout must be positive")
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithCloseTimeout sets the timeout for the disconnect exchange.
func WithCloseTimeout(d time.Duration) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if d <= 0 {
			return errors.New("serial: close timeout must be positive")
		}
		cfg.closeTimeout = d

		return nil
	})
}

// WithSendQueueSize sets the preallocated size of the outgoing frame queue.
func WithSendQueueSize(size int) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if size < 1 {
			return errors.New("serial: send queue size must be >= 1")
		}
		cfg.sendQueueSize = size

		return nil
	})
}

// WithLogger sets the logger for the client.
func WithLogger(l logger.Logger) ConnOption {
	return connOptFunc(func(cfg *ConnectionConfig) error {
		if l == nil {
			return errors.New("serial: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
