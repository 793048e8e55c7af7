package serial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dlmsio/go-dlms/hdlc"
	"github.com/dlmsio/go-dlms/logger"
)

func TestNewConnectionConfig_Defaults(t *testing.T) {
	cfg, err := NewConnectionConfig("127.0.0.1", 4059)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4059", cfg.Addr())
	assert.Equal(t, uint16(DefaultClientAddress), cfg.ClientAddress().Logical)
	assert.Equal(t, DefaultServerLogicalAddress, cfg.ServerAddress().Logical)
	assert.False(t, cfg.ServerAddress().HasPhysical)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout())
	assert.Equal(t, DefaultResponseTimeout, cfg.ResponseTimeout())
	assert.Equal(t, DefaultSendTimeout, cfg.SendTimeout())
	assert.Equal(t, DefaultCloseTimeout, cfg.CloseTimeout())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewConnectionConfig_Addresses(t *testing.T) {
	cfg, err := NewConnectionConfig("127.0.0.1", 4059,
		WithClientAddress(0x01),
		WithServerPhysicalAddress(1, 17),
	)
	require.NoError(t, err)

	assert.Equal(t, uint16(0x01), cfg.ClientAddress().Logical)
	assert.Equal(t, hdlc.Address{Logical: 1, Physical: 17, HasPhysical: true}, cfg.ServerAddress())

	cfg, err = NewConnectionConfig("127.0.0.1", 4059, WithServerAddress(0x02))
	require.NoError(t, err)
	assert.Equal(t, uint16(0x02), cfg.ServerAddress().Logical)
}

func TestNewConnectionConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		host string
		port int
		opts []ConnOption
	}{
		{name: "invalid host", host: "no-such-host.invalid.", port: 4059},
		{name: "negative port", host: "127.0.0.1", port: -1},
		{name: "port too large", host: "127.0.0.1", port: 65536},
		{name: "client address out of range", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithClientAddress(0x80)}},
		{name: "server physical out of range", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithServerPhysicalAddress(0x4000, 0)}},
		{name: "zero connect timeout", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithConnectTimeout(0)}},
		{name: "negative response timeout", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithResponseTimeout(-time.Second)}},
		{name: "zero send timeout", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithSendTimeout(0)}},
		{name: "zero close timeout", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithCloseTimeout(0)}},
		{name: "zero send queue size", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithSendQueueSize(0)}},
		{name: "nil logger", host: "127.0.0.1", port: 4059, opts: []ConnOption{WithLogger(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConnectionConfig(tt.host, tt.port, tt.opts...)
			assert.Error(t, err)
		})
	}
}

func TestNewConnectionConfig_Logger(t *testing.T) {
	mock := logger.NewMockLogger()

	cfg, err := NewConnectionConfig("127.0.0.1", 4059, WithLogger(mock))
	require.NoError(t, err)
	assert.Same(t, logger.Logger(mock), cfg.GetLogger())
}
