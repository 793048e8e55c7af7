package serial

import (
	"sync/atomic"
)

// ClientMetrics contains atomic metrics for an HDLC client.
// Metrics can be used as the value of a prometheus CounterFunc or GaugeFunc.
type ClientMetrics struct {
	// FrameSendCount indicates the number of frames sent.
	FrameSendCount atomic.Uint64
	// FrameRecvCount indicates the number of frames received.
	FrameRecvCount atomic.Uint64
	// FrameErrCount indicates the number of frame decode and protocol errors.
	FrameErrCount atomic.Uint64

	// TelegramSendCount indicates the number of request telegrams sent.
	TelegramSendCount atomic.Uint64
	// TelegramRecvCount indicates the number of response telegrams received,
	// counting a reassembled segmented response once.
	TelegramRecvCount atomic.Uint64

	// ConnectCount indicates the number of successful SNRM/UA negotiations.
	ConnectCount atomic.Uint64
}

func (m *ClientMetrics) incFrameSendCount() {
	m.FrameSendCount.Add(1)
}

func (m *ClientMetrics) incFrameRecvCount() {
	m.FrameRecvCount.Add(1)
}

func (m *ClientMetrics) incFrameErrCount() {
	m.FrameErrCount.Add(1)
}

func (m *ClientMetrics) incTelegramSendCount() {
	m.TelegramSendCount.Add(1)
}

func (m *ClientMetrics) incTelegramRecvCount() {
	m.TelegramRecvCount.Add(1)
}

func (m *ClientMetrics) incConnectCount() {
	m.ConnectCount.Add(1)
}
