package ras

import (
	"time"

	"rasbridge/internal/layout"
	"rasbridge/internal/native"
)

// Statistics is a decoded RAS_STATS.
type Statistics struct {
	BytesTransmitted      uint32
	BytesReceived         uint32
	FramesTransmitted     uint32
	FramesReceived        uint32
	CRCErrors             uint32
	TimeoutErrors         uint32
	AlignmentErrors       uint32
	HardwareOverrunErrors uint32
	FramingErrors         uint32
	BufferOverrunErrors   uint32
	CompressionRatioIn    uint32
	CompressionRatioOut   uint32
	LinkSpeed             uint32 // bits per second
	ConnectDuration       time.Duration
}

func decodeStatistics(rec layout.Record) Statistics {
	return Statistics{
		BytesTransmitted:      rec.U32("dwBytesXmited"),
		BytesReceived:         rec.U32("dwBytesRcved"),
		FramesTransmitted:     rec.U32("dwFramesXmited"),
		FramesReceived:        rec.U32("dwFramesRcved"),
		CRCErrors:             rec.U32("dwCrcErr"),
		TimeoutErrors:         rec.U32("dwTimeoutErr"),
		AlignmentErrors:       rec.U32("dwAlignmentErr"),
		HardwareOverrunErrors: rec.U32("dwHardwareOverrunErr"),
		FramingErrors:         rec.U32("dwFramingErr"),
		BufferOverrunErrors:   rec.U32("dwBufferOverrunErr"),
		CompressionRatioIn:    rec.U32("dwCompressionRatioIn"),
		CompressionRatioOut:   rec.U32("dwCompressionRatioOut"),
		LinkSpeed:             rec.U32("dwBps"),
		ConnectDuration:       time.Duration(rec.U32("dwConnectDuration")) * time.Millisecond,
	}
}

func encodeStatistics(rec layout.Record, s Statistics) {
	rec.SetSize()
	rec.SetU32("dwBytesXmited", s.BytesTransmitted)
	rec.SetU32("dwBytesRcved", s.BytesReceived)
	rec.SetU32("dwFramesXmited", s.FramesTransmitted)
	rec.SetU32("dwFramesRcved", s.FramesReceived)
	rec.SetU32("dwCrcErr", s.CRCErrors)
	rec.SetU32("dwTimeoutErr", s.TimeoutErrors)
	rec.SetU32("dwAlignmentErr", s.AlignmentErrors)
	rec.SetU32("dwHardwareOverrunErr", s.HardwareOverrunErrors)
	rec.SetU32("dwFramingErr", s.FramingErrors)
	rec.SetU32("dwBufferOverrunErr", s.BufferOverrunErrors)
	rec.SetU32("dwCompressionRatioIn", s.CompressionRatioIn)
	rec.SetU32("dwCompressionRatioOut", s.CompressionRatioOut)
	rec.SetU32("dwBps", s.LinkSpeed)
	rec.SetU32("dwConnectDuration", uint32(s.ConnectDuration/time.Millisecond))
}

// Statistics returns the counters of a connection.
func (c *Client) Statistics(h *Handle) (Statistics, error) {
	return c.statistics("Statistics", "RasGetConnectionStatistics", h, func(buf *native.Buffer) native.ResultCode {
		return c.api.GetConnectionStatistics(h.raw, buf)
	})
}

// LinkStatistics returns the counters of one link of a multilink connection.
func (c *Client) LinkStatistics(h *Handle, subEntry uint32) (Statistics, error) {
	const op = "LinkStatistics"
	if subEntry == 0 {
		return Statistics{}, argError(op, "subEntry", "sub-entry indexes start at 1")
	}
	return c.statistics(op, "RasGetLinkStatistics", h, func(buf *native.Buffer) native.ResultCode {
		return c.api.GetLinkStatistics(h.raw, subEntry, buf)
	})
}

func (c *Client) statistics(op, name string, h *Handle, get func(*native.Buffer) native.ResultCode) (Statistics, error) {
	if err := c.use(op, h); err != nil {
		return Statistics{}, err
	}
	var st Statistics
	err := c.withBuffer(op, c.layoutOf(defRASSTATS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASSTATS, buf)
		if err != nil {
			return err
		}
		rec.SetSize()
		code := c.call(name, func() native.ResultCode { return get(buf) }, h.raw)
		if code != native.Success {
			return c.handleFail(op, h)(code)
		}
		st = decodeStatistics(rec)
		return nil
	})
	return st, err
}

// ClearStatistics resets the counters of a connection.
func (c *Client) ClearStatistics(h *Handle) error {
	const op = "ClearStatistics"
	if err := c.use(op, h); err != nil {
		return err
	}
	code := c.call("RasClearConnectionStatistics", func() native.ResultCode {
		return c.api.ClearConnectionStatistics(h.raw)
	}, h.raw)
	if code != native.Success {
		return c.handleFail(op, h)(code)
	}
	return nil
}

// ClearLinkStatistics resets the counters of one link.
func (c *Client) ClearLinkStatistics(h *Handle, subEntry uint32) error {
	const op = "ClearLinkStatistics"
	if err := c.use(op, h); err != nil {
		return err
	}
	if subEntry == 0 {
		return argError(op, "subEntry", "sub-entry indexes start at 1")
	}
	code := c.call("RasClearLinkStatistics", func() native.ResultCode {
		return c.api.ClearLinkStatistics(h.raw, subEntry)
	}, h.raw, subEntry)
	if code != native.Success {
		return c.handleFail(op, h)(code)
	}
	return nil
}
