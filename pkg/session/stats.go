package session

import "sync/atomic"

// Stats is a snapshot of session counters.
type Stats struct {
	PacketsProcessed  uint64 `json:"packets_processed"`
	BytesReceived     uint64 `json:"bytes_received"`
	ParseErrors       uint64 `json:"parse_errors"`
	SequenceAnomalies uint64 `json:"sequence_anomalies"`
	ChunksUploaded    uint64 `json:"chunks_uploaded"`
	BytesUploaded     uint64 `json:"bytes_uploaded"`
	UploadFailures    uint64 `json:"upload_failures"`
	ReadErrors        uint64 `json:"read_errors"`
	NoData            uint64 `json:"no_data"`
}

type counters struct {
	packets, bytes      atomic.Uint64
	parseErrors         atomic.Uint64
	anomalies           atomic.Uint64
	uploaded, uploadedN atomic.Uint64
	uploadFailures      atomic.Uint64
	readErrors, noData  atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		PacketsProcessed:  c.packets.Load(),
		BytesReceived:     c.bytes.Load(),
		ParseErrors:       c.parseErrors.Load(),
		SequenceAnomalies: c.anomalies.Load(),
		ChunksUploaded:    c.uploaded.Load(),
		BytesUploaded:     c.uploadedN.Load(),
		UploadFailures:    c.uploadFailures.Load(),
		ReadErrors:        c.readErrors.Load(),
		NoData:            c.noData.Load(),
	}
}

func (c *counters) reset() {
	for _, v := range []*atomic.Uint64{
		&c.packets, &c.bytes, &c.parseErrors, &c.anomalies,
		&c.uploaded, &c.uploadedN, &c.uploadFailures,
		&c.readErrors, &c.noData,
	} {
		v.Store(0)
	}
}

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats {
	return s.stats.snapshot()
}

// ResetStats zeroes the session counters.
func (s *Session) ResetStats() {
	s.stats.reset()
}
