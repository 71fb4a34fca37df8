package upload

import "log/slog"

// Tee sends each chunk to a primary sink and to any number of secondary
// sinks. Only the primary's result is returned; secondary failures are
// logged.
type Tee struct {
	primary     Sink
	secondaries []Sink
	logger      *slog.Logger
}

// NewTee creates a Tee. Nil secondaries are skipped. logger may be nil.
func NewTee(logger *slog.Logger, primary Sink, secondaries ...Sink) *Tee {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	t := &Tee{primary: primary, logger: logger}
	for _, s := range secondaries {
		if s != nil {
			t.secondaries = append(t.secondaries, s)
		}
	}
	return t
}

// Upload implements Sink.
func (t *Tee) Upload(uri, authHeader string, data []byte) error {
	err := t.primary.Upload(uri, authHeader, data)
	for i, s := range t.secondaries {
		if serr := s.Upload(uri, authHeader, data); serr != nil {
			t.logger.Warn("secondary sink failed", "index", i, "error", serr)
		}
	}
	return err
}

var _ Sink = (*Tee)(nil)
