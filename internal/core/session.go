package core

// session.go tracks one import attempt through its lifecycle:
//
//	pending -> parsing -> validating -> normalizing -> success|partial
//
// with failed reachable from any non-terminal working state. Transitions
// outside this table are refused, and terminal states are final.

import "time"

// legalTransitions lists the allowed next states for each state.
var legalTransitions = map[ImportStatus][]ImportStatus{
	StatusPending:     {StatusParsing, StatusFailed},
	StatusParsing:     {StatusValidating, StatusFailed},
	StatusValidating:  {StatusNormalizing, StatusFailed},
	StatusNormalizing: {StatusSuccess, StatusPartial, StatusFailed},
}

// Session is the mutable state of one import attempt. It accumulates
// warnings and detection results as the pipeline advances and produces
// the immutable Outcome at the end.
type Session struct {
	status    ImportStatus
	warnings  []string
	filename  string
	fileSize  int
	parser    string
	detected  DetectedFormat
	startedAt time.Time
}

// NewSession starts a pending import session for the named upload.
func NewSession(filename string, size int) *Session {
	return &Session{
		status:    StatusPending,
		filename:  filename,
		fileSize:  size,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current lifecycle state.
func (s *Session) Status() ImportStatus { return s.status }

// Warnings returns the warnings accumulated so far.
func (s *Session) Warnings() []string { return s.warnings }

// To advances the session to the next state. Illegal transitions return
// an invariant violation, the signature of a pipeline bug.
func (s *Session) To(next ImportStatus) error {
	for _, allowed := range legalTransitions[s.status] {
		if next == allowed {
			s.status = next
			return nil
		}
	}
	return invariant("illegal import state transition %s -> %s", s.status, next)
}

// Warn appends data-quality warnings to the session.
func (s *Session) Warn(msgs ...string) {
	s.warnings = append(s.warnings, msgs...)
}

// SetDetection records the detector's verdict and the parser that will
// handle the file.
func (s *Session) SetDetection(f DetectedFormat, parser string) {
	s.detected = f
	s.parser = parser
}

// SetParser overrides the recorded parser, used when extraction falls
// back from a vendor parser to the generic one.
func (s *Session) SetParser(parser string) { s.parser = parser }

// Fail moves the session to failed and returns the terminal outcome. The
// fatal error is preserved verbatim in the audit record. A session that
// already reached a terminal state keeps it; terminal states are final.
func (s *Session) Fail(ierr *ImportError) Outcome {
	if !s.status.Terminal() {
		s.status = StatusFailed
	}
	return s.outcome(Outcome{
		Status: s.status,
		Fatal:  ierr,
	})
}

// Finish completes the session for a successfully normalized measurement.
// Any accumulated warning downgrades the result from success to partial.
func (s *Session) Finish(m *Measurement) Outcome {
	status := StatusSuccess
	if len(s.warnings) > 0 {
		status = StatusPartial
	}
	s.status = status
	return s.outcome(Outcome{
		Status:         status,
		FrequencyRange: frequencyRange(m),
		DataPoints:     m.Points(),
	})
}

// outcome fills the fields common to every terminal record.
func (s *Session) outcome(o Outcome) Outcome {
	o.Warnings = s.warnings
	o.ParserUsed = s.parser
	o.DetectedVendor = s.detected.Vendor
	o.DetectedFormat = s.detected.Container
	o.OriginalFile = s.filename
	o.FileSizeBytes = s.fileSize
	o.StartedAt = s.startedAt
	o.CompletedAt = time.Now().UTC()
	return o
}
