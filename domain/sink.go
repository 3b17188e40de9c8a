package domain

import "log"

// Sink receives warnings that the loaders and assembler must never swallow
// silently: duplicate (trip_id, stop_sequence) rows, OSM nodes dropped for
// being unreferenced by any highway way, street edges outside the largest
// connected component, stops that could not be snapped to the street layer,
// and similar. Grounded on the teacher's plain
// log/fmt usage -- the teacher carries no structured-logging dependency
// anywhere in its stack, so this ambient concern stays on the standard
// library rather than reaching for one the corpus never shows.
type Sink interface {
	Warnf(format string, args ...any)
}

// LogSink is the default Sink, backed by the standard library logger.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink wraps an *log.Logger as a Sink. A nil logger uses log.Default().
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Warnf(format string, args ...any) {
	s.logger.Printf("warn: "+format, args...)
}

// DiscardSink drops every warning. Useful for tests asserting on warning
// counts elsewhere or callers who intentionally don't care.
type DiscardSink struct{}

func (DiscardSink) Warnf(format string, args ...any) {}

// CountingSink forwards every warning to an inner Sink while counting how
// many were reported, so a caller can feed that count into a build metric
// without the loaders/assembler needing to know metrics exist.
type CountingSink struct {
	Inner Sink
	count int
}

func (s *CountingSink) Warnf(format string, args ...any) {
	s.count++
	if s.Inner != nil {
		s.Inner.Warnf(format, args...)
	}
}

// Count returns the number of warnings reported so far.
func (s *CountingSink) Count() int {
	return s.count
}
