package domain_test

import (
	"testing"

	"transitgraph/domain"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	messages []string
}

func (s *recordingSink) Warnf(format string, args ...any) {
	s.messages = append(s.messages, format)
}

func TestCountingSinkCountsAndForwards(t *testing.T) {
	inner := &recordingSink{}
	counting := &domain.CountingSink{Inner: inner}

	counting.Warnf("dropped stop %q", "S1")
	counting.Warnf("dropped stop %q", "S2")

	assert.Equal(t, 2, counting.Count())
	assert.Equal(t, []string{"dropped stop %q", "dropped stop %q"}, inner.messages)
}

func TestCountingSinkWithNilInnerStillCounts(t *testing.T) {
	counting := &domain.CountingSink{}
	counting.Warnf("dropped stop %q", "S1")
	assert.Equal(t, 1, counting.Count())
}
