package domain_test

import (
	"errors"
	"testing"

	"transitgraph/domain"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesWrappedCode(t *testing.T) {
	err := domain.WrapErrorf(nil, domain.ErrMissingFile, "stops.txt not found")
	assert.True(t, errors.Is(err, domain.ErrMissingFile))
	assert.False(t, errors.Is(err, domain.ErrBadSchema))
}

func TestErrorUnwrapsOriginalCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := domain.WrapErrorf(cause, domain.ErrIoError, "open feed")
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "permission denied")
}

func TestErrorMessageWithoutCause(t *testing.T) {
	err := domain.WrapErrorf(nil, domain.ErrBadTime, "bad time %q", "25:99:00")
	assert.Equal(t, `bad time "25:99:00"`, err.Error())
}
