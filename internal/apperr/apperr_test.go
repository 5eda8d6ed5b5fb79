package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("missing")))
	assert.Equal(t, CodeUnauthenticated, CodeOf(Unauthorized("nope")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable("dial chat service", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, CodeUnavailable, CodeOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("chat not found"))
	assert.True(t, errors.Is(err, NotFound("anything")))
	assert.False(t, errors.Is(err, Unauthorized("anything")))
	assert.True(t, IsCode(err, CodeNotFound))
}
