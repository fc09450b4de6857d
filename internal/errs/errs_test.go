package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	err := Newf(KindSessionNotFound, "session %s not found", "s1")
	assert.Equal(t, KindSessionNotFound, KindOf(err))
	assert.True(t, Is(err, KindSessionNotFound))
	assert.False(t, Is(err, KindStorageFault))
}

func TestKindOfWrapped(t *testing.T) {
	inner := Wrap(KindStorageFault, "hset failed", errors.New("connection refused"))
	outer := fmt.Errorf("apply edit: %w", inner)

	assert.Equal(t, KindStorageFault, KindOf(outer))
	assert.Contains(t, outer.Error(), "connection refused")
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(KindGeneratorFault, "generator call failed", cause)
	assert.ErrorIs(t, err, cause)
}
