package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("checkout: %w", NotFound("order not found"))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.Equal(t, "order not found", Message(err))
}

func TestPlainErrorIsInternal(t *testing.T) {
	err := errors.New("driver: bad connection")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "internal server error", Message(err))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Internal(cause)
	assert.Equal(t, "internal server error", Message(err))
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:         http.StatusBadRequest,
		KindAuthChallenge:      http.StatusBadRequest,
		KindConflict:           http.StatusConflict,
		KindNotFound:           http.StatusNotFound,
		KindInvalidCredentials: http.StatusUnauthorized,
		KindUnauthorized:       http.StatusUnauthorized,
		KindTooManyAttempts:    http.StatusTooManyRequests,
		KindInternal:           http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, HTTPStatus(kind), kind)
	}
}
