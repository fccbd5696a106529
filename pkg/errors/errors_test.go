package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := New("TEST", "something broke", http.StatusBadGateway)
	require.Equal(t, "something broke", err.Error())

	inner := stderrors.New("root cause")
	withInternal := err.WithInternal(inner)
	require.Equal(t, "something broke: root cause", withInternal.Error())
	require.ErrorIs(t, withInternal, inner)

	// WithInternal must not mutate the original.
	require.Nil(t, err.Internal)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	require.Equal(t, ErrForbidden, FromError(ErrForbidden))

	generic := stderrors.New("boom")
	converted := FromError(generic)
	require.Equal(t, ErrInternalServer.Code, converted.Code)
	require.ErrorIs(t, converted, generic)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	wrapped := Wrap(cause, "persist sharing snapshot")
	require.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	require.ErrorIs(t, wrapped, cause)
}
