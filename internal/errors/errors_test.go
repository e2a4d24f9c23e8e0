package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected int
	}{
		{KindInput, http.StatusBadRequest},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindExpired, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindIntegrity, http.StatusInternalServerError},
		{KindPersistence, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.HTTPStatus())
			assert.Equal(t, tt.expected, New(tt.kind, "c", "m").HTTPStatus())
		})
	}
}

func TestErrorMatching(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := fmt.Errorf("saving: %w", PersistenceError(CodeStoreWrite, "could not persist", cause))

	assert.True(t, stderrors.Is(err, KindPersistence))
	assert.False(t, stderrors.Is(err, KindNotFound))
	assert.True(t, stderrors.Is(err, io.ErrUnexpectedEOF), "cause is reachable")

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, CodeStoreWrite, e.Code)
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(io.EOF))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "[not_found] Token not found", NotFound(CodeTokenNotFound, "Token not found").Error())
	assert.Equal(t, "[persistence_error] write: disk full",
		PersistenceError(CodeStoreWrite, "write", stderrors.New("disk full")).Error())
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, KindInput, InputError(CodeMissingToken, "x").Kind)
	assert.Equal(t, KindConflict, Conflict(CodeTokenExists, "x").Kind)
	assert.Nil(t, New(KindExpired, CodeTokenExpired, "x").Unwrap())
}
