package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})

	t.Run("wrapped domain error is preserved", func(t *testing.T) {
		base := NewNotFound("employee", map[string]any{"employee_id": int64(7)})
		got := ToDomainError(fmt.Errorf("load: %w", base))
		require.NotNil(t, got)
		assert.Equal(t, CodeNotFound, got.Code)
		assert.Equal(t, http.StatusNotFound, got.HTTPStatus)
		assert.Equal(t, "employee not found", got.Message)
	})

	t.Run("unknown error becomes internal", func(t *testing.T) {
		cause := errors.New("boom")
		got := ToDomainError(cause)
		assert.Equal(t, CodeInternal, got.Code)
		assert.ErrorIs(t, got, cause)
	})
}

func TestStorageErrorUnwraps(t *testing.T) {
	cause := errors.New("commit failed")
	err := NewStorageError(cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCode(err, CodeStorage))
	assert.Equal(t, "database error: commit failed", err.Error())
}

func TestIsRejection(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"self manager", NewRejection(CodeSelfManager, "x", nil), true},
		{"cycle", NewRejection(CodeCycleDetected, "x", nil), true},
		{"manager missing", NewRejection(CodeManagerNotFound, "x", nil), true},
		{"malformed id", NewValidationError("x", nil), true},
		{"not found", NewNotFound("employee", nil), false},
		{"storage", NewStorageError(errors.New("x")), false},
		{"plain", errors.New("x"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRejection(tc.err))
		})
	}
}
