package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	cases := []struct {
		kind   Kind
		status int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuth, http.StatusUnauthorized},
		{KindTokenExpired, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindLimitExceeded, http.StatusBadRequest},
		{KindUnsupportedMedia, http.StatusBadRequest},
		{KindPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{KindUpstream, http.StatusInternalServerError},
		{Kind(0), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.kind.Status())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := Conflict(CodeQRAlreadyCreated, "already created")
	wrapped := fmt.Errorf("generate: %w", base)

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeQRAlreadyCreated, got.Code)
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(errors.New("plain"), KindConflict))
	assert.Equal(t, Kind(0), KindOf(nil))
}

func TestUpstreamUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Upstream("storage unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, CodeUpstream, err.Code)
}
