package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/emoguchi/internal/apperrors"
)

func TestHostTokens_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewHostTokens("secret", time.Hour)
	tok, err := h.Issue("ROOM1")
	require.NoError(t, err)

	assert.NoError(t, h.Verify(tok, "ROOM1"))
	assert.NoError(t, h.Verify("Bearer "+tok, "ROOM1"))
}

func TestHostTokens_Rejects(t *testing.T) {
	t.Parallel()

	h := NewHostTokens("secret", time.Hour)
	tok, err := h.Issue("ROOM1")
	require.NoError(t, err)

	other, err := NewHostTokens("other-secret", time.Hour).Issue("ROOM1")
	require.NoError(t, err)

	expired := NewHostTokens("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue("ROOM1")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, hostClaims{RoomID: "ROOM1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		room  string
	}{
		{"empty", "", "ROOM1"},
		{"garbage", "not-a-jwt", "ROOM1"},
		{"wrong room", tok, "ROOM2"},
		{"wrong secret", other, "ROOM1"},
		{"expired", old, "ROOM1"},
		{"unsigned", none, "ROOM1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := h.Verify(tt.token, tt.room)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
		})
	}
}
