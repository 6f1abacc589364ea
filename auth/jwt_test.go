package auth

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, now time.Time) *Signer {
	t.Helper()
	s, err := NewSigner("test-secret", "fitcoach")
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestSigner_IssueParse(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := newTestSigner(t, now)

	token, err := s.Issue("u42", time.Hour)
	require.NoError(t, err)

	userID, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "u42", userID)

	t.Run("expired", func(t *testing.T) {
		late := newTestSigner(t, now.Add(2*time.Hour))
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewSigner("other-secret", "fitcoach")
		require.NoError(t, err)
		other.now = s.now
		_, err = other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewSigner("test-secret", "someone-else")
		require.NoError(t, err)
		other.now = s.now
		_, err = other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestSigner_RejectsOtherAlgorithms(t *testing.T) {
	s := newTestSigner(t, time.Now())
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "u1",
		Issuer:    "fitcoach",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_Validation(t *testing.T) {
	_, err := NewSigner("", "x")
	assert.Error(t, err)

	s := newTestSigner(t, time.Now())
	_, err = s.Issue("", time.Hour)
	assert.Error(t, err)
}

func TestSigner_FromRequest(t *testing.T) {
	s := newTestSigner(t, time.Now())
	token, err := s.Issue("u7", 0)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		expected string
		wantErr  bool
	}{
		{name: "bearer token", header: "Bearer " + token, expected: "u7"},
		{name: "lower case scheme", header: "bearer " + token, expected: "u7"},
		{name: "missing header", header: "", wantErr: true},
		{name: "basic auth", header: "Basic dTpw", wantErr: true},
		{name: "extra parts", header: "Bearer a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/v1/chat/history", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := s.FromRequest(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
