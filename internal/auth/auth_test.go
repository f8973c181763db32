package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret, subject string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.RegisteredClaims{Subject: subject}).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestVerifierIdentity(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("s3cret")

	identity, err := v.Identity(sign(t, "s3cret", "alice"))
	req.NoError(err)
	req.Equal("alice", identity)
}

func TestVerifierRejects(t *testing.T) {
	req := require.New(t)
	v := NewVerifier("s3cret")

	_, err := v.Identity("")
	req.ErrorIs(err, ErrNoToken)

	_, err = v.Identity("garbage")
	req.ErrorIs(err, ErrInvalidToken)

	// wrong secret
	_, err = v.Identity(sign(t, "other", "alice"))
	req.ErrorIs(err, ErrInvalidToken)

	// no subject claim
	_, err = v.Identity(sign(t, "s3cret", ""))
	req.ErrorIs(err, ErrInvalidToken)
}

func TestFromAuthHeader(t *testing.T) {
	req := require.New(t)
	req.Equal("abc", FromAuthHeader("Bearer abc"))
	req.Equal("abc", FromAuthHeader("bearer abc"))
	req.Empty(FromAuthHeader("abc"))
	req.Empty(FromAuthHeader(""))
	req.Empty(FromAuthHeader("Bearer "))
}
