package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justsurfingit/interview-scheduler/internal/models"
)

var secret = strings.Repeat("x", 32)

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenMaker(secret, time.Hour)

	tok, err := m.CreateToken(42, models.Recruiter{})
	require.NoError(t, err)

	claims, err := m.VerifyToken(tok)
	require.NoError(t, err)

	id, role, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, models.Recruiter{}, role)
}

func TestVerifyTokenRejects(t *testing.T) {
	m := NewTokenMaker(secret, time.Hour)
	tok, err := m.CreateToken(1, models.JobSeeker{})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenMaker(strings.Repeat("y", 32), time.Hour)
		_, err := other.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewTokenMaker(secret, time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.VerifyToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.VerifyToken("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPrincipalUnknownRole(t *testing.T) {
	c := &Claims{UserID: 3, Role: "superuser"}
	_, _, err := c.Principal()
	assert.ErrorIs(t, err, ErrInvalidToken)
}
