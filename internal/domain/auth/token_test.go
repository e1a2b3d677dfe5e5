package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sereneleaf/backend/internal/domain/user"
)

func testUser() *user.User {
	return &user.User{
		ID:    "11111111-2222-3333-4444-555555555555",
		Email: "a@example.com",
		Role:  user.RoleAdmin,
	}
}

func TestIssueAndVerify(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", claims.Subject)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, user.RoleAdmin, claims.Role)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer([]byte("secret-a"), time.Hour).Issue(testUser())
	require.NoError(t, err)

	_, err = NewTokenIssuer([]byte("secret-b"), time.Hour).Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := issuer.Issue(testUser())
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret"), time.Hour)

	_, err := issuer.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)

	// alg=none style tampering must be rejected.
	_, err = issuer.Verify("eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0.")
	require.ErrorIs(t, err, ErrInvalidToken)
}
