package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.Issue(42, model.UserRoleDepartment)
	require.NoError(t, err)
	assert.Equal(t, int64(42), token.SubjectID)
	assert.Equal(t, model.UserRoleDepartment, token.Role)

	claims, err := NewParser("secret").Parse(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.SubjectID)
	assert.Equal(t, model.UserRoleDepartment, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret", time.Hour).Issue(1, model.UserRoleAdmin)
	require.NoError(t, err)

	_, err = NewParser("other").Parse(token.AccessToken)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := issuer.Issue(1, model.UserRoleCitizen)
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseRejectsUnknownRole(t *testing.T) {
	token, err := NewIssuer("secret", time.Hour).Issue(1, model.UserRole("ROOT"))
	require.NoError(t, err)

	_, err = NewParser("secret").Parse(token.AccessToken)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}
