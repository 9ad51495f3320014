package users

import (
	"testing"
	"time"

	"gallery-api/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNewPassword(t *testing.T) {
	assert.NoError(t, ValidateNewPassword("pass1234", "pass1234"))
	assert.ErrorIs(t, ValidateNewPassword("short1", "short1"), ErrWeakPassword)
	assert.ErrorIs(t, ValidateNewPassword("onlyletters", "onlyletters"), ErrWeakPassword)
	assert.True(t, apperr.IsKind(ValidateNewPassword("pass1234", "pass12345"), apperr.InvalidInput))
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("pass1234")
	require.NoError(t, err)

	u := User{Password: &hash}
	assert.True(t, CheckPassword(u, "pass1234"))
	assert.False(t, CheckPassword(u, "pass12345"))
	assert.False(t, CheckPassword(User{}, "pass1234"))
}

func TestResetTokenHashing(t *testing.T) {
	plain, hash, err := NewResetToken()
	require.NoError(t, err)
	assert.Len(t, plain, 64)
	assert.Equal(t, hash, HashResetToken(plain))
	assert.NotEqual(t, plain, hash)
}

func TestChangedPasswordAfter(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := User{}
	assert.False(t, u.ChangedPasswordAfter(issued))

	changed := issued.Add(time.Minute)
	u.PasswordChangedAt = &changed
	assert.True(t, u.ChangedPasswordAfter(issued))
	assert.False(t, u.ChangedPasswordAfter(changed.Add(time.Second)))
}
