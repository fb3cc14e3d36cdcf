package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPasswordWithCost("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.Contains(t, hash, "$2a$")

	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("invalid-hash", "s3cret!"))
}

func TestCheckAdminCredentials(t *testing.T) {
	hash, err := HashPasswordWithCost("pw", bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		wantHash string
		user     string
		password string
		want     bool
		wantErr  error
	}{
		{name: "Correct", wantHash: hash, user: "admin", password: "pw", want: true},
		{name: "Wrong user", wantHash: hash, user: "root", password: "pw", want: false},
		{name: "Wrong password", wantHash: hash, user: "admin", password: "nope", want: false},
		{name: "Not configured", wantHash: "", user: "admin", password: "pw", wantErr: ErrAdminNotConfigured},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := CheckAdminCredentials("admin", tt.wantHash, tt.user, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
