package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantdesk/tenantdesk/internal/db/models"
)

func TestNewLocalProvider_NilDB(t *testing.T) {
	_, err := NewLocalProvider(nil)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestLocalProvider_Authenticate(t *testing.T) {
	f := setup(t)
	disabled := f.addUser(t, "disabled", "", false)
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", disabled.ID).Update("active", false).Error)

	p, err := NewLocalProvider(f.db)
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid credentials", username: "admin", password: adminPassword},
		{name: "wrong password", username: "admin", password: "nope", wantErr: ErrInvalidPassword},
		{name: "unknown user", username: "ghost", password: "pw", wantErr: ErrUserNotFound},
		{name: "disabled account", username: "disabled", password: "pw", wantErr: ErrUserAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := p.Authenticate(tt.username, tt.password)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, f.admin, user.ID)
		})
	}
}

func TestLocalProvider_ChangePassword(t *testing.T) {
	f := setup(t)

	p, err := NewLocalProvider(f.db)
	require.NoError(t, err)

	require.ErrorIs(t, p.ChangePassword(f.admin, "wrong", "new-pass"), ErrInvalidOldPassword)
	require.NoError(t, p.ChangePassword(f.admin, adminPassword, "new-pass"))

	_, err = p.Authenticate("admin", adminPassword)
	require.ErrorIs(t, err, ErrInvalidPassword)

	_, err = p.Authenticate("admin", "new-pass")
	require.NoError(t, err)

	require.ErrorIs(t, p.ChangePassword(9999, "a", "b"), ErrUserNotFound)
}
