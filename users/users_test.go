package users_test

import (
	"testing"

	"github.com/Bigfish4tim/km-portal-client/roles"
	"github.com/Bigfish4tim/km-portal-client/users"
	"github.com/stretchr/testify/require"
)

func validRegistration() users.Registration {
	return users.Registration{
		Username: "newuser",
		Email:    "newuser@example.com",
		Password: "password1!",
		FullName: "Hong Gildong",
	}
}

func TestRegistrationValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validRegistration().Validate())
	})

	t.Run("valid with explicit role", func(t *testing.T) {
		r := validRegistration()
		r.RoleName = roles.InvestigatorType4
		require.NoError(t, r.Validate())
	})

	t.Run("missing username", func(t *testing.T) {
		r := validRegistration()
		r.Username = "   "
		require.ErrorContains(t, r.Validate(), "username is required")
	})

	t.Run("missing email", func(t *testing.T) {
		r := validRegistration()
		r.Email = ""
		require.ErrorContains(t, r.Validate(), "email is required")
	})

	t.Run("malformed email", func(t *testing.T) {
		r := validRegistration()
		r.Email = "not-an-address"
		require.ErrorContains(t, r.Validate(), "not valid")
	})

	t.Run("missing full name", func(t *testing.T) {
		r := validRegistration()
		r.FullName = ""
		require.ErrorContains(t, r.Validate(), "full name is required")
	})

	t.Run("unknown role", func(t *testing.T) {
		r := validRegistration()
		r.RoleName = "ROLE_WIZARD"
		require.ErrorContains(t, r.Validate(), "unknown role")
	})
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "password1!", ""},
		{"too short", "pw1!", "at least 8 characters"},
		{"no letter", "12345678!", "at least one letter"},
		{"no number", "password!", "at least one number"},
		{"no special", "password1", "at least one special"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tc.password)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestUserHelpers(t *testing.T) {
	u := &users.User{
		Username: "johndoe",
		FullName: "John Doe",
		Roles:    []roles.Role{roles.Employee, roles.TeamLeaderType1},
	}

	require.Equal(t, "John Doe", u.DisplayName())
	require.True(t, u.HasRole(roles.TeamLeaderType1))
	require.False(t, u.HasRole(roles.Admin))
	require.Equal(t, roles.TeamLeaderType1.DisplayLabel(), u.PrimaryRoleLabel())

	u.FullName = ""
	require.Equal(t, "johndoe", u.DisplayName())

	var nilUser *users.User
	require.Equal(t, "", nilUser.DisplayName())
	require.False(t, nilUser.HasRole(roles.Admin))
	require.Equal(t, roles.NoPermissionLabel, nilUser.PrimaryRoleLabel())
}
