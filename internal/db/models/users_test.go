package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRole(t *testing.T) {
	tests := []struct {
		name          string
		role          UserRole
		stringValue   string
		validForParse bool
	}{
		{
			name:          "User role",
			role:          UserRoleUser,
			stringValue:   "user",
			validForParse: true,
		},
		{
			name:          "Admin role",
			role:          UserRoleAdmin,
			stringValue:   "admin",
			validForParse: true,
		},
		{
			name:          "Invalid role",
			stringValue:   "invalid_role",
			validForParse: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.validForParse {
				assert.Equal(t, tt.stringValue, tt.role.String())
			}

			parsedRole, err := ParseUserRole(tt.stringValue)
			if tt.validForParse {
				assert.NoError(t, err)
				assert.Equal(t, tt.role, parsedRole)
			} else {
				assert.Error(t, err)
				assert.Equal(t, UserRoleUser, parsedRole, "invalid role should fall back to UserRoleUser")
			}
		})
	}
}

func TestUser_JSONRoundTrip(t *testing.T) {
	user := User{
		Username: "testuser",
		Email:    "test@example.com",
		Role:     UserRoleAdmin,
	}

	jsonData, err := json.Marshal(user)
	assert.NoError(t, err)

	var decoded User
	assert.NoError(t, json.Unmarshal(jsonData, &decoded))
	assert.Equal(t, user.Username, decoded.Username)
	assert.Equal(t, user.Email, decoded.Email)
	assert.Equal(t, user.Role, decoded.Role)
}
