package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleRank(t *testing.T) {
	assert.Greater(t, RoleRank(WorkspaceRoleOwner), RoleRank(WorkspaceRoleAdmin))
	assert.Greater(t, RoleRank(WorkspaceRoleAdmin), RoleRank(WorkspaceRoleMember))
	assert.Greater(t, RoleRank(WorkspaceRoleMember), RoleRank(WorkspaceRoleGuest))
	assert.Equal(t, -1, RoleRank("nonsense"))
}

func TestValidTaskColumn(t *testing.T) {
	for _, col := range []string{TaskColumnTodo, TaskColumnInProgress, TaskColumnReview, TaskColumnDone} {
		assert.True(t, ValidTaskColumn(col), col)
	}
	assert.False(t, ValidTaskColumn("doing"))
	assert.False(t, ValidTaskColumn(""))
}

func TestCreateUserHashesPassword(t *testing.T) {
	user, err := CreateUser("Test User", "user@example.com", "secret123")
	require.NoError(t, err)

	assert.NotEqual(t, "secret123", user.Password)
	assert.True(t, user.CheckPassword("secret123"))
	assert.False(t, user.CheckPassword("wrong"))
	assert.NotEmpty(t, user.UUID)
	assert.Equal(t, ROLE_USER, user.Role)
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("ab", "not-an-email", "secret123")
	assert.Error(t, err)
}

func TestGenerateAPIKey(t *testing.T) {
	user := &User{}
	key, err := user.GenerateAPIKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "fd_"))
	assert.NotEmpty(t, user.APIKeyHash)
	// only the hash is stored
	assert.NotContains(t, user.APIKeyHash, key)
	assert.Equal(t, user.APIKeyHash, HashAPIKey(key))

	second, err := user.GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, second)
}
