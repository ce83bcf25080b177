package controllers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "acme-corp", slugify("Acme Corp"))
	assert.Equal(t, "acme-corp", slugify("  Acme   Corp!  "))
	assert.Equal(t, "team-42", slugify("Team 42"))
	assert.Equal(t, "projekt-pl-ne", slugify("Projekt Pläne"))

	// unusable names still produce a non-empty slug
	generated := slugify("!!!")
	assert.True(t, strings.HasPrefix(generated, "ws-"))
}

func TestRandomTokenIsUnique(t *testing.T) {
	a, err := randomToken()
	require.NoError(t, err)
	b, err := randomToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
