package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolType(t *testing.T) {
	for _, known := range AllToolTypes {
		got, err := NewToolType(string(known))
		require.NoError(t, err)
		assert.Equal(t, known, got)
		assert.True(t, known.IsValid())
	}

	_, err := NewToolType("notion")
	assert.Error(t, err)
	assert.False(t, ToolType("notion").IsValid())
	assert.False(t, ToolType("").IsValid())
}

func TestPersonaMatchesEmailCaseInsensitive(t *testing.T) {
	p := CareerPersona{Emails: []string{"dana@acme.io"}}

	assert.True(t, p.Matches(ToolSlack, "DANA@ACME.IO"))
	assert.True(t, p.Matches(ToolSlack, "  dana@acme.io "))
	assert.False(t, p.Matches(ToolSlack, "kim@acme.io"))
	assert.False(t, p.Matches(ToolSlack, ""))
}

func TestPersonaMatchesIdentityPerTool(t *testing.T) {
	p := CareerPersona{
		Identities: map[ToolType]ToolIdentity{
			ToolGitHub: {Login: "dana-dev"},
			ToolJira:   {AccountID: "acc-1", DisplayName: "Dana Reyes"},
		},
	}

	assert.True(t, p.Matches(ToolGitHub, "dana-dev"))
	assert.True(t, p.Matches(ToolJira, "Dana Reyes"))
	assert.True(t, p.Matches(ToolJira, "acc-1"))

	// Identities do not cross tool boundaries
	assert.False(t, p.Matches(ToolJira, "dana-dev"))
	assert.False(t, p.Matches(ToolSlack, "dana-dev"))
}

func TestToolIdentityFields(t *testing.T) {
	full := ToolIdentity{AccountID: "acc", Login: "login", DisplayName: "name"}
	assert.Equal(t, []string{"acc", "login", "name"}, full.Fields())

	assert.Empty(t, ToolIdentity{}.Fields())
}
