package narrative

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "careerlens/pkg/errors"
)

func TestFrameworkComponentOrders(t *testing.T) {
	expected := map[string][]string{
		"STAR":  {"situation", "task", "action", "result"},
		"STARL": {"situation", "task", "action", "result", "learning"},
		"CAR":   {"challenge", "action", "result"},
		"PAR":   {"problem", "action", "result"},
		"SAR":   {"situation", "action", "result"},
		"SOAR":  {"situation", "obstacle", "action", "result"},
		"SHARE": {"situation", "hindrance", "action", "result", "evaluation"},
		"CARL":  {"context", "action", "result", "learning"},
	}

	for name, want := range expected {
		f, err := GetFramework(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, f.Name)
		assert.Equal(t, want, f.ComponentNames(), name)
	}
}

func TestFrameworkNamesCoverEveryFramework(t *testing.T) {
	assert.Len(t, FrameworkNames, len(frameworks))
	for _, name := range FrameworkNames {
		_, err := GetFramework(name)
		assert.NoError(t, err, name)
	}
}

func TestGetFrameworkUnknown(t *testing.T) {
	_, err := GetFramework("WHAT")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnknownFramework, pkgerrors.GetAppError(err).Code)
}

func TestFrameworkHasRole(t *testing.T) {
	starl, err := GetFramework("STARL")
	require.NoError(t, err)
	assert.True(t, starl.HasRole(RoleLearning))
	assert.False(t, starl.HasRole(RoleObjective))

	soar, err := GetFramework("SOAR")
	require.NoError(t, err)
	assert.True(t, soar.HasRole(RoleObjective))
	assert.False(t, soar.HasRole(RoleLearning))
}

func TestEveryRoleHasACue(t *testing.T) {
	for _, f := range frameworks {
		for _, slot := range f.Slots {
			assert.NotNil(t, roleCues[slot.Role],
				"framework %s slot %s role %s", f.Name, slot.Name, slot.Role)
		}
	}
}
