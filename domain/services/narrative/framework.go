// Package narrative renders a hydrated, participation-annotated cluster
// into a structured career narrative under one of the fixed frameworks.
package narrative

import (
	"fmt"

	pkgerrors "careerlens/pkg/errors"
)

// Role is the semantic role a framework component plays. Several component
// names share a role (situation, context, challenge and problem all read
// scene-setting language), so extraction heuristics key on the role rather
// than the component name.
type Role string

const (
	RoleSituation Role = "situation"
	RoleTask      Role = "task"
	RoleAction    Role = "action"
	RoleResult    Role = "result"
	RoleLearning  Role = "learning"
	RoleObjective Role = "objective"
)

// Slot is one named component of a framework together with its semantic
// role and an importance multiplier applied to confidence scoring.
type Slot struct {
	Name       string
	Role       Role
	Importance float64
}

// Framework is a named ordered list of narrative component slots
type Framework struct {
	Name  string
	Slots []Slot
}

// ComponentNames returns the slot names in declared order
func (f Framework) ComponentNames() []string {
	names := make([]string, len(f.Slots))
	for i, s := range f.Slots {
		names[i] = s.Name
	}
	return names
}

// HasRole reports whether any slot carries the given role
func (f Framework) HasRole(role Role) bool {
	for _, s := range f.Slots {
		if s.Role == role {
			return true
		}
	}
	return false
}

// The eight supported frameworks. Scene-setting slots carry full weight,
// action and result slots slightly more, reflective slots slightly less.
var frameworks = map[string]Framework{
	"STAR": {
		Name: "STAR",
		Slots: []Slot{
			{Name: "situation", Role: RoleSituation, Importance: 1.0},
			{Name: "task", Role: RoleTask, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
		},
	},
	"STARL": {
		Name: "STARL",
		Slots: []Slot{
			{Name: "situation", Role: RoleSituation, Importance: 1.0},
			{Name: "task", Role: RoleTask, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
			{Name: "learning", Role: RoleLearning, Importance: 0.9},
		},
	},
	"CAR": {
		Name: "CAR",
		Slots: []Slot{
			{Name: "challenge", Role: RoleSituation, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
		},
	},
	"PAR": {
		Name: "PAR",
		Slots: []Slot{
			{Name: "problem", Role: RoleSituation, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
		},
	},
	"SAR": {
		Name: "SAR",
		Slots: []Slot{
			{Name: "situation", Role: RoleSituation, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
		},
	},
	"SOAR": {
		Name: "SOAR",
		Slots: []Slot{
			{Name: "situation", Role: RoleSituation, Importance: 1.0},
			{Name: "obstacle", Role: RoleObjective, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
		},
	},
	"SHARE": {
		Name: "SHARE",
		Slots: []Slot{
			{Name: "situation", Role: RoleSituation, Importance: 1.0},
			{Name: "hindrance", Role: RoleSituation, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
			{Name: "evaluation", Role: RoleLearning, Importance: 0.9},
		},
	},
	"CARL": {
		Name: "CARL",
		Slots: []Slot{
			{Name: "context", Role: RoleSituation, Importance: 1.0},
			{Name: "action", Role: RoleAction, Importance: 1.1},
			{Name: "result", Role: RoleResult, Importance: 1.1},
			{Name: "learning", Role: RoleLearning, Importance: 0.9},
		},
	},
}

// FrameworkNames lists the supported framework names in a stable order
var FrameworkNames = []string{"STAR", "STARL", "CAR", "PAR", "SAR", "SOAR", "SHARE", "CARL"}

// GetFramework looks up a framework by name
func GetFramework(name string) (Framework, error) {
	f, ok := frameworks[name]
	if !ok {
		return Framework{}, pkgerrors.NewValidationError(
			fmt.Sprintf("unknown framework %q", name)).
			WithCode(pkgerrors.CodeUnknownFramework)
	}
	return f, nil
}
