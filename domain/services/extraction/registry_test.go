package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

func ticketPattern(id string) Pattern {
	return Pattern{
		ID:         id,
		ToolType:   valueobjects.ToolJira,
		Confidence: ConfidenceHigh,
		Expr:       `\bTEST-\d+\b`,
		Positive:   []Example{{Text: "see TEST-7 for details", Want: "TEST-7"}},
		Negative:   []string{"test-7 is lowercase"},
	}
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ticketPattern("test-ticket")))

	p, ok := r.Get("test-ticket")
	require.True(t, ok)
	assert.Equal(t, "test-ticket", p.ID)
	assert.NotNil(t, p.Regexp())
	assert.Equal(t, 1, r.Len())
}

func TestRegisterRejectsEmptyID(t *testing.T) {
	r := NewRegistry()
	p := ticketPattern("")

	err := r.Register(p)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePatternInvalid, pkgerrors.GetAppError(err).Code)
}

func TestRegisterRejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ticketPattern("dup")))

	err := r.Register(ticketPattern("dup"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterRejectsUncompilableExpression(t *testing.T) {
	r := NewRegistry()
	p := ticketPattern("broken")
	p.Expr = `[unclosed`

	err := r.Register(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not compile")
}

func TestRegisterRejectsEmptyStringMatch(t *testing.T) {
	r := NewRegistry()
	p := Pattern{
		ID:         "matches-everything",
		ToolType:   valueobjects.ToolGeneric,
		Confidence: ConfidenceLow,
		Expr:       `[A-Z]*`,
	}

	err := r.Register(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matches the empty string")
}

func TestRegisterRejectsFailingPositiveExample(t *testing.T) {
	r := NewRegistry()
	p := ticketPattern("wrong-want")
	p.Positive = []Example{{Text: "see TEST-7 for details", Want: "TEST-8"}}

	err := r.Register(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"see TEST-7 for details"`)
	assert.Contains(t, err.Error(), `want "TEST-8"`)
}

func TestRegisterRejectsMatchingNegativeExample(t *testing.T) {
	r := NewRegistry()
	p := ticketPattern("loose")
	p.Negative = []string{"TEST-99 should not match but does"}

	err := r.Register(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative example")
	assert.Contains(t, err.Error(), "TEST-99")
	assert.Equal(t, pkgerrors.CodePatternInvalid, pkgerrors.GetAppError(err).Code)
}

func TestActivePatternsExcludesSuperseded(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(ticketPattern("v1")))

	v2 := ticketPattern("v2")
	v2.Supersedes = "v1"
	require.NoError(t, r.Register(v2))

	active := r.ActivePatterns()
	require.Len(t, active, 1)
	assert.Equal(t, "v2", active[0].ID)

	// The superseded pattern stays registered for provenance
	assert.Equal(t, 2, r.Len())
	_, ok := r.Get("v1")
	assert.True(t, ok)
}

func TestActivePatternsPreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"first", "second", "third"} {
		require.NoError(t, r.Register(ticketPattern(id)))
	}

	ids := make([]string, 0, 3)
	for _, p := range r.ActivePatterns() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestMustRegisterPanicsOnInvalidPattern(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() {
		r.MustRegister(ticketPattern(""))
	})
}

func TestDefaultRegistryPopulated(t *testing.T) {
	r := DefaultRegistry()
	assert.NotZero(t, r.Len())

	// The combined PR pattern replaces the URL-only one
	ids := make(map[string]bool)
	for _, p := range r.ActivePatterns() {
		ids[p.ID] = true
	}
	assert.True(t, ids["github-pr"])
	assert.False(t, ids["github-pr-url-v1"])
}
