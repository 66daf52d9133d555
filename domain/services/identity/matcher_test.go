package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
)

func matcherPersona() valueobjects.CareerPersona {
	return valueobjects.CareerPersona{
		DisplayName: "Dana Reyes",
		Emails:      []string{"dana@acme.io"},
		Identities: map[valueobjects.ToolType]valueobjects.ToolIdentity{
			valueobjects.ToolGitHub: {Login: "dana-dev"},
			valueobjects.ToolJira:   {AccountID: "5f8a-accid-dana"},
		},
	}
}

func matcherActivity(t *testing.T, source valueobjects.ToolType, raw map[string]interface{}) *entities.Activity {
	t.Helper()
	a, err := entities.ReconstructActivity(
		"act-1", "user-1", source, "src-1", "", "some work", "",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), raw)
	require.NoError(t, err)
	return a
}

func TestMatchDefaultsToObserver(t *testing.T) {
	m := NewMatcher(nil, nil)

	noPayload := m.Match(matcherActivity(t, valueobjects.ToolSlack, nil), matcherPersona())
	assert.Equal(t, valueobjects.ParticipationObserver, noPayload.Level)
	assert.Empty(t, noPayload.Signals)

	noMatch := m.Match(matcherActivity(t, valueobjects.ToolSlack, map[string]interface{}{
		"user": "someone-else@acme.io",
	}), matcherPersona())
	assert.Equal(t, valueobjects.ParticipationObserver, noMatch.Level)
	assert.Empty(t, noMatch.Signals)
}

func TestMatchJiraAssigneeByEmail(t *testing.T) {
	m := NewMatcher(nil, nil)

	result := m.Match(matcherActivity(t, valueobjects.ToolJira, map[string]interface{}{
		"fields": map[string]interface{}{
			"assignee": map[string]interface{}{"emailAddress": "DANA@ACME.IO"},
		},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationInitiator, result.Level)
	assert.Contains(t, result.Signals, "jira-assignee")
}

func TestMatchJiraAssigneeByAccountID(t *testing.T) {
	m := NewMatcher(nil, nil)

	result := m.Match(matcherActivity(t, valueobjects.ToolJira, map[string]interface{}{
		"fields": map[string]interface{}{
			"assignee": map[string]interface{}{"accountId": "5f8a-accid-dana"},
		},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationInitiator, result.Level)
	assert.Contains(t, result.Signals, "jira-assignee")
}

func TestMatchGitHubAuthorByLogin(t *testing.T) {
	m := NewMatcher(nil, nil)

	result := m.Match(matcherActivity(t, valueobjects.ToolGitHub, map[string]interface{}{
		"author": map[string]interface{}{"login": "dana-dev"},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationInitiator, result.Level)
	assert.Equal(t, []string{"github-author"}, result.Signals)
}

func TestMatchHeaviestSignalDecidesLevel(t *testing.T) {
	m := NewMatcher(nil, nil)

	// Both watcher (observer) and author (initiator) match; the heavier
	// author signal sets the level, both names are recorded.
	result := m.Match(matcherActivity(t, valueobjects.ToolGitHub, map[string]interface{}{
		"author":   map[string]interface{}{"login": "dana-dev"},
		"watchers": []interface{}{"dana@acme.io", "kim@acme.io"},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationInitiator, result.Level)
	assert.Equal(t, []string{"github-author", "github-watcher"}, result.Signals)
}

func TestMatchToolScopedSignalDoesNotLeak(t *testing.T) {
	m := NewMatcher(nil, nil)

	// assignee is a Jira-only signal; the same payload on a GitHub
	// activity classifies as observer
	result := m.Match(matcherActivity(t, valueobjects.ToolGitHub, map[string]interface{}{
		"assignee": map[string]interface{}{"emailAddress": "dana@acme.io"},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationObserver, result.Level)
	assert.Empty(t, result.Signals)
}

func TestMatchReviewerListOfObjects(t *testing.T) {
	m := NewMatcher(nil, nil)

	result := m.Match(matcherActivity(t, valueobjects.ToolGitHub, map[string]interface{}{
		"requested_reviewers": []interface{}{
			map[string]interface{}{"login": "someone-else"},
			map[string]interface{}{"login": "dana-dev"},
		},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationContributor, result.Level)
	assert.Equal(t, []string{"github-reviewer"}, result.Signals)
}

func TestMatchMentionLevel(t *testing.T) {
	m := NewMatcher(nil, nil)

	result := m.Match(matcherActivity(t, valueobjects.ToolSlack, map[string]interface{}{
		"mentions": []interface{}{"dana@acme.io"},
	}), matcherPersona())

	assert.Equal(t, valueobjects.ParticipationMentioned, result.Level)
	assert.Equal(t, []string{"slack-mention"}, result.Signals)
}

func TestMatchAllAttachesResults(t *testing.T) {
	m := NewMatcher(nil, nil)

	activities := []*entities.HydratedActivity{
		{Activity: matcherActivity(t, valueobjects.ToolGitHub, map[string]interface{}{
			"author": map[string]interface{}{"login": "dana-dev"},
		})},
		{Activity: matcherActivity(t, valueobjects.ToolSlack, nil)},
	}

	m.MatchAll(activities, matcherPersona())

	require.NotNil(t, activities[0].Participation)
	require.NotNil(t, activities[1].Participation)
	assert.Equal(t, valueobjects.ParticipationInitiator, activities[0].Participation.Level)
	assert.Equal(t, valueobjects.ParticipationObserver, activities[1].Participation.Level)
}

func TestCustomSignalTableOrdering(t *testing.T) {
	signals := []Signal{
		{Name: "light", Weight: 1, Level: valueobjects.ParticipationObserver, Keys: []string{"who"}},
		{Name: "heavy", Weight: 9, Level: valueobjects.ParticipationInitiator, Keys: []string{"who"}},
	}
	m := NewMatcher(signals, nil)

	result := m.Match(matcherActivity(t, valueobjects.ToolGeneric, map[string]interface{}{
		"who": "dana@acme.io",
	}), matcherPersona())

	// Sorted heaviest first regardless of declaration order
	assert.Equal(t, valueobjects.ParticipationInitiator, result.Level)
	assert.Equal(t, []string{"generic-heavy", "generic-light"}, result.Signals)
}
