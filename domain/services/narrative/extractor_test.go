package narrative

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

var narrativeBase = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func narrativePersona() valueobjects.CareerPersona {
	return valueobjects.CareerPersona{
		DisplayName: "Dana Reyes",
		Emails:      []string{"dana@acme.io"},
		Identities: map[valueobjects.ToolType]valueobjects.ToolIdentity{
			valueobjects.ToolGitHub: {Login: "dana-dev"},
		},
	}
}

func hydratedActivity(
	t *testing.T,
	id string,
	source valueobjects.ToolType,
	title, description string,
	day int,
	raw map[string]interface{},
) *entities.HydratedActivity {
	t.Helper()
	a, err := entities.ReconstructActivity(
		id, "user-1", source, id, "", title, description,
		narrativeBase.AddDate(0, 0, day), raw)
	require.NoError(t, err)
	return &entities.HydratedActivity{Activity: a, Refs: []string{"AUTH-1"}}
}

func hydratedCluster(t *testing.T, activities ...*entities.HydratedActivity) *aggregates.HydratedCluster {
	t.Helper()
	members := make([]aggregates.MemberRecord, len(activities))
	for i, ha := range activities {
		members[i] = aggregates.MemberRecord{
			ID:        ha.Activity.ID(),
			Refs:      ha.Refs,
			Timestamp: ha.Activity.Timestamp(),
			Source:    ha.Activity.Source(),
		}
	}
	cluster, err := aggregates.NewCluster(members)
	require.NoError(t, err)
	return &aggregates.HydratedCluster{Cluster: cluster, Activities: activities}
}

// richCluster passes every gate: four activities, three tools, the acting
// user authored most of them.
func richCluster(t *testing.T) *aggregates.HydratedCluster {
	t.Helper()
	jiraRaw := map[string]interface{}{
		"fields": map[string]interface{}{
			"assignee": map[string]interface{}{"emailAddress": "dana@acme.io"},
		},
	}
	return hydratedCluster(t,
		hydratedActivity(t, "act-bug", valueobjects.ToolJira,
			"AUTH-1 login outage",
			"Login was failing for enterprise customers.", 0, jiraRaw),
		hydratedActivity(t, "act-plan", valueobjects.ToolJira,
			"Plan SSO rollout",
			"We need to implement SAML before the enterprise launch.", 1, jiraRaw),
		hydratedActivity(t, "act-pr", valueobjects.ToolGitHub,
			"Add SAML handler",
			"Implemented the SAML assertion flow.", 2,
			map[string]interface{}{"author": map[string]interface{}{"login": "dana-dev"}}),
		hydratedActivity(t, "act-review", valueobjects.ToolConfluence,
			"SSO launch review",
			"Reduced login failures by 40% across all tenants.", 4,
			map[string]interface{}{"createdBy": "dana@acme.io"}),
	)
}

func TestGenerateStarNarrative(t *testing.T) {
	e := NewExtractor(nil, nil, nil)
	hc := richCluster(t)

	outcome, err := e.Generate(hc, narrativePersona(), "STAR")
	require.NoError(t, err)
	require.False(t, outcome.Rejected())
	require.NotNil(t, outcome.Narrative)
	assert.Empty(t, outcome.FailedGates)

	n := outcome.Narrative
	assert.Equal(t, "STAR", n.Framework())
	assert.Equal(t, hc.Cluster.ID().String(), n.ClusterID())
	assert.Equal(t, "user-1", n.UserID())

	require.Len(t, n.Components(), 4)
	for i, name := range []string{"situation", "task", "action", "result"} {
		c := n.Components()[i]
		assert.Equal(t, name, c.Name)
		assert.NotEmpty(t, c.Text, name)
		assert.Len(t, c.SourceActivityIDs, 1, name)
		assert.Greater(t, c.Confidence, 0.0, name)
	}

	// The situation reads the incident, the result the quantified outcome
	assert.Equal(t, []string{"act-bug"}, n.Components()[0].SourceActivityIDs)
	assert.Equal(t, []string{"act-review"}, n.Components()[3].SourceActivityIDs)

	summary := n.ParticipationSummary()
	assert.Equal(t, 4, summary[valueobjects.ParticipationInitiator])
	assert.Zero(t, summary[valueobjects.ParticipationObserver])
}

func TestGenerateIsDeterministic(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	first, err := e.Generate(richCluster(t), narrativePersona(), "STAR")
	require.NoError(t, err)
	second, err := e.Generate(richCluster(t), narrativePersona(), "STAR")
	require.NoError(t, err)

	require.False(t, first.Rejected())
	require.False(t, second.Rejected())
	for i := range first.Narrative.Components() {
		a := first.Narrative.Components()[i]
		b := second.Narrative.Components()[i]
		assert.Equal(t, a.Text, b.Text)
		assert.Equal(t, a.SourceActivityIDs, b.SourceActivityIDs)
		assert.Equal(t, a.Confidence, b.Confidence)
	}
}

func TestGenerateRejectsThinCluster(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	// Two activities, one tool, no authorship evidence
	hc := hydratedCluster(t,
		hydratedActivity(t, "a", valueobjects.ToolJira, "PLAT-9 fix", "", 0, nil),
		hydratedActivity(t, "b", valueobjects.ToolJira, "PLAT-9 follow-up", "", 1, nil),
	)

	outcome, err := e.Generate(hc, narrativePersona(), "STAR")
	require.NoError(t, err)
	require.True(t, outcome.Rejected())
	assert.Equal(t, []string{
		GateMinActivities, GateMinToolTypes, GateMaxObserverRatio,
	}, outcome.FailedGates)
	assert.Equal(t, pkgerrors.CodeValidationFailed, outcome.FailureCode)

	// Participation comes back even on rejection
	require.Len(t, outcome.Participation, 2)
	for _, p := range outcome.Participation {
		assert.Equal(t, valueobjects.ParticipationObserver, p.Level)
	}
}

func TestGenerateRejectsSingleToolCluster(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	jiraRaw := map[string]interface{}{
		"fields": map[string]interface{}{
			"assignee": map[string]interface{}{"emailAddress": "dana@acme.io"},
		},
	}
	// Enough activities and authorship, but everything lives in one tool
	hc := hydratedCluster(t,
		hydratedActivity(t, "a", valueobjects.ToolJira, "PLAT-9 triage", "", 0, jiraRaw),
		hydratedActivity(t, "b", valueobjects.ToolJira, "PLAT-9 fix", "", 1, jiraRaw),
		hydratedActivity(t, "c", valueobjects.ToolJira, "PLAT-9 verify", "", 2, jiraRaw),
	)

	outcome, err := e.Generate(hc, narrativePersona(), "STAR")
	require.NoError(t, err)
	require.True(t, outcome.Rejected())
	assert.Equal(t, []string{GateMinToolTypes}, outcome.FailedGates)
}

func TestGenerateUnknownFrameworkErrors(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	_, err := e.Generate(richCluster(t), narrativePersona(), "BOGUS")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnknownFramework, pkgerrors.GetAppError(err).Code)
}

func TestGenerateStrictConvertsRejectionToError(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	hc := hydratedCluster(t,
		hydratedActivity(t, "a", valueobjects.ToolJira, "PLAT-9 fix", "", 0, nil),
		hydratedActivity(t, "b", valueobjects.ToolJira, "PLAT-9 follow-up", "", 1, nil),
	)

	_, err := e.GenerateStrict(hc, narrativePersona(), "STAR")
	require.Error(t, err)

	appErr := pkgerrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidationFailed, appErr.Code)
	assert.Contains(t, appErr.Details, "failed_gates")
}

func TestGenerateSuggestsAlternativeFrameworks(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	jiraRaw := map[string]interface{}{
		"fields": map[string]interface{}{
			"assignee": map[string]interface{}{"emailAddress": "dana@acme.io"},
		},
	}
	hc := hydratedCluster(t,
		hydratedActivity(t, "a", valueobjects.ToolJira,
			"AUTH-1 outage", "Login was failing.", 0, jiraRaw),
		hydratedActivity(t, "b", valueobjects.ToolGitHub,
			"Fix login", "Fixed the session handling.", 1,
			map[string]interface{}{"author": map[string]interface{}{"login": "dana-dev"}}),
		hydratedActivity(t, "c", valueobjects.ToolConfluence,
			"Postmortem", "Takeaway: the goal is better alerting next time.", 2,
			map[string]interface{}{"createdBy": "dana@acme.io"}),
	)

	star, err := e.Generate(hc, narrativePersona(), "STAR")
	require.NoError(t, err)
	require.False(t, star.Rejected())
	assert.Equal(t, []string{"STARL", "SOAR"}, star.Alternatives)

	// STARL already has a learning slot, so only SOAR remains
	starl, err := e.Generate(hc, narrativePersona(), "STARL")
	require.NoError(t, err)
	require.False(t, starl.Rejected())
	assert.Equal(t, []string{"SOAR"}, starl.Alternatives)
}

func TestGenerateSuggestsEditsForObserverHeavyClusters(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	jiraRaw := map[string]interface{}{
		"fields": map[string]interface{}{
			"assignee": map[string]interface{}{"emailAddress": "dana@acme.io"},
		},
	}
	// Three observer activities against two authored: an exact 0.6 ratio
	// still passes the gate, but observers outnumber initiators
	hc := hydratedCluster(t,
		hydratedActivity(t, "a", valueobjects.ToolJira,
			"AUTH-1 outage", "Login was failing.", 0, jiraRaw),
		hydratedActivity(t, "b", valueobjects.ToolGitHub,
			"Fix session handling", "Fixed the cookie expiry.", 1,
			map[string]interface{}{"author": map[string]interface{}{"login": "dana-dev"}}),
		hydratedActivity(t, "c", valueobjects.ToolSlack,
			"Incident thread", "Resolved after the rollback.", 2, nil),
		hydratedActivity(t, "d", valueobjects.ToolSlack,
			"Status update", "Monitoring the fix.", 3, nil),
		hydratedActivity(t, "e", valueobjects.ToolConfluence,
			"Incident notes", "Timeline of the outage.", 4, nil),
	)

	outcome, err := e.Generate(hc, narrativePersona(), "SAR")
	require.NoError(t, err)
	require.False(t, outcome.Rejected())
	assert.Contains(t, outcome.Narrative.Suggestions(),
		"Most linked activities show you as an observer; highlight the work you drove directly.")
}

func TestComponentConfidenceTiers(t *testing.T) {
	e := NewExtractor(nil, nil, nil)
	slot := Slot{Name: "action", Role: RoleAction, Importance: 1.1}

	assert.Equal(t, 0.3, e.componentConfidence(slot, 0, 4, false))
	assert.Equal(t, 0.8, e.componentConfidence(slot, 2, 4, true))
	assert.Equal(t, 0.5, e.componentConfidence(slot, 1, 4, true))
	assert.Equal(t, 0.3, e.componentConfidence(slot, 1, 10, true))
}

func TestScoreNarrative(t *testing.T) {
	e := NewExtractor(nil, nil, nil)

	score, passed := e.scoreNarrative(nil)
	assert.Zero(t, score)
	assert.False(t, passed)

	full := []entities.NarrativeComponent{
		{Name: "situation", Text: "x", Confidence: 0.8},
		{Name: "action", Text: "y", Confidence: 0.8},
	}
	score, passed = e.scoreNarrative(full)
	assert.Equal(t, 86, score)
	assert.True(t, passed)

	sparse := []entities.NarrativeComponent{
		{Name: "situation", Text: "x", Confidence: 0.3},
		{Name: "action", Confidence: 0},
		{Name: "result", Confidence: 0},
		{Name: "learning", Confidence: 0},
	}
	_, passed = e.scoreNarrative(sparse)
	assert.False(t, passed)
}

func TestNumericOutcomeFallback(t *testing.T) {
	// No result-language cue anywhere, but the PR carries structured
	// metrics, so the result slot still fills from them
	ha := hydratedActivity(t, "pr", valueobjects.ToolGitHub,
		"Session handling rework", "", 0,
		map[string]interface{}{"additions": float64(240)})

	text, ok := numericOutcome(ha)
	require.True(t, ok)
	assert.Equal(t, "Session handling rework (additions: 240)", text)

	plain := hydratedActivity(t, "doc", valueobjects.ToolConfluence,
		"Meeting notes", "General discussion.", 0, nil)
	_, ok = numericOutcome(plain)
	assert.False(t, ok)
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "Login was failing.", firstSentence("Login was failing. Everyone was paged."))
	assert.Equal(t, "No punctuation here", firstSentence("No punctuation here"))
	assert.Equal(t, "First line", firstSentence("First line\nsecond line"))
}
