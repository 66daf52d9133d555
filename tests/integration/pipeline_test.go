package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"careerlens/application/commands"
	domaincfg "careerlens/domain/config"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	"careerlens/domain/events"
	"careerlens/domain/services/clustering"
	"careerlens/domain/services/extraction"
	"careerlens/domain/services/identity"
	"careerlens/domain/services/narrative"
	"careerlens/infrastructure/persistence/memory"
)

// capturingPublisher records published events for assertions
type capturingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *capturingPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, batch...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.GetEventType()
	}
	return types
}

type pipelineFixture struct {
	activities *memory.ActivityRepository
	clusters   *memory.ClusterRepository
	narratives *memory.NarrativeRepository
	personas   *memory.PersonaRepository
	publisher  *capturingPublisher

	extractClusters   *commands.ExtractClustersHandler
	generateNarrative *commands.GenerateNarrativeHandler
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	logger := zap.NewNop()
	cfg := domaincfg.DefaultPipelineConfig()

	activities := memory.NewActivityRepository()
	clusters := memory.NewClusterRepository()
	narratives := memory.NewNarrativeRepository()
	personas := memory.NewPersonaRepository()
	publisher := &capturingPublisher{}

	refs := extraction.NewExtractor(extraction.DefaultRegistry(), logger)
	clusterExtractor := clustering.NewExtractor(refs, cfg, logger)
	hydrator := clustering.NewHydrator(activities, refs, cfg, logger)
	matcher := identity.NewMatcher(nil, logger)
	narrativeExtractor := narrative.NewExtractor(matcher, cfg, logger)

	return &pipelineFixture{
		activities: activities,
		clusters:   clusters,
		narratives: narratives,
		personas:   personas,
		publisher:  publisher,
		extractClusters: commands.NewExtractClustersHandler(
			activities, clusters, clusterExtractor, publisher, logger),
		generateNarrative: commands.NewGenerateNarrativeHandler(
			clusters, personas, narratives, hydrator, narrativeExtractor, publisher, logger),
	}
}

func (f *pipelineFixture) seedActivity(
	t *testing.T,
	userID, id string,
	source valueobjects.ToolType,
	title, description string,
	day int,
	rawData map[string]interface{},
) {
	t.Helper()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	a, err := entities.ReconstructActivity(
		id, userID, source, id, "", title, description,
		base.AddDate(0, 0, day), rawData)
	require.NoError(t, err)
	require.NoError(t, f.activities.Save(context.Background(), a))
}

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	userID := "user-1"

	require.NoError(t, f.personas.Save(ctx, userID, valueobjects.CareerPersona{
		DisplayName: "Dana Reyes",
		Emails:      []string{"dana@acme.io"},
		Identities: map[valueobjects.ToolType]valueobjects.ToolIdentity{
			valueobjects.ToolGitHub: {Login: "dana-dev"},
			valueobjects.ToolJira:   {AccountID: "5f8a-accid-dana"},
		},
	}))

	// Four activities share the AUTH-123 ticket reference across tools;
	// the fifth has no references and should stay unclustered.
	f.seedActivity(t, userID, "act-jira", valueobjects.ToolJira,
		"AUTH-123 implement SSO login",
		"Customers need single sign-on before the enterprise launch.",
		0,
		map[string]interface{}{
			"fields": map[string]interface{}{
				"assignee": map[string]interface{}{"emailAddress": "dana@acme.io"},
			},
		})
	f.seedActivity(t, userID, "act-pr", valueobjects.ToolGitHub,
		"Add SAML handler for AUTH-123",
		"Implemented the SAML assertion flow described in AUTH-123.",
		2,
		map[string]interface{}{
			"author": map[string]interface{}{"login": "dana-dev"},
		})
	f.seedActivity(t, userID, "act-slack", valueobjects.ToolSlack,
		"Rollout thread for AUTH-123",
		"Coordinated the staged rollout with the platform team.",
		3,
		map[string]interface{}{
			"user": "dana@acme.io",
		})
	f.seedActivity(t, userID, "act-doc", valueobjects.ToolConfluence,
		"AUTH-123 launch review",
		"Delivered SSO to all enterprise tenants, reducing login failures by 40%.",
		5,
		map[string]interface{}{
			"createdBy": "dana@acme.io",
		})
	f.seedActivity(t, userID, "act-lunch", valueobjects.ToolSlack,
		"Team lunch planning", "Where should we go on Friday?", 4, nil)

	result, err := f.extractClusters.Handle(ctx, commands.ExtractClustersCommand{
		UserID: userID,
	})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)
	assert.Contains(t, result.Unclustered, "act-lunch")

	cluster := result.Clusters[0]
	assert.ElementsMatch(t,
		[]string{"act-jira", "act-pr", "act-slack", "act-doc"},
		cluster.ActivityIDs())
	assert.Contains(t, cluster.SharedRefs(), "AUTH-123")

	// Re-running over the same activities must produce the same cluster ID
	rerun, err := f.extractClusters.Handle(ctx, commands.ExtractClustersCommand{
		UserID:  userID,
		Replace: true,
	})
	require.NoError(t, err)
	require.Len(t, rerun.Clusters, 1)
	assert.Equal(t, cluster.ID(), rerun.Clusters[0].ID())

	outcome, err := f.generateNarrative.Handle(ctx, commands.GenerateNarrativeCommand{
		UserID:    userID,
		ClusterID: cluster.ID().String(),
		Framework: "STAR",
	})
	require.NoError(t, err)
	require.False(t, outcome.Rejected())
	require.NotNil(t, outcome.Narrative)

	n := outcome.Narrative
	assert.Equal(t, "STAR", n.Framework())
	assert.Equal(t, cluster.ID().String(), n.ClusterID())

	names := make([]string, 0, len(n.Components()))
	for _, c := range n.Components() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"situation", "task", "action", "result"}, names)

	summary := n.ParticipationSummary()
	total := 0
	for _, count := range summary {
		total += count
	}
	assert.Equal(t, 4, total)
	assert.GreaterOrEqual(t, summary[valueobjects.ParticipationInitiator], 3)

	// The narrative must be retrievable afterwards
	stored, err := f.narratives.GetByID(ctx, userID, n.ID())
	require.NoError(t, err)
	assert.Equal(t, n.ID(), stored.ID())

	types := f.publisher.eventTypes()
	assert.Contains(t, types, "pipeline.clusters_extracted")
	assert.Contains(t, types, "pipeline.narrative_generated")
}

func TestPipelineRejectsThinCluster(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture(t)
	userID := "user-2"

	require.NoError(t, f.personas.Save(ctx, userID, valueobjects.CareerPersona{
		Emails: []string{"kim@acme.io"},
	}))

	// Two activities from a single tool: enough to cluster, not enough
	// to pass the narrative gates.
	f.seedActivity(t, userID, "act-a", valueobjects.ToolJira,
		"PLAT-9 fix flaky deploy", "", 0,
		map[string]interface{}{
			"fields": map[string]interface{}{
				"assignee": map[string]interface{}{"emailAddress": "kim@acme.io"},
			},
		})
	f.seedActivity(t, userID, "act-b", valueobjects.ToolJira,
		"Follow-up on PLAT-9 rollback", "", 1, nil)

	result, err := f.extractClusters.Handle(ctx, commands.ExtractClustersCommand{
		UserID: userID,
	})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)

	outcome, err := f.generateNarrative.Handle(ctx, commands.GenerateNarrativeCommand{
		UserID:    userID,
		ClusterID: result.Clusters[0].ID().String(),
		Framework: "STAR",
	})
	require.NoError(t, err)
	require.True(t, outcome.Rejected())
	assert.Contains(t, outcome.FailedGates, "MIN_ACTIVITIES")
	assert.Contains(t, outcome.FailedGates, "MIN_TOOL_TYPES")

	// Participation still comes back so the user sees what was counted
	assert.Len(t, outcome.Participation, 2)

	// Nothing may be persisted for a rejected attempt
	saved, err := f.narratives.GetByClusterID(ctx, userID, result.Clusters[0].ID().String())
	require.NoError(t, err)
	assert.Empty(t, saved)

	assert.Contains(t, f.publisher.eventTypes(), "pipeline.narrative_rejected")
}
