package clustering

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	"careerlens/domain/services/extraction"
	pkgerrors "careerlens/pkg/errors"
)

// stubFinder resolves whatever activities it was seeded with
type stubFinder struct {
	activities map[string]*entities.Activity
	err        error
}

func (f *stubFinder) FindActivitiesByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Activity, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*entities.Activity
	for _, id := range ids {
		if a, ok := f.activities[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func newTestHydrator(t *testing.T, finder ActivityFinder) *Hydrator {
	t.Helper()
	return NewHydrator(finder, extraction.NewExtractor(extraction.DefaultRegistry(), nil), nil, nil)
}

func clusterOf(t *testing.T, activities ...*entities.Activity) *aggregates.Cluster {
	t.Helper()
	members := make([]aggregates.MemberRecord, len(activities))
	for i, a := range activities {
		members[i] = aggregates.MemberRecord{
			ID:        a.ID(),
			Refs:      []string{"AUTH-1"},
			Timestamp: a.Timestamp(),
			Source:    a.Source(),
		}
	}
	cluster, err := aggregates.NewCluster(members)
	require.NoError(t, err)
	return cluster
}

func TestHydrateSortsByTimestampAscending(t *testing.T) {
	late := testActivity(t, "late", "AUTH-1 retro", valueobjects.ToolSlack, 5)
	early := testActivity(t, "early", "AUTH-1 kickoff", valueobjects.ToolJira, 0)
	mid := testActivity(t, "mid", "AUTH-1 review", valueobjects.ToolGitHub, 2)

	finder := &stubFinder{activities: map[string]*entities.Activity{
		"late": late, "early": early, "mid": mid,
	}}
	h := newTestHydrator(t, finder)

	hc, err := h.Hydrate(context.Background(), "user-1", clusterOf(t, late, early, mid))
	require.NoError(t, err)
	require.Len(t, hc.Activities, 3)

	ids := make([]string, len(hc.Activities))
	for i, ha := range hc.Activities {
		ids[i] = ha.Activity.ID()
	}
	assert.Equal(t, []string{"early", "mid", "late"}, ids)
}

func TestHydrateAttachesExtractedRefs(t *testing.T) {
	a := testActivity(t, "a", "AUTH-1 design for acme/backend#42", valueobjects.ToolJira, 0)
	b := testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1)

	finder := &stubFinder{activities: map[string]*entities.Activity{"a": a, "b": b}}
	h := newTestHydrator(t, finder)

	hc, err := h.Hydrate(context.Background(), "user-1", clusterOf(t, a, b))
	require.NoError(t, err)
	require.Len(t, hc.Activities, 2)
	assert.ElementsMatch(t, []string{"AUTH-1", "acme/backend#42"}, hc.Activities[0].Refs)
	assert.Equal(t, []string{"AUTH-1"}, hc.Activities[1].Refs)
}

func TestHydrateSkipsUnresolvedMembers(t *testing.T) {
	a := testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0)
	b := testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1)

	// "b" was re-synced under a new id and no longer resolves
	finder := &stubFinder{activities: map[string]*entities.Activity{"a": a}}
	h := newTestHydrator(t, finder)

	hc, err := h.Hydrate(context.Background(), "user-1", clusterOf(t, a, b))
	require.NoError(t, err)
	require.Len(t, hc.Activities, 1)
	assert.Equal(t, "a", hc.Activities[0].Activity.ID())
}

func TestHydrateMetricsCountResolvedActivities(t *testing.T) {
	a := testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0)
	b := testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1)
	c := testActivity(t, "c", "AUTH-1 retro", valueobjects.ToolConfluence, 2)

	// "c" was deleted after the cluster was stored
	finder := &stubFinder{activities: map[string]*entities.Activity{"a": a, "b": b}}
	h := newTestHydrator(t, finder)

	hc, err := h.Hydrate(context.Background(), "user-1", clusterOf(t, a, b, c))
	require.NoError(t, err)
	require.Len(t, hc.Activities, 2)

	// The stored metrics still describe the full membership; the hydrated
	// view reports what actually resolved.
	assert.Equal(t, 3, hc.Cluster.Metrics().ActivityCount)
	assert.Equal(t, 2, hc.Metrics().ActivityCount)
	assert.Equal(t, hc.Cluster.Metrics().RefCount, hc.Metrics().RefCount)
}

func TestHydratePropagatesRepositoryError(t *testing.T) {
	a := testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0)
	b := testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1)

	h := newTestHydrator(t, &stubFinder{err: errors.New("table offline")})

	_, err := h.Hydrate(context.Background(), "user-1", clusterOf(t, a, b))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load cluster activities")
}

func TestHydrateStrictFailsWhenNothingResolves(t *testing.T) {
	a := testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0)
	b := testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1)

	h := newTestHydrator(t, &stubFinder{activities: map[string]*entities.Activity{}})

	_, err := h.HydrateStrict(context.Background(), "user-1", clusterOf(t, a, b))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNoActivitiesFound, pkgerrors.GetAppError(err).Code)
}
