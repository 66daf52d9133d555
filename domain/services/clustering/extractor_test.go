package clustering

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	"careerlens/domain/services/extraction"
	pkgerrors "careerlens/pkg/errors"
)

var clusterBase = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func testActivity(t *testing.T, id, title string, source valueobjects.ToolType, day int) *entities.Activity {
	t.Helper()
	a, err := entities.ReconstructActivity(
		id, "user-1", source, id, "", title, "",
		clusterBase.AddDate(0, 0, day), nil)
	require.NoError(t, err)
	return a
}

func newTestClusterExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(extraction.NewExtractor(extraction.DefaultRegistry(), nil), nil, nil)
}

func TestExtractGroupsTransitively(t *testing.T) {
	e := newTestClusterExtractor(t)

	// a-b share AUTH-1, b-c share AUTH-2; a and c never share a ref directly
	activities := []*entities.Activity{
		testActivity(t, "a", "AUTH-1 kickoff", valueobjects.ToolJira, 0),
		testActivity(t, "b", "AUTH-1 continued in AUTH-2", valueobjects.ToolSlack, 1),
		testActivity(t, "c", "AUTH-2 wrap-up", valueobjects.ToolConfluence, 2),
	}

	result, err := e.Extract(activities, ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, result.Clusters[0].ActivityIDs())
	assert.Empty(t, result.Unclustered)
	assert.Empty(t, result.Skipped)
}

func TestExtractIsOrderIndependent(t *testing.T) {
	e := newTestClusterExtractor(t)

	build := func(order []int) aggregates.ClusterID {
		all := []*entities.Activity{
			testActivity(t, "a", "AUTH-1 kickoff", valueobjects.ToolJira, 0),
			testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1),
			testActivity(t, "c", "AUTH-1 retro", valueobjects.ToolSlack, 2),
		}
		permuted := make([]*entities.Activity, len(order))
		for i, idx := range order {
			permuted[i] = all[idx]
		}
		result, err := e.Extract(permuted, ExtractOptions{})
		require.NoError(t, err)
		require.Len(t, result.Clusters, 1)
		return result.Clusters[0].ID()
	}

	first := build([]int{0, 1, 2})
	assert.Equal(t, first, build([]int{2, 0, 1}))
	assert.Equal(t, first, build([]int{1, 2, 0}))
}

func TestExtractPartitionsEveryActivity(t *testing.T) {
	e := newTestClusterExtractor(t)

	activities := []*entities.Activity{
		testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0),
		testActivity(t, "b", "AUTH-1 implementation", valueobjects.ToolGitHub, 1),
		testActivity(t, "c", "PLAT-7 migration", valueobjects.ToolJira, 2),
		testActivity(t, "d", "PLAT-7 rollout", valueobjects.ToolSlack, 3),
		testActivity(t, "e", "team lunch", valueobjects.ToolSlack, 4),
	}

	result, err := e.Extract(activities, ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)

	seen := map[string]int{}
	for _, c := range result.Clusters {
		for _, id := range c.ActivityIDs() {
			seen[id]++
		}
	}
	for _, id := range result.Unclustered {
		seen[id]++
	}
	for _, a := range activities {
		assert.Equal(t, 1, seen[a.ID()], "activity %s must land in exactly one bucket", a.ID())
	}
}

func TestExtractReportsSmallComponentsAsUnclustered(t *testing.T) {
	e := newTestClusterExtractor(t)

	// AUTH-1 appears in one activity only, so its component stays below
	// the minimum cluster size
	activities := []*entities.Activity{
		testActivity(t, "solo", "AUTH-1 spike", valueobjects.ToolJira, 0),
		testActivity(t, "noref", "standup notes", valueobjects.ToolSlack, 1),
	}

	result, err := e.Extract(activities, ExtractOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
	assert.ElementsMatch(t, []string{"solo", "noref"}, result.Unclustered)
}

func TestExtractWarnsOnActivitiesWithoutRefs(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := NewExtractor(
		extraction.NewExtractor(extraction.DefaultRegistry(), nil),
		nil, zap.New(core))

	activities := []*entities.Activity{
		testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0),
		testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1),
		testActivity(t, "noref", "standup notes", valueobjects.ToolSlack, 2),
	}

	_, err := e.Extract(activities, ExtractOptions{})
	require.NoError(t, err)

	entries := logs.FilterMessage("activity has no extractable references").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "noref", entries[0].ContextMap()["activityId"])
}

func TestExtractHandlesHundredsOfActivitiesQuickly(t *testing.T) {
	e := newTestClusterExtractor(t)

	// 200 tickets, 3 activities each
	activities := make([]*entities.Activity, 0, 600)
	for ticket := 0; ticket < 200; ticket++ {
		for i := 0; i < 3; i++ {
			id := fmt.Sprintf("act-%d-%d", ticket, i)
			title := fmt.Sprintf("AUTH-%d step %d", ticket+1, i)
			activities = append(activities, testActivity(t, id, title, valueobjects.ToolJira, i))
		}
	}

	start := time.Now()
	result, err := e.Extract(activities, ExtractOptions{})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, result.Clusters, 200)
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func TestExtractSkipsActivitiesOutsideWindow(t *testing.T) {
	e := newTestClusterExtractor(t)

	activities := []*entities.Activity{
		testActivity(t, "in-a", "AUTH-1 design", valueobjects.ToolJira, 0),
		testActivity(t, "in-b", "AUTH-1 review", valueobjects.ToolGitHub, 1),
		testActivity(t, "old", "AUTH-1 original report", valueobjects.ToolJira, -30),
	}

	result, err := e.Extract(activities, ExtractOptions{
		Window: TimeWindow{From: clusterBase.AddDate(0, 0, -7)},
	})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)
	assert.ElementsMatch(t, []string{"in-a", "in-b"}, result.Clusters[0].ActivityIDs())
	assert.Equal(t, []string{"old"}, result.Skipped)
}

func TestExtractKeepsMemberRecordsForHydration(t *testing.T) {
	e := newTestClusterExtractor(t)

	activities := []*entities.Activity{
		testActivity(t, "a", "AUTH-1 design", valueobjects.ToolJira, 0),
		testActivity(t, "b", "AUTH-1 review", valueobjects.ToolGitHub, 1),
	}

	result, err := e.Extract(activities, ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, result.Clusters, 1)

	members := result.Members[result.Clusters[0].ID()]
	require.Len(t, members, 2)
	assert.NoError(t, result.Clusters[0].Validate(members))
}

func TestExtractStrictFailsWhenWindowIsEmpty(t *testing.T) {
	e := newTestClusterExtractor(t)

	activities := []*entities.Activity{
		testActivity(t, "old", "AUTH-1 archived", valueobjects.ToolJira, -100),
	}

	_, err := e.ExtractStrict(activities, ExtractOptions{
		Window: TimeWindow{From: clusterBase},
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNoActivitiesFound, pkgerrors.GetAppError(err).Code)
}

func TestTimeWindowContains(t *testing.T) {
	w := TimeWindow{From: clusterBase, To: clusterBase.AddDate(0, 0, 7)}
	assert.True(t, w.Contains(clusterBase))
	assert.True(t, w.Contains(clusterBase.AddDate(0, 0, 7)))
	assert.False(t, w.Contains(clusterBase.Add(-time.Second)))
	assert.False(t, w.Contains(clusterBase.AddDate(0, 0, 8)))

	var unbounded TimeWindow
	assert.True(t, unbounded.Contains(clusterBase.AddDate(-10, 0, 0)))
}
