package aggregates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerlens/domain/core/valueobjects"
)

var memberBase = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleMembers() []MemberRecord {
	return []MemberRecord{
		{
			ID:        "act-b",
			Refs:      []string{"AUTH-1", "acme/backend#42"},
			Timestamp: memberBase.AddDate(0, 0, 2),
			Source:    valueobjects.ToolGitHub,
		},
		{
			ID:        "act-a",
			Refs:      []string{"AUTH-1"},
			Timestamp: memberBase,
			Source:    valueobjects.ToolJira,
		},
		{
			ID:        "act-c",
			Refs:      []string{"acme/backend#42", "confluence:99"},
			Timestamp: memberBase.AddDate(0, 0, 5),
			Source:    valueobjects.ToolConfluence,
		},
	}
}

func TestNewClusterRequiresMembers(t *testing.T) {
	_, err := NewCluster(nil)
	require.Error(t, err)
}

func TestNewClusterDerivesStableID(t *testing.T) {
	members := sampleMembers()
	first, err := NewCluster(members)
	require.NoError(t, err)

	reversed := []MemberRecord{members[2], members[1], members[0]}
	second, err := NewCluster(reversed)
	require.NoError(t, err)

	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, first.ActivityIDs(), second.ActivityIDs())
	assert.Equal(t, first.SharedRefs(), second.SharedRefs())
}

func TestNewClusterSortsMembership(t *testing.T) {
	c, err := NewCluster(sampleMembers())
	require.NoError(t, err)

	assert.Equal(t, []string{"act-a", "act-b", "act-c"}, c.ActivityIDs())
	assert.Equal(t, 3, c.Size())
	assert.True(t, c.Contains("act-b"))
	assert.False(t, c.Contains("act-z"))
}

func TestNewClusterSharedRefsRequireTwoHolders(t *testing.T) {
	c, err := NewCluster(sampleMembers())
	require.NoError(t, err)

	// confluence:99 is held by one member only
	assert.Equal(t, []string{"AUTH-1", "acme/backend#42"}, c.SharedRefs())
	assert.Equal(t, 3, c.Metrics().RefCount)
}

func TestNewClusterCountsRefsOncePerMember(t *testing.T) {
	c, err := NewCluster([]MemberRecord{
		{ID: "a", Refs: []string{"AUTH-1", "AUTH-1", "AUTH-1"}},
		{ID: "b", Refs: []string{"PLAT-2"}},
	})
	require.NoError(t, err)

	// Repeats within one member do not make a ref shared
	assert.Empty(t, c.SharedRefs())
}

func TestNewClusterMetrics(t *testing.T) {
	c, err := NewCluster(sampleMembers())
	require.NoError(t, err)

	m := c.Metrics()
	assert.Equal(t, 3, m.ActivityCount)
	assert.Equal(t, []valueobjects.ToolType{
		valueobjects.ToolConfluence,
		valueobjects.ToolGitHub,
		valueobjects.ToolJira,
	}, m.ToolTypes)
	assert.Equal(t, memberBase, m.Earliest)
	assert.Equal(t, memberBase.AddDate(0, 0, 5), m.Latest)
}

func TestValidateAcceptsOwnMembers(t *testing.T) {
	members := sampleMembers()
	c, err := NewCluster(members)
	require.NoError(t, err)

	assert.NoError(t, c.Validate(members))
}

func TestValidateRejectsForeignMember(t *testing.T) {
	members := sampleMembers()
	c, err := NewCluster(members)
	require.NoError(t, err)

	err = c.Validate(members[:2])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "act-c")
}

func TestValidateRejectsUnsharedRef(t *testing.T) {
	members := sampleMembers()
	c, err := ReconstructCluster(
		"cluster-1",
		[]string{"act-a", "act-b", "act-c"},
		[]string{"AUTH-1", "confluence:99"},
		ClusterMetrics{},
		memberBase,
	)
	require.NoError(t, err)

	err = c.Validate(members)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "confluence:99")
}

func TestReconstructClusterValidatesInput(t *testing.T) {
	_, err := ReconstructCluster("", []string{"a"}, nil, ClusterMetrics{}, memberBase)
	assert.Error(t, err)

	_, err = ReconstructCluster("id", nil, nil, ClusterMetrics{}, memberBase)
	assert.Error(t, err)
}

func TestHydratedClusterToolTypeCount(t *testing.T) {
	c, err := NewCluster(sampleMembers())
	require.NoError(t, err)

	hc := &HydratedCluster{Cluster: c}
	assert.Zero(t, hc.ToolTypeCount())
}
