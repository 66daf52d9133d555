package aggregates

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sort"
	"strings"
	"time"

	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
)

// ClusterID represents a unique cluster identifier
type ClusterID string

// String returns the string representation
func (id ClusterID) String() string {
	return string(id)
}

// MemberRecord is the per-activity input the cluster is built from
type MemberRecord struct {
	ID        string
	Refs      []string
	Timestamp time.Time
	Source    valueobjects.ToolType
}

// ClusterMetrics summarizes a cluster's membership
type ClusterMetrics struct {
	ActivityCount int                     `json:"activity_count"`
	ToolTypes     []valueobjects.ToolType `json:"tool_types"`
	RefCount      int                     `json:"ref_count"`
	Earliest      time.Time               `json:"earliest"`
	Latest        time.Time               `json:"latest"`
}

// Cluster is a maximal set of activities transitively connected by shared
// references. It is immutable once built.
type Cluster struct {
	id          ClusterID
	activityIDs []string
	sharedRefs  []string
	allRefs     []string
	metrics     ClusterMetrics
	createdAt   time.Time
}

// NewCluster builds a cluster from one connected component's member records.
// Member ids and shared refs are stored sorted so that the same membership
// always produces the same cluster regardless of input order.
func NewCluster(members []MemberRecord) (*Cluster, error) {
	if len(members) == 0 {
		return nil, errors.New("cluster requires at least one member")
	}

	ids := make([]string, 0, len(members))
	refCounts := make(map[string]int)
	allRefs := []string{}
	toolSet := make(map[valueobjects.ToolType]bool)
	var earliest, latest time.Time

	for _, m := range members {
		ids = append(ids, m.ID)
		seen := make(map[string]bool)
		for _, ref := range m.Refs {
			if seen[ref] {
				continue // count each ref once per member
			}
			seen[ref] = true
			if refCounts[ref] == 0 {
				allRefs = append(allRefs, ref)
			}
			refCounts[ref]++
		}
		if m.Source != "" {
			toolSet[m.Source] = true
		}
		if !m.Timestamp.IsZero() {
			if earliest.IsZero() || m.Timestamp.Before(earliest) {
				earliest = m.Timestamp
			}
			if latest.IsZero() || m.Timestamp.After(latest) {
				latest = m.Timestamp
			}
		}
	}
	sort.Strings(ids)

	sharedRefs := []string{}
	for ref, count := range refCounts {
		if count >= 2 {
			sharedRefs = append(sharedRefs, ref)
		}
	}
	sort.Strings(sharedRefs)
	sort.Strings(allRefs)

	toolTypes := make([]valueobjects.ToolType, 0, len(toolSet))
	for t := range toolSet {
		toolTypes = append(toolTypes, t)
	}
	sort.Slice(toolTypes, func(i, j int) bool { return toolTypes[i] < toolTypes[j] })

	return &Cluster{
		id:          deriveClusterID(ids),
		activityIDs: ids,
		sharedRefs:  sharedRefs,
		allRefs:     allRefs,
		metrics: ClusterMetrics{
			ActivityCount: len(ids),
			ToolTypes:     toolTypes,
			RefCount:      len(allRefs),
			Earliest:      earliest,
			Latest:        latest,
		},
		createdAt: time.Now(),
	}, nil
}

// ReconstructCluster rebuilds a cluster from repository data
func ReconstructCluster(
	id string,
	activityIDs []string,
	sharedRefs []string,
	metrics ClusterMetrics,
	createdAt time.Time,
) (*Cluster, error) {
	if id == "" {
		return nil, errors.New("cluster id required")
	}
	if len(activityIDs) == 0 {
		return nil, errors.New("cluster requires at least one member")
	}
	return &Cluster{
		id:          ClusterID(id),
		activityIDs: activityIDs,
		sharedRefs:  sharedRefs,
		metrics:     metrics,
		createdAt:   createdAt,
	}, nil
}

// ID returns the cluster's identifier
func (c *Cluster) ID() ClusterID {
	return c.id
}

// ActivityIDs returns the member activity ids
func (c *Cluster) ActivityIDs() []string {
	// Return a copy to maintain immutability
	ids := make([]string, len(c.activityIDs))
	copy(ids, c.activityIDs)
	return ids
}

// SharedRefs returns the references held by at least two members
func (c *Cluster) SharedRefs() []string {
	refs := make([]string, len(c.sharedRefs))
	copy(refs, c.sharedRefs)
	return refs
}

// Metrics returns the cluster's summary metrics
func (c *Cluster) Metrics() ClusterMetrics {
	return c.metrics
}

// CreatedAt returns when the cluster was built
func (c *Cluster) CreatedAt() time.Time {
	return c.createdAt
}

// Size returns the number of member activities
func (c *Cluster) Size() int {
	return len(c.activityIDs)
}

// Contains checks membership of an activity id
func (c *Cluster) Contains(activityID string) bool {
	for _, id := range c.activityIDs {
		if id == activityID {
			return true
		}
	}
	return false
}

// Validate re-checks the cluster invariants against the member records it
// was built from: every member id must come from the input set, and every
// shared ref must occur in at least two members.
func (c *Cluster) Validate(members []MemberRecord) error {
	byID := make(map[string][]string, len(members))
	for _, m := range members {
		byID[m.ID] = m.Refs
	}

	for _, id := range c.activityIDs {
		if _, ok := byID[id]; !ok {
			return errors.New("cluster member not in input set: " + id)
		}
	}

	for _, ref := range c.sharedRefs {
		holders := 0
		for _, id := range c.activityIDs {
			for _, r := range byID[id] {
				if r == ref {
					holders++
					break
				}
			}
		}
		if holders < 2 {
			return errors.New("shared ref held by fewer than two members: " + ref)
		}
	}

	return nil
}

// deriveClusterID derives a stable id from the sorted member ids so that
// re-running extraction over the same activities yields the same cluster id
func deriveClusterID(sortedIDs []string) ClusterID {
	sum := sha1.Sum([]byte(strings.Join(sortedIDs, "\x00")))
	return ClusterID(hex.EncodeToString(sum[:]))
}

// HydratedCluster is a cluster whose member ids have been resolved to full
// activity records, sorted by timestamp ascending.
type HydratedCluster struct {
	Cluster    *Cluster
	Activities []*entities.HydratedActivity
}

// Metrics returns the stored cluster metrics with the activity count
// corrected to the number of members that actually resolved. Members can
// disappear between extraction and hydration when activities are deleted
// or re-synced under new ids.
func (h *HydratedCluster) Metrics() ClusterMetrics {
	m := h.Cluster.Metrics()
	m.ActivityCount = len(h.Activities)
	return m
}

// ToolTypeCount returns the number of distinct tool types among the
// resolved activities
func (h *HydratedCluster) ToolTypeCount() int {
	set := make(map[valueobjects.ToolType]bool)
	for _, a := range h.Activities {
		set[a.Activity.Source()] = true
	}
	return len(set)
}
