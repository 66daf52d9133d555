// Package clustering groups activities into evidence clusters by the
// references they share, and hydrates stored clusters back into full
// activity records.
package clustering

import (
	"time"

	"go.uber.org/zap"

	"careerlens/domain/config"
	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/services/extraction"
	pkgerrors "careerlens/pkg/errors"
)

// TimeWindow bounds a clustering run. Zero ends are unbounded.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// Contains reports whether a timestamp falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// ExtractOptions configures one clustering run
type ExtractOptions struct {
	// Window restricts clustering to activities inside a time range
	Window TimeWindow

	// Extraction is passed through to the reference extractor
	Extraction extraction.Options
}

// Result is the outcome of one clustering run. Every input activity inside
// the window lands in exactly one cluster or in Unclustered.
type Result struct {
	Clusters []*aggregates.Cluster

	// Members maps cluster id to the member records the cluster was built
	// from, so callers can hydrate without re-extracting.
	Members map[aggregates.ClusterID][]aggregates.MemberRecord

	// Unclustered holds ids of activities that shared no refs with anyone,
	// or whose component fell below the minimum cluster size.
	Unclustered []string

	// Skipped holds ids of activities outside the time window
	Skipped []string
}

// Extractor finds connected components among activities that share
// extracted references.
type Extractor struct {
	refs   *extraction.Extractor
	cfg    *config.PipelineConfig
	logger *zap.Logger
}

// NewExtractor creates a cluster extractor
func NewExtractor(refs *extraction.Extractor, cfg *config.PipelineConfig, logger *zap.Logger) *Extractor {
	if cfg == nil {
		cfg = config.DefaultPipelineConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		refs:   refs,
		cfg:    cfg,
		logger: logger,
	}
}

// Extract clusters the given activities. Two activities belong to the same
// cluster when they are connected, directly or transitively, through at
// least one shared reference. Components smaller than the configured
// minimum size are reported as unclustered rather than dropped silently.
func (e *Extractor) Extract(activities []*entities.Activity, opts ExtractOptions) (*Result, error) {
	result := &Result{
		Clusters:    []*aggregates.Cluster{},
		Members:     make(map[aggregates.ClusterID][]aggregates.MemberRecord),
		Unclustered: []string{},
		Skipped:     []string{},
	}

	members := make([]aggregates.MemberRecord, 0, len(activities))
	for _, a := range activities {
		if !opts.Window.Contains(a.Timestamp()) {
			result.Skipped = append(result.Skipped, a.ID())
			continue
		}
		extracted := e.refs.ExtractFromActivity(a, opts.Extraction)
		if len(extracted.Refs) == 0 {
			e.logger.Warn("activity has no extractable references",
				zap.String("activityId", a.ID()),
				zap.String("source", a.Source().String()))
		}
		members = append(members, aggregates.MemberRecord{
			ID:        a.ID(),
			Refs:      extracted.Refs,
			Timestamp: a.Timestamp(),
			Source:    a.Source(),
		})
	}

	components := connectedComponents(members)

	for _, component := range components {
		if len(component) < e.cfg.MinClusterSize {
			for _, m := range component {
				result.Unclustered = append(result.Unclustered, m.ID)
			}
			continue
		}
		cluster, err := aggregates.NewCluster(component)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to build cluster")
		}
		result.Clusters = append(result.Clusters, cluster)
		result.Members[cluster.ID()] = component
	}

	e.logger.Info("clustering run complete",
		zap.Int("activities", len(members)),
		zap.Int("clusters", len(result.Clusters)),
		zap.Int("unclustered", len(result.Unclustered)),
		zap.Int("skipped", len(result.Skipped)))

	return result, nil
}

// ExtractStrict behaves like Extract but fails with a machine-readable
// code when no input activities fall inside the window.
func (e *Extractor) ExtractStrict(activities []*entities.Activity, opts ExtractOptions) (*Result, error) {
	eligible := 0
	for _, a := range activities {
		if opts.Window.Contains(a.Timestamp()) {
			eligible++
		}
	}
	if eligible == 0 {
		return nil, pkgerrors.NewNotFoundError("activities in window").
			WithCode(pkgerrors.CodeNoActivitiesFound)
	}
	return e.Extract(activities, opts)
}

// connectedComponents partitions members into components connected through
// shared references, using union-find over the member indices. Components
// come back ordered by their first member's input position, and members
// keep their input order within each component, so the partition is
// deterministic for a given input order and identical in content for any
// permutation of it.
func connectedComponents(members []aggregates.MemberRecord) [][]aggregates.MemberRecord {
	parent := make([]int, len(members))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	refOwner := make(map[string]int)
	for i, m := range members {
		for _, ref := range m.Refs {
			if first, ok := refOwner[ref]; ok {
				union(first, i)
			} else {
				refOwner[ref] = i
			}
		}
	}

	order := []int{}
	groups := make(map[int][]aggregates.MemberRecord)
	for i, m := range members {
		root := find(i)
		if _, ok := groups[root]; !ok {
			order = append(order, root)
		}
		groups[root] = append(groups[root], m)
	}

	components := make([][]aggregates.MemberRecord, 0, len(order))
	for _, root := range order {
		components = append(components, groups[root])
	}
	return components
}
