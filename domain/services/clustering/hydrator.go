package clustering

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"careerlens/domain/config"
	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/services/extraction"
	pkgerrors "careerlens/pkg/errors"
)

// ActivityFinder is the narrow read interface the hydrator needs. The
// repository implementations in the persistence layer satisfy it.
type ActivityFinder interface {
	FindActivitiesByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Activity, error)
}

// Hydrator resolves a stored cluster's member ids back into full activity
// records with their extracted references attached.
type Hydrator struct {
	activities ActivityFinder
	refs       *extraction.Extractor
	cfg        *config.PipelineConfig
	logger     *zap.Logger
}

// NewHydrator creates a cluster hydrator
func NewHydrator(activities ActivityFinder, refs *extraction.Extractor, cfg *config.PipelineConfig, logger *zap.Logger) *Hydrator {
	if cfg == nil {
		cfg = config.DefaultPipelineConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hydrator{
		activities: activities,
		refs:       refs,
		cfg:        cfg,
		logger:     logger,
	}
}

// Hydrate resolves the cluster's member ids for the given user. Member ids
// that no longer resolve (the activity was deleted or re-synced under a new
// id) are logged and skipped; hydration is best-effort. Resolved activities
// come back sorted by timestamp ascending.
func (h *Hydrator) Hydrate(ctx context.Context, userID string, cluster *aggregates.Cluster) (*aggregates.HydratedCluster, error) {
	ids := cluster.ActivityIDs()

	found, err := h.activities.FindActivitiesByIDs(ctx, userID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load cluster activities")
	}

	byID := make(map[string]*entities.Activity, len(found))
	for _, a := range found {
		byID[a.ID()] = a
	}

	hydrated := make([]*entities.HydratedActivity, 0, len(ids))
	missing := 0
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			missing++
			if missing <= h.cfg.MaxMissingIDWarnings {
				h.logger.Warn("cluster member no longer resolves",
					zap.String("clusterId", cluster.ID().String()),
					zap.String("activityId", id))
			}
			continue
		}
		extracted := h.refs.ExtractFromActivity(a, extraction.Options{})
		hydrated = append(hydrated, &entities.HydratedActivity{
			Activity: a,
			Refs:     extracted.Refs,
		})
	}
	if missing > h.cfg.MaxMissingIDWarnings {
		h.logger.Warn("additional cluster members no longer resolve",
			zap.String("clusterId", cluster.ID().String()),
			zap.Int("suppressed", missing-h.cfg.MaxMissingIDWarnings))
	}

	sort.SliceStable(hydrated, func(i, j int) bool {
		return hydrated[i].Activity.Timestamp().Before(hydrated[j].Activity.Timestamp())
	})

	return &aggregates.HydratedCluster{
		Cluster:    cluster,
		Activities: hydrated,
	}, nil
}

// HydrateStrict behaves like Hydrate but fails with a machine-readable code
// when none of the cluster's members resolve.
func (h *Hydrator) HydrateStrict(ctx context.Context, userID string, cluster *aggregates.Cluster) (*aggregates.HydratedCluster, error) {
	hc, err := h.Hydrate(ctx, userID, cluster)
	if err != nil {
		return nil, err
	}
	if len(hc.Activities) == 0 {
		return nil, pkgerrors.NewNotFoundError("activities for cluster "+cluster.ID().String()).
			WithCode(pkgerrors.CodeNoActivitiesFound)
	}
	return hc, nil
}
