// Package memory holds in-memory implementations of the persistence ports,
// used by the local development server and the integration tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"careerlens/application/ports"
	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

// ActivityRepository is an in-memory ports.ActivityRepository
type ActivityRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*entities.Activity // userID -> id -> activity
}

// NewActivityRepository creates an empty in-memory activity repository
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{
		items: make(map[string]map[string]*entities.Activity),
	}
}

// Save persists an activity
func (r *ActivityRepository) Save(ctx context.Context, activity *entities.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.items[activity.UserID()]
	if !ok {
		byID = make(map[string]*entities.Activity)
		r.items[activity.UserID()] = byID
	}
	byID[activity.ID()] = activity
	return nil
}

// GetByID retrieves one activity
func (r *ActivityRepository) GetByID(ctx context.Context, userID, id string) (*entities.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.items[userID][id]; ok {
		return a, nil
	}
	return nil, pkgerrors.NewNotFoundError("activity " + id)
}

// FindActivitiesByIDs retrieves the activities that exist among the given ids
func (r *ActivityRepository) FindActivitiesByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := make([]*entities.Activity, 0, len(ids))
	for _, id := range ids {
		if a, ok := r.items[userID][id]; ok {
			found = append(found, a)
		}
	}
	return found, nil
}

// GetByUserID retrieves all activities for a user
func (r *ActivityRepository) GetByUserID(ctx context.Context, userID string) ([]*entities.Activity, error) {
	return r.GetByUserIDInWindow(ctx, userID, time.Time{}, time.Time{})
}

// GetByUserIDInWindow retrieves a user's activities inside a time range,
// sorted by timestamp ascending
func (r *ActivityRepository) GetByUserIDInWindow(ctx context.Context, userID string, from, to time.Time) ([]*entities.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Activity
	for _, a := range r.items[userID] {
		if !from.IsZero() && a.Timestamp().Before(from) {
			continue
		}
		if !to.IsZero() && a.Timestamp().After(to) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp().Equal(out[j].Timestamp()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].Timestamp().Before(out[j].Timestamp())
	})
	return out, nil
}

// Delete removes an activity
func (r *ActivityRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items[userID], id)
	return nil
}

// ClusterRepository is an in-memory ports.ClusterRepository
type ClusterRepository struct {
	mu    sync.RWMutex
	items map[string]map[aggregates.ClusterID]*aggregates.Cluster
}

// NewClusterRepository creates an empty in-memory cluster repository
func NewClusterRepository() *ClusterRepository {
	return &ClusterRepository{
		items: make(map[string]map[aggregates.ClusterID]*aggregates.Cluster),
	}
}

// Save persists a cluster
func (r *ClusterRepository) Save(ctx context.Context, userID string, cluster *aggregates.Cluster) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.items[userID]
	if !ok {
		byID = make(map[aggregates.ClusterID]*aggregates.Cluster)
		r.items[userID] = byID
	}
	byID[cluster.ID()] = cluster
	return nil
}

// SaveBatch persists the full output of one clustering run
func (r *ClusterRepository) SaveBatch(ctx context.Context, userID string, clusters []*aggregates.Cluster) error {
	for _, c := range clusters {
		if err := r.Save(ctx, userID, c); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a cluster by its ID
func (r *ClusterRepository) GetByID(ctx context.Context, userID string, id aggregates.ClusterID) (*aggregates.Cluster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.items[userID][id]; ok {
		return c, nil
	}
	return nil, pkgerrors.NewNotFoundError("cluster " + id.String())
}

// GetByUserID retrieves all clusters for a user
func (r *ClusterRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Cluster, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*aggregates.Cluster, 0, len(r.items[userID]))
	for _, c := range r.items[userID] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// Delete removes a cluster
func (r *ClusterRepository) Delete(ctx context.Context, userID string, id aggregates.ClusterID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items[userID], id)
	return nil
}

// DeleteByUserID removes every cluster of a user
func (r *ClusterRepository) DeleteByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}

// NarrativeRepository is an in-memory ports.NarrativeRepository
type NarrativeRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*entities.Narrative
}

// NewNarrativeRepository creates an empty in-memory narrative repository
func NewNarrativeRepository() *NarrativeRepository {
	return &NarrativeRepository{
		items: make(map[string]map[string]*entities.Narrative),
	}
}

// Save persists a narrative
func (r *NarrativeRepository) Save(ctx context.Context, narrative *entities.Narrative) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.items[narrative.UserID()]
	if !ok {
		byID = make(map[string]*entities.Narrative)
		r.items[narrative.UserID()] = byID
	}
	byID[narrative.ID()] = narrative
	return nil
}

// GetByID retrieves a narrative by its ID
func (r *NarrativeRepository) GetByID(ctx context.Context, userID, id string) (*entities.Narrative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.items[userID][id]; ok {
		return n, nil
	}
	return nil, pkgerrors.NewNotFoundError("narrative " + id)
}

// GetByClusterID retrieves the narratives generated for a cluster
func (r *NarrativeRepository) GetByClusterID(ctx context.Context, userID, clusterID string) ([]*entities.Narrative, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*entities.Narrative
	for _, n := range r.items[userID] {
		if n.ClusterID() == clusterID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

// Delete removes a narrative
func (r *NarrativeRepository) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items[userID], id)
	return nil
}

// PersonaRepository is an in-memory ports.PersonaRepository
type PersonaRepository struct {
	mu    sync.RWMutex
	items map[string]valueobjects.CareerPersona
}

// NewPersonaRepository creates an empty in-memory persona repository
func NewPersonaRepository() *PersonaRepository {
	return &PersonaRepository{
		items: make(map[string]valueobjects.CareerPersona),
	}
}

// GetByUserID retrieves the persona for a user
func (r *PersonaRepository) GetByUserID(ctx context.Context, userID string) (valueobjects.CareerPersona, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.items[userID]; ok {
		return p, nil
	}
	return valueobjects.CareerPersona{}, pkgerrors.NewNotFoundError("persona for user " + userID)
}

// Save persists a persona
func (r *PersonaRepository) Save(ctx context.Context, userID string, persona valueobjects.CareerPersona) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[userID] = persona
	return nil
}

// Interface checks
var (
	_ ports.ActivityRepository  = (*ActivityRepository)(nil)
	_ ports.ClusterRepository   = (*ClusterRepository)(nil)
	_ ports.NarrativeRepository = (*NarrativeRepository)(nil)
	_ ports.PersonaRepository   = (*PersonaRepository)(nil)
)
