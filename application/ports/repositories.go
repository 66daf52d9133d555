package ports

import (
	"context"
	"time"

	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	"careerlens/domain/events"
)

// ActivityRepository defines the interface for activity persistence.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation.
// Activities are written by the sync layer; the pipeline only reads them.
type ActivityRepository interface {
	// Save persists an activity (create or update)
	Save(ctx context.Context, activity *entities.Activity) error

	// GetByID retrieves one activity
	GetByID(ctx context.Context, userID, id string) (*entities.Activity, error)

	// FindActivitiesByIDs retrieves the activities that still exist among the
	// given ids; missing ids are simply absent from the result
	FindActivitiesByIDs(ctx context.Context, userID string, ids []string) ([]*entities.Activity, error)

	// GetByUserID retrieves all activities for a user
	GetByUserID(ctx context.Context, userID string) ([]*entities.Activity, error)

	// GetByUserIDInWindow retrieves a user's activities inside a time range.
	// Zero bounds are unbounded.
	GetByUserIDInWindow(ctx context.Context, userID string, from, to time.Time) ([]*entities.Activity, error)

	// Delete removes an activity
	Delete(ctx context.Context, userID, id string) error
}

// ClusterRepository defines the interface for cluster persistence
type ClusterRepository interface {
	// Save persists a cluster (create or update)
	Save(ctx context.Context, userID string, cluster *aggregates.Cluster) error

	// SaveBatch persists the full output of one clustering run
	SaveBatch(ctx context.Context, userID string, clusters []*aggregates.Cluster) error

	// GetByID retrieves a cluster by its ID
	GetByID(ctx context.Context, userID string, id aggregates.ClusterID) (*aggregates.Cluster, error)

	// GetByUserID retrieves all clusters for a user
	GetByUserID(ctx context.Context, userID string) ([]*aggregates.Cluster, error)

	// Delete removes a cluster
	Delete(ctx context.Context, userID string, id aggregates.ClusterID) error

	// DeleteByUserID removes every cluster of a user, ahead of a re-run
	DeleteByUserID(ctx context.Context, userID string) error
}

// NarrativeRepository defines the interface for narrative persistence
type NarrativeRepository interface {
	// Save persists a narrative
	Save(ctx context.Context, narrative *entities.Narrative) error

	// GetByID retrieves a narrative by its ID
	GetByID(ctx context.Context, userID, id string) (*entities.Narrative, error)

	// GetByClusterID retrieves the narratives generated for a cluster
	GetByClusterID(ctx context.Context, userID, clusterID string) ([]*entities.Narrative, error)

	// Delete removes a narrative
	Delete(ctx context.Context, userID, id string) error
}

// PersonaRepository defines the interface for persona lookup. Personas are
// derived from the user's connected-tool OAuth identities by the account
// service; the pipeline only reads them.
type PersonaRepository interface {
	// GetByUserID retrieves the persona for a user
	GetByUserID(ctx context.Context, userID string) (valueobjects.CareerPersona, error)

	// Save persists a persona
	Save(ctx context.Context, userID string, persona valueobjects.CareerPersona) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing domain events
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}
