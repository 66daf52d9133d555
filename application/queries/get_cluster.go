// Package queries holds the read side of the application layer: query
// types, their DTOs, and handlers that serve them from the repositories.
package queries

import (
	"context"
	"errors"
	"time"

	"careerlens/application/ports"
	"careerlens/domain/core/aggregates"
)

// GetClusterQuery retrieves one cluster by id
type GetClusterQuery struct {
	UserID    string `json:"user_id"`
	ClusterID string `json:"cluster_id"`
}

// Validate validates the query
func (q GetClusterQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.ClusterID == "" {
		return errors.New("cluster ID is required")
	}
	return nil
}

// ClusterDTO is the transport representation of a cluster
type ClusterDTO struct {
	ID            string    `json:"id"`
	ActivityIDs   []string  `json:"activity_ids"`
	SharedRefs    []string  `json:"shared_refs"`
	ActivityCount int       `json:"activity_count"`
	ToolTypes     []string  `json:"tool_types"`
	RefCount      int       `json:"ref_count"`
	Earliest      time.Time `json:"earliest,omitempty"`
	Latest        time.Time `json:"latest,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewClusterDTO maps a cluster aggregate to its DTO
func NewClusterDTO(c *aggregates.Cluster) ClusterDTO {
	metrics := c.Metrics()
	tools := make([]string, len(metrics.ToolTypes))
	for i, t := range metrics.ToolTypes {
		tools[i] = t.String()
	}
	return ClusterDTO{
		ID:            c.ID().String(),
		ActivityIDs:   c.ActivityIDs(),
		SharedRefs:    c.SharedRefs(),
		ActivityCount: metrics.ActivityCount,
		ToolTypes:     tools,
		RefCount:      metrics.RefCount,
		Earliest:      metrics.Earliest,
		Latest:        metrics.Latest,
		CreatedAt:     c.CreatedAt(),
	}
}

// GetClusterHandler handles GetClusterQuery
type GetClusterHandler struct {
	clusterRepo ports.ClusterRepository
}

// NewGetClusterHandler creates a new handler instance
func NewGetClusterHandler(clusterRepo ports.ClusterRepository) *GetClusterHandler {
	return &GetClusterHandler{clusterRepo: clusterRepo}
}

// Handle executes the query
func (h *GetClusterHandler) Handle(ctx context.Context, query GetClusterQuery) (*ClusterDTO, error) {
	cluster, err := h.clusterRepo.GetByID(ctx, query.UserID, aggregates.ClusterID(query.ClusterID))
	if err != nil {
		return nil, err
	}
	dto := NewClusterDTO(cluster)
	return &dto, nil
}
