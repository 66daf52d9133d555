package queries

import (
	"context"
	"errors"
	"sort"

	"careerlens/application/ports"
)

// ListClustersQuery retrieves all clusters for a user
type ListClustersQuery struct {
	UserID string `json:"user_id"`

	// MinSize drops clusters below a member count; zero keeps all
	MinSize int `json:"min_size,omitempty"`
}

// Validate validates the query
func (q ListClustersQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.MinSize < 0 {
		return errors.New("min size cannot be negative")
	}
	return nil
}

// ClusterListDTO is the transport representation of a cluster listing
type ClusterListDTO struct {
	Clusters []ClusterDTO `json:"clusters"`
	Total    int          `json:"total"`
}

// ListClustersHandler handles ListClustersQuery
type ListClustersHandler struct {
	clusterRepo ports.ClusterRepository
}

// NewListClustersHandler creates a new handler instance
func NewListClustersHandler(clusterRepo ports.ClusterRepository) *ListClustersHandler {
	return &ListClustersHandler{clusterRepo: clusterRepo}
}

// Handle executes the query. Clusters come back largest first so the most
// substantial evidence leads the listing.
func (h *ListClustersHandler) Handle(ctx context.Context, query ListClustersQuery) (*ClusterListDTO, error) {
	clusters, err := h.clusterRepo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	dtos := make([]ClusterDTO, 0, len(clusters))
	for _, c := range clusters {
		if query.MinSize > 0 && c.Size() < query.MinSize {
			continue
		}
		dtos = append(dtos, NewClusterDTO(c))
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		if dtos[i].ActivityCount != dtos[j].ActivityCount {
			return dtos[i].ActivityCount > dtos[j].ActivityCount
		}
		return dtos[i].ID < dtos[j].ID
	})

	return &ClusterListDTO{
		Clusters: dtos,
		Total:    len(dtos),
	}, nil
}
