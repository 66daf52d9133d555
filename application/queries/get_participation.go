package queries

import (
	"context"
	"errors"

	"careerlens/application/ports"
	"careerlens/domain/core/aggregates"
	"careerlens/domain/services/clustering"
	"careerlens/domain/services/identity"
)

// GetParticipationQuery classifies the user's participation in every
// activity of one cluster, without generating a narrative
type GetParticipationQuery struct {
	UserID    string `json:"user_id"`
	ClusterID string `json:"cluster_id"`
}

// Validate validates the query
func (q GetParticipationQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.ClusterID == "" {
		return errors.New("cluster ID is required")
	}
	return nil
}

// ParticipationDTO is the transport representation of one classification
type ParticipationDTO struct {
	ActivityID string   `json:"activity_id"`
	Title      string   `json:"title"`
	Source     string   `json:"source"`
	Level      string   `json:"level"`
	Signals    []string `json:"signals"`
}

// ParticipationListDTO aggregates per-activity classifications
type ParticipationListDTO struct {
	ClusterID string             `json:"cluster_id"`
	Results   []ParticipationDTO `json:"results"`
	Summary   map[string]int     `json:"summary"`
}

// GetParticipationHandler handles GetParticipationQuery
type GetParticipationHandler struct {
	clusterRepo ports.ClusterRepository
	personaRepo ports.PersonaRepository
	hydrator    *clustering.Hydrator
	matcher     *identity.Matcher
}

// NewGetParticipationHandler creates a new handler instance
func NewGetParticipationHandler(
	clusterRepo ports.ClusterRepository,
	personaRepo ports.PersonaRepository,
	hydrator *clustering.Hydrator,
	matcher *identity.Matcher,
) *GetParticipationHandler {
	return &GetParticipationHandler{
		clusterRepo: clusterRepo,
		personaRepo: personaRepo,
		hydrator:    hydrator,
		matcher:     matcher,
	}
}

// Handle executes the query
func (h *GetParticipationHandler) Handle(ctx context.Context, query GetParticipationQuery) (*ParticipationListDTO, error) {
	cluster, err := h.clusterRepo.GetByID(ctx, query.UserID, aggregates.ClusterID(query.ClusterID))
	if err != nil {
		return nil, err
	}

	hydrated, err := h.hydrator.HydrateStrict(ctx, query.UserID, cluster)
	if err != nil {
		return nil, err
	}

	persona, err := h.personaRepo.GetByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	h.matcher.MatchAll(hydrated.Activities, persona)

	results := make([]ParticipationDTO, 0, len(hydrated.Activities))
	summary := make(map[string]int)
	for _, ha := range hydrated.Activities {
		results = append(results, ParticipationDTO{
			ActivityID: ha.Activity.ID(),
			Title:      ha.Activity.Title(),
			Source:     ha.Activity.Source().String(),
			Level:      ha.Participation.Level.String(),
			Signals:    ha.Participation.Signals,
		})
		summary[ha.Participation.Level.String()]++
	}

	return &ParticipationListDTO{
		ClusterID: query.ClusterID,
		Results:   results,
		Summary:   summary,
	}, nil
}
