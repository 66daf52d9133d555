package queries

import (
	"context"
	"errors"
	"time"

	"careerlens/application/ports"
	"careerlens/domain/core/entities"
)

// GetNarrativeQuery retrieves one generated narrative by id
type GetNarrativeQuery struct {
	UserID      string `json:"user_id"`
	NarrativeID string `json:"narrative_id"`
}

// Validate validates the query
func (q GetNarrativeQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.NarrativeID == "" {
		return errors.New("narrative ID is required")
	}
	return nil
}

// NarrativeComponentDTO is the transport representation of one component
type NarrativeComponentDTO struct {
	Name              string   `json:"name"`
	Text              string   `json:"text"`
	SourceActivityIDs []string `json:"source_activity_ids"`
	Confidence        float64  `json:"confidence"`
}

// NarrativeDTO is the transport representation of a narrative
type NarrativeDTO struct {
	ID            string                  `json:"id"`
	ClusterID     string                  `json:"cluster_id"`
	Framework     string                  `json:"framework"`
	Components    []NarrativeComponentDTO `json:"components"`
	Confidence    float64                 `json:"confidence"`
	Participation map[string]int          `json:"participation"`
	Suggestions   []string                `json:"suggestions"`
	Score         int                     `json:"score"`
	Passed        bool                    `json:"passed"`
	CreatedAt     time.Time               `json:"created_at"`
}

// NewNarrativeDTO maps a narrative entity to its DTO
func NewNarrativeDTO(n *entities.Narrative) NarrativeDTO {
	components := make([]NarrativeComponentDTO, 0, len(n.Components()))
	for _, c := range n.Components() {
		components = append(components, NarrativeComponentDTO{
			Name:              c.Name,
			Text:              c.Text,
			SourceActivityIDs: c.SourceActivityIDs,
			Confidence:        c.Confidence,
		})
	}
	participation := make(map[string]int)
	for level, count := range n.ParticipationSummary() {
		participation[level.String()] = count
	}
	return NarrativeDTO{
		ID:            n.ID(),
		ClusterID:     n.ClusterID(),
		Framework:     n.Framework(),
		Components:    components,
		Confidence:    n.Confidence(),
		Participation: participation,
		Suggestions:   n.Suggestions(),
		Score:         n.Score(),
		Passed:        n.Passed(),
		CreatedAt:     n.CreatedAt(),
	}
}

// GetNarrativeHandler handles GetNarrativeQuery
type GetNarrativeHandler struct {
	narrativeRepo ports.NarrativeRepository
}

// NewGetNarrativeHandler creates a new handler instance
func NewGetNarrativeHandler(narrativeRepo ports.NarrativeRepository) *GetNarrativeHandler {
	return &GetNarrativeHandler{narrativeRepo: narrativeRepo}
}

// Handle executes the query
func (h *GetNarrativeHandler) Handle(ctx context.Context, query GetNarrativeQuery) (*NarrativeDTO, error) {
	n, err := h.narrativeRepo.GetByID(ctx, query.UserID, query.NarrativeID)
	if err != nil {
		return nil, err
	}
	dto := NewNarrativeDTO(n)
	return &dto, nil
}
