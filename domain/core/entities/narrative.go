package entities

import (
	"time"

	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

// NarrativeComponent is one named slot of a narrative framework holding
// extracted text with its provenance and confidence.
type NarrativeComponent struct {
	Name              string   `json:"name"`
	Text              string   `json:"text"`
	SourceActivityIDs []string `json:"source_activity_ids"`
	Confidence        float64  `json:"confidence"`
}

// ParticipationSummary counts activities per participation level
type ParticipationSummary map[valueobjects.ParticipationLevel]int

// Narrative is a generated career narrative for one cluster: the ordered
// component list of the chosen framework, an overall confidence, a
// participation summary, suggested edits, and the validation score.
type Narrative struct {
	id          string
	userID      string
	clusterID   string
	framework   string
	components  []NarrativeComponent
	confidence  float64
	summary     ParticipationSummary
	suggestions []string
	score       int
	passed      bool
	createdAt   time.Time
}

// NewNarrative creates a narrative with basic validation
func NewNarrative(
	id string,
	userID string,
	clusterID string,
	framework string,
	components []NarrativeComponent,
	confidence float64,
	summary ParticipationSummary,
	suggestions []string,
	score int,
	passed bool,
) (*Narrative, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("narrative id cannot be empty")
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if clusterID == "" {
		return nil, pkgerrors.NewValidationError("clusterID cannot be empty")
	}
	if framework == "" {
		return nil, pkgerrors.NewValidationError("framework cannot be empty")
	}
	return &Narrative{
		id:          id,
		userID:      userID,
		clusterID:   clusterID,
		framework:   framework,
		components:  components,
		confidence:  confidence,
		summary:     summary,
		suggestions: suggestions,
		score:       score,
		passed:      passed,
		createdAt:   time.Now(),
	}, nil
}

// ReconstructNarrative rebuilds a narrative from repository data
func ReconstructNarrative(
	id string,
	userID string,
	clusterID string,
	framework string,
	components []NarrativeComponent,
	confidence float64,
	summary ParticipationSummary,
	suggestions []string,
	score int,
	passed bool,
	createdAt time.Time,
) (*Narrative, error) {
	n, err := NewNarrative(id, userID, clusterID, framework, components, confidence, summary, suggestions, score, passed)
	if err != nil {
		return nil, err
	}
	n.createdAt = createdAt
	return n, nil
}

// ID returns the narrative's identifier
func (n *Narrative) ID() string {
	return n.id
}

// UserID returns the owner's ID
func (n *Narrative) UserID() string {
	return n.userID
}

// ClusterID returns the cluster the narrative was generated from
func (n *Narrative) ClusterID() string {
	return n.clusterID
}

// Framework returns the framework name the narrative follows
func (n *Narrative) Framework() string {
	return n.framework
}

// Components returns the components in framework order
func (n *Narrative) Components() []NarrativeComponent {
	out := make([]NarrativeComponent, len(n.components))
	copy(out, n.components)
	return out
}

// Confidence returns the mean component confidence
func (n *Narrative) Confidence() float64 {
	return n.confidence
}

// ParticipationSummary returns the per-level activity counts
func (n *Narrative) ParticipationSummary() ParticipationSummary {
	return n.summary
}

// Suggestions returns the human-readable suggested edits
func (n *Narrative) Suggestions() []string {
	out := make([]string, len(n.suggestions))
	copy(out, n.suggestions)
	return out
}

// Score returns the 0-100 validation score
func (n *Narrative) Score() int {
	return n.score
}

// Passed reports whether the narrative passed validation
func (n *Narrative) Passed() bool {
	return n.passed
}

// CreatedAt returns when the narrative was generated
func (n *Narrative) CreatedAt() time.Time {
	return n.createdAt
}
