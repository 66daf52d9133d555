package valueobjects

// ParticipationLevel classifies how strongly a user participated in an
// activity, by descending evidentiary strength.
type ParticipationLevel string

const (
	ParticipationInitiator   ParticipationLevel = "initiator"
	ParticipationContributor ParticipationLevel = "contributor"
	ParticipationMentioned   ParticipationLevel = "mentioned"
	ParticipationObserver    ParticipationLevel = "observer"
)

// AllParticipationLevels lists the levels from strongest to weakest
var AllParticipationLevels = []ParticipationLevel{
	ParticipationInitiator,
	ParticipationContributor,
	ParticipationMentioned,
	ParticipationObserver,
}

// Rank returns the ordering of the level; higher means stronger evidence
func (l ParticipationLevel) Rank() int {
	switch l {
	case ParticipationInitiator:
		return 4
	case ParticipationContributor:
		return 3
	case ParticipationMentioned:
		return 2
	case ParticipationObserver:
		return 1
	default:
		return 0
	}
}

// StrongerThan compares two levels by rank
func (l ParticipationLevel) StrongerThan(other ParticipationLevel) bool {
	return l.Rank() > other.Rank()
}

// String returns the string representation
func (l ParticipationLevel) String() string {
	return string(l)
}

// ParticipationResult is the per-activity classification produced by the
// identity matcher. All matched signal names are retained for traceability
// even though only the strongest one determines the level.
type ParticipationResult struct {
	ActivityID string             `json:"activity_id"`
	Level      ParticipationLevel `json:"level"`
	Signals    []string           `json:"signals"`
}
