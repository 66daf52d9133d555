package events

import "time"

// ClustersExtracted is raised after a clustering run over a user's activities
type ClustersExtracted struct {
	BaseEvent
	UserID           string   `json:"user_id"`
	ClusterIDs       []string `json:"cluster_ids"`
	ActivityCount    int      `json:"activity_count"`
	UnclusteredCount int      `json:"unclustered_count"`
}

// NewClustersExtracted creates a ClustersExtracted event
func NewClustersExtracted(userID string, clusterIDs []string, activityCount, unclusteredCount int, timestamp time.Time) ClustersExtracted {
	return ClustersExtracted{
		BaseEvent: BaseEvent{
			AggregateID: userID,
			EventType:   "pipeline.clusters_extracted",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:           userID,
		ClusterIDs:       clusterIDs,
		ActivityCount:    activityCount,
		UnclusteredCount: unclusteredCount,
	}
}

// NarrativeGenerated is raised when a cluster produced a narrative that
// passed validation
type NarrativeGenerated struct {
	BaseEvent
	UserID      string `json:"user_id"`
	ClusterID   string `json:"cluster_id"`
	NarrativeID string `json:"narrative_id"`
	Framework   string `json:"framework"`
	Score       int    `json:"score"`
}

// NewNarrativeGenerated creates a NarrativeGenerated event
func NewNarrativeGenerated(userID, clusterID, narrativeID, framework string, score int, timestamp time.Time) NarrativeGenerated {
	return NarrativeGenerated{
		BaseEvent: BaseEvent{
			AggregateID: clusterID,
			EventType:   "pipeline.narrative_generated",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:      userID,
		ClusterID:   clusterID,
		NarrativeID: narrativeID,
		Framework:   framework,
		Score:       score,
	}
}

// NarrativeRejected is raised when a cluster failed the validation gates
type NarrativeRejected struct {
	BaseEvent
	UserID      string   `json:"user_id"`
	ClusterID   string   `json:"cluster_id"`
	Framework   string   `json:"framework"`
	FailedGates []string `json:"failed_gates"`
}

// NewNarrativeRejected creates a NarrativeRejected event
func NewNarrativeRejected(userID, clusterID, framework string, failedGates []string, timestamp time.Time) NarrativeRejected {
	return NarrativeRejected{
		BaseEvent: BaseEvent{
			AggregateID: clusterID,
			EventType:   "pipeline.narrative_rejected",
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:      userID,
		ClusterID:   clusterID,
		Framework:   framework,
		FailedGates: failedGates,
	}
}
