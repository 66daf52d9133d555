package commands

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"careerlens/application/ports"
	"careerlens/domain/core/aggregates"
	"careerlens/domain/events"
	"careerlens/domain/services/clustering"
)

// ExtractClustersCommand represents the command to re-cluster a user's activities
type ExtractClustersCommand struct {
	UserID string    `json:"user_id" validate:"required"`
	From   time.Time `json:"from,omitempty"`
	To     time.Time `json:"to,omitempty"`

	// Replace drops the user's existing clusters before saving the new run
	Replace bool `json:"replace"`
}

// Validate validates the command
func (cmd ExtractClustersCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if !cmd.From.IsZero() && !cmd.To.IsZero() && cmd.To.Before(cmd.From) {
		return errors.New("window end precedes window start")
	}
	return nil
}

// ExtractClustersResult is what the handler returns to the caller
type ExtractClustersResult struct {
	Clusters    []*aggregates.Cluster
	Unclustered []string
	Skipped     []string
}

// ExtractClustersHandler handles the ExtractClustersCommand
type ExtractClustersHandler struct {
	activityRepo ports.ActivityRepository
	clusterRepo  ports.ClusterRepository
	extractor    *clustering.Extractor
	eventBus     ports.EventPublisher
	logger       *zap.Logger
}

// NewExtractClustersHandler creates a new handler instance
func NewExtractClustersHandler(
	activityRepo ports.ActivityRepository,
	clusterRepo ports.ClusterRepository,
	extractor *clustering.Extractor,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *ExtractClustersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExtractClustersHandler{
		activityRepo: activityRepo,
		clusterRepo:  clusterRepo,
		extractor:    extractor,
		eventBus:     eventBus,
		logger:       logger,
	}
}

// Handle executes the extract clusters command
func (h *ExtractClustersHandler) Handle(ctx context.Context, cmd ExtractClustersCommand) (*ExtractClustersResult, error) {
	activities, err := h.activityRepo.GetByUserIDInWindow(ctx, cmd.UserID, cmd.From, cmd.To)
	if err != nil {
		return nil, err
	}

	run, err := h.extractor.ExtractStrict(activities, clustering.ExtractOptions{
		Window: clustering.TimeWindow{From: cmd.From, To: cmd.To},
	})
	if err != nil {
		return nil, err
	}

	if cmd.Replace {
		if err := h.clusterRepo.DeleteByUserID(ctx, cmd.UserID); err != nil {
			return nil, err
		}
	}

	if err := h.clusterRepo.SaveBatch(ctx, cmd.UserID, run.Clusters); err != nil {
		return nil, err
	}

	clusterIDs := make([]string, len(run.Clusters))
	for i, c := range run.Clusters {
		clusterIDs[i] = c.ID().String()
	}

	event := events.NewClustersExtracted(
		cmd.UserID, clusterIDs, len(activities), len(run.Unclustered), time.Now())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		// Clusters are already saved; a lost event only delays downstream
		// consumers until the next run.
		h.logger.Warn("failed to publish clusters extracted event",
			zap.String("userId", cmd.UserID),
			zap.Error(err))
	}

	h.logger.Info("extracted clusters",
		zap.String("userId", cmd.UserID),
		zap.Int("clusters", len(run.Clusters)),
		zap.Int("unclustered", len(run.Unclustered)))

	return &ExtractClustersResult{
		Clusters:    run.Clusters,
		Unclustered: run.Unclustered,
		Skipped:     run.Skipped,
	}, nil
}
