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
	"careerlens/domain/services/narrative"
)

// GenerateNarrativeCommand represents the command to generate a narrative
// for one cluster under a chosen framework
type GenerateNarrativeCommand struct {
	UserID    string `json:"user_id" validate:"required"`
	ClusterID string `json:"cluster_id" validate:"required"`
	Framework string `json:"framework" validate:"required"`
}

// Validate validates the command
func (cmd GenerateNarrativeCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user ID is required")
	}
	if cmd.ClusterID == "" {
		return errors.New("cluster ID is required")
	}
	if cmd.Framework == "" {
		return errors.New("framework is required")
	}
	return nil
}

// GenerateNarrativeHandler handles the GenerateNarrativeCommand
type GenerateNarrativeHandler struct {
	clusterRepo   ports.ClusterRepository
	personaRepo   ports.PersonaRepository
	narrativeRepo ports.NarrativeRepository
	hydrator      *clustering.Hydrator
	extractor     *narrative.Extractor
	eventBus      ports.EventPublisher
	logger        *zap.Logger
}

// NewGenerateNarrativeHandler creates a new handler instance
func NewGenerateNarrativeHandler(
	clusterRepo ports.ClusterRepository,
	personaRepo ports.PersonaRepository,
	narrativeRepo ports.NarrativeRepository,
	hydrator *clustering.Hydrator,
	extractor *narrative.Extractor,
	eventBus ports.EventPublisher,
	logger *zap.Logger,
) *GenerateNarrativeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateNarrativeHandler{
		clusterRepo:   clusterRepo,
		personaRepo:   personaRepo,
		narrativeRepo: narrativeRepo,
		hydrator:      hydrator,
		extractor:     extractor,
		eventBus:      eventBus,
		logger:        logger,
	}
}

// Handle executes the generate narrative command. A gate rejection is a
// successful outcome, not an error: the caller receives the participation
// results and the failed gate names either way.
func (h *GenerateNarrativeHandler) Handle(ctx context.Context, cmd GenerateNarrativeCommand) (*narrative.Outcome, error) {
	cluster, err := h.clusterRepo.GetByID(ctx, cmd.UserID, aggregates.ClusterID(cmd.ClusterID))
	if err != nil {
		return nil, err
	}

	hydrated, err := h.hydrator.HydrateStrict(ctx, cmd.UserID, cluster)
	if err != nil {
		return nil, err
	}

	persona, err := h.personaRepo.GetByUserID(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	outcome, err := h.extractor.Generate(hydrated, persona, cmd.Framework)
	if err != nil {
		return nil, err
	}

	if outcome.Rejected() {
		event := events.NewNarrativeRejected(
			cmd.UserID, cmd.ClusterID, cmd.Framework, outcome.FailedGates, time.Now())
		if err := h.eventBus.Publish(ctx, event); err != nil {
			h.logger.Warn("failed to publish narrative rejected event",
				zap.String("clusterId", cmd.ClusterID),
				zap.Error(err))
		}
		return outcome, nil
	}

	if err := h.narrativeRepo.Save(ctx, outcome.Narrative); err != nil {
		return nil, err
	}

	event := events.NewNarrativeGenerated(
		cmd.UserID, cmd.ClusterID, outcome.Narrative.ID(),
		cmd.Framework, outcome.Narrative.Score(), time.Now())
	if err := h.eventBus.Publish(ctx, event); err != nil {
		h.logger.Warn("failed to publish narrative generated event",
			zap.String("narrativeId", outcome.Narrative.ID()),
			zap.Error(err))
	}

	h.logger.Info("generated narrative",
		zap.String("userId", cmd.UserID),
		zap.String("clusterId", cmd.ClusterID),
		zap.String("framework", cmd.Framework),
		zap.Int("score", outcome.Narrative.Score()))

	return outcome, nil
}
