package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"careerlens/application/commands"
	"careerlens/application/queries"
	"careerlens/domain/core/valueobjects"
	"careerlens/domain/services/narrative"
	"careerlens/pkg/auth"
	"careerlens/pkg/common"
	pkgerrors "careerlens/pkg/errors"
	"careerlens/pkg/utils"
)

// NarrativeHandler serves the narrative endpoints
type NarrativeHandler struct {
	generate     *commands.GenerateNarrativeHandler
	getNarrative *queries.GetNarrativeHandler
	logger       *zap.Logger
}

// NewNarrativeHandler creates a new narrative handler
func NewNarrativeHandler(
	generate *commands.GenerateNarrativeHandler,
	getNarrative *queries.GetNarrativeHandler,
	logger *zap.Logger,
) *NarrativeHandler {
	return &NarrativeHandler{
		generate:     generate,
		getNarrative: getNarrative,
		logger:       logger,
	}
}

// generateNarrativeRequest is the POST /clusters/{clusterID}/narrative body
type generateNarrativeRequest struct {
	Framework string `json:"framework" validate:"required"`
}

// narrativeOutcomeResponse carries either the generated narrative or the
// gates that rejected it. Participation results come back in both cases.
type narrativeOutcomeResponse struct {
	Narrative     *queries.NarrativeDTO                `json:"narrative,omitempty"`
	Participation []*valueobjects.ParticipationResult  `json:"participation"`
	FailedGates   []string                             `json:"failed_gates,omitempty"`
	FailureCode   string                               `json:"failure_code,omitempty"`
	Alternatives  []string                             `json:"alternative_frameworks,omitempty"`
}

// GenerateNarrative runs narrative generation for one cluster
func (h *NarrativeHandler) GenerateNarrative(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req generateNarrativeRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed, err.Error())
		return
	}

	cmd := commands.GenerateNarrativeCommand{
		UserID:    user.UserID,
		ClusterID: chi.URLParam(r, "clusterID"),
		Framework: req.Framework,
	}
	if err := cmd.Validate(); err != nil {
		common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed, err.Error())
		return
	}

	outcome, err := h.generate.Handle(r.Context(), cmd)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	resp := narrativeOutcomeResponse{
		Participation: outcome.Participation,
		FailedGates:   outcome.FailedGates,
		FailureCode:   outcome.FailureCode,
		Alternatives:  outcome.Alternatives,
	}
	if outcome.Rejected() {
		common.RespondJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}

	dto := queries.NewNarrativeDTO(outcome.Narrative)
	resp.Narrative = &dto
	common.RespondJSON(w, http.StatusCreated, resp)
}

// GetNarrative returns one stored narrative
func (h *NarrativeHandler) GetNarrative(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := queries.GetNarrativeQuery{
		UserID:      user.UserID,
		NarrativeID: chi.URLParam(r, "narrativeID"),
	}
	if err := query.Validate(); err != nil {
		common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed, err.Error())
		return
	}

	dto, err := h.getNarrative.Handle(r.Context(), query)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, dto)
}

// ListFrameworks returns the supported framework names
func (h *NarrativeHandler) ListFrameworks(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"frameworks": narrative.FrameworkNames,
	})
}
