// Package handlers holds the HTTP handlers for the REST API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"careerlens/application/commands"
	"careerlens/application/queries"
	"careerlens/pkg/auth"
	"careerlens/pkg/common"
	pkgerrors "careerlens/pkg/errors"
)

// ClusterHandler serves the cluster endpoints
type ClusterHandler struct {
	extract          *commands.ExtractClustersHandler
	getCluster       *queries.GetClusterHandler
	listClusters     *queries.ListClustersHandler
	getParticipation *queries.GetParticipationHandler
	extractLimiter   auth.RateLimiter
	logger           *zap.Logger
}

// NewClusterHandler creates a new cluster handler. The extract limiter
// throttles re-clustering runs per user; pass nil to disable.
func NewClusterHandler(
	extract *commands.ExtractClustersHandler,
	getCluster *queries.GetClusterHandler,
	listClusters *queries.ListClustersHandler,
	getParticipation *queries.GetParticipationHandler,
	extractLimiter auth.RateLimiter,
	logger *zap.Logger,
) *ClusterHandler {
	return &ClusterHandler{
		extract:          extract,
		getCluster:       getCluster,
		listClusters:     listClusters,
		getParticipation: getParticipation,
		extractLimiter:   extractLimiter,
		logger:           logger,
	}
}

// extractClustersRequest is the POST /clusters/extract body
type extractClustersRequest struct {
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
	Replace bool       `json:"replace"`
}

// ExtractClusters re-runs clustering over the user's activities
func (h *ClusterHandler) ExtractClusters(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	if h.extractLimiter != nil {
		allowed, limiterErr := h.extractLimiter.Allow(r.Context(), user.UserID)
		if limiterErr != nil {
			h.logger.Warn("extract rate limiter unavailable, allowing request",
				zap.Error(limiterErr))
		} else if !allowed {
			common.RespondError(w, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many extraction runs; try again later")
			return
		}
	}

	var req extractClustersRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	cmd := commands.ExtractClustersCommand{
		UserID:  user.UserID,
		Replace: req.Replace,
	}
	if req.From != nil {
		cmd.From = *req.From
	}
	if req.To != nil {
		cmd.To = *req.To
	}
	if err := cmd.Validate(); err != nil {
		common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed, err.Error())
		return
	}

	result, err := h.extract.Handle(r.Context(), cmd)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	clusters := make([]queries.ClusterDTO, 0, len(result.Clusters))
	for _, c := range result.Clusters {
		clusters = append(clusters, queries.NewClusterDTO(c))
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"clusters":    clusters,
		"unclustered": result.Unclustered,
		"skipped":     result.Skipped,
	})
}

// GetCluster returns one cluster
func (h *ClusterHandler) GetCluster(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := queries.GetClusterQuery{
		UserID:    user.UserID,
		ClusterID: chi.URLParam(r, "clusterID"),
	}
	if err := query.Validate(); err != nil {
		common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed, err.Error())
		return
	}

	dto, err := h.getCluster.Handle(r.Context(), query)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, dto)
}

// ListClusters returns the user's clusters, paginated
func (h *ClusterHandler) ListClusters(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := queries.ListClustersQuery{UserID: user.UserID}
	if raw := r.URL.Query().Get("min_size"); raw != "" {
		minSize, convErr := strconv.Atoi(raw)
		if convErr != nil || minSize < 0 {
			common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed,
				"min_size must be a non-negative integer")
			return
		}
		query.MinSize = minSize
	}

	listing, err := h.listClusters.Handle(r.Context(), query)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}

	params := common.ExtractPaginationParams(r)
	page := paginateClusters(listing.Clusters, params)
	common.RespondWithMeta(w, http.StatusOK, page, &common.MetaInfo{
		RequestID:  common.ExtractRequestID(r),
		Pagination: common.BuildPaginationMeta(params.Page, params.PageSize, listing.Total),
	})
}

// GetParticipation returns the user's per-activity participation in a cluster
func (h *ClusterHandler) GetParticipation(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	query := queries.GetParticipationQuery{
		UserID:    user.UserID,
		ClusterID: chi.URLParam(r, "clusterID"),
	}
	if err := query.Validate(); err != nil {
		common.RespondError(w, http.StatusBadRequest, pkgerrors.CodeValidationFailed, err.Error())
		return
	}

	dto, err := h.getParticipation.Handle(r.Context(), query)
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, dto)
}

// paginateClusters slices one page out of the full listing
func paginateClusters(clusters []queries.ClusterDTO, params common.PaginationParams) []queries.ClusterDTO {
	offset := params.CalculateOffset()
	if offset >= len(clusters) {
		return []queries.ClusterDTO{}
	}
	end := offset + params.PageSize
	if end > len(clusters) {
		end = len(clusters)
	}
	return clusters[offset:end]
}

// respondAppError maps an application error onto the HTTP response
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = string(appErr.Type)
		}
		if appErr.Details != nil {
			common.RespondErrorWithDetails(w, status, code, appErr.Message, appErr.Details)
			return
		}
		common.RespondError(w, status, code, appErr.Message)
		return
	}

	logger.Error("unhandled error", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
}
