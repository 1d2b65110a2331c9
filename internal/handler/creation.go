package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/httputil"
	"imaginarium/internal/logger"
	"imaginarium/internal/model"
	"imaginarium/internal/transport/http/middleware"
)

// CreationService is the part of service.CreationService used over HTTP.
type CreationService interface {
	Submit(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error)
	GetCreation(ctx context.Context, creationID, viewerID int64) (*model.CreationView, error)
	ListUserCreations(ctx context.Context, ownerID, viewerID int64, page, limit int) (*model.CreationPage, error)
}

type CreationHandler struct {
	creationService CreationService
	log             logrus.FieldLogger
}

func NewCreationHandler(creationService CreationService, log logrus.FieldLogger) *CreationHandler {
	return &CreationHandler{
		creationService: creationService,
		log:             logger.Component(log, "CreationHandler"),
	}
}

// Submit handles POST /creations
// Runs the whole render pipeline and answers once the creation is published.
func (h *CreationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.SubmitCreationRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.creationService.Submit(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrPromptRequired):
			httputil.WriteBadRequest(w, "Prompt is required")
		case errors.Is(err, model.ErrUserNotFound):
			httputil.WriteNotFound(w, "User not found")
		case errors.Is(err, model.ErrUpstreamFailure):
			httputil.WriteBadGateway(w, "Image generation failed")
		default:
			h.log.WithError(err).WithField("user_id", userID).Error("submit creation")
			httputil.WriteInternalError(w, "Failed to create image")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Image created successfully", result)
}

// Get handles GET /creations/{id}
func (h *CreationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	creationID, ok := parseIDParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid creation ID")
		return
	}

	creation, err := h.creationService.GetCreation(r.Context(), creationID, userID)
	if err != nil {
		if errors.Is(err, model.ErrCreationNotFound) {
			httputil.WriteNotFound(w, "Creation not found")
			return
		}
		h.log.WithError(err).WithField("creation_id", creationID).Error("get creation")
		httputil.WriteInternalError(w, "Failed to get creation")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Creation retrieved successfully", creation)
}

// ListByUser handles GET /users/{id}/creations
//
// Query params:
//   - page: optional, 1-based (default 1)
//   - limit: optional (default 10, max 50)
func (h *CreationHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	ownerID, ok := parseIDParam(r, "id")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}
	page, ok := parseIntQuery(r, "page")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid page parameter")
		return
	}
	limit, ok := parseIntQuery(r, "limit")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	creations, err := h.creationService.ListUserCreations(r.Context(), ownerID, viewerID, page, limit)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		h.log.WithError(err).WithField("user_id", ownerID).Error("list user creations")
		httputil.WriteInternalError(w, "Failed to get creations")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Creations retrieved successfully", creations)
}
