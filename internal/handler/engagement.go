package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/httputil"
	"imaginarium/internal/logger"
	"imaginarium/internal/model"
	"imaginarium/internal/service"
	"imaginarium/internal/transport/http/middleware"
)

type EngagementService interface {
	ToggleLike(ctx context.Context, creationID, userID int64) (*service.LikeResult, error)
	CreateComment(ctx context.Context, creationID, userID int64, text string) (*model.Comment, error)
	ListComments(ctx context.Context, creationID, viewerID int64, page int) (*model.CommentPage, error)
	ReportCreation(ctx context.Context, creationID, userID int64, reason string) (*model.Report, error)
}

type EngagementHandler struct {
	engagementService EngagementService
	log               logrus.FieldLogger
}

func NewEngagementHandler(engagementService EngagementService, log logrus.FieldLogger) *EngagementHandler {
	return &EngagementHandler{
		engagementService: engagementService,
		log:               logger.Component(log, "EngagementHandler"),
	}
}

// ToggleLike handles POST /creations/{id}/like
func (h *EngagementHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.engagementService.ToggleLike(r.Context(), creationID, userID)
	if err != nil {
		if errors.Is(err, model.ErrCreationNotFound) {
			httputil.WriteNotFound(w, "Creation not found")
			return
		}
		h.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "creation_id": creationID}).Error("toggle like")
		httputil.WriteInternalError(w, "Failed to update like")
		return
	}

	message := "Creation unliked"
	if result.Liked {
		message = "Creation liked"
	}
	httputil.WriteSuccess(w, http.StatusOK, message, result)
}

// CreateComment handles POST /creations/{id}/comments
func (h *EngagementHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
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

	var req model.CreateCommentRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	comment, err := h.engagementService.CreateComment(r.Context(), creationID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCreationNotFound):
			httputil.WriteNotFound(w, "Creation not found")
		case errors.Is(err, model.ErrContentRequired):
			httputil.WriteBadRequest(w, "Comment text is required")
		case errors.Is(err, model.ErrContentTooLong):
			httputil.WriteBadRequest(w, "Comment text too long")
		default:
			h.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "creation_id": creationID}).Error("create comment")
			httputil.WriteInternalError(w, "Failed to create comment")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Comment added successfully", comment)
}

// ListComments handles GET /creations/{id}/comments?page=
func (h *EngagementHandler) ListComments(w http.ResponseWriter, r *http.Request) {
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
	page, ok := parseIntQuery(r, "page")
	if !ok {
		httputil.WriteBadRequest(w, "Invalid page parameter")
		return
	}

	comments, err := h.engagementService.ListComments(r.Context(), creationID, userID, page)
	if err != nil {
		if errors.Is(err, model.ErrCreationNotFound) {
			httputil.WriteNotFound(w, "Creation not found")
			return
		}
		h.log.WithError(err).WithField("creation_id", creationID).Error("list comments")
		httputil.WriteInternalError(w, "Failed to get comments")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Comments retrieved successfully", comments)
}

// Report handles POST /creations/{id}/report
func (h *EngagementHandler) Report(w http.ResponseWriter, r *http.Request) {
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

	var req model.ReportRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	report, err := h.engagementService.ReportCreation(r.Context(), creationID, userID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCreationNotFound):
			httputil.WriteNotFound(w, "Creation not found")
		case errors.Is(err, model.ErrReasonRequired):
			httputil.WriteBadRequest(w, "Report reason is required")
		default:
			h.log.WithError(err).WithFields(logrus.Fields{"user_id": userID, "creation_id": creationID}).Error("report creation")
			httputil.WriteInternalError(w, "Failed to report creation")
		}
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Creation reported", report)
}
