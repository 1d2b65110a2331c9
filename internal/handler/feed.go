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

type FeedService interface {
	ListFeed(ctx context.Context, viewerID int64, page, limit int) (*model.CreationPage, error)
	Search(ctx context.Context, query string, viewerID int64) (*model.SearchResult, error)
}

type FeedHandler struct {
	feedService FeedService
	log         logrus.FieldLogger
}

func NewFeedHandler(feedService FeedService, log logrus.FieldLogger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		log:         logger.Component(log, "FeedHandler"),
	}
}

// List handles GET /creations
// Returns published creations, most liked first.
//
// Query params:
//   - page: optional, 1-based (default 1)
//   - limit: optional, creations per page (default 10, max 50)
func (h *FeedHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
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

	feed, err := h.feedService.ListFeed(r.Context(), userID, page, limit)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("list feed")
		httputil.WriteInternalError(w, "Failed to get creations")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Creations retrieved successfully", feed)
}

// Search handles GET /search?query=
func (h *FeedHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.feedService.Search(r.Context(), r.URL.Query().Get("query"), userID)
	if err != nil {
		if errors.Is(err, model.ErrQueryRequired) {
			httputil.WriteBadRequest(w, "Search query is required")
			return
		}
		h.log.WithError(err).WithField("user_id", userID).Error("search")
		httputil.WriteInternalError(w, "Search failed")
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Search completed", result)
}
