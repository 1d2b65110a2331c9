package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imaginarium/internal/logger"
	"imaginarium/internal/model"
	"imaginarium/internal/service"
	"imaginarium/internal/transport/http/middleware"
)

type stubCreationService struct {
	submitFn func(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error)
	getFn    func(ctx context.Context, creationID, viewerID int64) (*model.CreationView, error)
}

func (s *stubCreationService) Submit(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error) {
	return s.submitFn(ctx, userID, req)
}

func (s *stubCreationService) GetCreation(ctx context.Context, creationID, viewerID int64) (*model.CreationView, error) {
	return s.getFn(ctx, creationID, viewerID)
}

func (s *stubCreationService) ListUserCreations(ctx context.Context, ownerID, viewerID int64, page, limit int) (*model.CreationPage, error) {
	return &model.CreationPage{Creations: []model.CreationView{}, Pagination: model.NewPagination(1, 10, 0)}, nil
}

type stubFeedService struct {
	listFn   func(ctx context.Context, viewerID int64, page, limit int) (*model.CreationPage, error)
	searchFn func(ctx context.Context, query string, viewerID int64) (*model.SearchResult, error)
}

func (s *stubFeedService) ListFeed(ctx context.Context, viewerID int64, page, limit int) (*model.CreationPage, error) {
	return s.listFn(ctx, viewerID, page, limit)
}

func (s *stubFeedService) Search(ctx context.Context, query string, viewerID int64) (*model.SearchResult, error) {
	return s.searchFn(ctx, query, viewerID)
}

type stubEngagementService struct {
	toggleFn  func(ctx context.Context, creationID, userID int64) (*service.LikeResult, error)
	commentFn func(ctx context.Context, creationID, userID int64, text string) (*model.Comment, error)
}

func (s *stubEngagementService) ToggleLike(ctx context.Context, creationID, userID int64) (*service.LikeResult, error) {
	return s.toggleFn(ctx, creationID, userID)
}

func (s *stubEngagementService) CreateComment(ctx context.Context, creationID, userID int64, text string) (*model.Comment, error) {
	return s.commentFn(ctx, creationID, userID, text)
}

func (s *stubEngagementService) ListComments(ctx context.Context, creationID, viewerID int64, page int) (*model.CommentPage, error) {
	return &model.CommentPage{Comments: []model.Comment{}}, nil
}

func (s *stubEngagementService) ReportCreation(ctx context.Context, creationID, userID int64, reason string) (*model.Report, error) {
	if reason == "" {
		return nil, model.ErrReasonRequired
	}
	return &model.Report{ID: 1, CreationID: creationID, UserID: userID, Reason: reason}, nil
}

type stubNotificationService struct {
	markReadFn func(ctx context.Context, notificationID, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error)
	savedToken string
}

func (s *stubNotificationService) List(ctx context.Context, userID int64, page int) (*model.NotificationPage, error) {
	return &model.NotificationPage{Notifications: []model.Notification{}, UnreadCount: 2}, nil
}

func (s *stubNotificationService) MarkRead(ctx context.Context, notificationID, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error) {
	return s.markReadFn(ctx, notificationID, userID, req)
}

func (s *stubNotificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return 3, nil
}

func (s *stubNotificationService) SavePushToken(ctx context.Context, userID int64, token string) error {
	if !strings.HasPrefix(token, "ExpoPushToken[") {
		return model.ErrInvalidPushToken
	}
	s.savedToken = token
	return nil
}

// asUser injects an authenticated user the way AuthMiddleware does.
func asUser(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID > 0 {
				r = r.WithContext(middleware.WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

type testEnv struct {
	creations     *stubCreationService
	feed          *stubFeedService
	engagement    *stubEngagementService
	notifications *stubNotificationService
}

func (e *testEnv) router(userID int64) http.Handler {
	log := logger.Discard()
	ch := NewCreationHandler(e.creations, log)
	fh := NewFeedHandler(e.feed, log)
	eh := NewEngagementHandler(e.engagement, log)
	nh := NewNotificationHandler(e.notifications, log)

	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Post("/creations", ch.Submit)
	r.Get("/creations", fh.List)
	r.Get("/creations/{id}", ch.Get)
	r.Post("/creations/{id}/like", eh.ToggleLike)
	r.Post("/creations/{id}/comments", eh.CreateComment)
	r.Post("/creations/{id}/report", eh.Report)
	r.Get("/users/{id}/creations", ch.ListByUser)
	r.Get("/search", fh.Search)
	r.Get("/notifications", nh.List)
	r.Patch("/notifications/{id}", nh.Update)
	r.Post("/notifications/push-token", nh.SavePushToken)
	return r
}

func newTestEnv() *testEnv {
	return &testEnv{
		creations:     &stubCreationService{},
		feed:          &stubFeedService{},
		engagement:    &stubEngagementService{},
		notifications: &stubNotificationService{},
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestCreationHandler_Submit(t *testing.T) {
	env := newTestEnv()
	var got model.SubmitCreationRequest
	env.creations.submitFn = func(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error) {
		got = req
		return &model.SubmitResult{CreationID: 5, ImageID: 6, ImageURL: "https://cdn.test/i.png", DisplayURL: "https://cdn.test/t.png"}, nil
	}

	rec, body := do(t, env.router(1), http.MethodPost, "/creations", `{"prompt":"a cat","category":"ghibli"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a cat", got.Prompt)
	assert.Equal(t, "ghibli", got.Category)

	var result model.SubmitResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.Equal(t, int64(5), result.CreationID)
	assert.Equal(t, "https://cdn.test/t.png", result.DisplayURL)
}

func TestCreationHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing prompt", `{"category":"ghibli"}`, nil, http.StatusBadRequest},
		{"malformed json", `{"prompt":`, nil, http.StatusBadRequest},
		{"blank prompt", `{"prompt":"  "}`, model.ErrPromptRequired, http.StatusBadRequest},
		{"upstream", `{"prompt":"a cat"}`, fmt.Errorf("%w: quota", model.ErrUpstreamFailure), http.StatusBadGateway},
		{"unknown user", `{"prompt":"a cat"}`, model.ErrUserNotFound, http.StatusNotFound},
		{"internal", `{"prompt":"a cat"}`, fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.creations.submitFn = func(ctx context.Context, userID int64, req model.SubmitCreationRequest) (*model.SubmitResult, error) {
				return nil, tt.err
			}
			rec, body := do(t, env.router(1), http.MethodPost, "/creations", tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestHandlers_RequireAuthentication(t *testing.T) {
	env := newTestEnv()
	rec, body := do(t, env.router(0), http.MethodPost, "/creations", `{"prompt":"a cat"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", body.Message)
}

func TestCreationHandler_Get(t *testing.T) {
	env := newTestEnv()
	env.creations.getFn = func(ctx context.Context, creationID, viewerID int64) (*model.CreationView, error) {
		if creationID == 404 {
			return nil, model.ErrCreationNotFound
		}
		return &model.CreationView{ID: creationID, Status: model.CreationStatusPublished}, nil
	}
	h := env.router(1)

	rec, _ := do(t, h, http.MethodGet, "/creations/7", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/creations/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/creations/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedHandler(t *testing.T) {
	env := newTestEnv()
	var gotPage, gotLimit int
	env.feed.listFn = func(ctx context.Context, viewerID int64, page, limit int) (*model.CreationPage, error) {
		gotPage, gotLimit = page, limit
		return &model.CreationPage{Creations: []model.CreationView{}, Pagination: model.NewPagination(page, limit, 0)}, nil
	}
	env.feed.searchFn = func(ctx context.Context, query string, viewerID int64) (*model.SearchResult, error) {
		if query == "" {
			return nil, model.ErrQueryRequired
		}
		return &model.SearchResult{Users: []model.UserSummary{}, Creations: []model.CreationView{}}, nil
	}
	h := env.router(1)

	rec, _ := do(t, h, http.MethodGet, "/creations?page=2&limit=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 20, gotLimit)

	rec, _ = do(t, h, http.MethodGet, "/creations?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/search?query=cat", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEngagementHandler(t *testing.T) {
	env := newTestEnv()
	env.engagement.toggleFn = func(ctx context.Context, creationID, userID int64) (*service.LikeResult, error) {
		if creationID == 404 {
			return nil, model.ErrCreationNotFound
		}
		return &service.LikeResult{Liked: true}, nil
	}
	env.engagement.commentFn = func(ctx context.Context, creationID, userID int64, text string) (*model.Comment, error) {
		if creationID == 404 {
			return nil, model.ErrCreationNotFound
		}
		return &model.Comment{ID: 1, Text: text, UserID: userID, CreationID: creationID}, nil
	}
	h := env.router(2)

	rec, body := do(t, h, http.MethodPost, "/creations/1/like", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Creation liked", body.Message)
	assert.JSONEq(t, `{"liked":true}`, string(body.Data))

	rec, _ = do(t, h, http.MethodPost, "/creations/404/like", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/creations/1/comments", `{"text":"hi"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/creations/404/comments", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/creations/1/comments", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/creations/1/report", `{"reason":"spam"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestNotificationHandler(t *testing.T) {
	env := newTestEnv()
	env.notifications.markReadFn = func(ctx context.Context, notificationID, userID int64, req model.UpdateNotificationRequest) (*model.Notification, error) {
		if req.Empty() {
			return nil, model.ErrNoUpdateFields
		}
		if notificationID != 1 || userID != 3 {
			return nil, model.ErrNotificationNotFound
		}
		return &model.Notification{ID: 1, UserID: 3, IsRead: *req.IsRead}, nil
	}
	h := env.router(3)

	rec, body := do(t, h, http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var page model.NotificationPage
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.Equal(t, 2, page.UnreadCount)

	rec, _ = do(t, h, http.MethodPatch, "/notifications/1", `{"isRead":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, h, http.MethodPatch, "/notifications/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = do(t, h, http.MethodPatch, "/notifications/9", `{"isRead":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Notification not found or unauthorized", body.Message)

	rec, _ = do(t, h, http.MethodPost, "/notifications/push-token", `{"token":"bogus"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/notifications/push-token", `{"token":"ExpoPushToken[x]"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ExpoPushToken[x]", env.notifications.savedToken)
}
