package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func echoUserID(w http.ResponseWriter, r *http.Request) {
	id, ok := GetUserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(strconv.FormatInt(id, 10)))
}

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(testSecret)(http.HandlerFunc(echoUserID))

	valid := signToken(t, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(time.Hour).Unix()})
	expired := signToken(t, jwt.MapClaims{"user_id": 7, "exp": time.Now().Add(-time.Hour).Unix()})
	noUser := signToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusOK},
		{"cookie", "", valid, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"missing claim", "Bearer " + noUser, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "7", rec.Body.String())
			}
		})
	}
}

func TestRateLimiter_PerUser(t *testing.T) {
	rl := NewPerMinuteRateLimiter(2)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do := func(userID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/creations", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, do(1))
	assert.Equal(t, http.StatusCreated, do(1))
	assert.Equal(t, http.StatusTooManyRequests, do(1))
	assert.Equal(t, http.StatusCreated, do(2), "buckets are per user")
}

func TestRateLimiter_CleanupEvictsIdleKeys(t *testing.T) {
	rl := NewPerMinuteRateLimiter(1)
	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	do := func(userID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/creations", nil)
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, do(1))
	assert.Equal(t, http.StatusCreated, do(2))
	require.Equal(t, 2, rl.size())

	clock = clock.Add(3 * time.Minute)
	assert.Equal(t, http.StatusTooManyRequests, do(2))

	assert.Equal(t, 1, rl.Cleanup(2*time.Minute))
	assert.Equal(t, 1, rl.size())

	clock = clock.Add(time.Minute)
	assert.Equal(t, 0, rl.Cleanup(2*time.Minute), "recently seen keys stay")
}
