package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cityinfra/asset-registry/internal/entities"
)

type mockFetcher struct {
	users map[string]*entities.User
}

func (m mockFetcher) FindUserByID(id string) (*entities.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func TestActorMiddlewareBindsUser(t *testing.T) {
	fetcher := mockFetcher{users: map[string]*entities.User{
		"u1": {ID: "u1", Username: "inspector"},
	}}

	var got *entities.User
	handler := ActorMiddleware(fetcher)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = entities.ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "u1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || got.ID != "u1" {
		t.Fatalf("actor not bound, got %+v", got)
	}
}

func TestActorMiddlewareNoHeaderPassesThrough(t *testing.T) {
	handler := ActorMiddleware(mockFetcher{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := entities.ActorFromContext(r.Context()); ok {
			t.Error("no actor should be bound without the header")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestActorMiddlewareUnknownUser(t *testing.T) {
	handler := ActorMiddleware(mockFetcher{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for an unknown user")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User-Id", "ghost")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireActor(t *testing.T) {
	handler := RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req = req.WithContext(entities.WithActor(req.Context(), &entities.User{ID: "u1"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestImportRateLimiter(t *testing.T) {
	handler := ImportRateLimiter(0, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", first.Code)
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", second.Code)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("throttled response should carry Retry-After")
	}
}
