package middleware

import (
	"net/http"

	"github.com/cityinfra/asset-registry/internal/entities"
	"golang.org/x/time/rate"
)

// UserFetcher resolves the acting user named by the request. Authentication
// itself happens upstream; by the time a request lands here the collaborator
// has already verified the identity it forwards.
type UserFetcher interface {
	FindUserByID(id string) (*entities.User, error)
}

const actorHeader = "X-User-Id"

// ActorMiddleware binds the acting user to the request context. Requests
// without the header pass through unauthenticated; handlers that mutate data
// reject those themselves. The binding lives on the request context, so it is
// released on every path out of the handler.
func ActorMiddleware(fetcher UserFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get(actorHeader)
			if userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := fetcher.FindUserByID(userID)
			if err != nil {
				http.Error(w, "Unknown acting user", http.StatusUnauthorized)
				return
			}

			ctx := entities.WithActor(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActor rejects requests that reached a protected route without a
// bound acting user.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := entities.ActorFromContext(r.Context()); !ok {
			http.Error(w, "Missing acting user", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods",
			"GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Authorization, X-User-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ImportRateLimiter throttles the bulk import endpoints. Imports run a whole
// file inside one transaction, so a burst of them can starve the pool.
func ImportRateLimiter(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Too many import requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
