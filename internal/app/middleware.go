package app

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"astroapp-go/internal/auth"
	"astroapp-go/internal/metrics"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// contextKey is a custom type to use as a key for context values.
type contextKey string

// authUserKey is the key for storing the verified Telegram user in the
// request context.
const authUserKey = contextKey("telegramUser")

// verifyInitData authenticates the X-Telegram-Init-Data header. When auth is
// required, requests without a valid signature are rejected; otherwise a
// missing or invalid header only means no identity is attached.
func (a *Application) verifyInitData(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-Telegram-Init-Data")
		if raw == "" {
			if a.Config.RequireAuth {
				metrics.AuthRejections.Inc()
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := auth.VerifyInitData(raw, a.Config.BotToken)
		if err != nil {
			metrics.AuthRejections.Inc()
			if a.Config.RequireAuth {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			a.Logger.Printf("middleware: init data rejected")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withAuthUser(r, user))
	})
}

// authorized reports whether the request may act on behalf of userID. With
// auth enforced the claimed ID must match the verified Telegram identity.
func (a *Application) authorized(r *http.Request, userID int64) bool {
	if !a.Config.RequireAuth {
		return true
	}
	user, ok := authUserFromContext(r)
	return ok && user.ID == userID
}

// recordMetrics counts requests and measures their duration per route.
func (a *Application) recordMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(ww.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// withAuthUser adds the verified Telegram user to the request's context.
func withAuthUser(r *http.Request, user *auth.TelegramUser) *http.Request {
	ctx := context.WithValue(r.Context(), authUserKey, user)
	return r.WithContext(ctx)
}

// authUserFromContext retrieves the verified Telegram user, if any.
func authUserFromContext(r *http.Request) (*auth.TelegramUser, bool) {
	user, ok := r.Context().Value(authUserKey).(*auth.TelegramUser)
	return user, ok
}
