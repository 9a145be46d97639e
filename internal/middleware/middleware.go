package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	handlers "storyhub/internal/handler"
	"storyhub/internal/identity"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/pkg/logger"
)

type Middleware func(http.Handler) http.Handler

// TokenParser turns an access token into the identity it was issued for.
type TokenParser interface {
	IdentityFromToken(tokenString string) (identity.Identity, error)
}

// UserReader reloads the account behind a token.
type UserReader interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware puts the caller identity into the request context. Requests
// without an Authorization header pass through anonymously; RequireAuth
// rejects them where an account is needed. When users is set the role is
// taken from the store, so a role change applies before the token expires.
func AuthMiddleware(tokens TokenParser, users UserReader, log zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Checking the "Bearer <token>" format
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				handlers.WriteError(w, "Неверный формат токена", http.StatusUnauthorized)
				return
			}

			id, err := tokens.IdentityFromToken(parts[1])
			if err != nil {
				handlers.WriteError(w, "Недействительный токен", http.StatusUnauthorized)
				return
			}

			if users != nil {
				user, err := users.GetUser(r.Context(), id.UserID)
				switch {
				case errors.Is(err, repository.ErrNotFound):
					handlers.WriteError(w, "Пользователь не найден", http.StatusUnauthorized)
					return
				case err != nil:
					log.Warn().Err(err).Str("user_id", id.UserID).Msg("Не удалось обновить роль, используется роль из токена")
				default:
					id = identity.FromUser(user)
				}
			}

			next.ServeHTTP(w, r.WithContext(identity.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := identity.FromContext(r.Context()); !ok {
			handlers.WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RoleMiddleware(allowedRoles ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				handlers.WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
				return
			}

			for _, role := range allowedRoles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			handlers.WriteError(w, "Доступ запрещен", http.StatusForbidden)
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware tags every request with an id and logs its outcome. The
// request logger is available to handlers through zerolog.Ctx.
func LoggingMiddleware(log zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLog := logger.WithRequestID(log, requestID)
			rec := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, r.WithContext(reqLog.WithContext(r.Context())))

			event := reqLog.Info()
			if rec.status >= http.StatusInternalServerError {
				event = reqLog.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("HTTP запрос")
		})
	}
}

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware(collector *metrics.Collector) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			start := time.Now()

			next.ServeHTTP(rec, r)

			collector.RecordHTTPRequest(r.Method, routeTemplate(r), strconv.Itoa(rec.status), time.Since(start).Seconds())
		})
	}
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps event streams working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
