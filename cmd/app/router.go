package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	handlers "storyhub/internal/handler"
	"storyhub/internal/metrics"
	"storyhub/internal/middleware"
	"storyhub/internal/models"
)

func (a *App) metricsHandler() http.Handler {
	if !a.Cfg.MetricsEnabled {
		return nil
	}
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})
}

// NewRouter registers every route. metricsHandler may be nil.
func NewRouter(
	h *handlers.Handlers,
	tokens middleware.TokenParser,
	users middleware.UserReader,
	collector *metrics.Collector,
	metricsHandler http.Handler,
	log zerolog.Logger,
) http.Handler {
	router := mux.NewRouter()
	router.Use(mux.MiddlewareFunc(middleware.MetricsMiddleware(collector)))

	router.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	api := router.PathPrefix("/api").Subrouter()

	// public
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh-token", h.RefreshToken).Methods(http.MethodPost)
	api.HandleFunc("/articles", h.ListPublished).Methods(http.MethodGet)
	api.HandleFunc("/articles/{id}", h.GetArticle).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)

	// signed in
	private := api.NewRoute().Subrouter()
	private.Use(mux.MiddlewareFunc(middleware.RequireAuth))

	private.HandleFunc("/me", h.GetCurrentUser).Methods(http.MethodGet)
	private.HandleFunc("/me", h.UpdateProfile).Methods(http.MethodPut)
	private.HandleFunc("/me/avatar", h.UploadAvatar).Methods(http.MethodPost)
	private.HandleFunc("/me/articles", h.MyArticles).Methods(http.MethodGet)

	private.HandleFunc("/articles", h.CreateArticle).Methods(http.MethodPost)
	private.HandleFunc("/articles/{id}", h.UpdateArticle).Methods(http.MethodPut)
	private.HandleFunc("/articles/{id}/actions/{action}", h.ArticleAction).Methods(http.MethodPost)
	private.HandleFunc("/articles/{id}/featured-image", h.UploadFeaturedImage).Methods(http.MethodPost)
	private.HandleFunc("/articles/{id}/images", h.UploadBlockImage).Methods(http.MethodPost)
	private.HandleFunc("/articles/{id}/blocks", h.AddBlock).Methods(http.MethodPost)
	private.HandleFunc("/articles/{id}/blocks/reorder", h.ReorderBlocks).Methods(http.MethodPost)
	private.HandleFunc("/articles/{id}/blocks/{blockId}", h.UpdateBlock).Methods(http.MethodPatch)
	private.HandleFunc("/articles/{id}/blocks/{blockId}", h.DeleteBlock).Methods(http.MethodDelete)
	private.HandleFunc("/images/{imageId}", h.DeleteImage).Methods(http.MethodDelete)
	private.HandleFunc("/dashboard/stream", h.DashboardStream).Methods(http.MethodGet)

	// admin
	admin := private.PathPrefix("/admin").Subrouter()
	admin.Use(mux.MiddlewareFunc(middleware.RoleMiddleware(models.RoleAdmin)))

	admin.HandleFunc("/stats", h.AdminStats).Methods(http.MethodGet)
	admin.HandleFunc("/articles", h.AdminArticles).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{id}/role", h.ChangeRole).Methods(http.MethodPut)
	admin.HandleFunc("/stream", h.AdminStream).Methods(http.MethodGet)

	return middleware.Chain(
		router,
		middleware.AuthMiddleware(tokens, users, log),
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware(log),
	)
}
