package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"storyhub/internal/config"
	"storyhub/internal/feed"
	"storyhub/internal/format"
	"storyhub/internal/identity"
	"storyhub/internal/models"
	"storyhub/internal/service"
	"storyhub/internal/view"
)

type Handlers struct {
	UserService    service.UserService
	AuthService    service.AuthService
	ArticleService service.ArticleService
	MediaService   service.MediaService
	StatsService   service.StatsService
	Actions        *view.Actions
	ArticleHub     *feed.Hub[models.Article]
	UserHub        *feed.Hub[models.User]
	Formatter      *format.Formatter
	// HealthCheck probes the store; nil means the store needs no probe.
	HealthCheck func(ctx context.Context) error
	Cfg         *config.Config
	Validate    *validator.Validate
	Log         zerolog.Logger
}

func NewHandlers(
	services *service.Service,
	actions *view.Actions,
	articles *feed.Hub[models.Article],
	users *feed.Hub[models.User],
	cfg *config.Config,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		UserService:    services.User,
		AuthService:    services.Auth,
		ArticleService: services.Article,
		MediaService:   services.Media,
		StatsService:   services.Stats,
		Actions:        actions,
		ArticleHub:     articles,
		UserHub:        users,
		Formatter:      format.New(),
		Cfg:            cfg,
		Validate:       validator.New(),
		Log:            log,
	}
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.HealthCheck != nil {
		if err := h.HealthCheck(r.Context()); err != nil {
			h.logger(r).Error().Err(err).Msg("Проверка БД не пройдена")
			WriteJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
			return
		}
	}
	WriteJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// logger prefers the request-scoped logger set by the logging middleware.
func (h *Handlers) logger(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &h.Log
}

// currentUser returns the caller or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (identity.Identity, bool) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		WriteError(w, "Требуется аутентификация", http.StatusUnauthorized)
	}
	return id, ok
}

// decode reads a JSON body and validates it. It answers 400 on failure.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		WriteError(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
