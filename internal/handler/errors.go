package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"storyhub/internal/lifecycle"
	"storyhub/internal/repository"
	"storyhub/internal/service"
	"storyhub/internal/story"
	"storyhub/internal/view"
)

// ErrorResponse - стандартный ответ с ошибкой
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError - универсальная функция для отправки ошибок
func WriteError(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, ErrorResponse{Error: message}, statusCode)
}

// WriteJSON - функция для успешных ответов
func WriteJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, view.ErrCancelled):
		return http.StatusPreconditionRequired
	case errors.Is(err, lifecycle.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, story.ErrBlockNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrEmailTaken),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, service.ErrNotEditable):
		return http.StatusConflict
	case lifecycle.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrUnsupportedImage),
		errors.Is(err, story.ErrIndexOutOfRange),
		errors.Is(err, story.ErrUnknownBlockType),
		errors.Is(err, story.ErrInvalidStory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError answers with the status of err. Internal errors are
// logged and reported without details.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code == http.StatusInternalServerError {
		h.logger(r).Error().Err(err).Str("path", r.URL.Path).Msg("Ошибка обработки запроса")
		WriteError(w, "Внутренняя ошибка сервера", code)
		return
	}
	WriteError(w, err.Error(), code)
}
