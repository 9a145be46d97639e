package handlers

import (
	"errors"
	"net/http"

	"storyhub/internal/models"
	"storyhub/internal/repository"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AuthResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req repository.CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, err := h.AuthService.Register(r.Context(), req); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			WriteError(w, "Email уже существует", http.StatusConflict)
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	user, accessToken, refreshToken, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, "Неверный email или пароль", http.StatusUnauthorized)
		return
	}

	WriteJSON(w, AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, http.StatusOK)
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, accessToken, refreshToken, err := h.AuthService.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		WriteError(w, "Refresh Token истек или недействителен", http.StatusUnauthorized)
		return
	}

	WriteJSON(w, AuthResponse{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, http.StatusOK)
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetUser(r.Context(), id.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, user, http.StatusOK)
}
