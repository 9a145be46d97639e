package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/view"
)

// PublicProfile is what any reader may see of an account.
type PublicProfile struct {
	UserID        string      `json:"uid"`
	DisplayName   string      `json:"displayName"`
	PhotoURL      string      `json:"photoURL"`
	Bio           string      `json:"bio"`
	Role          models.Role `json:"role"`
	ArticlesCount int         `json:"articlesCount"`
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, PublicProfile{
		UserID:        user.UserID,
		DisplayName:   user.DisplayName,
		PhotoURL:      user.PhotoURL,
		Bio:           user.Bio,
		Role:          user.Role,
		ArticlesCount: user.ArticlesCount,
	}, http.StatusOK)
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req repository.UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), id.UserID, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, user, http.StatusOK)
}

// ListUsers returns the roster with one account per email.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, view.UniqueByEmail(users), http.StatusOK)
}
