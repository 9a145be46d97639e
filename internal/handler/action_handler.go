package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"storyhub/internal/identity"
	"storyhub/internal/lifecycle"
	"storyhub/internal/models"
	"storyhub/internal/notify"
	"storyhub/internal/view"
)

// ActionRequest is the body of a lifecycle action. Confirm answers the
// confirmation prompt of destructive actions in advance.
type ActionRequest struct {
	Text    string        `json:"text"`
	Target  models.Status `json:"target" validate:"omitempty,oneof=draft pending needs-revision published rejected archived"`
	Confirm bool          `json:"confirm"`
}

type ActionResponse struct {
	Article       *models.Article       `json:"article,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

type ActionErrorResponse struct {
	Error         string                `json:"error"`
	Prompt        *notify.Prompt        `json:"prompt,omitempty"`
	Notifications []notify.Notification `json:"notifications"`
}

type RoleRequest struct {
	Role models.Role `json:"role" validate:"required,oneof=author editor admin viewer"`
}

// actionsFor binds the shared actions to the caller. Notifications are
// collected for the response; the confirmation is answered by the body.
func (h *Handlers) actionsFor(r *http.Request, actor identity.Identity, confirm bool) (*view.Actions, *notify.Recorder, *notify.StaticConfirmer) {
	recorder := notify.NewRecorder(notify.NewLogNotifier(*h.logger(r)))
	confirmer := notify.NewStaticConfirmer(confirm)
	return h.Actions.As(actor).With(recorder, confirmer), recorder, confirmer
}

// ArticleAction runs POST /api/articles/{id}/actions/{action}.
func (h *Handlers) ArticleAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	articleID := vars["id"]
	action := lifecycle.Action(vars["action"])

	// the body is optional
	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, "Неверный формат запроса", http.StatusBadRequest)
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}

	actions, recorder, confirmer := h.actionsFor(r, actor, req.Confirm)
	article, err := actions.Perform(r.Context(), articleID, action, lifecycle.Input{Text: req.Text, Target: req.Target})
	if err != nil {
		resp := ActionErrorResponse{Error: err.Error(), Notifications: recorder.Notifications()}
		if errors.Is(err, view.ErrCancelled) {
			if prompts := confirmer.Prompts(); len(prompts) > 0 {
				resp.Prompt = &prompts[len(prompts)-1]
			}
		}
		code := StatusFor(err)
		if code == http.StatusInternalServerError {
			resp.Error = "Внутренняя ошибка сервера"
		}
		WriteJSON(w, resp, code)
		return
	}

	WriteJSON(w, ActionResponse{Article: article, Notifications: recorder.Notifications()}, http.StatusOK)
}

// ChangeRole runs PUT /api/admin/users/{id}/role.
func (h *Handlers) ChangeRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req RoleRequest
	if !h.decode(w, r, &req) {
		return
	}

	actions, recorder, _ := h.actionsFor(r, actor, false)
	if err := actions.ChangeRole(r.Context(), mux.Vars(r)["id"], req.Role); err != nil {
		code := StatusFor(err)
		msg := err.Error()
		if code == http.StatusInternalServerError {
			msg = "Внутренняя ошибка сервера"
		}
		WriteJSON(w, ActionErrorResponse{Error: msg, Notifications: recorder.Notifications()}, code)
		return
	}

	WriteJSON(w, ActionResponse{Notifications: recorder.Notifications()}, http.StatusOK)
}
