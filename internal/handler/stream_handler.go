package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storyhub/internal/view"
)

const keepAliveInterval = 25 * time.Second

// AdminStream sends the admin view state as server-sent events until the
// client disconnects.
func (h *Handlers) AdminStream(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	v, err := view.NewAdminView(r.Context(), h.Actions.As(actor), h.ArticleHub, h.UserHub, *h.logger(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer v.Close()

	stream(w, r, v.Updates(), h)
}

// DashboardStream sends the caller's dashboard state as server-sent events.
func (h *Handlers) DashboardStream(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	v, err := view.NewDashboardView(r.Context(), h.Actions.As(actor), h.ArticleHub, *h.logger(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	defer v.Close()

	stream(w, r, v.Updates(), h)
}

func stream[S any](w http.ResponseWriter, r *http.Request, updates <-chan S, h *Handlers) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, "Потоковая передача не поддерживается", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case state, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(state)
			if err != nil {
				h.logger(r).Error().Err(err).Msg("Ошибка сериализации состояния")
				return
			}
			fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
