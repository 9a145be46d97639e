package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"storyhub/internal/format"
	"storyhub/internal/identity"
	"storyhub/internal/models"
	"storyhub/internal/service"
	"storyhub/internal/view"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

type FeedItem struct {
	models.Article
	PublishedLabel string `json:"publishedLabel"`
	ViewsLabel     string `json:"viewsLabel"`
}

type ArticlePage struct {
	models.Article
	HTML           string              `json:"html,omitempty"`
	Story          *models.VisualStory `json:"story,omitempty"`
	StatusLabel    string              `json:"statusLabel"`
	PublishedLabel string              `json:"publishedLabel"`
	ViewsLabel     string              `json:"viewsLabel"`
}

// ListPublished serves the public feed, newest first.
func (h *Handlers) ListPublished(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, "Неверный параметр limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxFeedLimit)
	}

	articles, err := h.ArticleService.ListPublished(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	now := time.Now()
	items := make([]FeedItem, 0, len(articles))
	for _, article := range articles {
		items = append(items, FeedItem{
			Article:        article,
			PublishedLabel: format.RelativeTime(article.PublishedAt, now),
			ViewsLabel:     format.Count(article.Views),
		})
	}

	WriteJSON(w, items, http.StatusOK)
}

// GetArticle serves the article page. Anonymous readers see published
// articles only.
func (h *Handlers) GetArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())

	article, err := h.ArticleService.GetArticle(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	page := ArticlePage{
		Article:        *article,
		StatusLabel:    view.StatusLabel(*article),
		PublishedLabel: format.Timestamp(article.PublishedAt, false),
		ViewsLabel:     format.Count(article.Views),
	}

	if article.IsVisualStory {
		s, err := storyOf(article)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		page.Story = &s
	} else {
		html, err := h.Formatter.Markdown(article.Content)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		page.HTML = html
	}

	WriteJSON(w, page, http.StatusOK)
}

func (h *Handlers) CreateArticle(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.CreateArticleRequest
	if !h.decode(w, r, &req) {
		return
	}

	article, err := h.ArticleService.CreateArticle(r.Context(), actor, req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, article, http.StatusCreated)
}

func (h *Handlers) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req service.UpdateArticleRequest
	if !h.decode(w, r, &req) {
		return
	}

	article, err := h.ArticleService.UpdateArticle(r.Context(), actor, mux.Vars(r)["id"], req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, article, http.StatusOK)
}

// MyArticles lists the caller's articles outside the archive and trash.
func (h *Handlers) MyArticles(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	articles, err := h.ArticleService.ListByAuthor(r.Context(), actor.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, articles, http.StatusOK)
}

// AdminArticles lists one status tab, optionally filtered by ?q=.
func (h *Handlers) AdminArticles(w http.ResponseWriter, r *http.Request) {
	status := models.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		WriteError(w, "Неизвестный статус", http.StatusBadRequest)
		return
	}

	articles, err := h.ArticleService.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, view.FilterArticles(articles, r.URL.Query().Get("q")), http.StatusOK)
}

type StatsResponse struct {
	*models.Overview
	ViewsLabel string `json:"viewsLabel"`
}

func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.StatsService.Overview(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, StatsResponse{Overview: overview, ViewsLabel: format.Count(overview.Views)}, http.StatusOK)
}
