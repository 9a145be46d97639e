package view

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"storyhub/internal/feed"
	"storyhub/internal/lifecycle"
	"storyhub/internal/models"
	"storyhub/internal/repository"
)

const RevisedPendingLabel = "Revised - Pending Review"

var statusLabels = map[models.Status]string{
	models.StatusDraft:         "Draft",
	models.StatusPending:       "Pending Review",
	models.StatusNeedsRevision: "Needs Revision",
	models.StatusPublished:     "Published",
	models.StatusRejected:      "Rejected",
	models.StatusArchived:      "Archived",
	models.StatusDeleted:       "Deleted",
}

// StatusLabel is the badge text of an article.
func StatusLabel(article models.Article) string {
	if article.Status == models.StatusPending && article.IsRevised {
		return RevisedPendingLabel
	}
	if label, ok := statusLabels[article.Status]; ok {
		return label
	}
	return string(article.Status)
}

type DashboardStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Pending   int `json:"pending"`
	Draft     int `json:"draft"`
	Rejected  int `json:"rejected"`
}

type DashboardItem struct {
	models.Article
	Label string `json:"label"`
	// RequestedChanges is the admin feedback shown while the article needs revision.
	RequestedChanges string             `json:"requestedChanges,omitempty"`
	CanEdit          bool               `json:"canEdit"`
	CanView          bool               `json:"canView"`
	Actions          []lifecycle.Action `json:"actions"`
}

type DashboardState struct {
	Articles []DashboardItem `json:"articles"`
	Stats    DashboardStats  `json:"stats"`
	Ready    bool            `json:"ready"`
	Version  uint64          `json:"version"`
}

// DashboardView shows an author their own articles outside the archive and trash.
type DashboardView struct {
	actions *Actions
	live    *live
	updates chan DashboardState
	state   DashboardState
}

func NewDashboardView(ctx context.Context, actions *Actions, articles *feed.Hub[models.Article], log zerolog.Logger) (*DashboardView, error) {
	actor := actions.Actor()
	if !actor.Authenticated() {
		return nil, fmt.Errorf("%w: панель автора", lifecycle.ErrForbidden)
	}

	l, ctx := newLive(ctx, log.With().Str("view", "dashboard").Str("user_id", actor.UserID).Logger(), 1)
	v := &DashboardView{
		actions: actions,
		live:    l,
		updates: make(chan DashboardState, 1),
		state:   DashboardState{Articles: []DashboardItem{}},
	}
	l.changed = v.publishLocked

	sub := articles.Subscribe(ctx, feed.Query{
		Collection: feed.CollectionArticles,
		Filter: repository.ArticleFilter{
			AuthorID:        actor.UserID,
			ExcludeStatuses: []models.Status{models.StatusArchived, models.StatusDeleted},
		},
	})
	watch(l, "articles", sub, func(items []models.Article) {
		v.state.Articles = v.items(items)
		v.state.Stats = dashboardStats(items)
	})

	return v, nil
}

func (v *DashboardView) items(articles []models.Article) []DashboardItem {
	items := make([]DashboardItem, 0, len(articles))
	for _, article := range articles {
		item := DashboardItem{
			Article: article,
			Label:   StatusLabel(article),
			CanEdit: v.CanEdit(article),
			CanView: v.CanView(article),
			Actions: v.available(article),
		}
		if article.Status == models.StatusNeedsRevision {
			item.RequestedChanges = article.RevisionNote
		}
		items = append(items, item)
	}
	return items
}

func (v *DashboardView) available(article models.Article) []lifecycle.Action {
	actions := []lifecycle.Action{}
	for _, action := range []lifecycle.Action{
		lifecycle.ActionSubmit,
		lifecycle.ActionResubmit,
		lifecycle.ActionArchive,
		lifecycle.ActionDelete,
	} {
		if lifecycle.Allowed(article.Status, action) && lifecycle.IsAuthorized(v.actions.Actor(), action, &article) {
			actions = append(actions, action)
		}
	}
	return actions
}

func dashboardStats(articles []models.Article) DashboardStats {
	stats := DashboardStats{Total: len(articles)}
	for _, article := range articles {
		switch article.Status {
		case models.StatusPublished:
			stats.Published++
		case models.StatusPending:
			stats.Pending++
		case models.StatusDraft:
			stats.Draft++
		case models.StatusRejected:
			stats.Rejected++
		}
	}
	return stats
}

func (v *DashboardView) publishLocked() {
	v.state.Version++
	v.state.Ready = v.live.ready()
	feed.Offer(v.updates, v.state)
}

func (v *DashboardView) State() DashboardState {
	v.live.mu.RLock()
	defer v.live.mu.RUnlock()
	return v.state
}

// Updates delivers the state after every change. The channel is closed by Close.
func (v *DashboardView) Updates() <-chan DashboardState {
	return v.updates
}

// CanEdit reports whether the editor may be opened for article.
func (v *DashboardView) CanEdit(article models.Article) bool {
	if article.Status == models.StatusArchived || article.Status == models.StatusDeleted {
		return false
	}
	return lifecycle.IsAuthorized(v.actions.Actor(), lifecycle.ActionEdit, &article)
}

// CanView reports whether the public article page exists for article.
func (v *DashboardView) CanView(article models.Article) bool {
	return article.Status == models.StatusPublished
}

func (v *DashboardView) Submit(ctx context.Context, articleID string) (*models.Article, error) {
	return v.actions.Submit(ctx, articleID)
}

func (v *DashboardView) Resubmit(ctx context.Context, articleID string) (*models.Article, error) {
	return v.actions.Resubmit(ctx, articleID)
}

func (v *DashboardView) Archive(ctx context.Context, articleID string) (*models.Article, error) {
	return v.actions.Archive(ctx, articleID)
}

func (v *DashboardView) Delete(ctx context.Context, articleID string) (*models.Article, error) {
	return v.actions.Delete(ctx, articleID)
}

func (v *DashboardView) Close() {
	v.live.close(func() { close(v.updates) })
}
