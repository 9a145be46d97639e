package view

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"storyhub/internal/feed"
	"storyhub/internal/lifecycle"
	"storyhub/internal/models"
	"storyhub/internal/repository"
)

// AdminTabs are the status partitions shown to an admin, in display order.
var AdminTabs = []models.Status{
	models.StatusPending,
	models.StatusPublished,
	models.StatusRejected,
	models.StatusArchived,
	models.StatusDeleted,
}

type AdminStats struct {
	TotalArticles int `json:"totalArticles"`
	Pending       int `json:"pendingCount"`
	Published     int `json:"publishedCount"`
	Rejected      int `json:"rejectedCount"`
	Archived      int `json:"archivedCount"`
	Deleted       int `json:"deletedCount"`
	TotalUsers    int `json:"totalUsers"`
}

type AdminState struct {
	Stats      AdminStats                         `json:"stats"`
	Partitions map[models.Status][]models.Article `json:"partitions"`
	Users      []models.User                      `json:"users"`
	// Ready is set once every subscription delivered its first snapshot.
	Ready   bool   `json:"ready"`
	Version uint64 `json:"version"`
}

// AdminView keeps seven live subscriptions: one per status tab, one over all
// articles for the counts, and one over users.
type AdminView struct {
	*Actions

	live    *live
	updates chan AdminState
	state   AdminState
}

func NewAdminView(
	ctx context.Context,
	actions *Actions,
	articles *feed.Hub[models.Article],
	users *feed.Hub[models.User],
	log zerolog.Logger,
) (*AdminView, error) {
	if !actions.Actor().IsAdmin() {
		return nil, fmt.Errorf("%w: панель администратора", lifecycle.ErrForbidden)
	}

	l, ctx := newLive(ctx, log.With().Str("view", "admin").Logger(), len(AdminTabs)+2)
	v := &AdminView{
		Actions: actions,
		live:    l,
		updates: make(chan AdminState, 1),
		state: AdminState{
			Partitions: make(map[models.Status][]models.Article, len(AdminTabs)),
			Users:      []models.User{},
		},
	}
	l.changed = v.publishLocked

	for _, tab := range AdminTabs {
		tab := tab
		sub := articles.Subscribe(ctx, feed.Query{
			Collection: feed.CollectionArticles,
			Filter:     repository.ArticleFilter{Statuses: []models.Status{tab}},
		})
		watch(l, string(tab), sub, func(items []models.Article) {
			v.state.Partitions[tab] = items
		})
	}

	all := articles.Subscribe(ctx, feed.Query{Collection: feed.CollectionArticles})
	watch(l, "all", all, func(items []models.Article) {
		v.state.Stats = articleStats(items, v.state.Stats.TotalUsers)
	})

	roster := users.Subscribe(ctx, feed.Query{Collection: feed.CollectionUsers})
	watch(l, "users", roster, func(items []models.User) {
		v.state.Users = UniqueByEmail(items)
		v.state.Stats.TotalUsers = len(v.state.Users)
	})

	return v, nil
}

func (v *AdminView) publishLocked() {
	v.state.Version++
	v.state.Ready = v.live.ready()
	feed.Offer(v.updates, v.snapshotLocked())
}

func (v *AdminView) snapshotLocked() AdminState {
	state := v.state
	state.Partitions = make(map[models.Status][]models.Article, len(v.state.Partitions))
	for tab, items := range v.state.Partitions {
		state.Partitions[tab] = items
	}
	return state
}

// State returns the latest view state.
func (v *AdminView) State() AdminState {
	v.live.mu.RLock()
	defer v.live.mu.RUnlock()
	return v.snapshotLocked()
}

// Updates delivers the state after every change. Only the latest state is
// kept for a slow reader. The channel is closed by Close.
func (v *AdminView) Updates() <-chan AdminState {
	return v.updates
}

// Search filters the loaded tab by title or author name, case-insensitively.
func (v *AdminView) Search(tab models.Status, term string) []models.Article {
	v.live.mu.RLock()
	items := v.state.Partitions[tab]
	v.live.mu.RUnlock()

	return FilterArticles(items, term)
}

// Close tears down every subscription.
func (v *AdminView) Close() {
	v.live.close(func() { close(v.updates) })
}

// FilterArticles keeps the articles whose title or author name contains term.
func FilterArticles(items []models.Article, term string) []models.Article {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return items
	}

	found := []models.Article{}
	for _, article := range items {
		if strings.Contains(strings.ToLower(article.Title), term) ||
			strings.Contains(strings.ToLower(article.AuthorName), term) {
			found = append(found, article)
		}
	}
	return found
}

// UniqueByEmail drops every user whose email was already seen. The first
// occurrence wins.
func UniqueByEmail(users []models.User) []models.User {
	seen := make(map[string]bool, len(users))
	unique := make([]models.User, 0, len(users))
	for _, user := range users {
		email := strings.ToLower(strings.TrimSpace(user.Email))
		if seen[email] {
			continue
		}
		seen[email] = true
		unique = append(unique, user)
	}
	return unique
}

func articleStats(items []models.Article, users int) AdminStats {
	stats := AdminStats{TotalArticles: len(items), TotalUsers: users}
	for _, article := range items {
		switch article.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusPublished:
			stats.Published++
		case models.StatusRejected:
			stats.Rejected++
		case models.StatusArchived:
			stats.Archived++
		case models.StatusDeleted:
			stats.Deleted++
		}
	}
	return stats
}
