package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storyhub/internal/models"
	"storyhub/internal/repository"
)

func TestArticleRepository_ConcurrentViews(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	article := &models.Article{Title: "Hot", AuthorID: "u1", Status: models.StatusPublished}
	require.NoError(t, repo.Article.Create(ctx, article))

	const readers = 100
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Article.IncrementViews(ctx, article.ID))
		}()
	}
	wg.Wait()

	stored, err := repo.Article.GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(readers), stored.Views)
}

func TestArticleRepository_ListAndGuards(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []models.Status{models.StatusDraft, models.StatusPending, models.StatusArchived} {
		created := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Article.Create(ctx, &models.Article{
			ID: string(status), AuthorID: "u1", Status: status, CreatedAt: created, UpdatedAt: created,
		}))
	}

	all, err := repo.Article.List(ctx, repository.ArticleFilter{AuthorID: "u1", ExcludeStatuses: []models.Status{models.StatusArchived}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "pending", all[0].ID, "новые статьи первыми")

	limited, err := repo.Article.List(ctx, repository.ArticleFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	t.Run("Устаревший ожидаемый статус", func(t *testing.T) {
		stale := &models.Article{ID: "draft", Status: models.StatusPublished}
		err := repo.Article.UpdateLifecycle(ctx, stale, models.StatusPending)
		assert.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("Очистка только из корзины", func(t *testing.T) {
		assert.ErrorIs(t, repo.Article.Delete(ctx, "draft"), repository.ErrNotFound)

		deleted := &models.Article{ID: "archived", Status: models.StatusDeleted}
		require.NoError(t, repo.Article.UpdateLifecycle(ctx, deleted, models.StatusArchived))
		require.NoError(t, repo.Article.Delete(ctx, "archived"))

		_, err := repo.Article.GetByID(ctx, "archived")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestArticleRepository_ListOrdersArchiveByStateTime(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(h int) *time.Time {
		ts := base.Add(time.Duration(h) * time.Hour)
		return &ts
	}

	for _, a := range []*models.Article{
		{ID: "old", Title: "Старая", Status: models.StatusArchived, CreatedAt: base, ArchivedAt: at(10)},
		{ID: "new", Title: "Новая", Status: models.StatusArchived, CreatedAt: base.Add(time.Hour), ArchivedAt: at(2)},
		{ID: "gone-old", Title: "Удалена", Status: models.StatusDeleted, CreatedAt: base, DeletedAt: at(5)},
		{ID: "gone-new", Title: "Удалена", Status: models.StatusDeleted, CreatedAt: base.Add(time.Hour), DeletedAt: at(3)},
	} {
		require.NoError(t, repo.Article.Create(ctx, a))
	}

	tests := []struct {
		name     string
		status   models.Status
		expected []string
	}{
		{name: "Архив по дате архивации", status: models.StatusArchived, expected: []string{"old", "new"}},
		{name: "Корзина по дате удаления", status: models.StatusDeleted, expected: []string{"gone-old", "gone-new"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, err := repo.Article.List(ctx, repository.ArticleFilter{Statuses: []models.Status{tt.status}})
			require.NoError(t, err)

			ids := make([]string, 0, len(articles))
			for _, a := range articles {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.expected, ids)
		})
	}

	all, err := repo.Article.List(ctx, repository.ArticleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, base.Add(time.Hour), all[0].CreatedAt)
}

func TestArticleRepository_LifecycleKeepsHistory(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	article := &models.Article{Title: "История", AuthorID: "u1", Status: models.StatusArchived, PreviousStatus: models.StatusPublished}
	require.NoError(t, repo.Article.Create(ctx, article))

	deleted := *article
	deleted.Status = models.StatusDeleted
	deleted.PreviousStatus = models.StatusArchived
	deleted.ArchivedFrom = models.StatusPublished
	deleted.HeldRevised = true
	require.NoError(t, repo.Article.UpdateLifecycle(ctx, &deleted, models.StatusArchived))

	stored, err := repo.Article.GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, stored.ArchivedFrom)
	assert.True(t, stored.HeldRevised)
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	first := &models.User{Email: "Ann@Example.com", Role: models.RoleAuthor}
	require.NoError(t, repo.User.CreateUser(ctx, first, "secret1"))
	assert.Equal(t, "ann@example.com", first.Email)

	err := repo.User.CreateUser(ctx, &models.User{Email: "ann@example.com ", Role: models.RoleAuthor}, "secret2")
	assert.ErrorIs(t, err, repository.ErrEmailTaken)

	verified, err := repo.User.VerifyPassword(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, first.UserID, verified.UserID)

	require.NoError(t, repo.User.UpdateRole(ctx, first.UserID, models.RoleEditor))
	require.NoError(t, repo.User.IncrementArticlesCount(ctx, first.UserID))

	stored, err := repo.User.GetUserByID(ctx, first.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, stored.Role)
	assert.Equal(t, 1, stored.ArticlesCount)

	assert.ErrorIs(t, repo.User.UpdateRole(ctx, "missing", models.RoleAdmin), repository.ErrNotFound)
}

func TestStatsRepository_Overview(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	require.NoError(t, repo.Article.Create(ctx, &models.Article{AuthorID: "u1", Status: models.StatusDraft}))
	require.NoError(t, repo.Article.Create(ctx, &models.Article{AuthorID: "u1", Status: models.StatusPublished, Views: 7}))
	require.NoError(t, repo.User.CreateUser(ctx, &models.User{Email: "a@example.com"}, "secret"))

	overview, err := repo.Stats.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Articles)
	assert.Equal(t, 1, overview.ByStatus[models.StatusPublished])
	assert.Equal(t, 0, overview.ByStatus[models.StatusRejected])
	assert.Equal(t, 1, overview.Users)
	assert.Equal(t, int64(7), overview.Views)
}
