package view

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storyhub/internal/config"
	"storyhub/internal/feed"
	"storyhub/internal/identity"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/notify"
	"storyhub/internal/repository"
	"storyhub/internal/repository/memory"
	"storyhub/internal/service"
	"storyhub/internal/storage"
)

type testEnv struct {
	svc      *service.Service
	rep      *repository.Repository
	articles *feed.Hub[models.Article]
	users    *feed.Hub[models.User]
	actions  *Actions
	// failLoads makes the article loader fail while set.
	failLoads atomic.Bool
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	rep := memory.NewRepository()
	broker := feed.NewLocalBroker()
	collector := metrics.NewCollector(prometheus.NewRegistry())
	cfg := &config.Config{JWTSecretKey: "secret", MaxUploadSize: 1024}

	env := &testEnv{rep: rep}
	env.svc = service.NewService(rep, cfg, storage.NewMemoryStorage("http://cdn.local"), broker, collector, log)

	env.articles = feed.NewHub(func(ctx context.Context, q feed.Query) ([]models.Article, error) {
		if env.failLoads.Load() {
			return nil, errors.New("хранилище недоступно")
		}
		return env.svc.Article.List(ctx, q.Filter)
	}, log)
	env.users = feed.NewHub(func(ctx context.Context, _ feed.Query) ([]models.User, error) {
		return env.svc.User.ListUsers(ctx)
	}, log)

	changes, err := broker.Listen(ctx)
	require.NoError(t, err)
	go func() {
		for change := range changes {
			env.articles.Notify(change)
			env.users.Notify(change)
		}
	}()

	env.actions = NewActions(env.svc.Article, env.svc.User, nil, notify.NewStaticConfirmer(true), collector, log)
	return env
}

func (e *testEnv) user(t *testing.T, email string, role models.Role) identity.Identity {
	t.Helper()

	user := &models.User{Email: email, DisplayName: email, Role: role}
	require.NoError(t, e.rep.User.CreateUser(context.Background(), user, "password"))
	return identity.FromUser(user)
}

func (e *testEnv) article(t *testing.T, author identity.Identity, title string, submit bool) *models.Article {
	t.Helper()

	article, err := e.svc.Article.CreateArticle(context.Background(), author, service.CreateArticleRequest{
		Title:           title,
		Category:        models.CategoryWord,
		SubmitForReview: submit,
	})
	require.NoError(t, err)
	return article
}

func waitFor[S any](t *testing.T, state func() S, ok func(S) bool) S {
	t.Helper()

	require.Eventually(t, func() bool { return ok(state()) }, 2*time.Second, 5*time.Millisecond)
	return state()
}

func TestFilterArticles(t *testing.T) {
	items := []models.Article{
		{ID: "1", Title: "Горные Тропы", AuthorName: "Анна"},
		{ID: "2", Title: "Море", AuthorName: "Иван Горин"},
		{ID: "3", Title: "Город", AuthorName: "Петр"},
	}

	tests := []struct {
		name string
		term string
		want []string
	}{
		{name: "пустой запрос", term: "  ", want: []string{"1", "2", "3"}},
		{name: "по заголовку без учета регистра", term: "ГОРН", want: []string{"1"}},
		{name: "по автору", term: "горин", want: []string{"2"}},
		{name: "по заголовку и автору", term: "гор", want: []string{"1", "2", "3"}},
		{name: "ничего не найдено", term: "пустыня", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, article := range FilterArticles(items, tt.term) {
				ids = append(ids, article.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestUniqueByEmail(t *testing.T) {
	users := []models.User{
		{UserID: "1", Email: "anna@storyhub.dev"},
		{UserID: "2", Email: "ivan@storyhub.dev"},
		{UserID: "3", Email: "ANNA@storyhub.dev"},
	}

	unique := UniqueByEmail(users)
	require.Len(t, unique, 2)
	assert.Equal(t, "1", unique[0].UserID)
	assert.Equal(t, "2", unique[1].UserID)
}

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name    string
		article models.Article
		want    string
	}{
		{name: "исправленная на модерации", article: models.Article{Status: models.StatusPending, IsRevised: true}, want: RevisedPendingLabel},
		{name: "на модерации", article: models.Article{Status: models.StatusPending}, want: "Pending Review"},
		{name: "на доработке", article: models.Article{Status: models.StatusNeedsRevision}, want: "Needs Revision"},
		{name: "опубликована", article: models.Article{Status: models.StatusPublished}, want: "Published"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusLabel(tt.article))
		})
	}
}
