package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"storyhub/internal/config"
	"storyhub/internal/feed"
	"storyhub/internal/identity"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/repository/memory"
	"storyhub/internal/storage"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []feed.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c feed.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) Changes() []feed.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]feed.Change(nil), p.changes...)
}

type testEnv struct {
	svc       *Service
	rep       *repository.Repository
	storage   *storage.MemoryStorage
	publisher *recordingPublisher
	cfg       *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		JWTSecretKey:         "test-secret",
		AccessTokenDuration:  time.Hour,
		RefreshTokenDuration: 24 * time.Hour,
		MaxUploadSize:        1024,
		AdminEmail:           "admin@storyhub.dev",
	}

	rep := memory.NewRepository()
	store := storage.NewMemoryStorage("http://cdn.local")
	publisher := &recordingPublisher{}
	collector := metrics.NewCollector(prometheus.NewRegistry())

	return &testEnv{
		svc:       NewService(rep, cfg, store, publisher, collector, zerolog.Nop()),
		rep:       rep,
		storage:   store,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (e *testEnv) user(t *testing.T, email string, role models.Role) identity.Identity {
	t.Helper()

	user := &models.User{Email: email, DisplayName: email, Role: role}
	require.NoError(t, e.rep.User.CreateUser(context.Background(), user, "password"))
	return identity.FromUser(user)
}

func (e *testEnv) article(t *testing.T, author identity.Identity, submit bool) *models.Article {
	t.Helper()

	article, err := e.svc.Article.CreateArticle(context.Background(), author, CreateArticleRequest{
		Title:           "Горы",
		Excerpt:         "Коротко",
		Content:         "# Текст",
		Category:        models.CategoryWord,
		SubmitForReview: submit,
	})
	require.NoError(t, err)
	return article
}
