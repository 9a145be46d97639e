package service

import (
	"github.com/rs/zerolog"
	"storyhub/internal/config"
	"storyhub/internal/feed"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/storage"
)

type Service struct {
	User    UserService
	Article ArticleService
	Auth    AuthService
	Media   MediaService
	Stats   StatsService
}

func NewService(
	rep *repository.Repository,
	cfg *config.Config,
	storage storage.Storage,
	publisher ChangePublisher,
	collector *metrics.Collector,
	log zerolog.Logger,
) *Service {
	return &Service{
		User:    NewUserService(rep.User, publisher, log),
		Article: NewArticleService(rep, storage, publisher, collector, log),
		Auth:    NewAuthService(rep.User, publisher, cfg, log),
		Media:   NewMediaService(rep, storage, publisher, collector, cfg, log),
		Stats:   NewStatsService(rep.Stats),
	}
}

func articleChange(article *models.Article) feed.Change {
	return feed.Change{Collection: feed.CollectionArticles, ID: article.ID, AuthorID: article.AuthorID}
}

func userChange(userID string) feed.Change {
	return feed.Change{Collection: feed.CollectionUsers, ID: userID}
}
