package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"storyhub/internal/config"
	"storyhub/internal/database"
	"storyhub/internal/feed"
	handlers "storyhub/internal/handler"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/notify"
	"storyhub/internal/repository"
	"storyhub/internal/repository/memory"
	"storyhub/internal/service"
	"storyhub/internal/storage"
	"storyhub/internal/view"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// App holds the wired dependencies of the API server.
type App struct {
	Cfg      *config.Config
	Log      zerolog.Logger
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Broker   feed.Broker
	Articles *feed.Hub[models.Article]
	Users    *feed.Hub[models.User]
	Actions  *view.Actions
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	Handlers *handlers.Handlers

	redis *redis.Client
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{Cfg: cfg, Log: log}

	// connection store
	if err := a.connectStore(ctx); err != nil {
		return nil, err
	}

	// connection blob storage
	blobs := a.connectStorage(ctx)

	// change feed, Redis when configured
	a.redis = connectRedis(ctx, cfg.Redis, log)
	a.Broker = feed.NewBroker(a.redis, cfg.Redis.Channel, log)

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewCollector(a.Registry)

	// enabling dependencies
	a.Services = service.NewService(a.Repo, cfg, blobs, a.Broker, a.Metrics, log)

	a.Articles = feed.NewHub(func(ctx context.Context, q feed.Query) ([]models.Article, error) {
		return a.Services.Article.List(ctx, q.Filter)
	}, log.With().Str("collection", string(feed.CollectionArticles)).Logger())
	a.Users = feed.NewHub(func(ctx context.Context, _ feed.Query) ([]models.User, error) {
		return a.Services.User.ListUsers(ctx)
	}, log.With().Str("collection", string(feed.CollectionUsers)).Logger())
	a.Metrics.RegisterSubscriptionGauge(string(feed.CollectionArticles), a.Articles.Len)
	a.Metrics.RegisterSubscriptionGauge(string(feed.CollectionUsers), a.Users.Len)

	a.Actions = view.NewActions(
		a.Services.Article,
		a.Services.User,
		notify.NewLogNotifier(log),
		notify.NewStaticConfirmer(false),
		a.Metrics,
		log,
	)

	a.Handlers = handlers.NewHandlers(a.Services, a.Actions, a.Articles, a.Users, cfg, log)
	if a.DB != nil {
		a.Handlers.HealthCheck = a.DB.HealthCheck
	}

	return a, nil
}

func (a *App) connectStore(ctx context.Context) error {
	switch a.Cfg.StoreDriver {
	case StoreMemory:
		a.Log.Warn().Msg("Используется хранилище в памяти, данные не сохраняются")
		a.Repo = memory.NewRepository()
		return nil
	case StorePostgres, "":
		db, err := database.ConnectDB(ctx, a.Cfg, a.Log)
		if err != nil {
			return err
		}
		a.DB = db
		a.Repo = repository.NewRepository(db.DB)
		return nil
	default:
		return fmt.Errorf("неизвестный драйвер хранилища %q", a.Cfg.StoreDriver)
	}
}

func (a *App) connectStorage(ctx context.Context) storage.Storage {
	if a.Cfg.StoreDriver == StoreMemory {
		return storage.NewMemoryStorage(a.Cfg.MinIO.PublicURL)
	}

	client, err := storage.NewMinIOClient(ctx, a.Cfg.MinIO)
	if err != nil {
		a.Log.Error().Err(err).Msg("MinIO недоступен, изображения хранятся в памяти")
		return storage.NewMemoryStorage(a.Cfg.MinIO.PublicURL)
	}
	return client
}

// connectRedis returns nil when Redis is not configured or does not answer.
func connectRedis(ctx context.Context, cfg config.Redis, log zerolog.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr).Msg("Не удалось подключиться к Redis")
		client.Close()
		return nil
	}

	log.Info().Str("addr", cfg.Addr).Msg("Подключение к Redis установлено")
	return client
}

// Start forwards store changes to the live hubs until ctx ends.
func (a *App) Start(ctx context.Context) {
	run := func(name string, hub interface {
		Run(context.Context, feed.Broker) error
	}) {
		go func() {
			if err := hub.Run(ctx, a.Broker); err != nil {
				a.Log.Error().Err(err).Str("collection", name).Msg("Шина изменений остановлена")
			}
		}()
	}

	run(string(feed.CollectionArticles), a.Articles)
	run(string(feed.CollectionUsers), a.Users)
}

// Router builds the HTTP handler of the API.
func (a *App) Router() http.Handler {
	return NewRouter(a.Handlers, a.Services.Auth, a.Services.User, a.Metrics, a.metricsHandler(), a.Log)
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Error().Err(err).Msg("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		if err := a.DB.CloseDB(); err != nil {
			a.Log.Error().Err(err).Msg("Ошибка закрытия БД")
		}
	}
}
