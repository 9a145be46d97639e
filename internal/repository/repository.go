package repository

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"storyhub/internal/models"
)

var (
	ErrNotFound   = errors.New("запись не найдена")
	ErrEmailTaken = errors.New("email уже зарегистрирован")
	// ErrConflict is returned by guarded updates when the row no longer has the expected status.
	ErrConflict = errors.New("статус статьи изменился")
)

// ArticleFilter selects articles. Results are ordered newest first by OrderColumn.
type ArticleFilter struct {
	Statuses        []models.Status
	ExcludeStatuses []models.Status
	AuthorID        string
	Limit           int
}

// OrderColumn is the timestamp a listing is sorted by, newest first. The archive
// and the trash are ordered by the time articles entered them.
func (f ArticleFilter) OrderColumn() string {
	if len(f.Statuses) == 1 {
		switch f.Statuses[0] {
		case models.StatusArchived:
			return "archived_at"
		case models.StatusDeleted:
			return "deleted_at"
		}
	}
	return "created_at"
}

// SortTime returns the value of OrderColumn for a.
func (f ArticleFilter) SortTime(a models.Article) time.Time {
	switch f.OrderColumn() {
	case "archived_at":
		if a.ArchivedAt != nil {
			return *a.ArchivedAt
		}
	case "deleted_at":
		if a.DeletedAt != nil {
			return *a.DeletedAt
		}
	}
	return a.CreatedAt
}

// Match reports whether a satisfies the filter.
func (f ArticleFilter) Match(a models.Article) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	if slices.Contains(f.ExcludeStatuses, a.Status) {
		return false
	}
	if f.AuthorID != "" && a.AuthorID != f.AuthorID {
		return false
	}
	return true
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateRole(ctx context.Context, userID string, role models.Role) error
	IncrementArticlesCount(ctx context.Context, userID string) error
	VerifyPassword(ctx context.Context, email, password string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string, expiryTime time.Time) error
	GetUserByRefreshToken(ctx context.Context, refreshToken string) (*models.User, error)
}

type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	GetByID(ctx context.Context, articleID string) (*models.Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]models.Article, error)
	UpdateContent(ctx context.Context, article *models.Article) error
	// UpdateLifecycle writes the status-bound fields only if the stored status still equals expected.
	UpdateLifecycle(ctx context.Context, article *models.Article, expected models.Status) error
	IncrementViews(ctx context.Context, articleID string) error
	// Delete permanently removes a soft-deleted article.
	Delete(ctx context.Context, articleID string) error
}

type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, imageID string) (*models.Image, error)
	GetByArticleID(ctx context.Context, articleID string) ([]models.Image, error)
	Delete(ctx context.Context, imageID string) error
	DeleteByArticleID(ctx context.Context, articleID string) error
}

type StatsRepository interface {
	Overview(ctx context.Context) (*models.Overview, error)
}

type Repository struct {
	User    UserRepository
	Article ArticleRepository
	Image   ImageRepository
	Stats   StatsRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:    NewUserRepository(db),
		Article: NewArticleRepository(db),
		Image:   NewImageRepository(db),
		Stats:   NewStatsRepository(db),
	}
}
