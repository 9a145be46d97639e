// Package memory provides in-process implementations of the repository
// contracts. Used when STORE_DRIVER=memory and in service tests.
package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"storyhub/internal/models"
	"storyhub/internal/repository"
)

type Store struct {
	mu       sync.RWMutex
	articles map[string]models.Article
	users    map[string]models.User
	images   map[string]models.Image
}

func NewStore() *Store {
	return &Store{
		articles: make(map[string]models.Article),
		users:    make(map[string]models.User),
		images:   make(map[string]models.Image),
	}
}

// NewRepository returns repository contracts backed by a fresh Store.
func NewRepository() *repository.Repository {
	s := NewStore()
	return &repository.Repository{
		User:    (*userRepository)(s),
		Article: (*articleRepository)(s),
		Image:   (*imageRepository)(s),
		Stats:   (*statsRepository)(s),
	}
}

type articleRepository Store

func (r *articleRepository) Create(_ context.Context, article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if _, exists := r.articles[article.ID]; exists {
		return fmt.Errorf("статья %s уже существует", article.ID)
	}
	if article.CreatedAt.IsZero() {
		now := time.Now().UTC()
		article.CreatedAt = now
		article.UpdatedAt = now
	}

	r.articles[article.ID] = *article
	return nil
}

func (r *articleRepository) GetByID(_ context.Context, articleID string) (*models.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, ok := r.articles[articleID]
	if !ok {
		return nil, fmt.Errorf("статья с ID %s: %w", articleID, repository.ErrNotFound)
	}
	return &article, nil
}

func (r *articleRepository) List(_ context.Context, filter repository.ArticleFilter) ([]models.Article, error) {
	r.mu.RLock()
	articles := make([]models.Article, 0, len(r.articles))
	for _, article := range r.articles {
		if filter.Match(article) {
			articles = append(articles, article)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(articles, func(a, b models.Article) int {
		if c := filter.SortTime(b).Compare(filter.SortTime(a)); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if filter.Limit > 0 && len(articles) > filter.Limit {
		articles = articles[:filter.Limit]
	}
	return articles, nil
}

func (r *articleRepository) UpdateContent(_ context.Context, article *models.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.articles[article.ID]
	if !ok {
		return repository.ErrNotFound
	}

	stored.Title = article.Title
	stored.Excerpt = article.Excerpt
	stored.Content = article.Content
	stored.Category = article.Category
	stored.FeaturedImage = article.FeaturedImage
	stored.IsVisualStory = article.IsVisualStory
	stored.UpdatedAt = article.UpdatedAt
	r.articles[article.ID] = stored
	return nil
}

func (r *articleRepository) UpdateLifecycle(_ context.Context, article *models.Article, expected models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.articles[article.ID]
	if !ok || stored.Status != expected {
		return repository.ErrConflict
	}

	stored.Status = article.Status
	stored.PreviousStatus = article.PreviousStatus
	stored.ArchivedFrom = article.ArchivedFrom
	stored.HeldRevised = article.HeldRevised
	stored.IsRevised = article.IsRevised
	stored.RevisionNote = article.RevisionNote
	stored.RejectionReason = article.RejectionReason
	stored.PublishedAt = article.PublishedAt
	stored.ArchivedAt = article.ArchivedAt
	stored.DeletedAt = article.DeletedAt
	stored.UpdatedAt = article.UpdatedAt
	r.articles[article.ID] = stored
	return nil
}

func (r *articleRepository) IncrementViews(_ context.Context, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.articles[articleID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Views++
	r.articles[articleID] = stored
	return nil
}

func (r *articleRepository) Delete(_ context.Context, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.articles[articleID]
	if !ok || stored.Status != models.StatusDeleted {
		return repository.ErrNotFound
	}

	delete(r.articles, articleID)
	for id, image := range r.images {
		if image.ArticleID != nil && *image.ArticleID == articleID {
			delete(r.images, id)
		}
	}
	return nil
}

type userRepository Store

func (r *userRepository) CreateUser(_ context.Context, user *models.User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("ошибка при хешировании пароля: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := normalizeEmail(user.Email)
	for _, existing := range r.users {
		if existing.Email == email {
			return fmt.Errorf("%s: %w", email, repository.ErrEmailTaken)
		}
	}

	user.UserID = uuid.New().String()
	user.Email = email
	user.PasswordHash = string(hashedPassword)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	r.users[user.UserID] = *user
	return nil
}

func (r *userRepository) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("пользователь с ID %s: %w", userID, repository.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = normalizeEmail(email)
	for _, user := range r.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("пользователь с email %s: %w", email, repository.ErrNotFound)
}

func (r *userRepository) ListUsers(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	users := make([]models.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	r.mu.RUnlock()

	slices.SortFunc(users, func(a, b models.User) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})
	return users, nil
}

func (r *userRepository) update(userID string, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("пользователь с ID %s: %w", userID, repository.ErrNotFound)
	}
	fn(&user)
	r.users[userID] = user
	return nil
}

func (r *userRepository) UpdateProfile(_ context.Context, user *models.User) error {
	return r.update(user.UserID, func(u *models.User) {
		u.DisplayName = user.DisplayName
		u.PhotoURL = user.PhotoURL
		u.Bio = user.Bio
	})
}

func (r *userRepository) UpdateRole(_ context.Context, userID string, role models.Role) error {
	return r.update(userID, func(u *models.User) { u.Role = role })
}

func (r *userRepository) IncrementArticlesCount(_ context.Context, userID string) error {
	return r.update(userID, func(u *models.User) { u.ArticlesCount++ })
}

func (r *userRepository) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("неверный пароль")
	}
	return user, nil
}

func (r *userRepository) UpdateRefreshToken(_ context.Context, userID, refreshToken string, expiryTime time.Time) error {
	return r.update(userID, func(u *models.User) {
		u.RefreshToken = refreshToken
		u.RefreshTokenExpiryTime = expiryTime
	})
}

func (r *userRepository) GetUserByRefreshToken(_ context.Context, refreshToken string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	for _, user := range r.users {
		if refreshToken != "" && user.RefreshToken == refreshToken && user.RefreshTokenExpiryTime.After(now) {
			return &user, nil
		}
	}
	return nil, fmt.Errorf("недействительный или просроченный refresh token: %w", repository.ErrNotFound)
}

type imageRepository Store

func (r *imageRepository) Create(_ context.Context, image *models.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if image.ImageID == "" {
		image.ImageID = uuid.New().String()
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}
	r.images[image.ImageID] = *image
	return nil
}

func (r *imageRepository) GetByID(_ context.Context, imageID string) (*models.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	image, ok := r.images[imageID]
	if !ok {
		return nil, fmt.Errorf("изображение %s: %w", imageID, repository.ErrNotFound)
	}
	return &image, nil
}

func (r *imageRepository) GetByArticleID(_ context.Context, articleID string) ([]models.Image, error) {
	r.mu.RLock()
	images := []models.Image{}
	for _, image := range r.images {
		if image.ArticleID != nil && *image.ArticleID == articleID {
			images = append(images, image)
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(images, func(a, b models.Image) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return images, nil
}

func (r *imageRepository) Delete(_ context.Context, imageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[imageID]; !ok {
		return fmt.Errorf("изображение %s: %w", imageID, repository.ErrNotFound)
	}
	delete(r.images, imageID)
	return nil
}

func (r *imageRepository) DeleteByArticleID(_ context.Context, articleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, image := range r.images {
		if image.ArticleID != nil && *image.ArticleID == articleID {
			delete(r.images, id)
		}
	}
	return nil
}

type statsRepository Store

func (r *statsRepository) Overview(_ context.Context) (*models.Overview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	overview := &models.Overview{
		ByStatus: make(map[models.Status]int, len(models.Statuses)),
		Users:    len(r.users),
	}
	for _, status := range models.Statuses {
		overview.ByStatus[status] = 0
	}
	for _, article := range r.articles {
		overview.ByStatus[article.Status]++
		overview.Articles++
		overview.Views += article.Views
	}
	return overview, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
