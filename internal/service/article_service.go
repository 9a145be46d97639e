package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"storyhub/internal/feed"
	"storyhub/internal/identity"
	"storyhub/internal/lifecycle"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/storage"
	"storyhub/internal/story"
	"storyhub/pkg/logger"
)

type CreateArticleRequest struct {
	Title           string          `json:"title" validate:"required,max=255"`
	Excerpt         string          `json:"excerpt" validate:"max=1000"`
	Content         string          `json:"content"`
	Category        models.Category `json:"category" validate:"required,oneof=word lens motion"`
	FeaturedImage   string          `json:"featuredImage" validate:"omitempty,url"`
	IsVisualStory   bool            `json:"isVisualStory"`
	SubmitForReview bool            `json:"submitForReview"`
}

type UpdateArticleRequest struct {
	Title         string          `json:"title" validate:"required,max=255"`
	Excerpt       string          `json:"excerpt" validate:"max=1000"`
	Content       string          `json:"content"`
	Category      models.Category `json:"category" validate:"required,oneof=word lens motion"`
	FeaturedImage string          `json:"featuredImage" validate:"omitempty,url"`
	IsVisualStory bool            `json:"isVisualStory"`
}

// ChangePublisher announces store writes to live subscriptions.
type ChangePublisher interface {
	Publish(ctx context.Context, c feed.Change) error
}

type ArticleService interface {
	CreateArticle(ctx context.Context, actor identity.Identity, req CreateArticleRequest) (*models.Article, error)
	UpdateArticle(ctx context.Context, actor identity.Identity, articleID string, req UpdateArticleRequest) (*models.Article, error)
	// GetArticle returns an article the actor may view and counts the read.
	GetArticle(ctx context.Context, actor identity.Identity, articleID string) (*models.Article, error)
	// Lookup reads an article without view accounting or visibility checks.
	Lookup(ctx context.Context, articleID string) (*models.Article, error)
	IncrementViews(ctx context.Context, articleID string) error
	// Transition applies a lifecycle action. Authorization is the caller's job.
	Transition(ctx context.Context, articleID string, action lifecycle.Action, in lifecycle.Input) (*models.Article, error)
	Submit(ctx context.Context, articleID string) (*models.Article, error)
	Resubmit(ctx context.Context, articleID string) (*models.Article, error)
	Approve(ctx context.Context, articleID string) (*models.Article, error)
	RequestChanges(ctx context.Context, articleID, feedback string) (*models.Article, error)
	Reject(ctx context.Context, articleID, reason string, confirmed bool) (*models.Article, error)
	Unpublish(ctx context.Context, articleID string, confirmed bool) (*models.Article, error)
	Archive(ctx context.Context, articleID string, confirmed bool) (*models.Article, error)
	Unarchive(ctx context.Context, articleID string, target models.Status) (*models.Article, error)
	Delete(ctx context.Context, articleID string, confirmed bool) (*models.Article, error)
	Restore(ctx context.Context, articleID string, target models.Status, confirmed bool) (*models.Article, error)
	Purge(ctx context.Context, articleID string, confirmed bool) error
	List(ctx context.Context, filter repository.ArticleFilter) ([]models.Article, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Article, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Article, error)
	ListPublished(ctx context.Context, limit int) ([]models.Article, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

type articleService struct {
	articleRepo repository.ArticleRepository
	userRepo    repository.UserRepository
	imageRepo   repository.ImageRepository
	storage     storage.Storage
	publisher   ChangePublisher
	metrics     *metrics.Collector
	log         zerolog.Logger
	now         func() time.Time
}

func NewArticleService(
	rep *repository.Repository,
	storage storage.Storage,
	publisher ChangePublisher,
	collector *metrics.Collector,
	log zerolog.Logger,
) ArticleService {
	return &articleService{
		articleRepo: rep.Article,
		userRepo:    rep.User,
		imageRepo:   rep.Image,
		storage:     storage,
		publisher:   publisher,
		metrics:     collector,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *articleService) CreateArticle(ctx context.Context, actor identity.Identity, req CreateArticleRequest) (*models.Article, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionCreate, nil); err != nil {
		return nil, err
	}

	if err := validateContent(req.IsVisualStory, req.Content); err != nil {
		return nil, err
	}

	status := models.StatusDraft
	if req.SubmitForReview {
		status = models.StatusPending
	}

	authorName := actor.DisplayName
	if authorName == "" {
		authorName = actor.Email
	}

	now := s.now()
	article := &models.Article{
		Title:         strings.TrimSpace(req.Title),
		Excerpt:       req.Excerpt,
		Content:       req.Content,
		Category:      req.Category,
		FeaturedImage: req.FeaturedImage,
		IsVisualStory: req.IsVisualStory,
		AuthorID:      actor.UserID,
		AuthorName:    authorName,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.articleRepo.Create(ctx, article); err != nil {
		return nil, err
	}

	if err := s.userRepo.IncrementArticlesCount(ctx, actor.UserID); err != nil {
		s.log.Warn().Err(err).Str("user_id", actor.UserID).Msg("Не удалось обновить счетчик статей")
	} else {
		s.publish(ctx, userChange(actor.UserID))
	}

	s.metrics.RecordCreated(string(status))
	s.publishArticle(ctx, article)

	return article, nil
}

func (s *articleService) UpdateArticle(ctx context.Context, actor identity.Identity, articleID string, req UpdateArticleRequest) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Authorize(actor, lifecycle.ActionEdit, article); err != nil {
		return nil, err
	}

	if article.Status == models.StatusArchived || article.Status == models.StatusDeleted {
		return nil, ErrNotEditable
	}

	if err := validateContent(req.IsVisualStory, req.Content); err != nil {
		return nil, err
	}

	article.Title = strings.TrimSpace(req.Title)
	article.Excerpt = req.Excerpt
	article.Content = req.Content
	article.Category = req.Category
	article.FeaturedImage = req.FeaturedImage
	article.IsVisualStory = req.IsVisualStory
	article.UpdatedAt = s.now()

	if err := s.articleRepo.UpdateContent(ctx, article); err != nil {
		return nil, err
	}

	s.publishArticle(ctx, article)
	return article, nil
}

func (s *articleService) GetArticle(ctx context.Context, actor identity.Identity, articleID string) (*models.Article, error) {
	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}

	if !lifecycle.IsAuthorized(actor, lifecycle.ActionView, article) {
		// not visible to this caller: indistinguishable from missing
		return nil, fmt.Errorf("статья с ID %s: %w", articleID, repository.ErrNotFound)
	}

	counted := article.Status == models.StatusPublished ||
		(actor.Authenticated() && actor.UserID == article.AuthorID)
	if counted {
		if err := s.IncrementViews(ctx, articleID); err != nil {
			log := logger.WithArticleID(s.log, articleID)
			log.Warn().Err(err).Msg("Не удалось учесть просмотр")
		} else {
			article.Views++
		}
	}

	return article, nil
}

func (s *articleService) Lookup(ctx context.Context, articleID string) (*models.Article, error) {
	return s.articleRepo.GetByID(ctx, articleID)
}

func (s *articleService) IncrementViews(ctx context.Context, articleID string) error {
	if err := s.articleRepo.IncrementViews(ctx, articleID); err != nil {
		return err
	}
	s.metrics.RecordView()
	return nil
}

func (s *articleService) Transition(ctx context.Context, articleID string, action lifecycle.Action, in lifecycle.Input) (*models.Article, error) {
	log := logger.WithArticleID(s.log, articleID)

	article, err := s.articleRepo.GetByID(ctx, articleID)
	if err != nil {
		s.metrics.RecordTransition(string(action), "not_found")
		return nil, err
	}

	change, err := lifecycle.Plan(*article, action, in, s.now())
	if err != nil {
		s.metrics.RecordTransition(string(action), "invalid")
		return nil, err
	}

	if change.Purge {
		if err := s.purge(ctx, article); err != nil {
			s.metrics.RecordTransition(string(action), "error")
			return nil, err
		}
	} else {
		err := s.articleRepo.UpdateLifecycle(ctx, &change.Article, change.From)
		if errors.Is(err, repository.ErrConflict) {
			s.metrics.RecordTransition(string(action), "conflict")
			return nil, fmt.Errorf("%w: %w", lifecycle.ErrInvalidTransition, err)
		}
		if err != nil {
			s.metrics.RecordTransition(string(action), "error")
			return nil, err
		}
	}

	log.Info().
		Str("action", string(action)).
		Str("from", string(change.From)).
		Str("to", string(change.Article.Status)).
		Msg("Статус статьи изменен")

	s.metrics.RecordTransition(string(action), "success")
	s.publishArticle(ctx, &change.Article)

	if change.Purge {
		return nil, nil
	}
	return &change.Article, nil
}

// purge removes the article and best-effort deletes its uploaded blobs.
func (s *articleService) purge(ctx context.Context, article *models.Article) error {
	images, err := s.imageRepo.GetByArticleID(ctx, article.ID)
	if err != nil {
		return err
	}

	if err := s.articleRepo.Delete(ctx, article.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %w", lifecycle.ErrInvalidTransition, repository.ErrConflict)
		}
		return err
	}

	if err := s.imageRepo.DeleteByArticleID(ctx, article.ID); err != nil {
		s.log.Warn().Err(err).Str("article_id", article.ID).Msg("Не удалось удалить записи изображений")
	}

	for _, image := range images {
		if err := s.storage.Delete(ctx, image.ObjectName); err != nil {
			s.log.Warn().Err(err).Str("object", image.ObjectName).Msg("Не удалось удалить файл из хранилища")
		}
	}

	return nil
}

func (s *articleService) Submit(ctx context.Context, articleID string) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionSubmit, lifecycle.Input{})
}

func (s *articleService) Resubmit(ctx context.Context, articleID string) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionResubmit, lifecycle.Input{})
}

func (s *articleService) Approve(ctx context.Context, articleID string) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionApprove, lifecycle.Input{})
}

func (s *articleService) RequestChanges(ctx context.Context, articleID, feedback string) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionRequestChanges, lifecycle.Input{Text: feedback})
}

func (s *articleService) Reject(ctx context.Context, articleID, reason string, confirmed bool) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionReject, lifecycle.Input{Text: reason, Confirmed: confirmed})
}

func (s *articleService) Unpublish(ctx context.Context, articleID string, confirmed bool) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionUnpublish, lifecycle.Input{Confirmed: confirmed})
}

func (s *articleService) Archive(ctx context.Context, articleID string, confirmed bool) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionArchive, lifecycle.Input{Confirmed: confirmed})
}

func (s *articleService) Unarchive(ctx context.Context, articleID string, target models.Status) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionUnarchive, lifecycle.Input{Target: target})
}

func (s *articleService) Delete(ctx context.Context, articleID string, confirmed bool) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionDelete, lifecycle.Input{Confirmed: confirmed})
}

func (s *articleService) Restore(ctx context.Context, articleID string, target models.Status, confirmed bool) (*models.Article, error) {
	return s.Transition(ctx, articleID, lifecycle.ActionRestore, lifecycle.Input{Target: target, Confirmed: confirmed})
}

func (s *articleService) Purge(ctx context.Context, articleID string, confirmed bool) error {
	_, err := s.Transition(ctx, articleID, lifecycle.ActionPurge, lifecycle.Input{Confirmed: confirmed})
	return err
}

func (s *articleService) List(ctx context.Context, filter repository.ArticleFilter) ([]models.Article, error) {
	return s.articleRepo.List(ctx, filter)
}

func (s *articleService) ListByStatus(ctx context.Context, status models.Status) ([]models.Article, error) {
	return s.articleRepo.List(ctx, repository.ArticleFilter{Statuses: []models.Status{status}})
}

func (s *articleService) ListByAuthor(ctx context.Context, authorID string) ([]models.Article, error) {
	return s.articleRepo.List(ctx, repository.ArticleFilter{
		AuthorID:        authorID,
		ExcludeStatuses: []models.Status{models.StatusArchived, models.StatusDeleted},
	})
}

func (s *articleService) ListPublished(ctx context.Context, limit int) ([]models.Article, error) {
	return s.articleRepo.List(ctx, repository.ArticleFilter{
		Statuses: []models.Status{models.StatusPublished},
		Limit:    limit,
	})
}

func (s *articleService) CountByStatus(ctx context.Context) (map[models.Status]int, error) {
	articles, err := s.articleRepo.List(ctx, repository.ArticleFilter{})
	if err != nil {
		return nil, err
	}

	counts := make(map[models.Status]int, len(models.Statuses))
	for _, status := range models.Statuses {
		counts[status] = 0
	}
	for _, article := range articles {
		counts[article.Status]++
	}
	return counts, nil
}

func (s *articleService) publishArticle(ctx context.Context, article *models.Article) {
	s.publish(ctx, articleChange(article))
}

func (s *articleService) publish(ctx context.Context, c feed.Change) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c); err != nil {
		s.log.Warn().Err(err).Str("collection", string(c.Collection)).Msg("Не удалось опубликовать изменение")
	}
}

func validateContent(isVisualStory bool, content string) error {
	if !isVisualStory || content == "" {
		return nil
	}
	_, err := story.Decode(content)
	return err
}
