package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"storyhub/internal/config"
	"storyhub/internal/feed"
	"storyhub/internal/identity"
	"storyhub/internal/lifecycle"
	"storyhub/internal/metrics"
	"storyhub/internal/models"
	"storyhub/internal/repository"
	"storyhub/internal/storage"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Upload is a single file received from a client.
type Upload struct {
	FileName string
	File     io.Reader
	Size     int64
}

type MediaService interface {
	// UploadFeaturedImage stores the cover image and points the article at it.
	UploadFeaturedImage(ctx context.Context, actor identity.Identity, articleID string, upload Upload) (*models.Image, error)
	// UploadBlockImage stores an image for a visual story block. The caller puts the URL into the block.
	UploadBlockImage(ctx context.Context, actor identity.Identity, articleID string, upload Upload) (*models.Image, error)
	UploadAvatar(ctx context.Context, actor identity.Identity, upload Upload) (*models.Image, error)
	DeleteImage(ctx context.Context, actor identity.Identity, imageID string) error
}

type mediaService struct {
	articleRepo repository.ArticleRepository
	userRepo    repository.UserRepository
	imageRepo   repository.ImageRepository
	storage     storage.Storage
	publisher   ChangePublisher
	metrics     *metrics.Collector
	cfg         *config.Config
	log         zerolog.Logger
}

func NewMediaService(
	rep *repository.Repository,
	storage storage.Storage,
	publisher ChangePublisher,
	collector *metrics.Collector,
	cfg *config.Config,
	log zerolog.Logger,
) MediaService {
	return &mediaService{
		articleRepo: rep.Article,
		userRepo:    rep.User,
		imageRepo:   rep.Image,
		storage:     storage,
		publisher:   publisher,
		metrics:     collector,
		cfg:         cfg,
		log:         log,
	}
}

func (s *mediaService) UploadFeaturedImage(ctx context.Context, actor identity.Identity, articleID string, upload Upload) (*models.Image, error) {
	article, err := s.editableArticle(ctx, actor, articleID)
	if err != nil {
		return nil, err
	}

	image, err := s.store(ctx, actor, models.ImageKindFeatured, &article.ID, upload)
	if err != nil {
		return nil, err
	}

	previous := article.FeaturedImage
	article.FeaturedImage = image.ImageURL
	article.UpdatedAt = time.Now().UTC()
	if err := s.articleRepo.UpdateContent(ctx, article); err != nil {
		s.discard(ctx, image)
		return nil, err
	}

	if previous != "" {
		s.deleteURL(ctx, previous)
	}

	s.publishArticle(ctx, article)
	return image, nil
}

func (s *mediaService) UploadBlockImage(ctx context.Context, actor identity.Identity, articleID string, upload Upload) (*models.Image, error) {
	article, err := s.editableArticle(ctx, actor, articleID)
	if err != nil {
		return nil, err
	}

	return s.store(ctx, actor, models.ImageKindBlock, &article.ID, upload)
}

func (s *mediaService) UploadAvatar(ctx context.Context, actor identity.Identity, upload Upload) (*models.Image, error) {
	if !actor.Authenticated() {
		return nil, fmt.Errorf("%w: загрузка аватара", lifecycle.ErrForbidden)
	}

	user, err := s.userRepo.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	image, err := s.store(ctx, actor, models.ImageKindAvatar, nil, upload)
	if err != nil {
		return nil, err
	}

	previous := user.PhotoURL
	user.PhotoURL = image.ImageURL
	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		s.discard(ctx, image)
		return nil, err
	}

	if previous != "" {
		s.deleteURL(ctx, previous)
	}

	s.publish(ctx, userChange(user.UserID))
	return image, nil
}

func (s *mediaService) DeleteImage(ctx context.Context, actor identity.Identity, imageID string) error {
	image, err := s.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return err
	}

	if image.OwnerID != actor.UserID && !actor.IsAdmin() {
		return fmt.Errorf("%w: удаление изображения", lifecycle.ErrForbidden)
	}

	if err := s.storage.Delete(ctx, image.ObjectName); err != nil {
		return fmt.Errorf("ошибка удаления файла: %w", err)
	}

	return s.imageRepo.Delete(ctx, imageID)
}

func (s *mediaService) editableArticle(ctx context.Context, actor identity.Identity, articleID string) (*models.Article, error) {
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
	return article, nil
}

func (s *mediaService) store(ctx context.Context, actor identity.Identity, kind models.ImageKind, articleID *string, upload Upload) (*models.Image, error) {
	if err := s.checkUpload(upload); err != nil {
		return nil, err
	}

	obj := storage.Object{Kind: kind, OwnerID: actor.UserID, FileName: upload.FileName}
	if articleID != nil {
		obj.ArticleID = *articleID
	}

	objectName, url, err := s.storage.Upload(ctx, obj, upload.File, upload.Size)
	if err != nil {
		return nil, err
	}

	image := &models.Image{
		OwnerID:    actor.UserID,
		ArticleID:  articleID,
		Kind:       kind,
		ObjectName: objectName,
		ImageURL:   url,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.imageRepo.Create(ctx, image); err != nil {
		if delErr := s.storage.Delete(ctx, objectName); delErr != nil {
			s.log.Warn().Err(delErr).Str("object", objectName).Msg("Не удалось удалить файл из хранилища")
		}
		return nil, err
	}

	s.metrics.RecordUpload(string(kind), upload.Size)
	return image, nil
}

func (s *mediaService) checkUpload(upload Upload) error {
	if upload.Size > s.cfg.MaxUploadSize {
		return fmt.Errorf("%w: %d байт", ErrFileTooLarge, upload.Size)
	}

	ext := strings.ToLower(filepath.Ext(upload.FileName))
	if !imageExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedImage, ext)
	}
	return nil
}

// discard rolls back an upload whose owning record could not be updated.
func (s *mediaService) discard(ctx context.Context, image *models.Image) {
	if err := s.storage.Delete(ctx, image.ObjectName); err != nil {
		s.log.Warn().Err(err).Str("object", image.ObjectName).Msg("Не удалось удалить файл из хранилища")
	}
	if err := s.imageRepo.Delete(ctx, image.ImageID); err != nil {
		s.log.Warn().Err(err).Str("image_id", image.ImageID).Msg("Не удалось удалить запись изображения")
	}
}

// deleteURL removes a replaced blob. URLs outside the bucket are left alone.
func (s *mediaService) deleteURL(ctx context.Context, url string) {
	err := s.storage.DeleteURL(ctx, url)
	if err != nil && !errors.Is(err, storage.ErrForeignURL) {
		s.log.Warn().Err(err).Str("url", url).Msg("Не удалось удалить старое изображение")
	}
}

func (s *mediaService) publishArticle(ctx context.Context, article *models.Article) {
	s.publish(ctx, articleChange(article))
}

func (s *mediaService) publish(ctx context.Context, c feed.Change) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, c); err != nil {
		s.log.Warn().Err(err).Msg("Не удалось опубликовать изменение")
	}
}
