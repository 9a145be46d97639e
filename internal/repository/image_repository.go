package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"storyhub/internal/models"
)

type imageRepository struct {
	db *sqlx.DB
}

func NewImageRepository(db *sqlx.DB) ImageRepository {
	return &imageRepository{db: db}
}

func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	query := `
		INSERT INTO images (image_id, owner_id, article_id, kind, object_name, image_url, created_at)
		VALUES (:image_id, :owner_id, :article_id, :kind, :object_name, :image_url, :created_at)
	`

	if image.ImageID == "" {
		image.ImageID = uuid.New().String()
	}

	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NamedExecContext(ctx, query, image)
	if err != nil {
		return fmt.Errorf("ошибка при создании изображения: %w", err)
	}

	return nil
}

func (r *imageRepository) GetByID(ctx context.Context, imageID string) (*models.Image, error) {
	query := `SELECT * FROM images WHERE image_id = $1`

	var image models.Image
	err := r.db.GetContext(ctx, &image, query, imageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("изображение %s: %w", imageID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения изображения: %w", err)
	}

	return &image, nil
}

func (r *imageRepository) GetByArticleID(ctx context.Context, articleID string) ([]models.Image, error) {
	query := `SELECT * FROM images WHERE article_id = $1 ORDER BY created_at`

	images := []models.Image{}
	err := r.db.SelectContext(ctx, &images, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении изображений: %w", err)
	}

	return images, nil
}

func (r *imageRepository) Delete(ctx context.Context, imageID string) error {
	query := `DELETE FROM images WHERE image_id = $1`

	result, err := r.db.ExecContext(ctx, query, imageID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении изображения: %w", err)
	}

	return checkAffected(result, fmt.Errorf("изображение %s: %w", imageID, ErrNotFound))
}

func (r *imageRepository) DeleteByArticleID(ctx context.Context, articleID string) error {
	query := `DELETE FROM images WHERE article_id = $1`

	_, err := r.db.ExecContext(ctx, query, articleID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении изображений статьи: %w", err)
	}

	return nil
}
