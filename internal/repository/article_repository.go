package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"storyhub/internal/models"
)

type articleRepository struct {
	db *sqlx.DB
}

func NewArticleRepository(db *sqlx.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles
		(article_id, title, excerpt, content, category, featured_image, is_visual_story,
		 author_id, author_name, status, views, is_revised, created_at, updated_at)
		VALUES
		(:article_id, :title, :excerpt, :content, :category, :featured_image, :is_visual_story,
		 :author_id, :author_name, :status, :views, :is_revised, :created_at, :updated_at)
	`

	if article.ID == "" {
		article.ID = uuid.New().String()
	}

	if article.CreatedAt.IsZero() {
		now := time.Now().UTC()
		article.CreatedAt = now
		article.UpdatedAt = now
	}

	_, err := r.db.NamedExecContext(ctx, query, article)
	if err != nil {
		return fmt.Errorf("ошибка при создании статьи: %w", err)
	}

	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, articleID string) (*models.Article, error) {
	query := `SELECT * FROM articles WHERE article_id = $1`

	var article models.Article
	err := r.db.GetContext(ctx, &article, query, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("статья с ID %s: %w", articleID, ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка при получении статьи: %w", err)
	}

	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, filter ArticleFilter) ([]models.Article, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status IN (?)")
		args = append(args, filter.Statuses)
	}
	if len(filter.ExcludeStatuses) > 0 {
		conditions = append(conditions, "status NOT IN (?)")
		args = append(args, filter.ExcludeStatuses)
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, "author_id = ?")
		args = append(args, filter.AuthorID)
	}

	query := "SELECT * FROM articles"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY " + filter.OrderColumn() + " DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка построения запроса статей: %w", err)
	}

	articles := []models.Article{}
	err = r.db.SelectContext(ctx, &articles, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статей: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) UpdateContent(ctx context.Context, article *models.Article) error {
	query := `
		UPDATE articles SET
			title = :title,
			excerpt = :excerpt,
			content = :content,
			category = :category,
			featured_image = :featured_image,
			is_visual_story = :is_visual_story,
			updated_at = :updated_at
		WHERE article_id = :article_id
	`

	result, err := r.db.NamedExecContext(ctx, query, article)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении статьи: %w", err)
	}

	return checkAffected(result, ErrNotFound)
}

type lifecycleUpdate struct {
	*models.Article
	Expected models.Status `db:"expected_status"`
}

func (r *articleRepository) UpdateLifecycle(ctx context.Context, article *models.Article, expected models.Status) error {
	query := `
		UPDATE articles SET
			status = :status,
			previous_status = :previous_status,
			archived_from = :archived_from,
			held_revised = :held_revised,
			is_revised = :is_revised,
			revision_note = :revision_note,
			rejection_reason = :rejection_reason,
			published_at = :published_at,
			archived_at = :archived_at,
			deleted_at = :deleted_at,
			updated_at = :updated_at
		WHERE article_id = :article_id AND status = :expected_status
	`

	result, err := r.db.NamedExecContext(ctx, query, lifecycleUpdate{Article: article, Expected: expected})
	if err != nil {
		return fmt.Errorf("ошибка при смене статуса статьи: %w", err)
	}

	return checkAffected(result, ErrConflict)
}

func (r *articleRepository) IncrementViews(ctx context.Context, articleID string) error {
	query := `UPDATE articles SET views = views + 1 WHERE article_id = $1`

	result, err := r.db.ExecContext(ctx, query, articleID)
	if err != nil {
		return fmt.Errorf("ошибка при увеличении счетчика просмотров: %w", err)
	}

	return checkAffected(result, ErrNotFound)
}

func (r *articleRepository) Delete(ctx context.Context, articleID string) error {
	query := `DELETE FROM articles WHERE article_id = $1 AND status = 'deleted'`

	result, err := r.db.ExecContext(ctx, query, articleID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении статьи: %w", err)
	}

	return checkAffected(result, ErrNotFound)
}

func checkAffected(result sql.Result, none error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка при проверке обновленных строк: %w", err)
	}

	if rowsAffected == 0 {
		return none
	}

	return nil
}
