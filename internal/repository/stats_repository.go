package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"storyhub/internal/models"
)

type statsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Overview(ctx context.Context) (*models.Overview, error) {
	var rows []struct {
		Status models.Status `db:"status"`
		Count  int           `db:"count"`
	}

	err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM articles GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при подсчёте статей по статусам: %w", err)
	}

	overview := &models.Overview{ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, status := range models.Statuses {
		overview.ByStatus[status] = 0
	}
	for _, row := range rows {
		overview.ByStatus[row.Status] = row.Count
		overview.Articles += row.Count
	}

	if err := r.db.GetContext(ctx, &overview.Users, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, fmt.Errorf("ошибка при подсчёте пользователей: %w", err)
	}

	if err := r.db.GetContext(ctx, &overview.Views, `SELECT COALESCE(SUM(views), 0) FROM articles`); err != nil {
		return nil, fmt.Errorf("ошибка при подсчёте просмотров: %w", err)
	}

	return overview, nil
}
