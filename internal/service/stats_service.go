package service

import (
	"context"

	"storyhub/internal/models"
	"storyhub/internal/repository"
)

type StatsService interface {
	Overview(ctx context.Context) (*models.Overview, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

func (s *statsService) Overview(ctx context.Context) (*models.Overview, error) {
	return s.statsRepo.Overview(ctx)
}
