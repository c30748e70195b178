package service

import (
	"context"

	"fitcommunity/internal/logging"
	"fitcommunity/internal/repository"
)

// MaintenanceService runs the pull-style jobs shared by the admin API and fitctl.
type MaintenanceService struct {
	counters   *repository.CounterRepository
	goals      *GoalService
	challenges *ChallengeService
}

func NewMaintenanceService(counters *repository.CounterRepository, goals *GoalService, challenges *ChallengeService) *MaintenanceService {
	return &MaintenanceService{counters: counters, goals: goals, challenges: challenges}
}

// ReconcileCounters recomputes denormalized counters and reports the rows fixed per column.
func (s *MaintenanceService) ReconcileCounters(ctx context.Context) ([]repository.CounterRepair, error) {
	repairs, err := s.counters.Reconcile()
	if err != nil {
		return nil, err
	}
	for _, r := range repairs {
		if r.Fixed > 0 {
			logging.Ctx(ctx).Warn().Str("table", r.Table).Str("column", r.Column).Int64("fixed", r.Fixed).Msg("counter drift repaired")
		}
	}
	return repairs, nil
}

func (s *MaintenanceService) CheckGoals(ctx context.Context) (int, error) {
	return s.goals.CheckInactive(ctx)
}

func (s *MaintenanceService) CheckChallenges(ctx context.Context) (int, error) {
	return s.challenges.CheckEnded(ctx)
}
