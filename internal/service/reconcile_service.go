package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/vedran77/frameverse/internal/repository"
)

// ReconcileService repairs one-sided follow edges left by partial writes.
// The following sets are authoritative.
type ReconcileService struct {
	userRepo repository.UserRepository
}

func NewReconcileService(userRepo repository.UserRepository) *ReconcileService {
	return &ReconcileService{userRepo: userRepo}
}

type ReconcileReport struct {
	FollowersAdded   int
	FollowersRemoved int
}

func (s *ReconcileService) Run(ctx context.Context) (*ReconcileReport, error) {
	edges, err := s.userRepo.ListFollowEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing follow edges: %w", err)
	}

	byID := lo.KeyBy(edges, func(e repository.FollowEdges) uuid.UUID { return e.UserID })
	report := &ReconcileReport{}

	for _, a := range edges {
		for _, b := range a.Following {
			target, ok := byID[b]
			if !ok || lo.Contains(target.Followers, a.UserID) {
				continue
			}
			if err := s.userRepo.AddFollower(ctx, b, a.UserID); err != nil {
				return report, fmt.Errorf("adding follower: %w", err)
			}
			report.FollowersAdded++
		}

		for _, b := range a.Followers {
			follower, ok := byID[b]
			if ok && lo.Contains(follower.Following, a.UserID) {
				continue
			}
			if err := s.userRepo.RemoveFollower(ctx, a.UserID, b); err != nil {
				return report, fmt.Errorf("removing follower: %w", err)
			}
			report.FollowersRemoved++
		}
	}

	return report, nil
}

// Job adapts Run to a cron callback.
func (s *ReconcileService) Job(ctx context.Context) func() {
	return func() {
		report, err := s.Run(ctx)
		if err != nil {
			log.Error().Err(err).Msg("follow reconciliation failed")
			return
		}
		log.Info().
			Int("followers_added", report.FollowersAdded).
			Int("followers_removed", report.FollowersRemoved).
			Msg("follow reconciliation finished")
	}
}
