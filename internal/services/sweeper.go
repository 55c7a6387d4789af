package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/travel-companion-backend/internal/data/repos"
	"github.com/yungbote/travel-companion-backend/internal/platform/dbctx"
	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
)

// Sweeper runs the periodic maintenance pass: alert checks for every user with
// an active itinerary, then expiry of old chat messages.
type Sweeper interface {
	Sweep(ctx context.Context) (SweepResult, error)
}

type SweepResult struct {
	UsersChecked   int           `json:"users_checked"`
	UsersFailed    int           `json:"users_failed"`
	AlertsCreated  int           `json:"alerts_created"`
	MessagesPurged int64         `json:"messages_purged"`
	Duration       time.Duration `json:"duration"`
}

type SweeperConfig struct {
	MaxUsers    int
	Concurrency int
}

type sweeper struct {
	log         *logger.Logger
	itineraries repos.ItineraryRepo
	alerts      AlertService
	session     SessionService
	cfg         SweeperConfig
}

func NewSweeper(baseLog *logger.Logger, itineraries repos.ItineraryRepo, alerts AlertService, session SessionService, cfg SweeperConfig) Sweeper {
	if cfg.MaxUsers <= 0 {
		cfg.MaxUsers = 1000
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &sweeper{
		log:         baseLog.With("service", "Sweeper"),
		itineraries: itineraries,
		alerts:      alerts,
		session:     session,
		cfg:         cfg,
	}
}

// Sweep checks every active user. A failed user is logged and counted and does
// not stop the pass. Only listing users, purging and ctx cancellation fail it.
func (s *sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var res SweepResult

	userIDs, err := s.itineraries.ListActiveUserIDs(dbctx.Context{Ctx: ctx}, s.cfg.MaxUsers)
	if err != nil {
		return res, fmt.Errorf("list active users: %w", err)
	}

	var created, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, userID := range userIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.alerts.Check(gctx, userID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				s.log.Warn("Alert check failed", "user_id", userID, "error", err)
				return nil
			}
			created.Add(int64(len(out.Created)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.UsersChecked = len(userIDs)
	res.UsersFailed = int(failed.Load())
	res.AlertsCreated = int(created.Load())

	purged, err := s.session.PurgeExpired(ctx)
	if err != nil {
		return res, fmt.Errorf("purge expired messages: %w", err)
	}
	res.MessagesPurged = purged
	res.Duration = time.Since(start)

	s.log.Info("Sweep finished",
		"users_checked", res.UsersChecked,
		"users_failed", res.UsersFailed,
		"alerts_created", res.AlertsCreated,
		"messages_purged", res.MessagesPurged,
		"duration", res.Duration.String(),
	)
	return res, nil
}
