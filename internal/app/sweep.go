package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/adhocore/gronx"

	"github.com/yungbote/travel-companion-backend/internal/platform/logger"
	"github.com/yungbote/travel-companion-backend/internal/services"
)

func validateSchedule(expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" || !gronx.New().IsValid(expr) {
		return fmt.Errorf("invalid sweep schedule %q", expr)
	}
	return nil
}

// SweepOnce runs one maintenance pass and records its outcome.
func (a *App) SweepOnce(ctx context.Context) (services.SweepResult, error) {
	res, err := a.Services.Sweeper.Sweep(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if a.Metrics != nil {
		a.Metrics.IncSweeperRun(status)
	}
	return res, err
}

// RunSweeps sweeps on every tick of expr until ctx is canceled. A failed pass
// is logged and the schedule continues.
func (a *App) RunSweeps(ctx context.Context, expr string) error {
	if err := validateSchedule(expr); err != nil {
		return err
	}
	return runSchedule(ctx, a.Log, expr, time.Now, func(ctx context.Context) {
		if _, err := a.SweepOnce(ctx); err != nil && ctx.Err() == nil {
			a.Log.Error("Sweep failed", "error", err)
		}
	})
}

func runSchedule(ctx context.Context, log *logger.Logger, expr string, now func() time.Time, job func(context.Context)) error {
	for {
		next, err := gronx.NextTickAfter(expr, now(), false)
		if err != nil {
			log.Error("Next sweep tick failed", "cron", expr, "error", err)
			select {
			case <-time.After(30 * time.Second):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		log.Info("Next sweep scheduled", "at", next.Format(time.RFC3339))
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			job(ctx)
		case <-ctx.Done():
			timer.Stop()
			return nil
		}
	}
}
