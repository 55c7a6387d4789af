package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yungbote/travel-companion-backend/internal/app"
)

var (
	cronFlag string
	jsonFlag bool
	rootCmd  = &cobra.Command{
		Use:   "sweeper",
		Short: "Periodic alert checks and chat history expiry",
	}
)

func main() {
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single sweep and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.SweepOnce(ctx)
				if err != nil {
					return err
				}
				if jsonFlag {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(res)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "checked %s users (%d failed), created %s alerts, purged %s messages in %s\n",
					humanize.Comma(int64(res.UsersChecked)), res.UsersFailed,
					humanize.Comma(int64(res.AlertsCreated)), humanize.Comma(res.MessagesPurged), res.Duration)
				return nil
			})
		},
	}
	onceCmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the result as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Sweep on a cron schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				expr := cronFlag
				if expr == "" {
					expr = a.Cfg.SweepSchedule
				}
				return a.RunSweeps(ctx, expr)
			})
		},
	}
	runCmd.Flags().StringVar(&cronFlag, "cron", "", "Cron expression (defaults to SWEEP_SCHEDULE)")

	rootCmd.AddCommand(onceCmd, runCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.New(ctx)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}
