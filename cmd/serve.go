package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/competency-advisor/internal/app"
)

const sessionPruneInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := a.Migrate(); err != nil {
				return err
			}
		}
		go pruneSessions(ctx, a)
		return a.Serve(ctx)
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "Run schema migrations before serving")
}

func pruneSessions(ctx context.Context, a *app.App) {
	ticker := time.NewTicker(sessionPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.Services.Auth.PruneSessions(ctx)
			if err != nil {
				a.Log.Warn("Session prune failed", "error", err)
				continue
			}
			if n > 0 {
				a.Log.Info("Pruned expired sessions", "count", n)
			}
		}
	}
}
