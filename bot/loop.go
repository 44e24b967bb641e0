package bot

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// StartRunLoop runs the cycle on a fixed interval until the context is
// cancelled. It is the cron-replacement for deployments that don't trigger
// POST /run externally. Each pass records a heartbeat in kv so /status can
// show when the bot last looked at the chat. Failures are logged and the loop
// keeps going; the cycle itself never retries.
func StartRunLoop(ctx context.Context, dbc *sql.DB, r *Runner, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("run loop starting", slog.Duration("interval", interval))
	runOnce := func() {
		if dbc != nil {
			_, _ = dbc.ExecContext(ctx, `INSERT INTO kv (key,value,updated_at) VALUES ('job_run_cycle_last', to_char(NOW() AT TIME ZONE 'UTC','YYYY-MM-DD"T"HH24:MI:SS.MS"Z"'), NOW())
				ON CONFLICT(key) DO UPDATE SET value=EXCLUDED.value, updated_at=NOW()`)
		}
		res, err := r.RunOnce(ctx)
		if err != nil {
			slog.Warn("run cycle failed", slog.String("class", Classify(err)), slog.Any("err", err))
			return
		}
		slog.Debug("run cycle done", slog.String("status", res.Status))
	}
	// Kick an immediate run so we don't wait a full interval after boot.
	runOnce()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("run loop stopped")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
