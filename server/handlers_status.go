package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/suimin/suibot/config"
	dbpkg "github.com/suimin/suibot/db"
)

// HandleStatus returns a JSON snapshot of the bot's run state: when the loop
// last ran, which message was answered last, and the audit totals.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out := map[string]any{}

	cfg, _ := config.Load()
	if cfg != nil {
		out["bot_name"] = cfg.BotName
		out["triggers"] = cfg.Triggers
		out["run_interval"] = cfg.RunInterval.String()
	}

	if v, err := dbpkg.GetKV(ctx, h.db, "job_run_cycle_last"); err == nil && v != "" {
		out["last_run"] = v
	}
	if v, err := dbpkg.GetKV(ctx, h.db, "last_responded_message_id"); err == nil && v != "" {
		out["last_responded_message_id"] = v
	}
	if n, err := dbpkg.CountReplies(ctx, h.db); err == nil {
		out["replies_total"] = n
	}
	if last, err := dbpkg.LastReply(ctx, h.db); err == nil && last != nil {
		out["last_reply"] = map[string]any{
			"trigger_message_id": last.TriggerMessageID,
			"trigger_author":     last.TriggerAuthor,
			"reply_text":         last.ReplyText,
			"created_at":         last.CreatedAt,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", err))
	}
}
