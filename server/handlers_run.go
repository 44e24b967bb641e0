package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/suimin/suibot/bot"
	"github.com/suimin/suibot/telemetry"
)

// HandleRun executes one run cycle. no-command and duplicate-skipped are
// normal 200 outcomes; every failure maps to 500 with the error text and its
// taxonomy class. Nothing is retried here.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.runner == nil {
		writeRunError(w, errors.New("run cycle not configured (check LIVE_CHAT_ID, GEMINI_API_KEY, CLIENT_ID, CLIENT_SECRET)"))
		return
	}
	res, err := h.runner.RunOnce(r.Context())
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("run cycle failed",
			slog.String("class", bot.Classify(err)), slog.Any("err", err))
		writeRunError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", err))
	}
}

func writeRunError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	payload := map[string]string{"error": err.Error()}
	if class := bot.Classify(err); class != "" {
		payload["class"] = class
	}
	if encErr := json.NewEncoder(w).Encode(payload); encErr != nil {
		slog.Warn("failed to encode JSON response", slog.Any("err", encErr))
	}
}
