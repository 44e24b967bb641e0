package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/suimin/suibot/config"
	dbpkg "github.com/suimin/suibot/db"
	"github.com/suimin/suibot/youtubeapi"
)

// HandleLiveChatID resolves the live chat id of the authenticated channel's
// active broadcast, for operators filling in LIVE_CHAT_ID. 404 when nothing
// is live; other failures surface as 500 with the error text.
func (h *Handlers) HandleLiveChatID(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load()
	if err != nil {
		http.Error(w, "config error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	yts := youtubeapi.New(cfg, &dbpkg.TokenStoreAdapter{DB: h.db})
	chatID, err := yts.ActiveLiveChatID(r.Context())
	if err != nil {
		if errors.Is(err, youtubeapi.ErrNoActiveBroadcast) {
			http.Error(w, "no active broadcast", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), 500)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, chatID)
}
