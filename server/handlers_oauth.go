package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/suimin/suibot/config"
	dbpkg "github.com/suimin/suibot/db"
	"github.com/suimin/suibot/youtubeapi"
)

// HandleOAuthStart initiates the consent flow by redirecting to Google.
func (h *Handlers) HandleOAuthStart(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load()
	if err != nil {
		http.Error(w, "config error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := cfg.ValidateOAuthReady(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// generate state
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		http.Error(w, "state gen error", 500)
		return
	}
	st := hex.EncodeToString(b)
	h.addOAuthState(st, time.Now().Add(10*time.Minute))
	yts := youtubeapi.New(cfg, &dbpkg.TokenStoreAdapter{DB: h.db})
	http.Redirect(w, r, yts.AuthCodeURL(st), http.StatusFound)
}

// HandleOAuthCallback exchanges the authorization code and stores the tokens.
// The response body reports the refresh token so a cron-style operator can
// copy it into REFRESH_TOKEN; Google omits it on repeat consent, in which case
// "<not returned>" is reported and the stored token is left untouched.
func (h *Handlers) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load()
	if err != nil {
		http.Error(w, "config error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	code := r.URL.Query().Get("code")
	st := r.URL.Query().Get("state")
	if code == "" || st == "" {
		http.Error(w, "missing code/state", 400)
		return
	}
	if !h.takeOAuthState(st) {
		http.Error(w, "invalid state", 400)
		return
	}
	exchange := h.exchange
	if exchange == nil {
		yts := youtubeapi.New(cfg, &dbpkg.TokenStoreAdapter{DB: h.db})
		exchange = yts.Exchange
	}
	tok, err := exchange(r.Context(), code)
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	refresh := tok.RefreshToken
	if refresh == "" {
		refresh = "<not returned>"
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Login successful.\nrefresh_token: %s\n", refresh)
}
