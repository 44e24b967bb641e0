// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/suimin/suibot/bot"
	"github.com/suimin/suibot/config"
)

const (
	// Maximum number of OAuth states to keep in memory
	maxOAuthStates = 10000
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db         *sql.DB
	ctx        context.Context
	runner     *bot.Runner
	stateStore map[string]time.Time
	stateMu    sync.RWMutex

	// exchange overrides the OAuth code exchange; nil means the real YouTube
	// service. Tests inject a stub here.
	exchange func(ctx context.Context, code string) (*oauth2.Token, error)
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, db *sql.DB, runner *bot.Runner) *Handlers {
	return &Handlers{
		db:         db,
		ctx:        ctx,
		runner:     runner,
		stateStore: make(map[string]time.Time),
	}
}

// HandleRoot serves the liveness/info banner.
func (h *Handlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	cfg, _ := config.Load()
	name := "Sui Sui"
	if cfg != nil && cfg.BotName != "" {
		name = cfg.BotName
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%s live chat bot is running.\n\nGET  /auth            start the OAuth consent flow\nGET  /livechatid      resolve the active broadcast's chat id\nPOST /run             execute one run cycle\nGET  /status          run state snapshot\n", name)
}

// cleanExpiredStates removes expired OAuth states from the store.
// This should be called with stateMu locked.
func (h *Handlers) cleanExpiredStates() {
	now := time.Now()
	for state, expiry := range h.stateStore {
		if now.After(expiry) {
			delete(h.stateStore, state)
		}
	}
}

// addOAuthState adds a new OAuth state to the store with cleanup if needed.
func (h *Handlers) addOAuthState(state string, expiry time.Time) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	// Clean expired states periodically to prevent unbounded growth
	if len(h.stateStore)%100 == 0 {
		h.cleanExpiredStates()
	}

	// Refusing beyond the cap fails the flow, which beats memory exhaustion.
	if len(h.stateStore) >= maxOAuthStates {
		return
	}

	h.stateStore[state] = expiry
}

// takeOAuthState validates and consumes a state value, returning false when
// it is unknown or expired.
func (h *Handlers) takeOAuthState(state string) bool {
	h.stateMu.RLock()
	exp, ok := h.stateStore[state]
	h.stateMu.RUnlock()
	if !ok || time.Now().After(exp) {
		return false
	}
	h.stateMu.Lock()
	delete(h.stateStore, state)
	h.stateMu.Unlock()
	return true
}
