// Package youtubeapi wraps the Google OAuth2 client config and the YouTube
// Data API for the bot's needs: consent URL construction, code exchange,
// refresh-token auth, and the live-chat list/insert calls. Tokens are
// persisted via the provided TokenStore so they survive restarts and can be
// refreshed by the background refresher.
package youtubeapi

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/suimin/suibot/bot"
	"github.com/suimin/suibot/config"
)

const provider = "youtube"

// TokenStore persists OAuth tokens per provider. The db package supplies the
// Postgres-backed implementation.
type TokenStore interface {
	UpsertOAuthToken(ctx context.Context, provider string, accessToken string, refreshToken string, expiry time.Time, scope string) error
	GetOAuthToken(ctx context.Context, provider string) (accessToken string, refreshToken string, expiry time.Time, scope string, err error)
}

type Service struct {
	cfg   *config.Config
	db    TokenStore
	oauth *oauth2.Config

	// Endpoint overrides the YouTube API base URL; tests point it at a mock
	// server. Empty means the real API.
	Endpoint string
}

func New(cfg *config.Config, ts TokenStore) *Service {
	scopes := []string{
		"https://www.googleapis.com/auth/youtube.force-ssl",
		"https://www.googleapis.com/auth/youtube.readonly",
	}
	if cfg.Scopes != "" {
		// allow comma or space separated
		s := strings.ReplaceAll(cfg.Scopes, ",", " ")
		if fields := strings.Fields(s); len(fields) > 0 {
			scopes = fields
		}
	}
	oauth := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       scopes,
	}
	return &Service{cfg: cfg, db: ts, oauth: oauth}
}

// OverrideAuthEndpoint replaces the Google OAuth endpoints; tests point the
// token URL at a mock server, the same way Endpoint overrides the API base.
func (s *Service) OverrideAuthEndpoint(authURL, tokenURL string) {
	s.oauth.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
}

// AuthCodeURL builds the consent URL, requesting offline access and an
// explicit consent re-prompt so Google issues a refresh token.
func (s *Service) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for tokens and persists them. A
// response without a refresh token is not a failure: Google omits it on
// repeat consent, and the store keeps any previously saved refresh token in
// that case. Callers inspect tok.RefreshToken to report "<not returned>".
func (s *Service) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout())
	defer cancel()
	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, &bot.AuthError{Err: err, Hint: "authorization code invalid or expired; restart the flow at /auth"}
	}
	if err := s.db.UpsertOAuthToken(ctx, provider, tok.AccessToken, tok.RefreshToken, tok.Expiry, strings.Join(s.oauth.Scopes, " ")); err != nil {
		return nil, err
	}
	return tok, nil
}

func (s *Service) callTimeout() time.Duration {
	if s.cfg.CallTimeout > 0 {
		return s.cfg.CallTimeout
	}
	return 15 * time.Second
}

// refreshIfNeeded loads the stored token and refreshes it through the oauth2
// token source when it is inside the expiry window.
func (s *Service) refreshIfNeeded(ctx context.Context) (*oauth2.Token, error) {
	access, refresh, expiry, _, err := s.db.GetOAuthToken(ctx, provider)
	if err != nil {
		return nil, err
	}
	if access == "" && refresh == "" {
		return nil, &bot.AuthError{Err: errors.New("no youtube credential stored"), Hint: "complete the OAuth flow at /auth or set REFRESH_TOKEN"}
	}
	tok := &oauth2.Token{AccessToken: access, RefreshToken: refresh, Expiry: expiry}
	if tok.AccessToken != "" && time.Until(tok.Expiry) > 2*time.Minute {
		return tok, nil
	}
	newTok, err := s.oauth.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, &bot.AuthError{Err: err, Hint: "stored credential rejected; complete the OAuth flow at /auth"}
	}
	if err := s.db.UpsertOAuthToken(ctx, provider, newTok.AccessToken, newTok.RefreshToken, newTok.Expiry, ""); err != nil {
		return nil, err
	}
	return newTok, nil
}

// Client returns an authenticated YouTube Data API service.
func (s *Service) Client(ctx context.Context) (*yt.Service, error) {
	tok, err := s.refreshIfNeeded(ctx)
	if err != nil {
		return nil, err
	}
	opts := []option.ClientOption{option.WithHTTPClient(s.oauth.Client(ctx, tok))}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}
	return yt.NewService(ctx, opts...)
}
