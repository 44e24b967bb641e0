package oauth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/suimin/suibot/db"
	"github.com/suimin/suibot/testutil"
)

func TestStartRefresherOutsideWindow(t *testing.T) {
	database := testutil.SetupTestDB(t)

	// Token that doesn't need refresh yet
	futureExpiry := time.Now().Add(1 * time.Hour)
	if err := db.UpsertOAuthToken(context.Background(), database, "test-provider", "access123", "refresh456", futureExpiry, "scope1"); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	refreshCalled := false
	refreshFunc := func(ctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
		refreshCalled = true
		return "new-access", "new-refresh", time.Now().Add(2 * time.Hour), "scope1", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	StartRefresher(ctx, database, "test-provider", 50*time.Millisecond, 30*time.Minute, refreshFunc)

	<-ctx.Done()

	if refreshCalled {
		t.Error("refresh should not have been called for token that expires in 1 hour with 30 min window")
	}
}

func TestStartRefresherWithinWindow(t *testing.T) {
	database := testutil.SetupTestDB(t)

	// Token expiring inside the refresh window
	soonExpiry := time.Now().Add(5 * time.Minute)
	if err := db.UpsertOAuthToken(context.Background(), database, "test-provider-2", "old-access", "old-refresh", soonExpiry, "scope1"); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	refreshCalled := make(chan struct{}, 1)
	newExpiry := time.Now().Add(2 * time.Hour)
	refreshFunc := func(ctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
		if refreshToken != "old-refresh" {
			t.Errorf("refresh called with wrong token: got %s, want old-refresh", refreshToken)
		}
		select {
		case refreshCalled <- struct{}{}:
		default:
		}
		return "new-access", "new-refresh", newExpiry, "scope2", nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartRefresher(ctx, database, "test-provider-2", 100*time.Millisecond, 15*time.Minute, refreshFunc)

	select {
	case <-refreshCalled:
	case <-time.After(10 * time.Second):
		t.Fatal("refresh should have been called for token expiring within window")
	}
	// Allow the persist to complete before asserting
	time.Sleep(200 * time.Millisecond)
	cancel()

	access, refresh, _, scope, err := db.GetOAuthToken(context.Background(), database, "test-provider-2")
	if err != nil {
		t.Fatalf("failed to query updated token: %v", err)
	}
	if access != "new-access" {
		t.Errorf("access token not updated: got %s, want new-access", access)
	}
	if refresh != "new-refresh" {
		t.Errorf("refresh token not updated: got %s, want new-refresh", refresh)
	}
	if scope != "scope2" {
		t.Errorf("scope not updated: got %s, want scope2", scope)
	}
}

func TestStartRefresherRefreshError(t *testing.T) {
	database := testutil.SetupTestDB(t)

	soonExpiry := time.Now().Add(5 * time.Minute)
	if err := db.UpsertOAuthToken(context.Background(), database, "test-provider-3", "old-access", "old-refresh", soonExpiry, "scope1"); err != nil {
		t.Fatalf("failed to insert test token: %v", err)
	}

	refreshFunc := func(ctx context.Context, refreshToken string) (string, string, time.Time, string, error) {
		return "", "", time.Time{}, "", errors.New("refresh failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	StartRefresher(ctx, database, "test-provider-3", 50*time.Millisecond, 15*time.Minute, refreshFunc)
	<-ctx.Done()

	// Original token must survive a failed refresh
	access, refresh, _, _, err := db.GetOAuthToken(context.Background(), database, "test-provider-3")
	if err != nil {
		t.Fatalf("failed to query token: %v", err)
	}
	if access != "old-access" || refresh != "old-refresh" {
		t.Errorf("token changed after failed refresh: access=%s refresh=%s", access, refresh)
	}
}
