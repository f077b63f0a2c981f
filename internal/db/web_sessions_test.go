package db_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/testutil"
)

func TestWebSessions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := context.Background()

	t.Run("round-trips a session with joined user fields", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "session@example.com", "Session User")
		expiresAt := time.Now().UTC().Add(time.Hour)

		if err := env.DB.CreateWebSession(ctx, "session-token-1", user.ID, expiresAt); err != nil {
			t.Fatalf("CreateWebSession failed: %v", err)
		}

		session, err := env.DB.GetWebSession(ctx, "session-token-1")
		if err != nil {
			t.Fatalf("GetWebSession failed: %v", err)
		}

		if session.UserID != user.ID {
			t.Errorf("expected user_id %d, got %d", user.ID, session.UserID)
		}
		if session.UserEmail != "session@example.com" {
			t.Errorf("expected joined email, got %q", session.UserEmail)
		}
		if session.UserStatus != "active" {
			t.Errorf("expected joined status active, got %q", session.UserStatus)
		}
	})

	t.Run("does not return expired sessions", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "session@example.com", "Session User")
		expiredAt := time.Now().UTC().Add(-time.Minute)

		if err := env.DB.CreateWebSession(ctx, "expired-token", user.ID, expiredAt); err != nil {
			t.Fatalf("CreateWebSession failed: %v", err)
		}

		_, err := env.DB.GetWebSession(ctx, "expired-token")
		if !errors.Is(err, db.ErrWebSessionNotFound) {
			t.Errorf("expected ErrWebSessionNotFound for expired session, got %v", err)
		}
	})

	t.Run("deletes sessions", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "session@example.com", "Session User")
		if err := env.DB.CreateWebSession(ctx, "doomed-token", user.ID, time.Now().UTC().Add(time.Hour)); err != nil {
			t.Fatalf("CreateWebSession failed: %v", err)
		}

		if err := env.DB.DeleteWebSession(ctx, "doomed-token"); err != nil {
			t.Fatalf("DeleteWebSession failed: %v", err)
		}

		if _, err := env.DB.GetWebSession(ctx, "doomed-token"); !errors.Is(err, db.ErrWebSessionNotFound) {
			t.Errorf("expected ErrWebSessionNotFound after delete, got %v", err)
		}
	})

	t.Run("sweeps expired sessions", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "session@example.com", "Session User")
		env.DB.CreateWebSession(ctx, "live-token", user.ID, time.Now().UTC().Add(time.Hour))
		env.DB.CreateWebSession(ctx, "stale-token", user.ID, time.Now().UTC().Add(-time.Hour))

		deleted, err := env.DB.DeleteExpiredWebSessions(ctx)
		if err != nil {
			t.Fatalf("DeleteExpiredWebSessions failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected 1 swept session, got %d", deleted)
		}

		if _, err := env.DB.GetWebSession(ctx, "live-token"); err != nil {
			t.Errorf("expected live session to survive sweep, got %v", err)
		}
	})
}

func TestValidateAPIKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := context.Background()

	t.Run("resolves a valid key to its user", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "keys@example.com", "Key User")
		key := testutil.CreateTestAPIKeyWithToken(t, env, user.ID, "CLI")

		userID, keyID, email, status, err := env.DB.ValidateAPIKey(ctx, auth.HashAPIKey(key.RawToken))
		if err != nil {
			t.Fatalf("ValidateAPIKey failed: %v", err)
		}
		if userID != user.ID {
			t.Errorf("expected user %d, got %d", user.ID, userID)
		}
		if keyID != key.ID {
			t.Errorf("expected key %d, got %d", key.ID, keyID)
		}
		if email != "keys@example.com" {
			t.Errorf("expected email keys@example.com, got %q", email)
		}
		if status != "active" {
			t.Errorf("expected status active, got %q", status)
		}
	})

	t.Run("rejects an unknown key hash", func(t *testing.T) {
		env.CleanDB(t)

		_, _, _, _, err := env.DB.ValidateAPIKey(ctx, auth.HashAPIKey("flg_nonexistent"))
		if !errors.Is(err, db.ErrInvalidAPIKey) {
			t.Errorf("expected ErrInvalidAPIKey, got %v", err)
		}
	})

	t.Run("enforces the per-user name uniqueness", func(t *testing.T) {
		env.CleanDB(t)

		user := testutil.CreateTestUser(t, env, "keys@example.com", "Key User")
		testutil.CreateTestAPIKeyWithToken(t, env, user.ID, "Phone")

		_, _, err := env.DB.CreateAPIKey(ctx, user.ID, auth.HashAPIKey("flg_anotherkey"), "Phone")
		if !errors.Is(err, db.ErrAPIKeyNameExists) {
			t.Errorf("expected ErrAPIKeyNameExists, got %v", err)
		}
	})
}
