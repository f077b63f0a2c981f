package db_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/testutil"
)

// Helper to hash a password for tests
func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return string(hash)
}

func TestCreatePasswordUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := context.Background()

	t.Run("creates an active user", func(t *testing.T) {
		env.CleanDB(t)

		user, err := env.DB.CreatePasswordUser(ctx, "test@example.com", hashPassword(t, "testpassword"))
		if err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		if user.ID == 0 {
			t.Error("expected non-zero user ID")
		}
		if user.Email != "test@example.com" {
			t.Errorf("expected email test@example.com, got %s", user.Email)
		}
		if user.Status != "active" {
			t.Errorf("expected status active, got %s", user.Status)
		}
	})

	t.Run("sets name from email prefix", func(t *testing.T) {
		env.CleanDB(t)

		user, err := env.DB.CreatePasswordUser(ctx, "jane.doe@example.com", hashPassword(t, "testpassword"))
		if err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		if user.Name == nil || *user.Name != "jane.doe" {
			t.Errorf("expected name jane.doe, got %v", user.Name)
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		env.CleanDB(t)

		if _, err := env.DB.CreatePasswordUser(ctx, "dup@example.com", hashPassword(t, "testpassword")); err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		_, err := env.DB.CreatePasswordUser(ctx, "dup@example.com", hashPassword(t, "otherpassword"))
		if !errors.Is(err, db.ErrEmailTaken) {
			t.Errorf("expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestAuthenticatePassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := context.Background()

	t.Run("authenticates with the correct password", func(t *testing.T) {
		env.CleanDB(t)

		created, err := env.DB.CreatePasswordUser(ctx, "auth@example.com", hashPassword(t, "correcthorse"))
		if err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		user, err := env.DB.AuthenticatePassword(ctx, "auth@example.com", "correcthorse")
		if err != nil {
			t.Fatalf("AuthenticatePassword failed: %v", err)
		}
		if user.ID != created.ID {
			t.Errorf("expected user %d, got %d", created.ID, user.ID)
		}
	})

	t.Run("rejects a wrong password", func(t *testing.T) {
		env.CleanDB(t)

		if _, err := env.DB.CreatePasswordUser(ctx, "auth@example.com", hashPassword(t, "correcthorse")); err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		_, err := env.DB.AuthenticatePassword(ctx, "auth@example.com", "wronghorse")
		if !errors.Is(err, db.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("rejects an unknown email", func(t *testing.T) {
		env.CleanDB(t)

		_, err := env.DB.AuthenticatePassword(ctx, "ghost@example.com", "anything")
		if !errors.Is(err, db.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("locks the account after repeated failures", func(t *testing.T) {
		env.CleanDB(t)

		if _, err := env.DB.CreatePasswordUser(ctx, "locked@example.com", hashPassword(t, "correcthorse")); err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		var lastErr error
		for i := 0; i < db.MaxFailedAttempts; i++ {
			_, lastErr = env.DB.AuthenticatePassword(ctx, "locked@example.com", "wronghorse")
		}
		if !errors.Is(lastErr, db.ErrAccountLocked) {
			t.Errorf("expected ErrAccountLocked on attempt %d, got %v", db.MaxFailedAttempts, lastErr)
		}

		// Even the correct password is refused while locked
		_, err := env.DB.AuthenticatePassword(ctx, "locked@example.com", "correcthorse")
		if !errors.Is(err, db.ErrAccountLocked) {
			t.Errorf("expected ErrAccountLocked with correct password, got %v", err)
		}
	})

	t.Run("resets the failure count on success", func(t *testing.T) {
		env.CleanDB(t)

		if _, err := env.DB.CreatePasswordUser(ctx, "reset@example.com", hashPassword(t, "correcthorse")); err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		for i := 0; i < db.MaxFailedAttempts-1; i++ {
			env.DB.AuthenticatePassword(ctx, "reset@example.com", "wronghorse")
		}
		if _, err := env.DB.AuthenticatePassword(ctx, "reset@example.com", "correcthorse"); err != nil {
			t.Fatalf("expected login to succeed before lockout, got %v", err)
		}

		// The counter starts over, so one more failure does not lock
		_, err := env.DB.AuthenticatePassword(ctx, "reset@example.com", "wronghorse")
		if !errors.Is(err, db.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials after reset, got %v", err)
		}
	})

	t.Run("rejects an inactive user", func(t *testing.T) {
		env.CleanDB(t)

		user, err := env.DB.CreatePasswordUser(ctx, "inactive@example.com", hashPassword(t, "correcthorse"))
		if err != nil {
			t.Fatalf("CreatePasswordUser failed: %v", err)
		}

		if _, err := env.DB.Exec(ctx, "UPDATE users SET status = 'inactive' WHERE id = $1", user.ID); err != nil {
			t.Fatalf("failed to deactivate user: %v", err)
		}

		_, err = env.DB.AuthenticatePassword(ctx, "inactive@example.com", "correcthorse")
		if !errors.Is(err, db.ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials for inactive user, got %v", err)
		}
	})
}
