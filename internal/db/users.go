package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// Password authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked")
)

// Password authentication constants
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 15 * time.Minute
)

// GetUserByID retrieves a user by ID
func (db *DB) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "db.get_user_by_id",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	query := `SELECT id, email, name, status, created_at, updated_at FROM users WHERE id = $1`

	var user models.User
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// CountUsers returns the total number of users in the system
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "db.count_users")
	defer span.End()

	query := `SELECT COUNT(*) FROM users`
	var count int
	err := db.conn.QueryRowContext(ctx, query).Scan(&count)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	span.SetAttributes(attribute.Int("users.count", count))
	return count, nil
}

// CreatePasswordUser creates a new user with password authentication.
// The default display name is the local part of the email.
func (db *DB) CreatePasswordUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "db.create_password_user",
		trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	name := email
	if idx := strings.IndexByte(email, '@'); idx > 0 {
		name = email[:idx]
	}

	query := `
		INSERT INTO users (email, name, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'active', NOW(), NOW())
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, name, status, created_at, updated_at
	`

	var user models.User
	err := db.conn.QueryRowContext(ctx, query, email, name, passwordHash).Scan(
		&user.ID, &user.Email, &user.Name, &user.Status, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrEmailTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return &user, nil
}

// AuthenticatePassword verifies email/password and returns the user if valid.
// Handles account lockout after too many failed attempts.
func (db *DB) AuthenticatePassword(ctx context.Context, email, password string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "db.authenticate_password",
		trace.WithAttributes(attribute.String("email", email)))
	defer span.End()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, email, name, status, created_at, updated_at,
		       password_hash, failed_attempts, locked_until
		FROM users
		WHERE email = $1
	`

	var user models.User
	var passwordHash string
	var failedAttempts int
	var lockedUntil *time.Time

	err = tx.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.Status, &user.CreatedAt, &user.UpdatedAt,
		&passwordHash, &failedAttempts, &lockedUntil,
	)
	if err == sql.ErrNoRows {
		// No such user - but use constant time to prevent timing attacks
		bcrypt.CompareHashAndPassword([]byte("$2a$12$dummy.hash.to.prevent.timing.attacks."), []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	// Check if account is locked
	if lockedUntil != nil && time.Now().Before(*lockedUntil) {
		return nil, ErrAccountLocked
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		// Increment failed attempts
		newAttempts := failedAttempts + 1
		var newLockedUntil *time.Time
		if newAttempts >= MaxFailedAttempts {
			lockTime := time.Now().Add(LockoutDuration)
			newLockedUntil = &lockTime
		}

		updateSQL := `UPDATE users SET failed_attempts = $1, locked_until = $2, updated_at = NOW() WHERE id = $3`
		if _, err = tx.ExecContext(ctx, updateSQL, newAttempts, newLockedUntil, user.ID); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to update failed attempts: %w", err)
		}

		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit: %w", err)
		}

		if newLockedUntil != nil {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}

	// Check if user is inactive
	if user.Status == models.UserStatusInactive {
		return nil, ErrInvalidCredentials
	}

	// Success - reset failed attempts
	resetSQL := `UPDATE users SET failed_attempts = 0, locked_until = NULL WHERE id = $1`
	if _, err = tx.ExecContext(ctx, resetSQL, user.ID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to reset failed attempts: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	return &user, nil
}
