package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/models"
)

// CreateTestUser creates an active user in the database for testing. Tests
// that need password login should use CreateTestUserWithPassword; fixtures
// created here authenticate via sessions or API keys inserted directly.
func CreateTestUser(t *testing.T, env *TestEnvironment, email, name string) *models.User {
	t.Helper()

	query := `
		INSERT INTO users (email, name, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'active', NOW(), NOW())
		RETURNING id, email, name, status, created_at, updated_at
	`

	var user models.User
	row := env.DB.QueryRow(env.Ctx, query, email, name, "unusable")
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return &user
}

// CreateTestUserWithPassword creates a user that can log in with the given
// password. Slower than CreateTestUser because it pays the bcrypt cost.
func CreateTestUserWithPassword(t *testing.T, env *TestEnvironment, email, password string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}

	query := `
		INSERT INTO users (email, password_hash, status, created_at, updated_at)
		VALUES ($1, $2, 'active', NOW(), NOW())
		RETURNING id, email, name, status, created_at, updated_at
	`

	var user models.User
	row := env.DB.QueryRow(env.Ctx, query, email, hash)
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Status, &user.CreatedAt, &user.UpdatedAt); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return &user
}

// CreateTestSong creates a song in the user's library for testing
func CreateTestSong(t *testing.T, env *TestEnvironment, userID int64, title, artist string) *models.Song {
	t.Helper()

	query := `
		INSERT INTO songs (user_id, title, artist, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, user_id, title, artist, cover_url, created_at, updated_at
	`

	var song models.Song
	row := env.DB.QueryRow(env.Ctx, query, userID, title, artist)
	err := row.Scan(&song.ID, &song.UserID, &song.Title, &song.Artist, &song.CoverURL, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create test song: %v", err)
	}

	return &song
}

// CreateTestPracticeSession logs a practice session for testing. songID may
// be nil for free practice; tempoBPM and mood may be nil.
func CreateTestPracticeSession(t *testing.T, env *TestEnvironment, userID int64, songID *int64, practicedAt time.Time, durationMinutes int, tempoBPM *int, mood *models.Mood) int64 {
	t.Helper()

	query := `
		INSERT INTO practice_sessions (user_id, song_id, practiced_at, duration_minutes, tempo_bpm, mood, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id
	`

	var id int64
	row := env.DB.QueryRow(env.Ctx, query, userID, songID, practicedAt, durationMinutes, tempoBPM, mood)
	if err := row.Scan(&id); err != nil {
		t.Fatalf("failed to create test practice session: %v", err)
	}

	return id
}

// CreateTestAPIKey stores an API key hash in the database for testing
func CreateTestAPIKey(t *testing.T, env *TestEnvironment, userID int64, keyHash, name string) int64 {
	t.Helper()

	query := `
		INSERT INTO api_keys (user_id, key_hash, name, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id
	`

	var id int64
	row := env.DB.QueryRow(env.Ctx, query, userID, keyHash, name)
	if err := row.Scan(&id); err != nil {
		t.Fatalf("failed to create test API key: %v", err)
	}

	return id
}

// APIKeyWithRawToken holds both the database key ID and the raw token. The
// raw token goes in Authorization headers; the ID in database assertions.
type APIKeyWithRawToken struct {
	ID       int64
	RawToken string
	Name     string
}

// CreateTestAPIKeyWithToken creates an API key and returns both the ID and
// the raw token for authenticated requests.
func CreateTestAPIKeyWithToken(t *testing.T, env *TestEnvironment, userID int64, name string) *APIKeyWithRawToken {
	t.Helper()

	rawKey, keyHash, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatalf("failed to generate API key: %v", err)
	}

	keyID := CreateTestAPIKey(t, env, userID, keyHash, name)

	return &APIKeyWithRawToken{
		ID:       keyID,
		RawToken: rawKey,
		Name:     name,
	}
}

// CreateTestWebSession inserts a web session row directly
func CreateTestWebSession(t *testing.T, env *TestEnvironment, sessionID string, userID int64, expiresAt time.Time) {
	t.Helper()

	query := `
		INSERT INTO web_sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, NOW(), $3)
	`

	if _, err := env.DB.Exec(env.Ctx, query, sessionID, userID, expiresAt); err != nil {
		t.Fatalf("failed to create test web session: %v", err)
	}
}

// CreateTestWebSessionWithToken creates a web session and returns its token
// for cookie-authenticated requests.
func CreateTestWebSessionWithToken(t *testing.T, env *TestEnvironment, userID int64) string {
	t.Helper()

	sessionID := uuid.New().String()
	expiresAt := time.Now().UTC().Add(24 * time.Hour)
	CreateTestWebSession(t, env, sessionID, userID, expiresAt)

	return sessionID
}
