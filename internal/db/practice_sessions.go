package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

// PracticeSessionFilters narrows ListPracticeSessions. All fields are
// optional; StartDate and EndDate bounds are inclusive.
type PracticeSessionFilters struct {
	SongID    *int64
	StartDate *time.Time
	EndDate   *time.Time
	Mood      *models.Mood
}

// paramBuilder tracks $N indices for dynamic SQL parameter construction.
type paramBuilder struct {
	args    []interface{}
	nextIdx int
}

// newParamBuilder creates a paramBuilder with $1 = userID.
func newParamBuilder(userID int64) *paramBuilder {
	return &paramBuilder{
		args:    []interface{}{userID},
		nextIdx: 2,
	}
}

// add appends a value and returns its $N placeholder.
func (pb *paramBuilder) add(val interface{}) string {
	placeholder := fmt.Sprintf("$%d", pb.nextIdx)
	pb.args = append(pb.args, val)
	pb.nextIdx++
	return placeholder
}

const practiceSessionColumns = `id, user_id, song_id, practiced_at, duration_minutes, tempo_bpm, mood, notes, created_at`

func scanPracticeSession(row interface{ Scan(...interface{}) error }) (*models.PracticeSession, error) {
	var s models.PracticeSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.SongID,
		&s.PracticedAt,
		&s.DurationMinutes,
		&s.TempoBPM,
		&s.Mood,
		&s.Notes,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreatePracticeSession logs a practice session
func (db *DB) CreatePracticeSession(ctx context.Context, userID int64, req *models.SavePracticeSessionRequest) (*models.PracticeSession, error) {
	ctx, span := tracer.Start(ctx, "db.create_practice_session",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	query := `
		INSERT INTO practice_sessions (user_id, song_id, practiced_at, duration_minutes, tempo_bpm, mood, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + practiceSessionColumns

	s, err := scanPracticeSession(db.conn.QueryRowContext(ctx, query,
		userID, req.SongID, req.PracticedAt, req.DurationMinutes, req.TempoBPM, req.Mood, req.Notes))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create practice session: %w", err)
	}

	span.SetAttributes(attribute.Int64("practice_session.id", s.ID))
	return s, nil
}

// GetPracticeSession retrieves one of the user's practice sessions by ID
func (db *DB) GetPracticeSession(ctx context.Context, userID, sessionID int64) (*models.PracticeSession, error) {
	ctx, span := tracer.Start(ctx, "db.get_practice_session",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("practice_session.id", sessionID),
		))
	defer span.End()

	query := `SELECT ` + practiceSessionColumns + ` FROM practice_sessions WHERE id = $1 AND user_id = $2`

	s, err := scanPracticeSession(db.conn.QueryRowContext(ctx, query, sessionID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPracticeSessionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get practice session: %w", err)
	}

	return s, nil
}

// ListPracticeSessions returns the user's practice sessions matching the
// filters, ordered by practiced_at then id so output is deterministic.
func (db *DB) ListPracticeSessions(ctx context.Context, userID int64, filters PracticeSessionFilters) ([]models.PracticeSession, error) {
	ctx, span := tracer.Start(ctx, "db.list_practice_sessions",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	pb := newParamBuilder(userID)
	where := []string{"user_id = $1"}

	if filters.SongID != nil {
		where = append(where, "song_id = "+pb.add(*filters.SongID))
	}
	if filters.StartDate != nil {
		where = append(where, "practiced_at >= "+pb.add(*filters.StartDate))
	}
	if filters.EndDate != nil {
		where = append(where, "practiced_at <= "+pb.add(*filters.EndDate))
	}
	if filters.Mood != nil {
		where = append(where, "mood = "+pb.add(*filters.Mood))
	}

	query := `SELECT ` + practiceSessionColumns + `
		FROM practice_sessions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY practiced_at, id`

	rows, err := db.conn.QueryContext(ctx, query, pb.args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list practice sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.PracticeSession
	for rows.Next() {
		s, err := scanPracticeSession(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan practice session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating practice sessions: %w", err)
	}

	span.SetAttributes(attribute.Int("practice_sessions.count", len(sessions)))
	return sessions, nil
}

// UpdatePracticeSession replaces a session's logged fields
func (db *DB) UpdatePracticeSession(ctx context.Context, userID, sessionID int64, req *models.SavePracticeSessionRequest) (*models.PracticeSession, error) {
	ctx, span := tracer.Start(ctx, "db.update_practice_session",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("practice_session.id", sessionID),
		))
	defer span.End()

	query := `
		UPDATE practice_sessions
		SET song_id = $1, practiced_at = $2, duration_minutes = $3, tempo_bpm = $4, mood = $5, notes = $6
		WHERE id = $7 AND user_id = $8
		RETURNING ` + practiceSessionColumns

	s, err := scanPracticeSession(db.conn.QueryRowContext(ctx, query,
		req.SongID, req.PracticedAt, req.DurationMinutes, req.TempoBPM, req.Mood, req.Notes, sessionID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPracticeSessionNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to update practice session: %w", err)
	}

	return s, nil
}

// DeletePracticeSession removes a logged session
func (db *DB) DeletePracticeSession(ctx context.Context, userID, sessionID int64) error {
	ctx, span := tracer.Start(ctx, "db.delete_practice_session",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("practice_session.id", sessionID),
		))
	defer span.End()

	query := `DELETE FROM practice_sessions WHERE id = $1 AND user_id = $2`

	result, err := db.conn.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete practice session: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrPracticeSessionNotFound
	}

	return nil
}

// HasPracticeSessions reports whether the user has logged any practice
func (db *DB) HasPracticeSessions(ctx context.Context, userID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "db.has_practice_sessions",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM practice_sessions WHERE user_id = $1)`
	if err := db.conn.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to check practice sessions: %w", err)
	}

	return exists, nil
}
