package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fretlogapp/fretlog-web/internal/models"
)

const songColumns = `id, user_id, title, artist, cover_url, created_at, updated_at`

func scanSong(row interface{ Scan(...interface{}) error }) (*models.Song, error) {
	var song models.Song
	err := row.Scan(
		&song.ID,
		&song.UserID,
		&song.Title,
		&song.Artist,
		&song.CoverURL,
		&song.CreatedAt,
		&song.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// CreateSong adds a song to a user's library
func (db *DB) CreateSong(ctx context.Context, userID int64, title, artist string) (*models.Song, error) {
	ctx, span := tracer.Start(ctx, "db.create_song",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	query := `
		INSERT INTO songs (user_id, title, artist, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + songColumns

	song, err := scanSong(db.conn.QueryRowContext(ctx, query, userID, title, artist))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to create song: %w", err)
	}

	span.SetAttributes(attribute.Int64("song.id", song.ID))
	return song, nil
}

// GetSong retrieves one of the user's songs by ID
func (db *DB) GetSong(ctx context.Context, userID, songID int64) (*models.Song, error) {
	ctx, span := tracer.Start(ctx, "db.get_song",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("song.id", songID),
		))
	defer span.End()

	query := `SELECT ` + songColumns + ` FROM songs WHERE id = $1 AND user_id = $2`

	song, err := scanSong(db.conn.QueryRowContext(ctx, query, songID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSongNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	return song, nil
}

// ListSongs returns all of a user's songs, newest first
func (db *DB) ListSongs(ctx context.Context, userID int64) ([]models.Song, error) {
	ctx, span := tracer.Start(ctx, "db.list_songs",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	var songs []models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}

	span.SetAttributes(attribute.Int("songs.count", len(songs)))
	return songs, nil
}

// GetSongsByIDs returns the user's songs matching the given IDs, keyed by
// song ID. Missing IDs are simply absent from the map.
func (db *DB) GetSongsByIDs(ctx context.Context, userID int64, songIDs []int64) (map[int64]models.Song, error) {
	ctx, span := tracer.Start(ctx, "db.get_songs_by_ids",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int("songs.requested", len(songIDs)),
		))
	defer span.End()

	result := make(map[int64]models.Song, len(songIDs))
	if len(songIDs) == 0 {
		return result, nil
	}

	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = $1 AND id = ANY($2)`

	rows, err := db.conn.QueryContext(ctx, query, userID, pq.Array(songIDs))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get songs by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		result[song.ID] = *song
	}
	if err = rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}

	return result, nil
}

// UpdateSong updates a song's title and artist
func (db *DB) UpdateSong(ctx context.Context, userID, songID int64, title, artist string) (*models.Song, error) {
	ctx, span := tracer.Start(ctx, "db.update_song",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("song.id", songID),
		))
	defer span.End()

	query := `
		UPDATE songs SET title = $1, artist = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING ` + songColumns

	song, err := scanSong(db.conn.QueryRowContext(ctx, query, title, artist, songID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSongNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to update song: %w", err)
	}

	return song, nil
}

// UpdateSongCoverURL sets the song's cover art URL after an upload
func (db *DB) UpdateSongCoverURL(ctx context.Context, userID, songID int64, coverURL string) error {
	ctx, span := tracer.Start(ctx, "db.update_song_cover_url",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("song.id", songID),
		))
	defer span.End()

	query := `UPDATE songs SET cover_url = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`

	result, err := db.conn.ExecContext(ctx, query, coverURL, songID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to update song cover URL: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSongNotFound
	}

	return nil
}

// DeleteSong removes a song; practice sessions referencing it keep their
// rows with song_id set NULL (see migration schema)
func (db *DB) DeleteSong(ctx context.Context, userID, songID int64) error {
	ctx, span := tracer.Start(ctx, "db.delete_song",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("song.id", songID),
		))
	defer span.End()

	query := `DELETE FROM songs WHERE id = $1 AND user_id = $2`

	result, err := db.conn.ExecContext(ctx, query, songID, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to delete song: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrSongNotFound
	}

	return nil
}

// HasSongs reports whether the user has at least one song in their library
func (db *DB) HasSongs(ctx context.Context, userID int64) (bool, error) {
	ctx, span := tracer.Start(ctx, "db.has_songs",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM songs WHERE user_id = $1)`
	if err := db.conn.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("failed to check songs: %w", err)
	}

	return exists, nil
}
