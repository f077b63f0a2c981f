package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/models"
	"github.com/fretlogapp/fretlog-web/internal/storage"
	"github.com/fretlogapp/fretlog-web/internal/validation"
)

// handleCreateSong adds a song to the user's library
func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var req models.SaveSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateSong(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	song, err := s.db.CreateSong(ctx, userID, req.Title, req.Artist)
	if err != nil {
		log.Error("Failed to create song", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to create song")
		return
	}

	respondJSON(w, http.StatusCreated, song)
}

// handleListSongs returns the user's song library, newest first
func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	songs, err := s.db.ListSongs(ctx, userID)
	if err != nil {
		log.Error("Failed to list songs", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list songs")
		return
	}

	if songs == nil {
		songs = []models.Song{}
	}

	respondJSON(w, http.StatusOK, songs)
}

// handleUpdateSong renames a song or corrects its artist
func (s *Server) handleUpdateSong(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	songID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	var req models.SaveSongRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validation.ValidateSong(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	song, err := s.db.UpdateSong(ctx, userID, songID, req.Title, req.Artist)
	if err != nil {
		if errors.Is(err, db.ErrSongNotFound) {
			respondError(w, http.StatusNotFound, "Song not found")
			return
		}
		log.Error("Failed to update song", "error", err, "song_id", songID)
		respondError(w, http.StatusInternalServerError, "Failed to update song")
		return
	}

	respondJSON(w, http.StatusOK, song)
}

// handleDeleteSong removes a song. Practice sessions that referenced it
// survive with their song link cleared.
func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	songID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	if err := s.db.DeleteSong(ctx, userID, songID); err != nil {
		if errors.Is(err, db.ErrSongNotFound) {
			respondError(w, http.StatusNotFound, "Song not found")
			return
		}
		log.Error("Failed to delete song", "error", err, "song_id", songID)
		respondError(w, http.StatusInternalServerError, "Failed to delete song")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleUploadSongCover accepts a multipart "cover" file, stores it in
// object storage, and records the public URL on the song
func (s *Server) handleUploadSongCover(w http.ResponseWriter, r *http.Request) {
	log := logger.Ctx(r.Context())

	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	if s.storage == nil {
		respondError(w, http.StatusNotImplemented, "Cover art storage is not configured")
		return
	}

	songID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxCoverSizeBytes+1024)
	if err := r.ParseMultipartForm(storage.MaxCoverSizeBytes); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Cover image too large")
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing cover file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read cover file")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	// Song must exist and belong to the caller before touching storage
	if _, err := s.db.GetSong(ctx, userID, songID); err != nil {
		if errors.Is(err, db.ErrSongNotFound) {
			respondError(w, http.StatusNotFound, "Song not found")
			return
		}
		log.Error("Failed to get song", "error", err, "song_id", songID)
		respondError(w, http.StatusInternalServerError, "Failed to upload cover")
		return
	}

	coverURL, err := s.storage.UploadCover(r.Context(), userID, songID, header.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImageType) {
			respondError(w, http.StatusUnsupportedMediaType, "Cover must be a JPEG, PNG, or WebP image")
			return
		}
		log.Error("Failed to upload cover", "error", err, "song_id", songID)
		respondError(w, http.StatusInternalServerError, "Failed to upload cover")
		return
	}

	if err := s.db.UpdateSongCoverURL(ctx, userID, songID, coverURL); err != nil {
		log.Error("Failed to record cover URL", "error", err, "song_id", songID)
		respondError(w, http.StatusInternalServerError, "Failed to upload cover")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"cover_url": coverURL})
}
