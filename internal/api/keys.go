package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fretlogapp/fretlog-web/internal/auth"
	"github.com/fretlogapp/fretlog-web/internal/db"
	"github.com/fretlogapp/fretlog-web/internal/logger"
	"github.com/fretlogapp/fretlog-web/internal/models"
)

// CreateAPIKeyRequest is the request body for creating an API key
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// CreateAPIKeyResponse is the response for creating an API key. The raw key
// is only returned once, at creation time.
type CreateAPIKeyResponse struct {
	ID        int64  `json:"id"`
	Key       string `json:"key"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// HandleCreateAPIKey creates a new API key for the authenticated user
func HandleCreateAPIKey(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
		defer cancel()

		userID, ok := auth.GetUserID(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req CreateAPIKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" {
			req.Name = "API Key"
		}

		rawKey, keyHash, err := auth.GenerateAPIKey()
		if err != nil {
			logger.Ctx(ctx).Error("Failed to generate API key", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to generate API key")
			return
		}

		keyID, createdAt, err := database.CreateAPIKey(ctx, userID, keyHash, req.Name)
		if err != nil {
			switch {
			case errors.Is(err, db.ErrAPIKeyNameExists):
				respondError(w, http.StatusConflict, "An API key with this name already exists")
			case errors.Is(err, db.ErrAPIKeyLimitExceeded):
				respondError(w, http.StatusUnprocessableEntity, "API key limit reached")
			default:
				logger.Ctx(ctx).Error("Failed to create API key", "error", err)
				respondError(w, http.StatusInternalServerError, "Failed to create API key")
			}
			return
		}

		respondJSON(w, http.StatusOK, CreateAPIKeyResponse{
			ID:        keyID,
			Key:       rawKey,
			Name:      req.Name,
			CreatedAt: createdAt.Format(time.RFC3339),
		})
	}
}

// HandleListAPIKeys lists all API keys for the authenticated user
func HandleListAPIKeys(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
		defer cancel()

		userID, ok := auth.GetUserID(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		keys, err := database.ListAPIKeys(ctx, userID)
		if err != nil {
			logger.Ctx(ctx).Error("Failed to list API keys", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to list API keys")
			return
		}

		if keys == nil {
			keys = []models.APIKey{}
		}

		respondJSON(w, http.StatusOK, keys)
	}
}

// HandleDeleteAPIKey deletes an API key
func HandleDeleteAPIKey(database *db.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
		defer cancel()

		userID, ok := auth.GetUserID(ctx)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		keyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid key ID")
			return
		}

		if err := database.DeleteAPIKey(ctx, userID, keyID); err != nil {
			if errors.Is(err, db.ErrAPIKeyNotFound) {
				respondError(w, http.StatusNotFound, "API key not found")
				return
			}
			logger.Ctx(ctx).Error("Failed to delete API key", "error", err)
			respondError(w, http.StatusInternalServerError, "Failed to delete API key")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
