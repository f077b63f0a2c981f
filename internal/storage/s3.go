// Package storage handles S3/MinIO object storage for song cover art.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("fretlog/storage")

// Sentinel errors for storage operations
var (
	// ErrObjectNotFound indicates the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrAccessDenied indicates insufficient permissions for the operation
	ErrAccessDenied = errors.New("access denied")

	// ErrNetworkError indicates a network connectivity issue
	ErrNetworkError = errors.New("network error")

	// ErrUnsupportedImageType indicates the uploaded cover is not an
	// accepted image format
	ErrUnsupportedImageType = errors.New("unsupported image type")
)

// MaxCoverSizeBytes caps cover art uploads at 5 MiB.
const MaxCoverSizeBytes = 5 << 20

// coverExtensions maps accepted cover content types to file extensions.
var coverExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool

	// PublicBaseURL is the externally reachable base URL for stored
	// objects (CDN or MinIO endpoint). Cover URLs are built from it.
	PublicBaseURL string
}

// S3Storage handles object storage operations
type S3Storage struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewS3Storage creates a new S3/MinIO storage client
func NewS3Storage(config S3Config) (*S3Storage, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, ""),
		Secure: config.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	// Verify bucket exists (bucket must be created out-of-band)
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, config.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %q does not exist: create it before starting the server", config.BucketName)
	}

	publicBaseURL := strings.TrimSuffix(config.PublicBaseURL, "/")
	if publicBaseURL == "" {
		scheme := "http"
		if config.UseSSL {
			scheme = "https"
		}
		publicBaseURL = fmt.Sprintf("%s://%s/%s", scheme, config.Endpoint, config.BucketName)
	}

	return &S3Storage{
		client:        client,
		bucket:        config.BucketName,
		publicBaseURL: publicBaseURL,
	}, nil
}

// coverKey builds the object key for a song's cover art.
// Key format: {user_id}/covers/{song_id}.{ext}
func coverKey(userID, songID int64, ext string) string {
	return fmt.Sprintf("%d/covers/%d.%s", userID, songID, ext)
}

// UploadCover stores a song's cover art and returns its public URL.
// Replaces any previous cover stored under the same key.
func (s *S3Storage) UploadCover(ctx context.Context, userID, songID int64, contentType string, data []byte) (string, error) {
	ctx, span := tracer.Start(ctx, "storage.upload_cover",
		trace.WithAttributes(
			attribute.Int64("user.id", userID),
			attribute.Int64("song.id", songID),
			attribute.String("file.content_type", contentType),
			attribute.Int("file.size", len(data)),
		))
	defer span.End()

	ext, ok := coverExtensions[contentType]
	if !ok {
		return "", fmt.Errorf("upload cover: %w (%s)", ErrUnsupportedImageType, contentType)
	}

	key := coverKey(userID, songID, ext)
	reader := bytes.NewReader(data)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", classifyStorageError(err, "upload cover")
	}

	return s.publicBaseURL + "/" + key, nil
}

// DownloadCover retrieves a song's cover art by object key
func (s *S3Storage) DownloadCover(ctx context.Context, key string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "storage.download_cover",
		trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "download cover")
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, classifyStorageError(err, "download cover")
	}

	span.SetAttributes(attribute.Int("file.size", len(data)))
	return data, nil
}

// DeleteUserCovers deletes all cover art stored for a user
func (s *S3Storage) DeleteUserCovers(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "storage.delete_user_covers",
		trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	prefix := fmt.Sprintf("%d/covers/", userID)

	var deletedCount int
	objectCh := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for obj := range objectCh {
		if obj.Err != nil {
			span.RecordError(obj.Err)
			span.SetStatus(codes.Error, obj.Err.Error())
			return classifyStorageError(obj.Err, "list covers")
		}
		err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to delete cover %s: %w", obj.Key, err)
		}
		deletedCount++
	}

	span.SetAttributes(attribute.Int("covers.deleted", deletedCount))
	return nil
}

// classifyStorageError examines a storage error and returns an appropriate sentinel error
func classifyStorageError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Check for MinIO error response
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch minioErr.Code {
		case "NoSuchKey", "NoSuchBucket":
			return fmt.Errorf("%s: %w", operation, ErrObjectNotFound)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%s: %w", operation, ErrAccessDenied)
		}
	}

	// Check for network/connection errors
	errStr := err.Error()
	for _, hint := range []string{"connection", "timeout", "network", "dial", "refused"} {
		if strings.Contains(errStr, hint) {
			return fmt.Errorf("%s network issue: %w", operation, ErrNetworkError)
		}
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}
