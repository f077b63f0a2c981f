package storage_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fretlogapp/fretlog-web/internal/storage"
	"github.com/fretlogapp/fretlog-web/internal/testutil"
)

func TestCoverRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := env.Ctx

	data := []byte("\xff\xd8\xff\xe0fake-jpeg-bytes")

	url, err := env.Storage.UploadCover(ctx, 1, 42, "image/jpeg", data)
	if err != nil {
		t.Fatalf("UploadCover failed: %v", err)
	}
	if !strings.HasSuffix(url, "/1/covers/42.jpg") {
		t.Errorf("unexpected cover URL: %s", url)
	}

	downloaded, err := env.Storage.DownloadCover(ctx, "1/covers/42.jpg")
	if err != nil {
		t.Fatalf("DownloadCover failed: %v", err)
	}
	if !bytes.Equal(downloaded, data) {
		t.Error("downloaded cover does not match uploaded bytes")
	}

	// Re-upload replaces the object under the same key
	replacement := []byte("\xff\xd8\xff\xe0replacement-bytes")
	if _, err := env.Storage.UploadCover(ctx, 1, 42, "image/jpeg", replacement); err != nil {
		t.Fatalf("UploadCover replacement failed: %v", err)
	}
	downloaded, err = env.Storage.DownloadCover(ctx, "1/covers/42.jpg")
	if err != nil {
		t.Fatalf("DownloadCover after replacement failed: %v", err)
	}
	if !bytes.Equal(downloaded, replacement) {
		t.Error("expected replacement bytes after re-upload")
	}
}

func TestUploadCover_UnsupportedType_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)

	_, err := env.Storage.UploadCover(env.Ctx, 1, 1, "image/gif", []byte("GIF89a"))
	if !errors.Is(err, storage.ErrUnsupportedImageType) {
		t.Errorf("expected ErrUnsupportedImageType, got %v", err)
	}
}

func TestDeleteUserCovers_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	ctx := env.Ctx

	for songID := int64(1); songID <= 3; songID++ {
		if _, err := env.Storage.UploadCover(ctx, 5, songID, "image/png", []byte("png-bytes")); err != nil {
			t.Fatalf("UploadCover failed: %v", err)
		}
	}
	// Another user's cover must survive the sweep
	if _, err := env.Storage.UploadCover(ctx, 6, 1, "image/png", []byte("png-bytes")); err != nil {
		t.Fatalf("UploadCover failed: %v", err)
	}

	if err := env.Storage.DeleteUserCovers(ctx, 5); err != nil {
		t.Fatalf("DeleteUserCovers failed: %v", err)
	}

	for songID := int64(1); songID <= 3; songID++ {
		key := fmt.Sprintf("5/covers/%d.png", songID)
		if _, err := env.Storage.DownloadCover(ctx, key); !errors.Is(err, storage.ErrObjectNotFound) {
			t.Errorf("expected ErrObjectNotFound for %s, got %v", key, err)
		}
	}

	if _, err := env.Storage.DownloadCover(ctx, "6/covers/1.png"); err != nil {
		t.Errorf("other user's cover should survive, got %v", err)
	}
}
