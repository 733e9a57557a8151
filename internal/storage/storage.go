package storage

import (
	"context"
	"fmt"
	"log"
	"path"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// ArtifactStorage stores export artifacts in object storage.
type ArtifactStorage interface {
	// PutObject uploads body under objectKey.
	PutObject(ctx context.Context, objectKey, contentType string, body []byte) error

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

// NewObjectKey builds a unique key such as "exports/local/3f2a.../fitnessTrackerBackup.json".
func NewObjectKey(prefix, owner, filename string) string {
	if owner == "" {
		owner = "local"
	}
	return path.Join(prefix, owner, uuid.NewString(), filename)
}

// ExportLink is the result of an artifact upload.
type ExportLink struct {
	ObjectKey string    `json:"objectKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadArtifact stores body and returns a presigned download link for it. An object that
// cannot be linked is deleted again.
func UploadArtifact(ctx context.Context, store ArtifactStorage, objectKey, contentType string, body []byte, expires time.Duration) (ExportLink, error) {
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}
	if err := store.PutObject(ctx, objectKey, contentType, body); err != nil {
		return ExportLink{}, fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}
	url, err := store.GeneratePresignedDownloadURL(ctx, objectKey, expires)
	if err != nil {
		if delErr := store.DeleteObject(ctx, objectKey); delErr != nil {
			log.Printf("WARN: Failed to remove unlinked object %s: %v", objectKey, delErr)
		}
		return ExportLink{}, fmt.Errorf("failed to presign %s: %w", objectKey, err)
	}
	return ExportLink{ObjectKey: objectKey, URL: url, ExpiresAt: time.Now().Add(expires).UTC()}, nil
}
