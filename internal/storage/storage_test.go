package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	objects    map[string][]byte
	putErr     error
	presignErr error
}

func (f *fakeStorage) PutObject(ctx context.Context, objectKey, contentType string, body []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[objectKey] = body
	return nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://storage.test/" + objectKey + "?expires=" + expires.String(), nil
}

func (f *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(f.objects, objectKey)
	return nil
}

func TestNewObjectKey(t *testing.T) {
	a := NewObjectKey("exports", "", "backup.json")
	b := NewObjectKey("exports", "", "backup.json")
	if a == b {
		t.Error("Expected unique keys")
	}
	if !strings.HasPrefix(a, "exports/local/") || !strings.HasSuffix(a, "/backup.json") {
		t.Errorf("Expected exports/local/<uuid>/backup.json, got %s", a)
	}
	if k := NewObjectKey("exports", "user-1", "f"); !strings.HasPrefix(k, "exports/user-1/") {
		t.Errorf("Expected owner in key, got %s", k)
	}
}

func TestUploadArtifact(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{}}
	link, err := UploadArtifact(context.Background(), store, "k", "application/json", []byte("{}"), 0)
	if err != nil {
		t.Fatalf("Failed to upload: %v", err)
	}
	if string(store.objects["k"]) != "{}" {
		t.Errorf("Expected object stored, got %q", store.objects["k"])
	}
	if !strings.Contains(link.URL, "expires="+DefaultPresignedURLExpiry.String()) {
		t.Errorf("Expected default expiry in URL, got %s", link.URL)
	}

	store.putErr = errors.New("bucket missing")
	if _, err := UploadArtifact(context.Background(), store, "k2", "application/json", nil, time.Minute); err == nil {
		t.Error("Expected upload failure to be returned")
	}
}

func TestUploadArtifactRemovesUnlinkedObject(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{}, presignErr: errors.New("signer unavailable")}
	if _, err := UploadArtifact(context.Background(), store, "k", "application/json", []byte("{}"), time.Minute); err == nil {
		t.Fatal("Expected presign failure to be returned")
	}
	if _, ok := store.objects["k"]; ok {
		t.Error("Expected uploaded object to be deleted after presign failure")
	}
}
