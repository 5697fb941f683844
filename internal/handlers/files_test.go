package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/store"
)

// fakeFileStore is an in-memory Store covering the file handlers. Unused
// Store methods panic through the embedded nil interface.
type fakeFileStore struct {
	store.Store
	files map[uuid.UUID]*models.File
}

func (s *fakeFileStore) GetFile(ctx context.Context, id uuid.UUID) (*models.File, error) {
	return s.files[id], nil
}

func (s *fakeFileStore) DeleteFile(ctx context.Context, id uuid.UUID) error {
	delete(s.files, id)
	return nil
}

// failingObjects fails Remove for one path and succeeds otherwise.
type failingObjects struct {
	failPath string
	removed  []string
}

func (f *failingObjects) Put(ctx context.Context, path string, data []byte, contentType string) error {
	return nil
}

func (f *failingObjects) Get(ctx context.Context, path string) (io.ReadCloser, string, error) {
	return io.NopCloser(bytes.NewReader(nil)), "application/octet-stream", nil
}

func (f *failingObjects) Remove(ctx context.Context, path string) error {
	if path == f.failPath {
		return fmt.Errorf("remove %s: connection reset", path)
	}
	f.removed = append(f.removed, path)
	return nil
}

func TestDeleteFilesBestEffort(t *testing.T) {
	userID := uuid.New()
	good := &models.File{ID: uuid.New(), UserID: userID, Path: "uploads/u/good.png"}
	bad := &models.File{ID: uuid.New(), UserID: userID, Path: "uploads/u/bad.png"}

	st := &fakeFileStore{files: map[uuid.UUID]*models.File{
		good.ID: good,
		bad.ID:  bad,
	}}
	objects := &failingObjects{failPath: bad.Path}
	h := NewHandler(st, objects, nil, nil, nil, nil, nil, zerolog.Nop())

	body, _ := json.Marshal(DeleteFilesRequest{IDs: []uuid.UUID{good.ID, bad.ID}})
	req := httptest.NewRequest("DELETE", "/api/files", bytes.NewReader(body))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &models.User{ID: userID}))
	rec := httptest.NewRecorder()

	h.DeleteFiles(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", rec.Code)
	}
	var resp DeleteFilesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Deleted) != 1 || resp.Deleted[0] != good.ID.String() {
		t.Fatalf("expected only the good file in deleted, got %v", resp.Deleted)
	}
	if _, ok := resp.Failed[bad.ID.String()]; !ok {
		t.Fatalf("expected the bad file in failed, got %v", resp.Failed)
	}

	// Database records go even when storage removal fails.
	if len(st.files) != 0 {
		t.Fatalf("expected both records deleted, %d remain", len(st.files))
	}
}

func TestDeleteFilesAllSucceed(t *testing.T) {
	userID := uuid.New()
	file := &models.File{ID: uuid.New(), UserID: userID, Path: "uploads/u/a.png"}
	st := &fakeFileStore{files: map[uuid.UUID]*models.File{file.ID: file}}
	h := NewHandler(st, &failingObjects{}, nil, nil, nil, nil, nil, zerolog.Nop())

	body, _ := json.Marshal(DeleteFilesRequest{IDs: []uuid.UUID{file.ID}})
	req := httptest.NewRequest("DELETE", "/api/files", bytes.NewReader(body))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &models.User{ID: userID}))
	rec := httptest.NewRecorder()

	h.DeleteFiles(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp DeleteFilesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Failed != nil {
		t.Fatalf("expected no failures, got %v", resp.Failed)
	}
}

func TestDeleteFilesIgnoresOtherUsers(t *testing.T) {
	owner := uuid.New()
	file := &models.File{ID: uuid.New(), UserID: owner, Path: "uploads/u/a.png"}
	st := &fakeFileStore{files: map[uuid.UUID]*models.File{file.ID: file}}
	h := NewHandler(st, &failingObjects{}, nil, nil, nil, nil, nil, zerolog.Nop())

	body, _ := json.Marshal(DeleteFilesRequest{IDs: []uuid.UUID{file.ID}})
	req := httptest.NewRequest("DELETE", "/api/files", bytes.NewReader(body))
	req = req.WithContext(middleware.ContextWithUser(req.Context(), &models.User{ID: uuid.New()}))
	rec := httptest.NewRecorder()

	h.DeleteFiles(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", rec.Code)
	}
	if _, ok := st.files[file.ID]; !ok {
		t.Fatal("another user's file must not be deleted")
	}
}
