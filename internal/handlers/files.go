package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/joeychilson/chat/internal/api/middleware"
	"github.com/joeychilson/chat/internal/models"
	"github.com/joeychilson/chat/internal/storage"
)

const maxUploadSize = 20 << 20 // 20 MiB

// FileResponse represents an uploaded file in API responses.
type FileResponse struct {
	File *models.File `json:"file"`
	URL  string       `json:"url"`
}

// UploadFile handles a multipart file upload.
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	src, header, err := r.FormFile("file")
	if err != nil {
		h.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	if len(data) > maxUploadSize {
		h.Error(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	objectPath := fmt.Sprintf("uploads/%s/%s%s", user.ID, uuid.NewString(), path.Ext(header.Filename))
	if err := h.objects.Put(r.Context(), objectPath, data, contentType); err != nil {
		h.logger.Error().Err(err).Str("path", objectPath).Msg("upload to object storage failed")
		h.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	file := &models.File{
		ID:        uuid.New(),
		UserID:    user.ID,
		Name:      header.Filename,
		MediaType: contentType,
		Size:      int64(len(data)),
		Path:      objectPath,
	}
	if err := h.store.InsertFile(r.Context(), file); err != nil {
		// The object is now orphaned; record it for cleanup.
		h.logger.Error().Err(err).Str("path", objectPath).Msg("file record insert failed; stored object orphaned")
		h.Error(w, http.StatusInternalServerError, "failed to save file")
		return
	}
	h.JSON(w, http.StatusCreated, FileResponse{File: file, URL: storage.FileURL(objectPath)})
}

// ServeFile streams a stored object back to its owner.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	objectPath := chi.URLParam(r, "*")
	if objectPath == "" {
		h.Error(w, http.StatusBadRequest, "missing file path")
		return
	}
	file, err := h.store.GetFileByPath(r.Context(), objectPath)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if file == nil || file.UserID != user.ID {
		h.Error(w, http.StatusNotFound, "file not found")
		return
	}
	rc, contentType, err := h.objects.Get(r.Context(), objectPath)
	if err != nil {
		h.Error(w, http.StatusNotFound, "file not found")
		return
	}
	defer rc.Close()
	if contentType == "" {
		contentType = file.MediaType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	io.Copy(w, rc)
}

// ListFiles handles listing the user's files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	limit, offset := queryLimit(r, 50, 200)
	files, err := h.store.ListFiles(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to list files")
		return
	}
	if files == nil {
		files = []models.File{}
	}
	h.JSON(w, http.StatusOK, map[string]any{"files": files})
}

// DeleteFilesRequest represents a bulk file deletion.
type DeleteFilesRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// DeleteFilesResponse summarizes a bulk deletion: which ids were removed
// and which failed, with a reason per failure.
type DeleteFilesResponse struct {
	Deleted []string          `json:"deleted"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// DeleteFiles handles bulk deletion. Each file's storage and database
// removal is attempted independently; one failure never rolls back the
// others, and the call reports failure if any item failed.
func (h *Handler) DeleteFiles(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var req DeleteFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		h.Error(w, http.StatusBadRequest, "ids are required")
		return
	}

	resp := DeleteFilesResponse{Failed: map[string]string{}}
	for _, id := range req.IDs {
		file, err := h.store.GetFile(r.Context(), id)
		if err != nil {
			resp.Failed[id.String()] = "database error"
			continue
		}
		if file == nil || file.UserID != user.ID {
			resp.Failed[id.String()] = "not found"
			continue
		}
		if err := h.objects.Remove(r.Context(), file.Path); err != nil {
			h.logger.Error().Err(err).Str("path", file.Path).Msg("failed to remove stored object")
			resp.Failed[id.String()] = "storage removal failed"
			// The database record still goes; the object path is logged
			// above for out-of-band cleanup.
		}
		if err := h.store.DeleteFile(r.Context(), id); err != nil {
			resp.Failed[id.String()] = "database deletion failed"
			continue
		}
		if _, failed := resp.Failed[id.String()]; !failed {
			resp.Deleted = append(resp.Deleted, id.String())
		}
	}

	status := http.StatusOK
	if len(resp.Failed) > 0 {
		status = http.StatusMultiStatus
	} else {
		resp.Failed = nil
	}
	h.JSON(w, status, resp)
}
