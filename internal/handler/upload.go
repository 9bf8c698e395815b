package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/service"
)

// multipartOverhead is slack for boundaries and part headers on top of the
// image itself.
const multipartOverhead = 64 << 10

type UploadHandler struct {
	files    *service.FileService
	maxBytes int64
	logger   *slog.Logger
}

func NewUploadHandler(files *service.FileService, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{files: files, maxBytes: maxBytes, logger: logger}
}

// HandleUpload stores one image.
//
// HTTP: PUT /upload (multipart/form-data, field "image")
// RESPONSE: 201 {"id": 3, "url": "/uploads/9m4e2mr0ui3e8a215n4g.png"}
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)

	file, _, err := r.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, apperror.ValidationFailed("image", "upload is too large"))
			return
		}
		h.logger.Debug("upload without image part", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("image", "multipart field \"image\" is required"))
		return
	}
	defer file.Close()

	stored, err := h.files.Upload(r.Context(), auth.CallerFromContext(r.Context()), file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}
