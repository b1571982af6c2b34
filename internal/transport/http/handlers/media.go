package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/services/media"
	"github.com/maxjeon97/friender/internal/services/users"
	"github.com/maxjeon97/friender/internal/transport/http/dto"
	apierrors "github.com/maxjeon97/friender/internal/transport/http/errors"
)

const maxUploadBytes = 6 << 20

type MediaService interface {
	UploadPhoto(ctx context.Context, username string, reader io.Reader, size int64, contentType string) (string, error)
}

type MediaHandler struct {
	media  MediaService
	logger *zap.Logger
}

func NewMediaHandler(mediaSvc MediaService, logger *zap.Logger) *MediaHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{media: mediaSvc, logger: logger}
}

// UploadPhoto accepts a multipart form with a single "photo" part and sets
// it as the caller's profile photo.
func (h *MediaHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	identity, ok := requesterFrom(r)
	if !ok {
		apierrors.Write(w, apierrors.Unauthorized())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		apierrors.Write(w, apierrors.Validation("multipart form with a photo part is required"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		apierrors.Write(w, apierrors.Validation("photo part is required"))
		return
	}
	defer file.Close()

	photoURL, err := h.media.UploadPhoto(
		r.Context(),
		identity.Username,
		file,
		header.Size,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrValidation):
			apierrors.Write(w, apierrors.Validation(err.Error()))
		case errors.Is(err, users.ErrNotFound):
			apierrors.Write(w, apierrors.NotFound("user not found"))
		default:
			writeInternal(w, h.logger, err)
		}
		return
	}

	writeJSON(w, h.logger, http.StatusOK, dto.PhotoResponse{PhotoURL: photoURL})
}
