package handlers

import (
	"errors"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/openscol/messagerie/internal/api/middleware"
	"github.com/openscol/messagerie/internal/api/response"
	apperrors "github.com/openscol/messagerie/internal/errors"
	"github.com/openscol/messagerie/internal/logger"
	"github.com/openscol/messagerie/internal/models"
	"github.com/openscol/messagerie/internal/repository"
	"github.com/openscol/messagerie/internal/storage"
)

// UploadHandler handles inline image uploads and serving
type UploadHandler struct {
	imageRepo   repository.InlineImageRepository
	fileStorage storage.FileStorage
	secLog      *logger.SecurityLogger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(imageRepo repository.InlineImageRepository, fileStorage storage.FileStorage, secLog *logger.SecurityLogger) *UploadHandler {
	return &UploadHandler{
		imageRepo:   imageRepo,
		fileStorage: fileStorage,
		secLog:      secLog,
	}
}

// InlineImage handles POST /api/uploads/inline-image.
// Validation runs before anything is written: image MIME type only and
// at most storage.MaxInlineImageBytes.
func (h *UploadHandler) InlineImage(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "file is required")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if err := storage.ValidateInlineImage(mimeType, fileHeader.Size); err != nil {
		if h.secLog != nil {
			h.secLog.BlockedFileUpload(c.RealIP(), fileHeader.Filename, err.Error())
		}
		switch {
		case errors.Is(err, storage.ErrNotAnImage):
			return response.Error(c, apperrors.ErrUploadNotImage)
		case errors.Is(err, storage.ErrFileTooLarge):
			return response.Error(c, apperrors.ErrUploadTooLarge)
		}
		return response.BadRequest(c, "invalid upload")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return response.InternalError(c, "failed to read upload")
	}
	defer src.Close()

	filePath, err := h.fileStorage.Save(fileHeader.Filename, src)
	if err != nil {
		return response.InternalError(c, "failed to store upload")
	}

	image := &models.InlineImage{
		ID:        uuid.New().String(),
		UserID:    middleware.UserID(c),
		FileName:  fileHeader.Filename,
		MimeType:  mimeType,
		FilePath:  filePath,
		SizeBytes: fileHeader.Size,
	}
	if err := h.imageRepo.Create(c.Request().Context(), image); err != nil {
		_ = h.fileStorage.Delete(filePath)
		return response.InternalError(c, "failed to record upload")
	}

	return response.Created(c, map[string]string{
		"url": "/api/uploads/inline-images/" + image.ID,
	})
}

// ServeInlineImage handles GET /api/uploads/inline-images/:id
func (h *UploadHandler) ServeInlineImage(c echo.Context) error {
	image, err := h.imageRepo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "image not found")
		}
		return response.InternalError(c, "failed to get image")
	}

	file, err := h.fileStorage.Get(image.FilePath)
	if err != nil {
		return response.InternalError(c, "failed to retrieve file")
	}
	defer file.Close()

	c.Response().Header().Set("Content-Type", image.MimeType)
	if image.SizeBytes > 0 {
		c.Response().Header().Set("Content-Length", strconv.FormatInt(image.SizeBytes, 10))
	}

	if _, err := io.Copy(c.Response().Writer, file); err != nil {
		return response.InternalError(c, "failed to send file")
	}
	return nil
}
