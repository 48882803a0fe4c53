package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mediaforge/renditions/cmd/renditions/models"
	"github.com/mediaforge/renditions/cmd/renditions/repository"
	"github.com/mediaforge/renditions/cmd/renditions/service"
	"github.com/mediaforge/renditions/common/attachment"
	"github.com/mediaforge/renditions/common/imaging"
)

// maxUploadBytes caps a single uploaded image
const maxUploadBytes = 50 << 20 // 50 MB

// MediaHandler handles media upload and retrieval requests
type MediaHandler struct {
	media *service.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(media *service.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

type mediaResponse struct {
	*models.MediaRecord
	URLs *attachment.URLSet `json:"urls,omitempty"`
}

// Upload stores a new image and its renditions
// POST /api/v1/media
func (h *MediaHandler) Upload(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	buf, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	if len(buf) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	opts := uploadOptions(c)

	media, err := h.media.Upload(c.Request().Context(), fileHeader.Filename, buf, opts...)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusCreated, mediaResponse{MediaRecord: media})
}

// Get returns a media record with its computed URLs
// GET /api/v1/media/:id
func (h *MediaHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media id")
	}

	media, urls, err := h.media.Get(c.Request().Context(), id)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, mediaResponse{MediaRecord: media, URLs: urls})
}

// Replace swaps the stored image for a new one
// PUT /api/v1/media/:id
func (h *MediaHandler) Replace(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer src.Close()

	buf, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read uploaded file")
	}
	if len(buf) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	media, err := h.media.Replace(c.Request().Context(), id, fileHeader.Filename, buf, uploadOptions(c)...)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, mediaResponse{MediaRecord: media})
}

// Delete removes a media record and its renditions
// DELETE /api/v1/media/:id
func (h *MediaHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid media id")
	}

	if err := h.media.Delete(c.Request().Context(), id); err != nil {
		return mapServiceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// List returns stored media newest first
// GET /api/v1/media
func (h *MediaHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	records, err := h.media.List(c.Request().Context(), limit, offset)
	if err != nil {
		return mapServiceError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"media": records,
		"count": len(records),
	})
}

// uploadOptions reads per-request overrides from form fields
func uploadOptions(c echo.Context) []attachment.Option {
	var opts []attachment.Option

	if folder := c.FormValue("folder"); folder != "" {
		opts = append(opts, attachment.WithFolder(folder))
	}
	if disk := c.FormValue("disk"); disk != "" {
		opts = append(opts, attachment.WithDisk(disk))
	}
	if c.FormValue("blurhash") == "true" {
		opts = append(opts, attachment.WithBlurhash(imaging.BlurhashOptions{Enabled: true}))
	}
	if c.FormValue("keep_original") == "false" {
		opts = append(opts, attachment.WithKeepOriginal(false))
	}

	return opts
}

// mapServiceError translates domain errors to HTTP responses
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, repository.ErrMediaNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "media not found")
	case errors.Is(err, service.ErrValidationFailed):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, attachment.ErrNoFile):
		return echo.NewHTTPError(http.StatusBadRequest, "no file supplied")
	case errors.Is(err, attachment.ErrInvalidSource), errors.Is(err, attachment.ErrUnsupportedFormat):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported image format")
	default:
		return err
	}
}
