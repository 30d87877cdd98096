package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/nextch/chat-engine/internal/store"
)

// PutMediaResponse returns the stored id and the gateway URL that serves
// the blob back to the UI.
type PutMediaResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PutMedia stores a media blob under the caller-generated id. The body is
// the raw blob; metadata rides in query parameters.
func (s *Server) PutMedia(c echo.Context) error {
	id := c.Param("id")
	mimeType := c.Request().Header.Get(echo.HeaderContentType)
	if mimeType == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "content type is required"})
	}

	body := http.MaxBytesReader(c.Response(), c.Request().Body, s.maxUpload)
	blob, err := io.ReadAll(body)
	if err != nil {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "media exceeds upload limit"})
	}

	meta := store.MediaMeta{
		Type:     c.QueryParam("type"),
		MimeType: mimeType,
	}
	meta.Duration, _ = strconv.Atoi(c.QueryParam("duration"))
	meta.Width, _ = strconv.Atoi(c.QueryParam("width"))
	meta.Height, _ = strconv.Atoi(c.QueryParam("height"))

	if _, err := s.mediaRepo.Put(id, blob, meta); err != nil {
		s.logger.WithError(err).Error("failed to store media")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to store media"})
	}
	return c.JSON(http.StatusCreated, PutMediaResponse{ID: id, URL: "/media/" + id})
}

// GetMedia streams a stored blob back for playback or display.
func (s *Server) GetMedia(c echo.Context) error {
	rec, err := s.mediaRepo.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "media not found"})
		}
		s.logger.WithError(err).Error("failed to load media")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load media"})
	}
	return c.Blob(http.StatusOK, rec.Meta.MimeType, rec.Blob)
}

// DeleteMedia removes a stored blob, typically on component teardown.
func (s *Server) DeleteMedia(c echo.Context) error {
	if err := s.mediaRepo.Delete(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "media not found"})
		}
		s.logger.WithError(err).Error("failed to delete media")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete media"})
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// ListMedia returns metadata for all stored blobs.
func (s *Server) ListMedia(c echo.Context) error {
	records, err := s.mediaRepo.ListAll()
	if err != nil {
		s.logger.WithError(err).Error("failed to list media")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list media"})
	}
	if records == nil {
		records = []store.MediaRecord{}
	}
	return c.JSON(http.StatusOK, records)
}
