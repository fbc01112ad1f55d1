package compress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"pdfpress/internal/api/respond"
	"pdfpress/internal/common"
	"pdfpress/internal/compression"
	"pdfpress/internal/database"
	"pdfpress/internal/ghostscript"
	"pdfpress/internal/pipeline"
	"pdfpress/internal/policy"
	compsvc "pdfpress/internal/service/compress"
	"pdfpress/internal/web"
)

// service defines the interface for compression job operations.
type service interface {
	Compress(ctx context.Context, filename string, data []byte, preset string) (*compsvc.JobResult, error)
	Job(id string) (*database.CompressionRecord, error)
	Download(id string) (string, []byte, error)
	Recent(limit int) ([]database.CompressionRecord, error)
	Stats() (*database.Stats, error)
	Status() compsvc.ToolStatus
}

// Handler provides HTTP handlers for the compression endpoints.
type Handler struct {
	service  service
	maxBytes int64
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = common.MaxUploadBytes
	}
	return &Handler{service: s, maxBytes: maxBytes}
}

// Index serves the upload form.
func (h *Handler) Index(c *ginext.Context) {
	respond.HTML(c, http.StatusOK, web.IndexHTML)
}

// Compress handles the upload request: it reads the multipart form, runs a
// compression job synchronously and responds with the job's measurements and
// download URL.
func (h *Handler) Compress(c *ginext.Context) {
	if err := c.Request.ParseMultipartForm(h.maxBytes); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("parse multipart form failed: %v", err))
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to retrieve uploaded file")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to retrieve the file"))
		return
	}
	defer file.Close()

	// Cheap rejection before buffering the whole upload.
	if header.Size > h.maxBytes {
		respond.Fail(c, http.StatusRequestEntityTooLarge,
			fmt.Errorf("file too large: maximum size is %s", common.FormatBytes(h.maxBytes)))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to read uploaded file")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to read the file"))
		return
	}

	preset := c.PostForm("preset")
	if preset == "" {
		preset = common.DefaultPreset
	}

	result, err := h.service.Compress(c.Request.Context(), header.Filename, data, preset)
	if err != nil {
		zlog.Logger.Err(err).Str("filename", header.Filename).Str("preset", preset).Msg("compression job failed")
		respond.Fail(c, statusFor(err), err)
		return
	}

	zlog.Logger.Info().
		Str("job_id", result.ID).
		Str("preset", result.Preset).
		Int64("original_size", result.OriginalSize).
		Int64("compressed_size", result.CompressedSize).
		Msg("compression job completed")

	respond.OK(c, map[string]interface{}{
		"id":                    result.ID,
		"filename":              result.Filename,
		"download_name":         result.DownloadName,
		"download_url":          "/api/jobs/" + result.ID + "/download",
		"preset":                result.Preset,
		"original_size":         result.OriginalSize,
		"compressed_size":       result.CompressedSize,
		"original_size_human":   result.OriginalSizeHuman,
		"compressed_size_human": result.CompressedSizeHuman,
		"ratio":                 result.Ratio,
		"elapsed_ms":            result.ElapsedMs,
	})
}

// Job returns metadata about a job without serving the file itself.
func (h *Handler) Job(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing id"))
		return
	}

	rec, err := h.service.Job(id)
	if err != nil {
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.OK(c, rec)
}

// Download serves the compressed bytes for a completed job.
func (h *Handler) Download(c *ginext.Context) {
	id := c.Param("id")
	if id == "" {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("missing id"))
		return
	}

	name, payload, err := h.service.Download(id)
	if err != nil {
		respond.Fail(c, statusFor(err), err)
		return
	}

	respond.PDF(c, http.StatusOK, name, payload)
}

// Recent lists the most recent jobs.
func (h *Handler) Recent(c *ginext.Context) {
	records, err := h.service.Recent(20)
	if err != nil {
		respond.Fail(c, http.StatusInternalServerError, err)
		return
	}
	respond.OK(c, records)
}

// Status reports tool availability and aggregate history.
func (h *Handler) Status(c *ginext.Context) {
	status := h.service.Status()

	stats, err := h.service.Stats()
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to compute stats")
		respond.Fail(c, http.StatusInternalServerError, err)
		return
	}

	respond.OK(c, map[string]interface{}{
		"tool":  status,
		"stats": stats,
	})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var invalidPreset *compression.InvalidPresetError
	var toolErr *compression.ExternalToolError
	var sizeErr *pipeline.SizeMeasurementError

	switch {
	case errors.Is(err, ghostscript.ErrToolUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, policy.ErrUploadsRestricted):
		return http.StatusForbidden
	case errors.Is(err, compsvc.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, compsvc.ErrNotPDF):
		return http.StatusBadRequest
	case errors.Is(err, compsvc.ErrJobNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalidPreset):
		return http.StatusBadRequest
	case errors.As(err, &toolErr):
		return http.StatusBadGateway
	case errors.As(err, &sizeErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
