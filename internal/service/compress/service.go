package compress

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"

	"pdfpress/internal/common"
	"pdfpress/internal/compression"
	"pdfpress/internal/database"
	"pdfpress/internal/ghostscript"
	"pdfpress/internal/pipeline"
)

var (
	// ErrJobNotFound indicates an unknown job ID.
	ErrJobNotFound = errors.New("job not found")

	// ErrFileTooLarge indicates the upload exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotPDF indicates the upload is not a PDF file.
	ErrNotPDF = errors.New("uploaded file is not a PDF")
)

// toolGate is the availability precondition for the external tool.
type toolGate interface {
	EnsureAvailable() error
	Locate() (string, bool)
}

// runner executes one compression job over staged temporary files.
type runner interface {
	Run(ctx context.Context, data []byte, preset compression.Preset) (*pipeline.Result, error)
}

// uploadGate applies the time-based upload restriction policy.
type uploadGate interface {
	Check() error
}

// limiter bounds concurrent external tool invocations.
type limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

// historyStore persists job outcomes.
type historyStore interface {
	SaveRecord(record *database.CompressionRecord) error
	GetRecord(id string) (*database.CompressionRecord, error)
	RecentRecords(limit int) ([]database.CompressionRecord, error)
	Stats() (*database.Stats, error)
}

// JobResult is the user-facing outcome of a completed compression job.
type JobResult struct {
	ID                  string  `json:"id"`
	Filename            string  `json:"filename"`
	DownloadName        string  `json:"download_name"`
	Preset              string  `json:"preset"`
	OriginalSize        int64   `json:"original_size"`
	CompressedSize      int64   `json:"compressed_size"`
	OriginalSizeHuman   string  `json:"original_size_human"`
	CompressedSizeHuman string  `json:"compressed_size_human"`
	Ratio               float64 `json:"ratio"`
	ElapsedMs           int64   `json:"elapsed_ms"`
}

// ToolStatus describes the external tool environment dependency.
type ToolStatus struct {
	Available   bool   `json:"available"`
	BinPath     string `json:"bin_path,omitempty"`
	InstallHint string `json:"install_hint,omitempty"`
}

// Service orchestrates one compression job per request: availability gate,
// upload policy, bounded invocation, pipeline run and history persistence.
type Service struct {
	gate     toolGate
	window   uploadGate
	limiter  limiter
	pipeline runner
	store    historyStore
	maxBytes int64
}

// NewService creates a compression service.
func NewService(gate toolGate, window uploadGate, lim limiter, p runner, store historyStore, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = common.MaxUploadBytes
	}
	return &Service{
		gate:     gate,
		window:   window,
		limiter:  lim,
		pipeline: p,
		store:    store,
		maxBytes: maxBytes,
	}
}

// validateUpload enforces the upload boundary constraints before any
// temporary file is created.
func (s *Service) validateUpload(filename string, data []byte) error {
	if int64(len(data)) > s.maxBytes {
		return fmt.Errorf("%w: maximum size is %s", ErrFileTooLarge, common.FormatBytes(s.maxBytes))
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return ErrNotPDF
	}
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), "%PDF-") {
		return ErrNotPDF
	}
	return nil
}

// Compress runs one compression job end to end and records its outcome.
// The availability gate and upload policy fire before any upload processing.
func (s *Service) Compress(ctx context.Context, filename string, data []byte, presetName string) (*JobResult, error) {
	if err := s.gate.EnsureAvailable(); err != nil {
		return nil, err
	}
	if err := s.window.Check(); err != nil {
		return nil, err
	}
	if err := s.validateUpload(filename, data); err != nil {
		return nil, err
	}

	preset, err := compression.ParsePreset(presetName)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	jobID := common.GenerateUUID()
	result, err := s.pipeline.Run(ctx, data, preset)
	if err != nil {
		s.record(&database.CompressionRecord{
			ID:           jobID,
			Filename:     filename,
			Preset:       string(preset),
			OriginalSize: int64(len(data)),
			Status:       database.StatusFailed,
			Error:        err.Error(),
		})
		return nil, err
	}

	s.record(&database.CompressionRecord{
		ID:             jobID,
		Filename:       filename,
		Preset:         string(preset),
		OriginalSize:   result.OriginalSize,
		CompressedSize: result.CompressedSize,
		Ratio:          result.Ratio,
		DurationMs:     result.Elapsed.Milliseconds(),
		Status:         database.StatusCompleted,
		Payload:        result.Output,
	})

	return &JobResult{
		ID:                  jobID,
		Filename:            filename,
		DownloadName:        downloadName(filename),
		Preset:              string(preset),
		OriginalSize:        result.OriginalSize,
		CompressedSize:      result.CompressedSize,
		OriginalSizeHuman:   common.FormatBytes(result.OriginalSize),
		CompressedSizeHuman: common.FormatBytes(result.CompressedSize),
		Ratio:               result.Ratio,
		ElapsedMs:           result.Elapsed.Milliseconds(),
	}, nil
}

// record persists a job outcome; history failures are logged, not fatal to
// the request.
func (s *Service) record(rec *database.CompressionRecord) {
	rec.CreatedAt = time.Now()
	if err := s.store.SaveRecord(rec); err != nil {
		zlog.Logger.Err(err).Str("job_id", rec.ID).Msg("failed to save compression record")
	}
}

// Job returns the stored metadata for a job.
func (s *Service) Job(id string) (*database.CompressionRecord, error) {
	rec, err := s.store.GetRecord(id)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Download returns the compressed payload and the download filename for a
// completed job.
func (s *Service) Download(id string) (string, []byte, error) {
	rec, err := s.Job(id)
	if err != nil {
		return "", nil, err
	}
	if rec.Status != database.StatusCompleted || len(rec.Payload) == 0 {
		return "", nil, ErrJobNotFound
	}
	return downloadName(rec.Filename), rec.Payload, nil
}

// Recent returns the most recent job records.
func (s *Service) Recent(limit int) ([]database.CompressionRecord, error) {
	return s.store.RecentRecords(limit)
}

// Stats returns the aggregate job history.
func (s *Service) Stats() (*database.Stats, error) {
	return s.store.Stats()
}

// Status reports the external tool environment dependency.
func (s *Service) Status() ToolStatus {
	path, ok := s.gate.Locate()
	status := ToolStatus{Available: ok, BinPath: path}
	if !ok {
		status.InstallHint = ghostscript.InstallHint(runtime.GOOS)
	}
	return status
}

func downloadName(original string) string {
	return "compressed_" + filepath.Base(original)
}
