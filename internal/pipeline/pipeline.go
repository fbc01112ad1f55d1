package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wb-go/wbf/zlog"

	"pdfpress/internal/common"
	"pdfpress/internal/compression"
)

// Invoker runs the external compression tool over staged temporary files.
type Invoker interface {
	Compress(ctx context.Context, inputPath, outputPath string, preset compression.Preset) error
}

// SizeMeasurementError indicates that before/after sizes could not be
// measured, including the zero-byte input case that would otherwise divide
// by zero when computing the reduction ratio.
type SizeMeasurementError struct {
	Reason string
}

func (e *SizeMeasurementError) Error() string {
	return fmt.Sprintf("size measurement failed: %s", e.Reason)
}

// Result holds the measured outcome of one compression job. Output is read
// back before cleanup removes the temporary files.
type Result struct {
	OriginalSize   int64
	CompressedSize int64
	Ratio          float64
	Elapsed        time.Duration
	Output         []byte
}

// Pipeline stages uploaded bytes into scoped temporary files, invokes the
// external tool, measures before/after sizes and guarantees cleanup of both
// temporary files on every exit path.
type Pipeline struct {
	invoker Invoker
	tempDir string
	clock   Clock
}

// New creates a pipeline writing its temporary artifacts under tempDir.
// An empty tempDir falls back to the OS default.
func New(invoker Invoker, tempDir string, clock Clock) *Pipeline {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pipeline{
		invoker: invoker,
		tempDir: tempDir,
		clock:   clock,
	}
}

// Run executes one compression job: stage data to a unique temporary input
// file, invoke the tool with the chosen preset, measure sizes and compute
// the reduction ratio. Both temporary files are removed before Run returns,
// whether it succeeds or fails.
func (p *Pipeline) Run(ctx context.Context, data []byte, preset compression.Preset) (*Result, error) {
	if len(data) == 0 {
		return nil, &SizeMeasurementError{Reason: "input is empty"}
	}

	inputPath, err := p.stage(data)
	if err != nil {
		return nil, fmt.Errorf("stage upload: %w", err)
	}
	outputPath := filepath.Join(p.tempDir, "pdfpress-out-"+common.GenerateUUID()+".pdf")

	defer func() {
		removeIfExists(inputPath)
		removeIfExists(outputPath)
	}()

	start := p.clock.Now()
	if err := p.invoker.Compress(ctx, inputPath, outputPath, preset); err != nil {
		return nil, err
	}
	elapsed := p.clock.Now().Sub(start)

	originalSize := int64(len(data))
	outInfo, err := os.Stat(outputPath)
	if err != nil {
		return nil, &SizeMeasurementError{Reason: fmt.Sprintf("output file missing after invocation: %v", err)}
	}
	compressedSize := outInfo.Size()

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, &SizeMeasurementError{Reason: fmt.Sprintf("output file unreadable: %v", err)}
	}

	return &Result{
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Ratio:          Ratio(originalSize, compressedSize),
		Elapsed:        elapsed,
		Output:         output,
	}, nil
}

// Ratio computes the size reduction percentage. Callers must guard the
// zero-original case; a zero original yields 0 here rather than NaN.
func Ratio(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return (1 - float64(compressedSize)/float64(originalSize)) * 100
}

// stage persists the uploaded bytes to a new unique temporary file.
func (p *Pipeline) stage(data []byte) (string, error) {
	f, err := os.CreateTemp(p.tempDir, "pdfpress-in-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		zlog.Logger.Warn().Err(err).Str("path", path).Msg("failed to remove temporary file")
	}
}
