package compression

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/wb-go/wbf/zlog"
)

// Compressor invokes Ghostscript to rewrite a PDF at lower quality/size.
type Compressor struct {
	binPath string
	timeout time.Duration
}

// NewCompressor creates a compressor bound to a resolved Ghostscript binary.
// The timeout bounds the worst-case latency of a single invocation; zero
// disables the deadline.
func NewCompressor(binPath string, timeout time.Duration) *Compressor {
	return &Compressor{
		binPath: binPath,
		timeout: timeout,
	}
}

// buildArgs constructs the fixed Ghostscript argument sequence for a preset.
func buildArgs(inputPath, outputPath string, preset Preset) []string {
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=" + preset.Flag(),
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dDetectDuplicateImages=true",
		"-dCompressFonts=true",
		"-dOptimize=true",
		"-sOutputFile=" + outputPath,
		inputPath,
	}
}

// Compress runs Ghostscript synchronously over inputPath and writes the
// result to outputPath. The preset is validated before anything touches the
// filesystem. On nonzero exit the captured stderr text is surfaced through
// an ExternalToolError. The output file is guaranteed to exist only when the
// returned error is nil.
func (c *Compressor) Compress(ctx context.Context, inputPath, outputPath string, preset Preset) error {
	if _, err := ParsePreset(string(preset)); err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binPath, buildArgs(inputPath, outputPath, preset)...)
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("ghostscript timed out after %s: %w", time.Since(start).Round(time.Millisecond), ctxErr)
		}
		return &ExternalToolError{
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return &ExternalToolError{
			Stderr: "ghostscript exited cleanly but produced no output file",
		}
	}

	zlog.Logger.Debug().
		Str("preset", string(preset)).
		Dur("elapsed", time.Since(start)).
		Msg("ghostscript invocation completed")

	return nil
}

// BinPath returns the resolved Ghostscript binary path.
func (c *Compressor) BinPath() string {
	return c.binPath
}
