package compress

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"pdfpress/internal/compression"
	"pdfpress/internal/concurrency"
	"pdfpress/internal/database"
	"pdfpress/internal/ghostscript"
	"pdfpress/internal/pipeline"
	"pdfpress/internal/policy"
	compsvc "pdfpress/internal/service/compress"
)

// writeFakeGS writes a script standing in for Ghostscript that ignores its
// input and writes a fixed-size output file.
func writeFakeGS(t *testing.T, outputBytes int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}

	script := `#!/bin/sh
out=""
for arg in "$@"; do
  case "$arg" in
    -sOutputFile=*) out="${arg#-sOutputFile=}" ;;
  esac
done
head -c ` + itoa(outputBytes) + ` /dev/zero > "$out"
`
	path := filepath.Join(t.TempDir(), "gs")
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write fake gs: %v", err)
	}
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

type openClock struct{}

// Now reports a time safely outside the restricted window.
func (openClock) Now() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
}

func TestEndToEnd(t *testing.T) {
	const (
		originalSize   = 10 * 1024
		compressedSize = 4 * 1024
	)

	gsPath := writeFakeGS(t, compressedSize)
	tempDir := t.TempDir()

	locator := ghostscript.NewLocator(ghostscript.WithBinaryOverride(gsPath))
	compressor := compression.NewCompressor(gsPath, time.Minute)
	pipe := pipeline.New(compressor, tempDir, nil)
	limiter := concurrency.NewLimiter(2)
	window := policy.NewWindow(openClock{}, 0, 21, true)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "e2e.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	svc := compsvc.NewService(locator, window, limiter, pipe, db, 50*1024*1024)
	r := newTestRouter(svc)

	// Upload a sample PDF with the ebook preset.
	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), originalSize-9)...)
	body, contentType := multipartUpload(t, "sample.pdf", "ebook", content)

	req := httptest.NewRequest(http.MethodPost, "/api/compress", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Result struct {
			ID             string  `json:"id"`
			OriginalSize   int64   `json:"original_size"`
			CompressedSize int64   `json:"compressed_size"`
			Ratio          float64 `json:"ratio"`
			DownloadURL    string  `json:"download_url"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	res := envelope.Result
	if res.OriginalSize != originalSize {
		t.Errorf("Expected original size %d, got %d", originalSize, res.OriginalSize)
	}
	if res.CompressedSize != compressedSize {
		t.Errorf("Expected compressed size %d, got %d", compressedSize, res.CompressedSize)
	}
	if res.Ratio != 60.0 {
		t.Errorf("Expected ratio 60.0, got %v", res.Ratio)
	}

	// Both temporary files must be gone once the response is out.
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected temp dir empty after the job, found %d entries", len(entries))
	}

	// The download must return exactly the tool's output bytes.
	req = httptest.NewRequest(http.MethodGet, res.DownloadURL, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on download, got %d", rec.Code)
	}
	payload, _ := io.ReadAll(rec.Body)
	if len(payload) != compressedSize {
		t.Errorf("Expected %d download bytes, got %d", compressedSize, len(payload))
	}
	if !bytes.Equal(payload, bytes.Repeat([]byte{0}, compressedSize)) {
		t.Error("Expected download bytes to equal the tool output")
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="compressed_sample.pdf"` {
		t.Errorf("Unexpected Content-Disposition: %q", got)
	}

	// The job history must carry the completed record.
	req = httptest.NewRequest(http.MethodGet, "/api/jobs/"+res.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 on job metadata, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(database.StatusCompleted)) {
		t.Error("Expected completed status in job metadata")
	}
}

func TestEndToEnd_ToolFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts require a POSIX shell")
	}

	gsPath := filepath.Join(t.TempDir(), "gs")
	script := "#!/bin/sh\necho 'GPL Ghostscript: Unrecoverable error' >&2\nexit 1\n"
	if err := os.WriteFile(gsPath, []byte(script), 0755); err != nil {
		t.Fatalf("Failed to write fake gs: %v", err)
	}
	tempDir := t.TempDir()

	locator := ghostscript.NewLocator(ghostscript.WithBinaryOverride(gsPath))
	compressor := compression.NewCompressor(gsPath, time.Minute)
	pipe := pipeline.New(compressor, tempDir, nil)
	window := policy.NewWindow(openClock{}, 0, 21, true)

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "e2e.sqlite3"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	svc := compsvc.NewService(locator, window, concurrency.NewLimiter(1), pipe, db, 0)
	r := newTestRouter(svc)

	body, contentType := multipartUpload(t, "broken.pdf", "screen", []byte("%PDF-1.4 broken"))
	req := httptest.NewRequest(http.MethodPost, "/api/compress", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Unrecoverable error")) {
		t.Error("Expected the tool's stderr text in the error message")
	}

	// Cleanup is unconditional on the failure path too.
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected temp dir empty after failed job, found %d entries", len(entries))
	}
}
