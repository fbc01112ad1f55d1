package ghostscript

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// DefaultBinary is the executable name tried before any fallback path.
const DefaultBinary = "gs"

// ErrToolUnavailable indicates that no usable Ghostscript binary was found
// on the host.
var ErrToolUnavailable = errors.New("ghostscript not found")

// candidates returns the ordered fallback locations for the given platform.
// Windows installs version the directory name, so those entries are glob
// patterns rather than literal paths.
func candidates(goos string) []string {
	switch goos {
	case "windows":
		return []string{
			`C:\Program Files\gs\gs*\bin\gswin64c.exe`,
			`C:\Program Files\gs\gs*\bin\gswin32c.exe`,
			`C:\Program Files (x86)\gs\gs*\bin\gswin32c.exe`,
		}
	case "darwin":
		return []string{
			"/usr/local/bin/gs",
			"/opt/homebrew/bin/gs",
		}
	default:
		return []string{
			"/usr/bin/gs",
			"/usr/local/bin/gs",
		}
	}
}

// Locator resolves the path of the Ghostscript executable. The probes are
// injectable so candidate ranking can be tested without touching the OS.
type Locator struct {
	goos       string
	override   string
	runVersion func(name string) error
	stat       func(path string) error
	glob       func(pattern string) ([]string, error)
}

// Option configures a Locator.
type Option func(*Locator)

// WithBinaryOverride pins the locator to an operator-configured path,
// skipping discovery entirely when set.
func WithBinaryOverride(path string) Option {
	return func(l *Locator) { l.override = path }
}

// NewLocator creates a locator using real OS probes.
func NewLocator(opts ...Option) *Locator {
	l := &Locator{
		goos: runtime.GOOS,
		runVersion: func(name string) error {
			return exec.Command(name, "--version").Run()
		},
		stat: func(path string) error {
			_, err := os.Stat(path)
			return err
		},
		glob: filepath.Glob,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Locate resolves the Ghostscript executable. It first attempts the default
// executable name, then walks the platform candidate list and returns the
// first path that exists. The second return value is false when nothing was
// found; Locate never errors.
func (l *Locator) Locate() (string, bool) {
	if l.override != "" {
		if l.stat(l.override) == nil {
			return l.override, true
		}
		return "", false
	}

	if l.runVersion(DefaultBinary) == nil {
		return DefaultBinary, true
	}

	for _, candidate := range candidates(l.goos) {
		paths := []string{candidate}
		if l.goos == "windows" {
			matches, err := l.glob(candidate)
			if err != nil {
				continue
			}
			paths = matches
		}

		for _, path := range paths {
			if l.stat(path) == nil {
				return path, true
			}
		}
	}

	return "", false
}

// EnsureAvailable fails with ErrToolUnavailable when no Ghostscript binary
// can be resolved. Callers are expected to halt before any upload processing.
func (l *Locator) EnsureAvailable() error {
	if _, ok := l.Locate(); !ok {
		return ErrToolUnavailable
	}
	return nil
}

// InstallHint returns installation guidance for the given platform family.
func InstallHint(goos string) string {
	switch goos {
	case "windows":
		return "Download Ghostscript from https://www.ghostscript.com and ensure it is on PATH"
	case "darwin":
		return "Install Ghostscript with: brew install ghostscript"
	default:
		return "Install Ghostscript with: sudo apt-get install ghostscript"
	}
}
