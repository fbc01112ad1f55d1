package compression

import (
	"fmt"
	"strings"
)

// InvalidPresetError indicates a requested preset outside the enumerated set.
type InvalidPresetError struct {
	Requested string
}

func (e *InvalidPresetError) Error() string {
	names := make([]string, 0, len(presetDescriptions))
	for _, p := range Presets() {
		names = append(names, string(p))
	}
	return fmt.Sprintf("invalid preset %q: choose one of %s", e.Requested, strings.Join(names, ", "))
}

// ExternalToolError carries the diagnostic output of a failed Ghostscript run.
type ExternalToolError struct {
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ghostscript failed: %s", e.Stderr)
	}
	return fmt.Sprintf("ghostscript failed: %v", e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
