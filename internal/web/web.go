// Package web holds the embedded browser frontend.
package web

import _ "embed"

// IndexHTML is the single-page upload form.
//
//go:embed index.html
var IndexHTML []byte
