// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
//   - templates/ - server-rendered dashboard pages (html/template)
//   - static/    - stylesheet served under /static/
//
//go:embed templates static
var Files embed.FS
