// Package version holds build information
package version

import (
	"fmt"
	"io"
	"runtime"

	"github.com/alvarorichard/animestream/internal/tracking"
)

// Set by -ldflags at release time
var (
	Version = "0.1.0"
	Commit  = "none"
	Date    = "unknown"
)

// String returns the one-line version banner
func String() string {
	s := fmt.Sprintf("animestream v%s", Version)
	if tracking.IsCgoEnabled {
		return s + " (with SQLite history)"
	}
	return s + " (without SQLite history)"
}

// Write prints the banner followed by build details
func Write(w io.Writer) {
	_, _ = fmt.Fprintln(w, String())
	_, _ = fmt.Fprintf(w, "Commit: %s\n", Commit)
	_, _ = fmt.Fprintf(w, "Built: %s\n", Date)
	_, _ = fmt.Fprintf(w, "Go: %s\n", runtime.Version())
	_, _ = fmt.Fprintf(w, "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
