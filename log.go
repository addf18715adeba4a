package dvenv

import (
	"log/slog"

	"github.com/crmtools/dvenv/internal/core"
)

// SetLogger replaces the package-level logger used by dvenv, allowing
// applications to integrate dvenv logging with their own infrastructure.
// The provided logger should already carry any desired attributes; dvenv
// adds none.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with other dvenv operations.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
