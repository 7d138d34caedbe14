package formatter

import (
	"github.com/thomsbe/MarcLinkFinc/internal/results"
)

// Formatter defines the interface for different output formats.
// Implementations are responsible for determining the output device (stdout, file, etc.).
type Formatter interface {
	// Format reports a conversion summary.
	Format(summary *results.Summary) error
}
