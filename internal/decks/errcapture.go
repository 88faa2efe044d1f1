package decks

import (
	"fmt"
	"runtime/debug"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/extraction"
)

// maxErrorLen bounds the error detail persisted on a deck. The stored string
// is read back by status-polling clients, so it must never be unbounded.
const maxErrorLen = 2000

const truncationMarker = "..."

// captureError renders an error as "<Kind>: <message>" followed by the
// current stack, truncated to maxErrorLen with a trailing marker.
func captureError(err error) string {
	if err == nil {
		return ""
	}
	detail := fmt.Sprintf("%s: %s\n%s", extraction.Kind(err), err.Error(), debug.Stack())
	return boundError(detail)
}

func boundError(detail string) string {
	if len(detail) <= maxErrorLen {
		return detail
	}
	return detail[:maxErrorLen-len(truncationMarker)] + truncationMarker
}
