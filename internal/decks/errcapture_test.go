package decks

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/extraction"
)

func TestCaptureErrorFormat(t *testing.T) {
	err := fmt.Errorf("%w: upstream returned 503", extraction.ErrUpstreamUnavailable)
	captured := captureError(err)

	if !strings.HasPrefix(captured, "UpstreamUnavailable: ") {
		t.Fatalf("expected kind prefix, got %q", captured)
	}
	if !strings.Contains(captured, "\n") {
		t.Fatalf("expected trace after message, got %q", captured)
	}
	if len(captured) > maxErrorLen {
		t.Fatalf("captured error exceeds bound: %d", len(captured))
	}
}

func TestCaptureErrorTruncation(t *testing.T) {
	err := errors.New(strings.Repeat("x", 5000))
	captured := captureError(err)

	if len(captured) != maxErrorLen {
		t.Fatalf("expected exactly %d chars, got %d", maxErrorLen, len(captured))
	}
	if !strings.HasSuffix(captured, truncationMarker) {
		t.Fatalf("expected truncation marker suffix, got %q", captured[len(captured)-10:])
	}
	if !strings.HasPrefix(captured, "Internal: xxx") {
		t.Fatalf("expected prefix preserved, got %q", captured[:20])
	}
}

func TestCaptureErrorNil(t *testing.T) {
	if got := captureError(nil); got != "" {
		t.Fatalf("expected empty string for nil error, got %q", got)
	}
}
