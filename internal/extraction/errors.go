package extraction

import "errors"

var (
	// ErrPayloadTooLarge means the document exceeds the inline transfer ceiling.
	// Raised before any network call; retrying with the same document cannot succeed.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrMalformedResponse means the model returned content that cannot be
	// parsed into the result schema.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUpstreamUnavailable means the extraction service could not be reached
	// or answered with a server-side failure. Transient in principle.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Kind maps an extraction error to its taxonomy name. Unknown errors map to Internal.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return "PayloadTooLarge"
	case errors.Is(err, ErrMalformedResponse):
		return "MalformedResponse"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "UpstreamUnavailable"
	default:
		return "Internal"
	}
}
