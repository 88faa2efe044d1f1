package decks

import "errors"

var (
	ErrNotFound           = errors.New("deck not found")
	ErrNoAnalysis         = errors.New("no analysis for deck")
	ErrUnsupportedFile    = errors.New("only PDF uploads are supported")
	ErrQueueNotConfigured = errors.New("deck queue not configured")
)
