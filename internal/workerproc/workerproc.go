package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/decks"
	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/queue"
)

// Processor executes the deck state machine for one delivery.
type Processor interface {
	Execute(ctx context.Context, deckID, uploadPath string) decks.Outcome
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingDeckID indicates a message missing the deck id.
type ErrMissingDeckID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingDeckID) Error() string { return "missing deck id" }

// ErrProcess indicates processing failed after successful parsing. The
// delivery should be retried or dead-lettered by the queue.
type ErrProcess struct {
	DeckID    string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process deck"
	}
	return "process deck: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.DeckID) == "" {
		return msg, meta, ErrMissingDeckID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// HandleMessage parses, validates, and processes a message payload.
//
// Skips and unknown deck IDs return nil so the delivery is acknowledged;
// only genuine failures surface as errors and count as a failed attempt.
func HandleMessage(ctx context.Context, processor Processor, body string) error {
	if processor == nil {
		return errors.New("deck processor not configured")
	}

	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	outcome := processor.Execute(ctx, msg.DeckID, msg.UploadPath)
	if outcome.Kind == decks.OutcomeFailed {
		return ErrProcess{DeckID: msg.DeckID, RequestID: msg.RequestID, Err: outcome.Err}
	}
	return nil
}
