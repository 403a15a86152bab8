package jobs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"venue-recommender/internal/index"
	"venue-recommender/internal/shared/telemetry"
)

// Indexer runs one dataset through the index pipeline.
type Indexer interface {
	IndexDataset(ctx context.Context, path string) (index.Result, error)
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

// ErrMissingPath indicates a message without a dataset path.
type ErrMissingPath struct {
	Meta      MessageMeta
	JobID     string
	RequestID string
}

func (e ErrMissingPath) Error() string { return "missing dataset path" }

// ErrProcess indicates indexing failed after successful parsing.
type ErrProcess struct {
	JobID     string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "index dataset"
	}
	return "index dataset: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := DecodeMessage([]byte(body))
	if err != nil {
		return Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.Path) == "" {
		return msg, meta, ErrMissingPath{Meta: meta, JobID: msg.JobID, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (Message, bool) {
	if ctx == nil {
		return Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(Message)
	return msg, ok
}

// HandleMessage parses, validates, and indexes the dataset a message names.
func HandleMessage(ctx context.Context, indexer Indexer, body string) (index.Result, error) {
	if indexer == nil {
		return index.Result{}, errors.New("indexer not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return index.Result{}, err
		}
	}
	if strings.TrimSpace(msg.Path) == "" {
		return index.Result{}, ErrMissingPath{Meta: ComputeMeta(body), JobID: msg.JobID, RequestID: msg.RequestID}
	}

	ctx = telemetry.WithRequestID(ctx, msg.RequestID)
	res, err := indexer.IndexDataset(ctx, msg.Path)
	if err != nil {
		return res, ErrProcess{JobID: msg.JobID, RequestID: msg.RequestID, Err: err}
	}
	return res, nil
}
