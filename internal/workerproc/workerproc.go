package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"compliance-backend/internal/patterns"
	"compliance-backend/internal/queue"
)

// MessageMeta captures payload details useful for logging and
// diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{}
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

// ErrMissingFindingID indicates a message without a finding id.
type ErrMissingFindingID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingFindingID) Error() string { return "missing finding id" }

// ErrProcess indicates learning failed after successful parsing.
// Messages carrying it should be retried.
type ErrProcess struct {
	FindingID string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "process finding"
	}
	return "process finding: " + e.Err.Error()
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
	if strings.TrimSpace(msg.FindingID) == "" {
		return msg, meta, ErrMissingFindingID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Unrecoverable reports whether a message error can never succeed on
// retry and should be deleted from the queue.
func Unrecoverable(err error) bool {
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrMissingFindingID:
		return true
	}
	var cfgErr patterns.ConfigurationError
	return errors.As(err, &cfgErr)
}

// HandleMessage parses a payload and runs the pattern learner on the
// referenced finding.
func HandleMessage(ctx context.Context, learner *patterns.Learner, body string) error {
	if learner == nil {
		return errors.New("learner not configured")
	}

	msg, _, err := ParseMessage(body)
	if err != nil {
		return err
	}

	if err := learner.Process(ctx, msg.FindingID); err != nil {
		if Unrecoverable(err) {
			return err
		}
		return ErrProcess{FindingID: msg.FindingID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
