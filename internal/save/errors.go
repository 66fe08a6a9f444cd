package save

import (
	"errors"
	"fmt"

	"github.com/nholik/zksave/internal/archive"
)

var (
	// ErrInvalidTarget is reported when no writable target path is configured.
	ErrInvalidTarget = errors.New("invalid save target")
	// ErrNotIdle is reported when Run is called on an orchestrator that already ran.
	ErrNotIdle = errors.New("orchestrator is not idle")
	// ErrInternal wraps unexpected panics recovered during a save.
	ErrInternal = errors.New("internal save failure")
)

// SerializationError reports a store that could not produce its bytes.
type SerializationError struct {
	Store string
	Err   error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Store, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Kind classifies a save failure.
type Kind string

const (
	KindNone          Kind = ""
	KindInvalidTarget Kind = "invalid-target"
	KindSerialization Kind = "serialization"
	KindEntryWrite    Kind = "entry-write"
	KindCommit        Kind = "commit"
	KindInternal      Kind = "internal"
)

// KindOf maps an error produced by a save to its Kind.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var serErr *SerializationError
	var entryErr *archive.EntryWriteError
	var commitErr *archive.CommitError
	switch {
	case errors.Is(err, ErrInvalidTarget):
		return KindInvalidTarget
	case errors.As(err, &serErr):
		return KindSerialization
	case errors.As(err, &entryErr):
		return KindEntryWrite
	case errors.As(err, &commitErr):
		return KindCommit
	default:
		return KindInternal
	}
}

// FailedStore returns the store named by a SerializationError, or "".
func FailedStore(err error) string {
	var serErr *SerializationError
	if errors.As(err, &serErr) {
		return serErr.Store
	}
	return ""
}
