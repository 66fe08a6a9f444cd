package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when a writer is used after Commit or Abort.
	ErrClosed = errors.New("archive writer closed")
	// ErrUnexpectedEntry is returned for names outside the manifest or written out of order.
	ErrUnexpectedEntry = errors.New("entry not permitted by manifest at this position")
)

// EntryWriteError reports a failure while streaming one entry into the archive.
type EntryWriteError struct {
	Entry string
	Err   error
}

func (e *EntryWriteError) Error() string {
	return fmt.Sprintf("write entry %q: %v", e.Entry, e.Err)
}

func (e *EntryWriteError) Unwrap() error {
	return e.Err
}

// CommitError reports a failure while finalizing or replacing the target.
// The target is left as it was.
type CommitError struct {
	Op  string
	Err error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit archive (%s): %v", e.Op, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
