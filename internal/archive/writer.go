package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// DefaultManifest lists the archive entries in the order they are written.
var DefaultManifest = []string{
	"main",
	"bookmarks",
	"search-requests",
	"desktop-state",
	"synonyms",
	"bibliography",
}

const defaultFileMode os.FileMode = 0o644

// Option customizes a Writer.
type Option func(*Writer)

// WithManifest overrides the entry manifest.
func WithManifest(names []string) Option {
	return func(w *Writer) {
		w.manifest = append([]string(nil), names...)
	}
}

// WithLogger sets the logger used for cleanup warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithRename overrides the rename used to replace the target.
func WithRename(rename func(oldpath, newpath string) error) Option {
	return func(w *Writer) {
		w.rename = rename
	}
}

// WithEntryWriter wraps the stream each entry's data is written to.
func WithEntryWriter(wrap func(name string, dst io.Writer) io.Writer) Option {
	return func(w *Writer) {
		w.wrapEntry = wrap
	}
}

// WithClock overrides the modification time stamped on entries.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) {
		w.now = now
	}
}

// Writer builds a zip archive in a temporary file next to the target and
// swaps it into place on Commit. Readers of the target never observe a
// partially written archive. A Writer is not safe for concurrent use.
type Writer struct {
	target   string
	tempPath string
	file     *os.File
	zw       *zip.Writer
	manifest []string
	next     int
	closed   bool
	size     int64
	rename    func(oldpath, newpath string) error
	wrapEntry func(name string, dst io.Writer) io.Writer
	now       func() time.Time
	logger    zerolog.Logger
}

// Create opens a writer whose temporary file lives in the target's directory.
func Create(target string, opts ...Option) (*Writer, error) {
	w := &Writer{
		target:   target,
		manifest: append([]string(nil), DefaultManifest...),
		rename:   os.Rename,
		now:      time.Now,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	dir := filepath.Dir(target)
	file, err := os.CreateTemp(dir, "."+filepath.Base(target)+"-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temporary archive: %w", err)
	}

	mode := defaultFileMode
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}
	if err := file.Chmod(mode); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("set archive permissions: %w", err)
	}

	w.file = file
	w.tempPath = file.Name()
	w.zw = zip.NewWriter(file)
	return w, nil
}

// TempPath returns the temporary file the archive is written to.
func (w *Writer) TempPath() string {
	return w.tempPath
}

// Target returns the path Commit replaces.
func (w *Writer) Target() string {
	return w.target
}

// Size returns the committed archive size in bytes, or 0 before Commit.
func (w *Writer) Size() int64 {
	return w.size
}

// WriteEntry appends a named entry. Names must follow manifest order;
// entries may be skipped but not repeated or reordered.
func (w *Writer) WriteEntry(name string, data []byte) error {
	if w.closed {
		return &EntryWriteError{Entry: name, Err: ErrClosed}
	}

	index := w.manifestIndex(name)
	if index < 0 {
		return &EntryWriteError{Entry: name, Err: ErrUnexpectedEntry}
	}

	entry, err := w.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: w.now(),
	})
	if err != nil {
		return &EntryWriteError{Entry: name, Err: err}
	}
	var dst io.Writer = entry
	if w.wrapEntry != nil {
		dst = w.wrapEntry(name, entry)
	}
	if _, err := dst.Write(data); err != nil {
		return &EntryWriteError{Entry: name, Err: err}
	}

	w.next = index + 1
	return nil
}

// Commit flushes the archive and atomically replaces the target with it.
// On failure the temporary file is removed and the target is untouched.
func (w *Writer) Commit() error {
	if w.closed {
		return &CommitError{Op: "finalize", Err: ErrClosed}
	}

	if err := w.zw.Close(); err != nil {
		w.Abort()
		return &CommitError{Op: "finalize", Err: err}
	}
	if err := w.file.Sync(); err != nil {
		w.Abort()
		return &CommitError{Op: "sync", Err: err}
	}
	info, err := w.file.Stat()
	if err != nil {
		w.Abort()
		return &CommitError{Op: "stat", Err: err}
	}
	if err := w.file.Close(); err != nil {
		w.Abort()
		return &CommitError{Op: "close", Err: err}
	}

	if err := w.rename(w.tempPath, w.target); err != nil {
		w.Abort()
		return &CommitError{Op: "rename", Err: err}
	}
	w.closed = true
	w.size = info.Size()
	w.tempPath = ""

	if dirHandle, err := os.Open(filepath.Dir(w.target)); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}

	return nil
}

// Abort discards the temporary archive. It is safe to call repeatedly and
// after Commit.
func (w *Writer) Abort() {
	if w.file != nil {
		_ = w.file.Close()
	}
	w.closed = true
	if w.tempPath == "" {
		return
	}
	if err := os.Remove(w.tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		w.logger.Warn().Err(err).Str("path", w.tempPath).Msg("failed to remove temporary archive")
	}
	w.tempPath = ""
}

func (w *Writer) manifestIndex(name string) int {
	for i := w.next; i < len(w.manifest); i++ {
		if w.manifest[i] == name {
			return i
		}
	}
	return -1
}

// Entry is one named stream read back from an archive.
type Entry struct {
	Name string
	Data []byte
}

// Read returns the entries of the archive at path in container order.
func Read(path string) ([]Entry, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	entries := make([]Entry, 0, len(reader.File))
	for _, file := range reader.File {
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open entry %q: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read entry %q: %w", file.Name, err)
		}
		entries = append(entries, Entry{Name: file.Name, Data: data})
	}
	return entries, nil
}
