package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// LogSink records status text as log lines.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink returns a Sink that logs each status update at info level.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// SetText implements Sink.
func (s *LogSink) SetText(text string) {
	s.logger.Info().Str("status", text).Msg("status updated")
}

// Line writes each status update as a line to w.
type Line struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLine returns a Sink writing to w.
func NewLine(w io.Writer) *Line {
	return &Line{w: w}
}

// SetText implements Sink.
func (l *Line) SetText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.w, text)
}

// Indicator is a Progress that counts disposals and runs an optional
// callback on the first one.
type Indicator struct {
	mu        sync.Mutex
	disposals int
	onDispose func()
}

// NewIndicator returns an Indicator; onDispose may be nil.
func NewIndicator(onDispose func()) *Indicator {
	return &Indicator{onDispose: onDispose}
}

// Dispose implements Progress.
func (i *Indicator) Dispose() {
	i.mu.Lock()
	i.disposals++
	first := i.disposals == 1
	i.mu.Unlock()
	if first && i.onDispose != nil {
		i.onDispose()
	}
}

// Disposals reports how many times Dispose was called.
func (i *Indicator) Disposals() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposals
}
