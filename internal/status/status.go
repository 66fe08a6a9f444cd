package status

// Sink is the single-line status indicator. Only human-readable text crosses it.
type Sink interface {
	SetText(text string)
}

// Progress is the modal indicator shown while a save runs.
type Progress interface {
	Dispose()
}

// Nop discards status text and ignores disposal.
type Nop struct{}

// SetText implements Sink.
func (Nop) SetText(string) {}

// Dispose implements Progress.
func (Nop) Dispose() {}
