package store

import "context"

// Adapter wraps one logical data set that takes part in a save.
type Adapter interface {
	// Name is the archive entry the adapter's bytes are written to.
	Name() string
	// Serialize produces the durable representation of the current content.
	Serialize(ctx context.Context) ([]byte, error)
	// IsDirty reports unsaved changes relative to the last durable save.
	IsDirty() bool
	// ClearDirty marks the content captured by the last Serialize as saved.
	ClearDirty()
}

// AnyDirty reports whether at least one adapter has unsaved changes.
func AnyDirty(adapters []Adapter) bool {
	for _, adapter := range adapters {
		if adapter != nil && adapter.IsDirty() {
			return true
		}
	}
	return false
}

// DirtyNames returns the names of adapters with unsaved changes, in order.
func DirtyNames(adapters []Adapter) []string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		if adapter != nil && adapter.IsDirty() {
			names = append(names, adapter.Name())
		}
	}
	return names
}
