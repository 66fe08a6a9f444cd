package save

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/nholik/zksave/internal/archive"
	"github.com/nholik/zksave/internal/status"
	"github.com/nholik/zksave/internal/store"
	"github.com/rs/zerolog"
)

type staticTarget struct {
	path string
}

func (s staticTarget) MainDataFile() (string, bool) {
	return s.path, s.path != ""
}

// fakeAdapter records calls and can be told to fail or panic.
type fakeAdapter struct {
	mu       sync.Mutex
	name     string
	data     []byte
	err      error
	panicMsg string
	dirty    bool
	calls    int
	clears   int
}

func newFakeAdapter(name string) *fakeAdapter {
	return &fakeAdapter{name: name, data: []byte("payload:" + name), dirty: true}
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Serialize(context.Context) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	err, panicMsg := f.err, f.panicMsg
	f.mu.Unlock()
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return nil, err
	}
	return f.data, nil
}

func (f *fakeAdapter) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dirty
}

func (f *fakeAdapter) ClearDirty() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.dirty = false
}

func (f *fakeAdapter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errSerialize = errors.New("encoding failed")

// manifestAdapters returns one fake per manifest entry, in manifest order.
func manifestAdapters() []*fakeAdapter {
	fakes := make([]*fakeAdapter, 0, len(archive.DefaultManifest))
	for _, name := range archive.DefaultManifest {
		fakes = append(fakes, newFakeAdapter(name))
	}
	return fakes
}

func asAdapters(fakes []*fakeAdapter) []store.Adapter {
	adapters := make([]store.Adapter, 0, len(fakes))
	for _, f := range fakes {
		adapters = append(adapters, f)
	}
	return adapters
}

// statusRecorder keeps every status text it receives.
type statusRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *statusRecorder) SetText(text string) {
	r.mu.Lock()
	r.texts = append(r.texts, text)
	r.mu.Unlock()
}

func (r *statusRecorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func (r *statusRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

type harness struct {
	recorder  *statusRecorder
	indicator *status.Indicator
}

func newOrchestrator(t *testing.T, target string, adapters []store.Adapter, opts ...Option) (*Orchestrator, harness) {
	t.Helper()
	h := harness{recorder: &statusRecorder{}, indicator: status.NewIndicator(nil)}
	o, err := New(Config{
		Settings: staticTarget{path: target},
		Status:   h.recorder,
		Progress: h.indicator,
		Logger:   zerolog.Nop(),
	}, adapters, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o, h
}

func dirListing(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}
