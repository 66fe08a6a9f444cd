package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_DirtyLifecycle(t *testing.T) {
	s := NewMemoryStore("main", []byte("initial"))
	assert.False(t, s.IsDirty(), "new store starts clean")

	s.Set([]byte("edited"))
	assert.True(t, s.IsDirty())

	data, err := s.Serialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))

	s.ClearDirty()
	assert.False(t, s.IsDirty())
}

func TestMemoryStore_EditDuringSaveStaysDirty(t *testing.T) {
	s := NewMemoryStore("bookmarks", nil)
	s.Set([]byte("v1"))

	_, err := s.Serialize(context.Background())
	require.NoError(t, err)

	s.Set([]byte("v2"))
	s.ClearDirty()

	assert.True(t, s.IsDirty(), "content changed after serialize must stay dirty")
	assert.Equal(t, "v2", string(s.Bytes()))
}

func TestMemoryStore_SerializeReturnsCopy(t *testing.T) {
	s := NewMemoryStore("main", []byte("abc"))
	data, err := s.Serialize(context.Background())
	require.NoError(t, err)
	data[0] = 'x'
	assert.Equal(t, "abc", string(s.Bytes()))
}

func TestMemoryStore_SerializeHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore("main", nil).Serialize(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileStore_DirtyTracksSavedContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.xml")
	require.NoError(t, os.WriteFile(path, []byte("<synonyms/>"), 0o600))

	s := NewFileStore("synonyms", path)
	assert.True(t, s.IsDirty(), "never-saved content is dirty")

	data, err := s.Serialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<synonyms/>", string(data))

	s.ClearDirty()
	assert.False(t, s.IsDirty())

	require.NoError(t, os.WriteFile(path, []byte("<synonyms><s/></synonyms>"), 0o600))
	assert.True(t, s.IsDirty())
}

func TestFileStore_ClearDirtyUsesSerializedFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.xml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	s := NewFileStore("main", path)
	_, err := s.Serialize(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
	s.ClearDirty()

	assert.True(t, s.IsDirty(), "edit after serialize must stay dirty")
}

func TestFileStore_ClearDirtyWithoutSerializeIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.xml")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	s := NewFileStore("main", path)
	s.ClearDirty()
	assert.True(t, s.IsDirty())
}

func TestFileStore_RestoreFingerprint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.xml")
	require.NoError(t, os.WriteFile(path, []byte("<bookmarks/>"), 0o600))

	s := NewFileStore("bookmarks", path)
	assert.Empty(t, s.SavedFingerprint())

	s.RestoreFingerprint(Fingerprint([]byte("<bookmarks/>")))
	assert.False(t, s.IsDirty())

	s.RestoreFingerprint(Fingerprint([]byte("older")))
	assert.True(t, s.IsDirty())

	_, err := s.Serialize(context.Background())
	require.NoError(t, err)
	s.ClearDirty()
	assert.Equal(t, Fingerprint([]byte("<bookmarks/>")), s.SavedFingerprint())
}

func TestFileStore_MissingSource(t *testing.T) {
	s := NewFileStore("bibliography", filepath.Join(t.TempDir(), "missing.bib"))

	_, err := s.Serialize(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, s.IsDirty(), "missing source that was never saved is clean")
}

func TestDirtyHelpers(t *testing.T) {
	clean := NewMemoryStore("main", []byte("m"))
	dirty := NewMemoryStore("synonyms", nil)
	dirty.Set([]byte("<synonyms/>"))

	adapters := []Adapter{clean, nil, dirty}
	assert.True(t, AnyDirty(adapters))
	assert.Equal(t, []string{"synonyms"}, DirtyNames(adapters))

	_, err := dirty.Serialize(context.Background())
	require.NoError(t, err)
	dirty.ClearDirty()
	assert.False(t, AnyDirty(adapters))

	clean.Set([]byte("edited"))
	assert.Equal(t, []string{"main"}, DirtyNames(adapters))
}
