package entry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStore_Load(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "entries.yaml")

	content := `---
entries:
  - id: 2b0c7576-6ba1-4012-9d8b-4ee10bc1f5c4
    title: Downstairs
    data:
      interval: "0:05:00"
    options:
      playback_days: 3
  - title: Upstairs
    data: {}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store := NewStore(path, logger)
	require.NoError(t, store.Load())

	entries := store.All()
	require.Len(t, entries, 2)

	downstairs := entries[0]
	assert.Equal(t, "2b0c7576-6ba1-4012-9d8b-4ee10bc1f5c4", downstairs.ID)
	assert.Equal(t, "Downstairs", downstairs.Title)
	assert.Equal(t, "0:05:00", downstairs.Data["interval"])
	assert.Equal(t, 3, downstairs.Options["playback_days"])

	// Entries without an ID get one assigned
	upstairs := entries[1]
	assert.NotEmpty(t, upstairs.ID)
	assert.NotNil(t, upstairs.Options)
}

func TestStore_LoadMissingFile(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	store := NewStore(filepath.Join(t.TempDir(), "nope.yaml"), logger)

	require.NoError(t, store.Load())
	assert.Empty(t, store.All())
}

func TestStore_LoadInvalidYAML(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	path := filepath.Join(t.TempDir(), "entries.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: {not: [valid"), 0644))

	store := NewStore(path, logger)
	assert.Error(t, store.Load())
}

func TestStore_AddAndGet(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	path := filepath.Join(t.TempDir(), "entries.yaml")

	store := NewStore(path, logger)
	require.NoError(t, store.Load())

	added, err := store.Add("Holiday Home", map[string]interface{}{"playback_days": 7})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	got, ok := store.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "Holiday Home", got.Title)

	_, ok = store.Get("unknown")
	assert.False(t, ok)

	// The add persisted: a fresh store sees the entry
	reloaded := NewStore(path, logger)
	require.NoError(t, reloaded.Load())
	require.Len(t, reloaded.All(), 1)
	assert.Equal(t, "Holiday Home", reloaded.All()[0].Title)
}

func TestStore_UpdateOptions(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	path := filepath.Join(t.TempDir(), "entries.yaml")

	store := NewStore(path, logger)
	require.NoError(t, store.Load())

	added, err := store.Add("Downstairs", nil)
	require.NoError(t, err)

	err = store.UpdateOptions(added.ID, map[string]interface{}{"lights_filter": "light.porch%"})
	require.NoError(t, err)

	got, ok := store.Get(added.ID)
	require.True(t, ok)
	assert.Equal(t, "light.porch%", got.Options["lights_filter"])

	assert.Error(t, store.UpdateOptions("unknown", nil))
}
