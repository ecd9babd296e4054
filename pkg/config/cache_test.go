package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labourlens/labourlens/pkg/config/provider"
)

func writeConfigFile(t *testing.T, threshold string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
llms:
  main:
    type: ollama
escalation:
  threshold: ` + threshold + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func newTestStore(t *testing.T, path string, ttl time.Duration) *Store {
	t.Helper()
	p, err := provider.NewFileProvider(path)
	require.NoError(t, err)
	return NewStore(NewLoader(p), ttl)
}

func TestStoreServesCachedSnapshotWithinTTL(t *testing.T) {
	path := writeConfigFile(t, "0.9")
	store := newTestStore(t, path, time.Hour)

	cfg, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Escalation.Threshold)

	// Change the file; within TTL the old snapshot is still served.
	require.NoError(t, os.WriteFile(path, []byte(`
llms:
  main:
    type: ollama
escalation:
  threshold: 0.5
`), 0o644))

	cached, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.9, cached.Escalation.Threshold)
}

func TestStoreInvalidateForcesReload(t *testing.T) {
	path := writeConfigFile(t, "0.9")
	store := newTestStore(t, path, time.Hour)

	_, err := store.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`
llms:
  main:
    type: ollama
escalation:
  threshold: 0.5
`), 0o644))

	store.Invalidate()

	cfg, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Escalation.Threshold)
}

func TestStoreServesStaleSnapshotWhenReloadFails(t *testing.T) {
	path := writeConfigFile(t, "0.9")
	store := newTestStore(t, path, time.Hour)

	cfg, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Escalation.Threshold)

	require.NoError(t, os.Remove(path))
	store.Invalidate()

	stale, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.9, stale.Escalation.Threshold)
}

func TestStoreSetInstallsSnapshot(t *testing.T) {
	path := writeConfigFile(t, "0.9")
	store := newTestStore(t, path, time.Hour)

	fresh := &Config{}
	fresh.SetDefaults()
	fresh.Escalation.Threshold = 0.42
	store.Set(fresh)

	cfg, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.42, cfg.Escalation.Threshold)
}
