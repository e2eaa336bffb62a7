package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notatio-labs/curricc/internal/state"
)

const validSnapshot = `{
  "nodes": [
    {"id": "n1", "type": "track", "key": "beginner-piano", "title": "Beginner Piano", "order": 1},
    {"id": "n2", "type": "lesson", "key": "A1.1", "title": "First Notes"},
    {"id": "n3", "type": "skill", "key": "posture", "title": "Posture"}
  ],
  "edges": [
    {"id": "edge-n1-n2-default", "source": "n1", "target": "n2", "sourcePort": "track-out", "targetPort": "lesson-in", "kind": "default"},
    {"id": "edge-n2-n3-unlockable", "source": "n2", "target": "n3", "sourcePort": "lesson-unlockable", "targetPort": "skill-unlockable", "kind": "unlockable"}
  ]
}`

const orphanSnapshot = `{
  "nodes": [
    {"id": "n1", "type": "lesson", "key": "A1.1", "title": "First Notes"}
  ],
  "edges": []
}`

func newTestEngine(t *testing.T, snapshot string) *Engine {
	t.Helper()
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "curriculum.json")
	require.NoError(t, os.WriteFile(snapshotPath, []byte(snapshot), 0o644))

	eng, err := New(Config{
		SnapshotPath: snapshotPath,
		ExportPath:   filepath.Join(dir, "dist", "curriculum.export.json"),
		StatePath:    filepath.Join(dir, ".curricc", "state.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestEngine_CheckSuccess(t *testing.T) {
	eng := newTestEngine(t, validSnapshot)

	res, err := eng.Check()
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	require.NotNil(t, res.Export)
	assert.NotEmpty(t, res.Checksum)
	assert.Empty(t, res.ExportPath, "check must not write the artifact")

	run, err := eng.Store().GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusSucceeded, run.Status)
	assert.Equal(t, res.Checksum, run.ExportChecksum)
}

func TestEngine_CheckFailureRecordsErrors(t *testing.T) {
	eng := newTestEngine(t, orphanSnapshot)

	res, err := eng.Check()
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Nil(t, res.Export)

	run, err := eng.Store().GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusFailed, run.Status)
	assert.Equal(t, 1, run.ErrorCount)

	saved, err := eng.Store().GetRunErrors(res.RunID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Contains(t, saved[0].Message, "belongs to no track")
}

func TestEngine_PublishWritesArtifact(t *testing.T) {
	eng := newTestEngine(t, validSnapshot)

	res, err := eng.Publish()
	require.NoError(t, err)
	require.True(t, res.Succeeded())
	require.NotEmpty(t, res.ExportPath)

	data, err := os.ReadFile(res.ExportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trackKey": "beginner-piano"`)

	// Publishing again yields byte-identical output.
	res2, err := eng.Publish()
	require.NoError(t, err)
	data2, err := os.ReadFile(res2.ExportPath)
	require.NoError(t, err)
	assert.Equal(t, data, data2)
	assert.Equal(t, res.Checksum, res2.Checksum)
}

func TestEngine_PublishFailureWritesNothing(t *testing.T) {
	eng := newTestEngine(t, orphanSnapshot)

	res, err := eng.Publish()
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Empty(t, res.ExportPath)
	_, statErr := os.Stat(eng.cfg.ExportPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEngine_UnknownFormat(t *testing.T) {
	_, err := New(Config{
		SnapshotPath: "x.json",
		ExportPath:   "out.json",
		StatePath:    filepath.Join(t.TempDir(), "state.db"),
		Format:       "toml",
	})
	require.Error(t, err)
}
