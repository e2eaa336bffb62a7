package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSnapshot = `{
  "nodes": [
    {"id": "n1", "type": "track", "key": "beginner-piano", "title": "Beginner Piano", "order": 1},
    {"id": "n2", "type": "lesson", "key": "A1.1", "title": "First Notes"},
    {"id": "n3", "type": "lesson", "key": "A1.2", "title": "Both Hands"},
    {"id": "n4", "type": "skill", "key": "posture", "title": "Posture"}
  ],
  "edges": [
    {"id": "edge-n1-n2-default", "source": "n1", "target": "n2", "sourcePort": "track-out", "targetPort": "lesson-in", "kind": "default"},
    {"id": "edge-n2-n3-default", "source": "n2", "target": "n3", "sourcePort": "lesson-out", "targetPort": "lesson-in", "kind": "default"},
    {"id": "edge-n2-n4-unlockable", "source": "n2", "target": "n4", "sourcePort": "lesson-unlockable", "targetPort": "skill-unlockable", "kind": "unlockable"}
  ]
}`

const orphanSnapshot = `{
  "nodes": [{"id": "n1", "type": "lesson", "key": "A1.1", "title": "First Notes"}],
  "edges": []
}`

// setupProject writes a snapshot into a temp dir and points the
// environment-fallback config at it.
func setupProject(t *testing.T, snapshot string) string {
	t.Helper()
	dir := t.TempDir()
	snapshotPath := filepath.Join(dir, "curriculum.json")
	require.NoError(t, os.WriteFile(snapshotPath, []byte(snapshot), 0o644))

	t.Setenv("CURRICC_SNAPSHOT", snapshotPath)
	t.Setenv("CURRICC_EXPORT_PATH", filepath.Join(dir, "dist", "export.json"))
	t.Setenv("CURRICC_STATE_PATH", filepath.Join(dir, ".curricc", "state.db"))
	t.Setenv("CURRICC_OUTPUT", "text")
	return dir
}

func execCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execCommand(t, NewVersionCommand("1.2.3"))
	require.NoError(t, err)
	assert.Contains(t, out, "curricc v1.2.3")
}

func TestCheckCommand_Success(t *testing.T) {
	setupProject(t, testSnapshot)

	out, _, err := execCommand(t, NewCheckCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "1 tracks")
	assert.Contains(t, out, "2 lessons")
	assert.Contains(t, out, "checksum:")
}

func TestCheckCommand_ReportsErrors(t *testing.T) {
	setupProject(t, orphanSnapshot)

	out, errOut, err := execCommand(t, NewCheckCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compilation error")
	assert.Contains(t, out, "n1")
	assert.Contains(t, errOut, "compilation failed")
}

func TestCheckCommand_JSONOutput(t *testing.T) {
	setupProject(t, testSnapshot)
	t.Setenv("CURRICC_OUTPUT", "json")

	out, _, err := execCommand(t, NewCheckCommand())
	require.NoError(t, err)
	assert.Contains(t, out, `"success": true`)
	assert.Contains(t, out, `"runId"`)
}

func TestPublishCommand_WritesArtifact(t *testing.T) {
	dir := setupProject(t, testSnapshot)

	out, _, err := execCommand(t, NewPublishCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "wrote ")

	data, err := os.ReadFile(filepath.Join(dir, "dist", "export.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"trackKey": "beginner-piano"`)
}

func TestPublishCommand_FailureWritesNothing(t *testing.T) {
	dir := setupProject(t, orphanSnapshot)

	_, _, err := execCommand(t, NewPublishCommand())
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "dist", "export.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDAGCommand(t *testing.T) {
	setupProject(t, testSnapshot)

	out, _, err := execCommand(t, NewDAGCommand())
	require.NoError(t, err)
	assert.Contains(t, out, `lesson "A1.1" -> lesson "A1.2"`)
	assert.Contains(t, out, "1 track,")
}

func TestRunsCommand_ListsHistory(t *testing.T) {
	setupProject(t, testSnapshot)

	_, _, err := execCommand(t, NewCheckCommand())
	require.NoError(t, err)

	out, _, err := execCommand(t, NewRunsCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
}

func TestValidateConnectionCommand(t *testing.T) {
	setupProject(t, testSnapshot)

	out, _, err := execCommand(t, NewValidateConnectionCommand(),
		"n3", "n4", "--source-port", "lesson-required", "--target-port", "skill-required")
	require.NoError(t, err)
	assert.Contains(t, out, "accepted as requirement edge")
	assert.Contains(t, out, "id: edge-n3-n4-requirement")
}

func TestValidateConnectionCommand_Rejected(t *testing.T) {
	setupProject(t, testSnapshot)

	// n3 already has an inbound chain edge from n2.
	_, errOut, err := execCommand(t, NewValidateConnectionCommand(),
		"n1", "n3", "--source-port", "track-out", "--target-port", "lesson-in")
	require.Error(t, err)
	assert.Contains(t, errOut, "rejected:")
}

func TestRunsCommand_EmptyHistory(t *testing.T) {
	setupProject(t, testSnapshot)

	out, _, err := execCommand(t, NewRunsCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "no runs recorded")
}
