package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/okelly/loopgate/internal/state"
)

// SetupTestDir creates a temporary directory with the .loopgate directory
// structure for testing. Returns the temp directory path and a Store.
// The directory is automatically cleaned up when the test completes.
func SetupTestDir(t *testing.T) (string, *state.Store) {
	t.Helper()

	tmpDir := t.TempDir()

	gateDir := filepath.Join(tmpDir, ".loopgate")
	require.NoError(t, os.MkdirAll(gateDir, 0o755))

	// Write policy.yaml with test defaults
	policyContent := `max_iterations: 10
completion_promise: DONE
mode: normal
steps:
  - name: lint
    command: "true"
  - name: test
    command: "true"
`
	require.NoError(t, os.WriteFile(filepath.Join(gateDir, "policy.yaml"), []byte(policyContent), 0o644))

	return tmpDir, state.NewStore(tmpDir)
}

// WriteTestFile writes content to a file in the test directory.
// Creates parent directories as needed.
func WriteTestFile(t *testing.T, basePath, relativePath string, content []byte) {
	t.Helper()
	fullPath := filepath.Join(basePath, relativePath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, content, 0o644))
}
