package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/adapters/fs"
)

func TestVerifier_Missing(t *testing.T) {
	tmpDir := t.TempDir()
	verifier := fs.NewVerifier()

	writeFile(t, filepath.Join(tmpDir, "out1.txt"), "content")
	writeFile(t, filepath.Join(tmpDir, "figures", "out2.pdf"), "content")

	// Case 1: All outputs exist
	missing, err := verifier.Missing(tmpDir, []string{"out1.txt", "figures/out2.pdf"})
	require.NoError(t, err)
	assert.Empty(t, missing)

	// Case 2: Some outputs missing, reported in order
	missing, err = verifier.Missing(tmpDir, []string{"b.txt", "out1.txt", "a.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.txt", "a.txt"}, missing)
}
