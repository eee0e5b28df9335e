package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ripple/internal/app"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
	})
}

func TestRun(t *testing.T) {
	tests := []struct {
		name         string
		config       string
		args         []string
		expectedExit int
	}{
		{
			name: "Success with valid declaration",
			config: `nodes:
  - id: hello
    command: [sh, -c, "echo hello > hello.txt"]
    outputs: [hello.txt]
`,
			args:         []string{"build"},
			expectedExit: 0,
		},
		{
			name: "Failing stage",
			config: `nodes:
  - id: broken
    command: [sh, -c, "exit 2"]
    outputs: [never.txt]
`,
			args:         []string{"build"},
			expectedExit: 1,
		},
		{
			name: "Unknown target",
			config: `nodes:
  - id: hello
    command: [sh, -c, "echo hello > hello.txt"]
    outputs: [hello.txt]
`,
			args:         []string{"build", "nope"},
			expectedExit: 1,
		},
		{
			name:         "Version",
			args:         []string{"version"},
			expectedExit: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.config != "" {
				err := os.WriteFile(filepath.Join(tmpDir, "ripple.yaml"), []byte(tt.config), 0o600)
				require.NoError(t, err)
			}
			chdir(t, tmpDir)

			var out bytes.Buffer
			exitCode := run(tt.args, func(a *app.App) {
				a.WithOutput(&out)
			})
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestRun_StoreInitError(t *testing.T) {
	tmpDir := t.TempDir()
	configContent := `nodes:
  - id: hello
    command: [sh, -c, "echo hello > hello.txt"]
    outputs: [hello.txt]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ripple.yaml"), []byte(configContent), 0o600))

	// Create .ripple as a file (not a directory) to cause store init to fail
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".ripple"), []byte("not a directory"), 0o600))
	chdir(t, tmpDir)

	var out bytes.Buffer
	exitCode := run([]string{"build"}, func(a *app.App) {
		a.WithOutput(&out)
	})
	assert.Equal(t, 1, exitCode)
}
