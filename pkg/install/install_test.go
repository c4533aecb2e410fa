package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		lockfile string
		want     Manager
	}{
		{name: "pnpm", lockfile: "pnpm-lock.yaml", want: Pnpm},
		{name: "yarn", lockfile: "yarn.lock", want: Yarn},
		{name: "npm", lockfile: "package-lock.json", want: Npm},
		{name: "default_without_lockfile", lockfile: "", want: Npm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.lockfile != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, tt.lockfile), nil, 0644))
			}
			assert.Equal(t, tt.want, Detect(dir))
		})
	}
}

func TestDetect_PnpmWinsOverNpm(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pnpm-lock.yaml"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package-lock.json"), nil, 0644))
	assert.Equal(t, Pnpm, Detect(dir))
}
