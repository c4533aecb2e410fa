package genconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteTestRunnerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "test-runner.yaml")

	cfg := TestRunnerConfig{
		Timeout:  "2m",
		Parallel: 8,
		Include:  []string{"**/*_test.ts"},
		Env:      map[string]string{"CI": "1"},
		Reporter: "dot",
	}
	require.NoError(t, WriteTestRunnerConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var round TestRunnerConfig
	require.NoError(t, yaml.Unmarshal(data, &round))
	assert.Equal(t, cfg, round)
}

func TestWriteTaskRunnerConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Taskfile.yaml")

	cfg := TaskRunnerConfig{
		Tasks: map[string]Task{
			"test": {Desc: "Run tests", Cmd: "go test ./...", Deps: []string{"build"}},
		},
	}
	require.NoError(t, WriteTaskRunnerConfig(path, cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var round TaskRunnerConfig
	require.NoError(t, yaml.Unmarshal(data, &round))
	assert.Equal(t, "3", round.Version, "empty version defaults")
	assert.Equal(t, cfg.Tasks, round.Tasks)
}

func TestWriteTaskRunnerConfig_NoTasks(t *testing.T) {
	err := WriteTaskRunnerConfig(filepath.Join(t.TempDir(), "x.yaml"), TaskRunnerConfig{})
	require.Error(t, err)
}

func TestMaterializeSandbox(t *testing.T) {
	templateDir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "sandbox")

	write := func(rel, content string) {
		path := filepath.Join(templateDir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	write("package.json", `{"name": "__PKG_NAME__", "version": "0.0.0"}`)
	write(filepath.Join("src", "index.ts"), "export const owner = \"__OWNER__\";\n")
	write("README.md", "# __PKG_NAME__ by __OWNER__\n")

	// Values are no longer than their placeholders; in-place rewriting
	// depends on that.
	err := MaterializeSandbox(context.Background(), templateDir, destDir, map[string]string{
		"PKG_NAME": "widget",
		"OWNER":    "dev",
	})
	require.NoError(t, err)

	read := func(rel string) string {
		data, err := os.ReadFile(filepath.Join(destDir, rel))
		require.NoError(t, err)
		return string(data)
	}
	assert.Equal(t, `{"name": "widget", "version": "0.0.0"}`, read("package.json"))
	assert.Equal(t, "export const owner = \"dev\";\n", read(filepath.Join("src", "index.ts")))
	assert.Equal(t, "# widget by dev\n", read("README.md"))

	// Template itself is untouched.
	data, err := os.ReadFile(filepath.Join(templateDir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "__PKG_NAME__")
}

func TestMaterializeSandbox_NoVars(t *testing.T) {
	err := MaterializeSandbox(context.Background(), t.TempDir(), t.TempDir(), nil)
	require.Error(t, err)
}
