package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zefrenchwan/egonet.git/cli"
	"github.com/zefrenchwan/egonet.git/config"
	"github.com/zefrenchwan/egonet.git/serving"
	"github.com/zefrenchwan/egonet.git/versioned"
	"go.uber.org/zap/zaptest"
)

// writeConfig writes a configuration with a bolt store in a temporary directory
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "egonet.yaml")
	content := "storage:\n  backend: bolt\n  path: " + filepath.Join(dir, "egonet.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// run executes a command line and returns its output
func run(t *testing.T, configPath string, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	command := cli.NewRootCommand(strings.NewReader(stdin), &stdout, &stderr)
	command.SetArgs(append([]string{"--config", configPath}, args...))
	err := command.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestOpenBackend(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	ctx := context.Background()

	backend, err := cli.OpenBackend(ctx, &config.Config{Storage: config.StorageConfig{Backend: "memory"}}, logger)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	path := filepath.Join(t.TempDir(), "data", "egonet.db")
	store, err := cli.OpenStore(ctx, &config.Config{Storage: config.StorageConfig{Backend: "bolt", Path: path}}, logger)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.FileExists(t, path)

	_, err = cli.OpenBackend(ctx, &config.Config{Storage: config.StorageConfig{Backend: "nope"}}, logger)
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	configPath := writeConfig(t)

	_, err := run(t, configPath, "", "declare", "city", "--domain", "alter")
	require.NoError(t, err)

	_, err = run(t, configPath, "", "set", "city", "Paris", "--domain", "alter", "--key", "bob", "--interval", "[10;20[")
	require.NoError(t, err)

	output, err := run(t, configPath, "", "get", "city", "--domain", "alter", "--key", "bob", "--at", "15")
	require.NoError(t, err)
	var value serving.ValueDTO
	require.NoError(t, json.Unmarshal([]byte(output), &value))
	assert.True(t, value.Found)
	assert.Equal(t, "Paris", value.Value)

	output, err = run(t, configPath, "", "history", "city", "--domain", "alter", "--key", "bob")
	require.NoError(t, err)
	var history serving.HistoryDTO
	require.NoError(t, json.Unmarshal([]byte(output), &history))
	require.Len(t, history.Values, 1)
	assert.Equal(t, "Paris", history.Values[0].Value)

	_, err = run(t, configPath, "", "rename", "bob", "robert")
	require.NoError(t, err)

	output, err = run(t, configPath, "", "entities", "--interval", "[10;20[")
	require.NoError(t, err)
	var entities []serving.ElementDTO
	require.NoError(t, json.Unmarshal([]byte(output), &entities))
	names := make([]string, 0)
	for _, entity := range entities {
		if entity.Alter != "" {
			names = append(names, entity.Alter)
		}
	}

	assert.Contains(t, names, "robert")
	assert.NotContains(t, names, "bob")

	// rejections are returned as errors
	_, err = run(t, configPath, "", "set", "age", "12", "--domain", "alter", "--key", "robert")
	require.Error(t, err)
	assert.True(t, versioned.IsRejection(err, versioned.UnknownAttribute))

	_, err = run(t, configPath, "", "get", "city", "--domain", "nowhere", "--at", "15")
	assert.Error(t, err)
}

func TestImportCommand(t *testing.T) {
	configPath := writeConfig(t)

	_, err := run(t, configPath, "", "declare", "mood", "--domain", "ego", "--type", "FINITE_CHOICE", "--choice", "happy", "--choice", "sad")
	require.NoError(t, err)

	facts := `[
		{"kind": "value", "element": {"domain": "ego"}, "interval": "[0;100[", "attribute": "mood", "value": "happy"},
		{"kind": "value", "element": {"domain": "ego"}, "interval": "[100;+oo[", "attribute": "mood", "value": "sad"},
		{"kind": "remove", "element": {"domain": "ego"}, "interval": "[0;100["}
	]`

	output, err := run(t, configPath, facts, "import", "-")
	require.NoError(t, err)
	var report serving.ImportResultDTO
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Equal(t, 2, report.Applied)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 2, report.Rejected[0].Index)
	assert.Equal(t, string(versioned.WrongDomain), report.Rejected[0].Kind)

	output, err = run(t, configPath, "", "get", "mood", "--at", "150")
	require.NoError(t, err)
	var value serving.ValueDTO
	require.NoError(t, json.Unmarshal([]byte(output), &value))
	assert.Equal(t, "sad", value.Value)

	_, err = run(t, configPath, "", "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
