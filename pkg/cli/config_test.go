package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveProfile(t *testing.T) {
	t.Parallel()

	cfg := &UserConfig{
		DefaultProfile: "dev",
		Profiles: map[string]Profile{
			"dev":  {Host: "http://localhost:8080", Output: "table"},
			"prod": {Host: "https://tq.example.com", Output: "json"},
		},
	}

	assert.Equal(t, "http://localhost:8080", cfg.ActiveProfile("").Host)
	assert.Equal(t, "https://tq.example.com", cfg.ActiveProfile("prod").Host)
	assert.Equal(t, Profile{}, cfg.ActiveProfile("missing"))

	empty := &UserConfig{}
	assert.Equal(t, Profile{}, empty.ActiveProfile(""))
}

func TestLoadUserConfigMissingFile(t *testing.T) {
	t.Setenv("TQ_CONFIG", filepath.Join(t.TempDir(), "nope", "config.yaml"))

	cfg, err := LoadUserConfig()
	require.NoError(t, err, "a missing config file is not an error")
	assert.Empty(t, cfg.DefaultProfile)
	assert.Empty(t, cfg.Profiles)
}

func TestLoadUserConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiles: [not a map"), 0o600))
	t.Setenv("TQ_CONFIG", path)

	_, err := LoadUserConfig()
	require.Error(t, err, "a present but unparseable config must not be ignored")
}

func TestSaveAndReloadUserConfig(t *testing.T) {
	t.Setenv("TQ_CONFIG", filepath.Join(t.TempDir(), "cli", "config.yaml"))

	cfg, err := LoadUserConfig()
	require.NoError(t, err)
	cfg.Profiles["staging"] = Profile{Host: "https://staging.example.com", Output: "json"}
	cfg.Profiles["dev"] = Profile{Host: "http://localhost:8080"}
	cfg.DefaultProfile = "staging"
	require.NoError(t, cfg.Save())

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "staging", loaded.DefaultProfile)
	assert.Equal(t, []string{"dev", "staging"}, loaded.ProfileNames())
	assert.Equal(t, "https://staging.example.com", loaded.ActiveProfile("").Host)
}

func TestPrintResultTable(t *testing.T) {
	t.Parallel()

	var result QueryResult
	require.NoError(t, json.Unmarshal([]byte(`{
		"columns": [{"name": "id", "type": "INTEGER"}, {"name": "region", "type": "VARCHAR"}],
		"rows": [[1, "emea"], [2, null]],
		"row_count": 2,
		"elapsed_seconds": 0.012,
		"source": "FEDERATED"
	}`), &result))

	var buf bytes.Buffer
	require.NoError(t, printResultTable(&buf, &result))

	out := buf.String()
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "region")
	assert.Contains(t, out, "emea")
	assert.Contains(t, out, "NULL")
	assert.Contains(t, out, "(2 rows, 0.012s, source=FEDERATED)")
}

func TestPrintJSONIndents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"count": 3}))
	assert.Equal(t, "{\n  \"count\": 3\n}\n", buf.String())
}
