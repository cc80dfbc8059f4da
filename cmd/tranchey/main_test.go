package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugawarayuuta/sonnet"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestDemoCommand(t *testing.T) {
	out, _, err := execute(t, "demo")
	require.NoError(t, err)

	assert.Contains(t, out, "> set some_key 7")
	assert.Contains(t, out, "> get jacob\n32\n")
	assert.Contains(t, out, "freed 2 entries")

	someKey := strings.Index(out, "some_key                 7")
	jacob := strings.Index(out, "jacob                    32")
	require.True(t, someKey >= 0 && jacob >= 0, out)
	assert.Less(t, someKey, jacob, "listing follows insertion order")
}

func TestDemoVerboseLogs(t *testing.T) {
	_, logs, err := execute(t, "demo", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, logs, "inserted entry")
	assert.Contains(t, logs, "key=jacob")
	assert.Contains(t, logs, "releasing value")
}

func TestStatsCommand(t *testing.T) {
	out, _, err := execute(t, "stats", "-n", "500", "--json")
	require.NoError(t, err)

	var stats statsView
	require.NoError(t, sonnet.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 500, stats.Entries)
	assert.LessOrEqual(t, stats.UsedTranches, 256, "hex keys reach at most 256 tranches")
	assert.GreaterOrEqual(t, stats.LongestChain, 2)
}

func TestStatsRejectsNegativeCount(t *testing.T) {
	out, _, err := execute(t, "stats", "-n", "-5")
	assert.ErrorIs(t, err, errBadCount)
	assert.Empty(t, out)
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(`{"value_size": 8, "max_entries": 1}`), 0o600))

	_, _, err := execute(t, "demo", "--config", path)
	require.Error(t, err, "one entry budget cannot hold the demo")

	out, _, err := execute(t, "demo", "--config", path, "--max-entries", "0", "-s", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "freed 2 entries")

	_, _, err = execute(t, "demo", "--value-size", "3")
	assert.ErrorIs(t, err, errValueSize)
}
