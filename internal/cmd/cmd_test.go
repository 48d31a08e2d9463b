package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const singleFunctionJSON = `[
  "Program log: one {",
  "Program consumption: 198708 units remaining",
  "Program consumption: 198082 units remaining",
  "Program log: } // one"
]`

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

// resetFlags restores every flag of c and its subcommands to its default,
// since cobra keeps parsed values between executions
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// setupTestEnvironment points home and config at temp dirs and disables
// the release check
func setupTestEnvironment(t *testing.T) (home string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("CUPRISM_UPDATE_SKIP_CHECK", "true")
	t.Cleanup(func() {
		viper.Reset()
		resetFlags(rootCmd)
		cfg = nil
	})
	return home
}

// executeCommand runs the root command with args and returns captured output
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(t.Context())
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "cuprism", rootCmd.Use)

	expected := []string{"parse", "view", "history", "version", "upgrade"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, cmdMap[name], "expected subcommand %q", name)
	}
}

func TestParseFile(t *testing.T) {
	home := setupTestEnvironment(t)
	input := writeFile(t, t.TempDir(), "tx.json", singleFunctionJSON)

	out, err := executeCommand(t, "parse", "file", input)
	require.NoError(t, err)

	want := filepath.Join(filepath.Dir(input), "tx_parsed.json")
	assert.Contains(t, out, "Wrote "+want)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"naive_global": 626`)

	entries, err := os.ReadDir(filepath.Join(home, ".cuprism", "history"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "input saved to history")
}

func TestParseFileFlags(t *testing.T) {
	setupTestEnvironment(t)
	dir := t.TempDir()
	input := writeFile(t, dir, "tx.json", singleFunctionJSON)
	output := filepath.Join(dir, "report.yaml")

	_, err := executeCommand(t, "parse", "file", input, "-f", "yaml", "-o", output, "--diagnostics")
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "naive_global: 626")
	assert.Contains(t, string(data), "n_children: 0")
}

func TestParseFileConfigDefaults(t *testing.T) {
	setupTestEnvironment(t)
	t.Setenv("CUPRISM_OUTPUT_FORMAT", "folded")
	t.Setenv("CUPRISM_OUTPUT_POSTFIX", "_cu")
	dir := t.TempDir()
	input := writeFile(t, dir, "tx.json", singleFunctionJSON)

	_, err := executeCommand(t, "parse", "file", input)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "tx_cu.folded"))
	require.NoError(t, err)
	assert.Equal(t, "one 626\n", string(data))
}

func TestParseFileBadFormat(t *testing.T) {
	setupTestEnvironment(t)
	input := writeFile(t, t.TempDir(), "tx.json", singleFunctionJSON)

	_, err := executeCommand(t, "parse", "file", input, "-f", "xml")
	assert.Error(t, err)
}

func TestParseFileMissing(t *testing.T) {
	setupTestEnvironment(t)

	out, err := executeCommand(t, "parse", "file", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, out, "Error ")
	assert.Contains(t, err.Error(), "1 of 1 files failed")
}

func TestParseDir(t *testing.T) {
	setupTestEnvironment(t)
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "reports")
	writeFile(t, in, "a.json", singleFunctionJSON)
	writeFile(t, in, "b.json", `{"not": "a log"}`)

	output, err := executeCommand(t, "parse", "dir", in, "-o", out, "-j", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")
	assert.Contains(t, output, "Wrote "+filepath.Join(out, "a.json"))
	assert.Contains(t, output, "Error "+filepath.Join(in, "b.json"))
}

func TestParseDirEmpty(t *testing.T) {
	setupTestEnvironment(t)
	dir := t.TempDir()

	out, err := executeCommand(t, "parse", "dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No log files found")
}

func TestViewPrint(t *testing.T) {
	setupTestEnvironment(t)
	input := writeFile(t, t.TempDir(), "tx.json", singleFunctionJSON)

	out, err := executeCommand(t, "view", "--print", input)
	require.NoError(t, err)
	assert.Contains(t, out, "cuprism · tx.json")
	assert.Contains(t, out, "ƒ one  local 626  global 626")
}

func TestHistoryListViewClear(t *testing.T) {
	setupTestEnvironment(t)
	input := writeFile(t, t.TempDir(), "tx.json", singleFunctionJSON)

	_, err := executeCommand(t, "view", "-p", input)
	require.NoError(t, err)

	out, err := executeCommand(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "  1  ")
	assert.Contains(t, out, "tx")

	out, err = executeCommand(t, "history", "view", "-p", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ƒ one")

	out, err = executeCommand(t, "history", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 history entries")

	out, err = executeCommand(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No history entries")
}

func TestHistoryDisabled(t *testing.T) {
	home := setupTestEnvironment(t)
	t.Setenv("CUPRISM_HISTORY_ENABLED", "false")
	input := writeFile(t, t.TempDir(), "tx.json", singleFunctionJSON)

	_, err := executeCommand(t, "parse", "file", input)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(home, ".cuprism", "history"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHistoryViewMissing(t *testing.T) {
	setupTestEnvironment(t)
	_, err := executeCommand(t, "history", "view", "3")
	assert.Error(t, err)
}

func TestInvalidConfigFile(t *testing.T) {
	setupTestEnvironment(t)
	path := writeFile(t, t.TempDir(), "config.yaml", "output:\n  format: xml\n")

	_, err := executeCommand(t, "--config", path, "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestLogFileFlag(t *testing.T) {
	setupTestEnvironment(t)
	logPath := filepath.Join(t.TempDir(), "logs", "cuprism.log")
	input := writeFile(t, t.TempDir(), "tx.log", "Program log: one {\nProgram consumption: 1 units remaining\n")

	_, err := executeCommand(t, "--log-level", "debug", "--log-file", logPath, "view", "-p", input)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "config loaded")
	assert.Contains(t, string(data), "block rejected")
}

func TestVersion(t *testing.T) {
	setupTestEnvironment(t)
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cuprism dev")
}

func TestUpgradeDevBuild(t *testing.T) {
	setupTestEnvironment(t)
	_, err := executeCommand(t, "upgrade")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "development build")
}
