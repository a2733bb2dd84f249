package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/winnermind/internal/app"
	"github.com/atinyakov/winnermind/internal/config"
)

// execute runs winnerctl against the sqlite file dsn.
func execute(t *testing.T, dsn, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--store", "sqlite", "--dsn", dsn}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func tempDSN(t *testing.T) string {
	return filepath.Join(t.TempDir(), "winnermind.db")
}

func decodeOutput[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

// openApp opens the same sqlite file the commands wrote to.
func openApp(t *testing.T, dsn string) *app.App {
	t.Helper()
	opts := config.Default()
	opts.StoreDriver = config.DriverSQLite
	opts.DatabaseDSN = dsn
	a, err := app.New(context.Background(), opts, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "winnerctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"settings", "show"},
		{"settings", "set-global"},
		{"users", "list"},
		{"users", "role"},
		{"users", "delete"},
		{"seed"},
		{"register"},
	}

	for _, path := range commands {
		t.Run(strings.Join(path, " "), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	storeFlag := cmd.PersistentFlags().Lookup("store")
	require.NotNil(t, storeFlag)
	assert.Equal(t, "s", storeFlag.Shorthand)
	assert.Equal(t, config.DriverMemory, storeFlag.DefValue)
}

func TestRootValidation(t *testing.T) {
	_, err := execute(t, tempDSN(t), "", "--format", "yaml", "settings", "show")
	assert.ErrorContains(t, err, `invalid format "yaml"`)

	_, err = execute(t, "", "", "settings", "show")
	assert.ErrorContains(t, err, "needs a database DSN")
}
