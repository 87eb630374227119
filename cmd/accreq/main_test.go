package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accreq.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "accreq version dev\n", out)
}

func TestConfigCommand_MasksSecrets(t *testing.T) {
	path := writeConfig(t, `
session:
  backend: redis
redis:
  password: hunter2
`)
	out, err := run(t, "config", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "backend: redis")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, `header: "" # trusted verbatim; set only behind a proxy`)
}

func TestMigrateCommand(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "accreq.db")
	path := writeConfig(t, "database:\n  driver: sqlite3\n  dsn: "+dsn+"\n")

	out, err := run(t, "migrate", "up", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)

	out, err = run(t, "migrate", "version", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)

	out, err = run(t, "migrate", "down", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "schema version 0\n", out)
}

func TestSessionCommand_RequiresRedis(t *testing.T) {
	path := writeConfig(t, "session:\n  backend: memory\n")
	_, err := run(t, "session", "ls", "--config", path)
	assert.ErrorContains(t, err, "session commands need a persistent session.backend")
}

func TestSessionCommand_FileBackend(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, "session:\n  backend: file\n  dir: "+dir+"\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.json"), []byte(`{"id":"abc","user_id":3}`), 0o600))

	out, err := run(t, "session", "ls", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)

	out, err = run(t, "session", "inspect", "abc", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"user_id": 3`)

	out, err = run(t, "session", "rm", "abc", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "Removed session abc\n", out)

	out, err = run(t, "session", "ls", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "No active sessions found.\n", out)
}
