package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/UkralStul/comment-store/internal/storage"
	"github.com/UkralStul/comment-store/internal/storage/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// Рабочий каталог - временный, чтобы не подхватить чужой .env
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), err
}

func TestCheck_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1, "author": "a", "text": "b"}]`), 0o644))

	out, err := runCmd(t, "check", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "ok: file storage, 1 comments\n", out)
}

func TestCheck_MissingFileIsNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")

	_, err := runCmd(t, "check", "--file", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnreadable)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCheck_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o644))

	_, err := runCmd(t, "check", "--file", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnparseable)
}

func TestCheck_OtherStorages(t *testing.T) {
	out, err := runCmd(t, "check", "--storage", "memory")
	require.NoError(t, err)
	assert.Equal(t, "ok: memory storage, 0 comments\n", out)

	dbPath := filepath.Join(t.TempDir(), "c.db")
	db, err := sqlite.New(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, err = runCmd(t, "check", "--storage", "sqlite", "--sqlite", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "ok: sqlite storage, 0 comments\n", out)
}

func TestCheck_MissingSQLiteIsNotCreated(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "c.db")

	_, err := runCmd(t, "check", "--storage", "sqlite", "--sqlite", dbPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnreadable)

	_, statErr := os.Stat(dbPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInvalidFlagsRejected(t *testing.T) {
	_, err := runCmd(t, "check", "--storage", "redis")
	assert.Error(t, err)

	_, err = runCmd(t, "check", "--port", "abc", "--storage", "memory")
	assert.Error(t, err)

	_, err = runCmd(t, "unexpected-arg")
	assert.Error(t, err)
}
