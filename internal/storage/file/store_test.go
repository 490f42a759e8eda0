package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/UkralStul/comment-store/internal/domain"
	"github.com/UkralStul/comment-store/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore создает хранилище в t.TempDir() с заданным содержимым файла
func newTestStore(t *testing.T, contents string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "comments.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	store, err := New(path)
	require.NoError(t, err)
	return store, path
}

func TestNew_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "comments.json")

	store, err := New(path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	comments, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.NotNil(t, comments)
}

func TestNew_RejectsInvalidFile(t *testing.T) {
	cases := map[string]string{
		"not json":          `{"id": 1,`,
		"not an array":      `{"id": 1}`,
		"missing id":        `[{"author": "alice"}]`,
		"string id":         `[{"id": "1", "author": "alice"}]`,
		"numeric text":      `[{"id": 1, "text": 42}]`,
		"fractional id":     `[{"id": 1.5}]`,
		"integral float id": `[{"id": 1.0, "text": "b"}]`,
		"exponent id":       `[{"id": 1e12, "text": "b"}]`,
		"unknown key":       `[{"id": 1, "author": "a", "text": "b", "likes": 3}]`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "comments.json")
			require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

			_, err := New(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, storage.ErrUnparseable)
		})
	}
}

// Лишние ключи не проходят проверку, поэтому файл не переписывается без них.
func TestNew_UnknownKeysLeaveFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.json")
	contents := []byte(`[{"id":1,"author":"a","text":"b","likes":3}]`)
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	_, err := New(path)
	require.ErrorIs(t, err, storage.ErrUnparseable)
	assert.ErrorIs(t, Check(path), storage.ErrUnparseable)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, contents, got)
}

func TestCheck_MissingFile(t *testing.T) {
	err := Check(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnreadable)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_ListReturnsFileContents(t *testing.T) {
	store, _ := newTestStore(t, `[
    {"id": 1388534400000, "author": "Pete Hunt", "text": "Hey there!"},
    {"id": 1420070400000, "author": "Paul O'Shannessy", "text": "React is *great*!"}
]`)

	comments, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, int64(1388534400000), comments[0].ID)
	assert.Equal(t, "Pete Hunt", *comments[0].Author)
	assert.Equal(t, "React is *great*!", *comments[1].Text)
}

func TestStore_AppendToEmpty(t *testing.T) {
	store, path := newTestStore(t, `[]`)
	ctx := context.Background()

	comments, err := store.Append(ctx, domain.NewComment{Author: domain.StringPtr("alice"), Text: domain.StringPtr("hi")})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.NotZero(t, comments[0].ID)
	assert.Equal(t, "alice", *comments[0].Author)
	assert.Equal(t, "hi", *comments[0].Text)

	// Файл перечитывается на каждый запрос
	fromDisk, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, comments, fromDisk)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n    {\n        \"id\": ")
}

func TestStore_AppendWritesIndentedJSON(t *testing.T) {
	store, path := newTestStore(t, `[]`)
	store.now = func() time.Time { return time.UnixMilli(1000) }

	_, err := store.Append(context.Background(), domain.NewComment{Author: domain.StringPtr("a<b>"), Text: domain.StringPtr("x & y")})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	expected := "[\n" +
		"    {\n" +
		"        \"id\": 1000,\n" +
		"        \"author\": \"a<b>\",\n" +
		"        \"text\": \"x & y\"\n" +
		"    }\n" +
		"]"
	assert.Equal(t, expected, string(raw))
}

func TestStore_AppendOmitsMissingFields(t *testing.T) {
	store, path := newTestStore(t, `[]`)
	store.now = func() time.Time { return time.UnixMilli(42) }

	comments, err := store.Append(context.Background(), domain.NewComment{Text: domain.StringPtr("")})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Nil(t, comments[0].Author)
	assert.Equal(t, "", *comments[0].Text)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n    {\n        \"id\": 42,\n        \"text\": \"\"\n    }\n]", string(raw))
}

func TestStore_AppendIsNotIdempotent(t *testing.T) {
	store, _ := newTestStore(t, `[]`)
	store.now = func() time.Time { return time.UnixMilli(5000) }
	ctx := context.Background()

	in := domain.NewComment{Author: domain.StringPtr("bob"), Text: domain.StringPtr("same")}
	_, err := store.Append(ctx, in)
	require.NoError(t, err)
	comments, err := store.Append(ctx, in)
	require.NoError(t, err)

	require.Len(t, comments, 2)
	assert.Equal(t, int64(5000), comments[0].ID)
	assert.Equal(t, int64(5001), comments[1].ID)
}

func TestStore_RoundTripKeepsOrder(t *testing.T) {
	store, _ := newTestStore(t, `[{"id": 9999999999999, "author": "future", "text": "first"}]`)
	ctx := context.Background()

	texts := []string{"one", "two", "three", "four"}
	for _, text := range texts {
		_, err := store.Append(ctx, domain.NewComment{Author: domain.StringPtr("carol"), Text: domain.StringPtr(text)})
		require.NoError(t, err)
	}

	comments, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, comments, 5)
	assert.Equal(t, "first", *comments[0].Text)
	for i, text := range texts {
		assert.Equal(t, text, *comments[i+1].Text)
		// ID больше уже существующего, даже если часы "позади"
		assert.Greater(t, comments[i+1].ID, comments[i].ID)
	}
}

func TestStore_CorruptedAfterStartup(t *testing.T) {
	store, path := newTestStore(t, `[]`)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1,`), 0o644))
	_, err := store.List(ctx)
	assert.ErrorIs(t, err, storage.ErrUnparseable)

	_, err = store.Append(ctx, domain.NewComment{})
	assert.ErrorIs(t, err, storage.ErrUnparseable)

	require.NoError(t, os.WriteFile(path, []byte(`null`), 0o644))
	_, err = store.List(ctx)
	assert.ErrorIs(t, err, storage.ErrUnparseable)
}

func TestStore_DeletedAfterStartup(t *testing.T) {
	store, path := newTestStore(t, `[]`)
	require.NoError(t, os.Remove(path))

	_, err := store.List(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnreadable)
}

func TestStore_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	store, path := newTestStore(t, `[]`)
	dir := filepath.Dir(path)
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err := store.Append(context.Background(), domain.NewComment{Text: domain.StringPtr("x")})
	assert.ErrorIs(t, err, storage.ErrUnwritable)

	// Старое содержимое не тронуто
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

// Параллельные POST не теряют комментарии: запись сериализована мьютексом.
func TestStore_ConcurrentAppendsKeepEveryComment(t *testing.T) {
	store, _ := newTestStore(t, `[]`)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Append(ctx, domain.NewComment{Author: domain.StringPtr("racer"), Text: domain.StringPtr("go")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	comments, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, comments, n)

	seen := make(map[int64]bool, n)
	for _, c := range comments {
		assert.False(t, seen[c.ID], "duplicate id %d", c.ID)
		seen[c.ID] = true
	}

	entries, err := os.ReadDir(filepath.Dir(store.path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}
