package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirStore_CreateRefusesOverwrite(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, "merged_resume_20240101_000000.json", []byte(`{"a":1}`)))
	err = store.Create(ctx, "merged_resume_20240101_000000.json", []byte(`{"a":2}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExists))

	data, err := store.Read(ctx, "merged_resume_20240101_000000.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))
}

func TestDirStore_ReadMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Read(context.Background(), "missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDirStore_PutReplaces(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, HistoryFile, []byte(`{"a":1}`)))
	require.NoError(t, store.Put(ctx, HistoryFile, []byte(`{"a":2}`)))

	data, err := os.ReadFile(filepath.Join(dir, HistoryFile))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(data))

	files, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1, "temporary files should not linger")
}

func TestCreateUnique_AddsSuffix(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	first, err := CreateUnique(ctx, store, "merged_resume_20240101_000000", JSONExt, []byte(`{}`))
	require.NoError(t, err)
	second, err := CreateUnique(ctx, store, "merged_resume_20240101_000000", JSONExt, []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "merged_resume_20240101_000000.json", first)
	assert.Equal(t, "merged_resume_20240101_000000_1.json", second)
}

func TestLatest(t *testing.T) {
	store := NewMemStore()
	now := time.Now()
	store.AddFile("merged_resume_20240101_000000.json", []byte(`{}`), now)
	store.AddFile("merged_resume_20240301_000000.json", []byte(`{}`), now.Add(-time.Hour))
	store.AddFile("merged_resume_20240201_000000.json", []byte(`{}`), now)
	store.AddFile("text_response_20250101_000000.json", []byte(`{}`), now)

	name, err := Latest(context.Background(), store, MergedPrefix, JSONExt)
	require.NoError(t, err)
	assert.Equal(t, "merged_resume_20240301_000000.json", name)

	_, err = Latest(context.Background(), NewMemStore(), MergedPrefix, JSONExt)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestKindOfAndTimestamp(t *testing.T) {
	kind, ok := KindOf("pdf_response_20240101_101010.json")
	require.True(t, ok)
	assert.Equal(t, KindPDF, kind)

	_, ok = KindOf("merged_resume_20240101_101010.json")
	assert.False(t, ok)

	ts, ok := ParseNameTimestamp("text_response_20240101_101010.json")
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())

	name := FileName(KindText, time.Date(2024, 2, 3, 4, 5, 6, 0, time.Local))
	assert.Equal(t, "text_response_20240203_040506.json", name)
}

func TestDecodePayload_RejectsTrailingData(t *testing.T) {
	for _, raw := range []string{
		`{"skills": ["Go"]}}`,
		`{"skills": ["Go"]}]`,
		`{"skills": ["Go"]} x`,
		`{"a": 1} {"b": 2}`,
	} {
		_, err := DecodePayload([]byte(raw))
		assert.Error(t, err, "raw=%q", raw)
	}

	doc, err := DecodePayload([]byte("  {\"skills\": [\"Go\"]}\n\n"))
	require.NoError(t, err)
	assert.Equal(t, []any{"Go"}, doc["skills"])
}
