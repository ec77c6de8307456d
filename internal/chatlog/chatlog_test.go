package chatlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	s.now = fixedNow
	return s
}

func TestLoggerLogAndMessages(t *testing.T) {
	store := newFileStore(t)
	l, err := NewLogger(store, WithClock(fixedNow))
	require.NoError(t, err)

	var seen []Entry
	l.OnLog(func(e Entry) { seen = append(seen, e) })

	_, err = l.Log(TypeUserMessage, "User", "hi", map[string]any{"agent": "concurrent"})
	require.NoError(t, err)
	_, err = l.Log(TypeAIResponse, "concurrent Agent", "hello", nil)
	require.NoError(t, err)
	_, err = l.Log(TypeError, "System", "boom", nil)
	require.NoError(t, err)

	all := l.Messages(0)
	require.Len(t, all, 3)
	assert.Equal(t, TypeUserMessage, all[0].Type)
	assert.Equal(t, fixedNow(), all[0].Timestamp)
	assert.Len(t, seen, 3)

	last := l.Messages(2)
	require.Len(t, last, 2)
	assert.Equal(t, "hello", last[0].Message)
	assert.Equal(t, "boom", last[1].Message)
}

func TestLoggerReloadsFromFile(t *testing.T) {
	store := newFileStore(t)
	l, err := NewLogger(store, WithClock(fixedNow))
	require.NoError(t, err)
	_, err = l.Log(TypeUserMessage, "User", "persist me", nil)
	require.NoError(t, err)

	reopened, err := NewLogger(store)
	require.NoError(t, err)
	msgs := reopened.Messages(10)
	require.Len(t, msgs, 1)
	assert.Equal(t, "persist me", msgs[0].Message)

	_, err = os.Stat(filepath.Join(store.Dir(), "messages_20250314.log"))
	require.NoError(t, err)
}

func TestLoggerClear(t *testing.T) {
	store := newFileStore(t)
	l, err := NewLogger(store)
	require.NoError(t, err)
	_, err = l.Log(TypeUserMessage, "User", "gone soon", nil)
	require.NoError(t, err)

	require.NoError(t, l.Clear())
	assert.Empty(t, l.Messages(0))

	reopened, err := NewLogger(store)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	store := newFileStore(t)
	content := `{"timestamp":"2025-03-14T09:00:00Z","type":"user_message","sender":"User","message":"ok"}
not json
{"timestamp":"2025-03-14T09:01:00Z","type":"ai_response","sender":"Bot","message":"fine"}
`
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "messages_20250314.log"), []byte(content), 0644))

	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "fine", entries[1].Message)
}

func TestFileStoreFilesAndReadFile(t *testing.T) {
	store := newFileStore(t)
	older := `{"type":"user_message","sender":"User","message":"a"}` + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "messages_20250101.log"), []byte(older), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, store.Append(Entry{Type: TypeUserMessage, Sender: "User", Message: "b"}))
	require.NoError(t, store.Append(Entry{Type: TypeAIResponse, Sender: "Bot", Message: "c"}))

	files, err := store.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "messages_20250314.log", files[0].Filename)
	assert.Equal(t, 2, files[0].Lines)
	assert.Equal(t, "messages_20250101.log", files[1].Filename)
	assert.Equal(t, 1, files[1].Lines)
	assert.Equal(t, int64(len(older)), files[1].Size)

	entries, err := store.ReadFile("messages_20250101.log")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Message)

	for _, name := range []string{"", "../secret.log", "sub/messages.log", "notes.txt", "missing.log"} {
		_, err := store.ReadFile(name)
		assert.ErrorIs(t, err, ErrFileNotFound, name)
	}
}

func TestBadgerStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBadgerStore(dir, nil)
	require.NoError(t, err)

	l, err := NewLogger(store, WithClock(fixedNow))
	require.NoError(t, err)
	for _, m := range []string{"one", "two", "three"} {
		_, err := l.Log(TypeUserMessage, "User", m, nil)
		require.NoError(t, err)
	}
	require.NoError(t, store.Close())

	store, err = NewBadgerStore(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	entries, err := store.Load()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "one", entries[0].Message)
	assert.Equal(t, "three", entries[2].Message)

	l, err = NewLogger(store)
	require.NoError(t, err)
	require.NoError(t, l.Clear())
	entries, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
