package storage

import (
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"github.com/tasukuchiba/message_board/internal/models"
)

func newTestBadger(t *testing.T, dir string) *BadgerStorage {
	t.Helper()
	store, err := NewBadgerStorage(dir, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func newV7(t *testing.T) string {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return id.String()
}

func Test_Badger_Save_And_Get(t *testing.T) {
	req := require.New(t)
	store := newTestBadger(t, t.TempDir())
	defer store.Close()

	msg := models.Message{
		ID:            newV7(t),
		Title:         lo.ToPtr("Hi"),
		Body:          lo.ToPtr("there"),
		AttachmentURL: lo.ToPtr("https://example.com/cat.png"),
		CreatedAt:     time.UnixMilli(1_760_000_000_123).UTC(),
	}
	req.NoError(store.Save(msg))

	fetched, ok, err := store.GetByID(msg.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(msg, fetched)

	_, ok, err = store.GetByID("missing")
	req.NoError(err)
	req.False(ok)
}

func Test_Badger_GetAll_Keeps_Creation_Order(t *testing.T) {
	req := require.New(t)
	store := newTestBadger(t, t.TempDir())
	defer store.Close()

	var ids []string
	for _, title := range []string{"Alice", "Bob", "Clara"} {
		id := newV7(t)
		ids = append(ids, id)
		req.NoError(store.Save(models.Message{ID: id, Title: lo.ToPtr(title)}))
	}

	// 上書きしても順序は変わらない
	req.NoError(store.Save(models.Message{ID: ids[0], Title: lo.ToPtr("Alice!")}))

	messages, err := store.GetAll()
	req.NoError(err)
	req.Len(messages, 3)
	req.Equal(ids, lo.Map(messages, func(m models.Message, _ int) string { return m.ID }))
	req.Equal("Alice!", lo.FromPtr(messages[0].Title))
}

func Test_Badger_GetAll_Empty(t *testing.T) {
	req := require.New(t)
	store := newTestBadger(t, t.TempDir())
	defer store.Close()

	messages, err := store.GetAll()
	req.NoError(err)
	req.NotNil(messages)
	req.Empty(messages)
}

func Test_Badger_Delete(t *testing.T) {
	req := require.New(t)
	store := newTestBadger(t, t.TempDir())
	defer store.Close()

	msg := models.Message{ID: newV7(t), Body: lo.ToPtr("bye")}
	req.NoError(store.Save(msg))

	deleted, ok, err := store.Delete(msg.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(msg.ID, deleted.ID)
	req.Equal("bye", lo.FromPtr(deleted.Body))

	_, ok, err = store.GetByID(msg.ID)
	req.NoError(err)
	req.False(ok)

	_, ok, err = store.Delete(msg.ID)
	req.NoError(err)
	req.False(ok)
}

func Test_Badger_Survives_Reopen(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	store := newTestBadger(t, dir)
	updatedAt := time.UnixMilli(1_760_000_001_000).UTC()
	msg := models.Message{
		ID:        newV7(t),
		Title:     lo.ToPtr("persisted"),
		CreatedAt: time.UnixMilli(1_760_000_000_000).UTC(),
		UpdatedAt: &updatedAt,
	}
	req.NoError(store.Save(msg))
	req.NoError(store.Close())

	reopened := newTestBadger(t, dir)
	defer reopened.Close()

	fetched, ok, err := reopened.GetByID(msg.ID)
	req.NoError(err)
	req.True(ok)
	req.Equal(msg, fetched)
}

func Test_Badger_Closed(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)

	store := NewBadgerStorageFromDB(db)
	req.NoError(store.Close())

	_, _, err = store.GetByID("any")
	req.ErrorIs(err, ErrClosed)
}

func Test_Badger_Implements_Storage(t *testing.T) {
	var _ Storage = (*BadgerStorage)(nil)
}
