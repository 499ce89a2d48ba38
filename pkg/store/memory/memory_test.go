package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/joeydtaylor/steeze-social/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	store.Meta
	Author string   `json:"author"`
	Tags   []string `json:"tags"`
	Count  int      `json:"count"`
}

func TestCollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](New(), "notes")

	id, err := notes.Create(ctx, note{Author: "a1", Tags: []string{"space", "moon"}})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "a1", got.Author)
	assert.False(t, got.DateCreated.IsZero())

	_, err = notes.Create(ctx, note{Author: "a2", Tags: []string{"sun"}})
	require.NoError(t, err)

	byAuthor, err := notes.Find(ctx, store.Where(store.Eq("author", "a1")))
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)

	byTag, err := notes.Find(ctx, store.Where(store.Has("tags", "moon")))
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, id, byTag[0].ID)

	updated, err := notes.Update(ctx, id, func(n *note) error {
		n.Count = 3
		n.ID = "hijacked"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, 3, updated.Count)
	assert.Equal(t, got.DateCreated, updated.DateCreated)

	require.NoError(t, notes.Delete(ctx, id))
	_, err = notes.Get(ctx, id)
	assert.True(t, store.IsNotFound(err))
	assert.True(t, store.IsNotFound(notes.Delete(ctx, id)))
}

func TestFindPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](New(), "notes")
	var ids []string
	for i := 0; i < 5; i++ {
		id, err := notes.Create(ctx, note{Author: "same"})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	all, err := notes.Find(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i, n := range all {
		assert.Equal(t, ids[i], n.ID)
	}
}

func TestCreateWithIDIsExclusive(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](New(), "notes")
	_, err := notes.CreateWithID(ctx, "u1", note{})
	require.NoError(t, err)
	_, err = notes.CreateWithID(ctx, "u1", note{})
	assert.ErrorIs(t, err, store.ErrExists)
}

func TestUpdateIsAtomic(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](New(), "notes")
	id, err := notes.Create(ctx, note{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = notes.Update(ctx, id, func(n *note) error { n.Count++; return nil })
		}()
	}
	wg.Wait()

	got, err := notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Count)
}

func TestUpdateErrorLeavesRecord(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](New(), "notes")
	id, err := notes.Create(ctx, note{Count: 1})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = notes.Update(ctx, id, func(n *note) error { n.Count = 9; return boom })
	require.ErrorIs(t, err, boom)

	got, err := notes.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
}

func TestDeleteWhere(t *testing.T) {
	ctx := context.Background()
	notes := store.NewCollection[note](New(), "notes")
	for _, a := range []string{"x", "y", "x"} {
		_, err := notes.Create(ctx, note{Author: a})
		require.NoError(t, err)
	}
	n, err := notes.DeleteWhere(ctx, store.Where(store.Eq("author", "x")))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	rest, err := notes.Find(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
