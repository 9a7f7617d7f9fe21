package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enactus/membership/core"
)

type doc struct {
	ID    string    `bson:"_id,omitempty"`
	Name  string    `bson:"name"`
	Count int       `bson:"count"`
	At    time.Time `bson:"at"`
}

func TestDB_crud(t *testing.T) {
	ctx := context.Background()
	db := Open()
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	id, err := db.Insert(ctx, "things", doc{Name: "a", Count: 1, At: at})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got doc
	require.NoError(t, db.Get(ctx, "things", id, &got))
	assert.Equal(t, doc{ID: id, Name: "a", Count: 1, At: at}, got)

	require.NoError(t, db.Update(ctx, "things", id, core.Fields{"count": 2}))
	require.NoError(t, db.Get(ctx, "things", id, &got))
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, "a", got.Name)

	assert.Equal(t, core.ErrNotFound, db.Update(ctx, "things", "lol", core.Fields{"count": 3}))
	assert.Equal(t, core.ErrNotFound, db.Get(ctx, "things", "lol", &got))
	assert.Equal(t, core.ErrNotFound, db.Get(ctx, "nothing", id, &got))

	_, err = db.Insert(ctx, "things", doc{ID: id, Name: "dup"})
	assert.Error(t, err)

	require.NoError(t, db.Delete(ctx, "things", id))
	assert.Equal(t, core.ErrNotFound, db.Delete(ctx, "things", id))
	n, err := db.Count(ctx, "things", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDB_Upsert(t *testing.T) {
	ctx := context.Background()
	db := Open()

	require.NoError(t, db.Upsert(ctx, "things", "k", doc{Name: "first"}))
	require.NoError(t, db.Upsert(ctx, "things", "k", doc{Name: "second"}))

	var docs []doc
	require.NoError(t, db.GetAll(ctx, "things", &docs))
	assert.Equal(t, []doc{{ID: "k", Name: "second"}}, docs)
}

func TestDB_queries(t *testing.T) {
	ctx := context.Background()
	db := Open()
	for _, d := range []doc{{Name: "b", Count: 2}, {Name: "a", Count: 1}, {Name: "c", Count: 2}} {
		_, err := db.Insert(ctx, "things", d)
		require.NoError(t, err)
	}
	names := func(docs []doc) []string {
		var ns []string
		for _, d := range docs {
			ns = append(ns, d.Name)
		}
		return ns
	}

	var docs []doc
	require.NoError(t, db.GetAll(ctx, "things", &docs))
	assert.Equal(t, []string{"b", "a", "c"}, names(docs))

	require.NoError(t, db.GetFiltered(ctx, "things", core.Filter{"count": 2}, &docs))
	assert.Equal(t, []string{"b", "c"}, names(docs))

	require.NoError(t, db.GetOrdered(ctx, "things", core.DBOrdering{Field: "name", Ascending: true}, &docs))
	assert.Equal(t, []string{"a", "b", "c"}, names(docs))

	require.NoError(t, db.GetOrdered(ctx, "things", core.DBOrdering{Field: "name"}, &docs))
	assert.Equal(t, []string{"c", "b", "a"}, names(docs))

	n, err := db.Count(ctx, "things", core.Filter{"count": 2})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	require.NoError(t, db.GetAll(ctx, "nothing", &docs))
	assert.Empty(t, docs)

	var notASlice doc
	assert.Error(t, db.GetAll(ctx, "things", &notASlice))
}

func TestDB_BatchCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("all or nothing", func(t *testing.T) {
		db := Open()
		ids, err := db.BatchCommit(ctx, []core.BatchWrite{
			{Collection: "things", Doc: doc{Name: "a"}},
			{Collection: "things", Doc: doc{Name: "b"}},
		})
		require.NoError(t, err)
		assert.Len(t, ids, 2)

		// the duplicate id aborts the whole batch
		_, err = db.BatchCommit(ctx, []core.BatchWrite{
			{Collection: "things", Doc: doc{Name: "c"}},
			{Collection: "things", Doc: doc{ID: ids[0], Name: "dup"}},
		})
		assert.True(t, core.IsDataAccess(err))

		n, err := db.Count(ctx, "things", nil)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)
	})

	t.Run("injected fault", func(t *testing.T) {
		db := Open()
		db.FailNext(OpBatch, 1)
		_, err := db.BatchCommit(ctx, []core.BatchWrite{{Collection: "things", Doc: doc{Name: "a"}}})
		assert.True(t, core.IsDataAccess(err))

		n, _ := db.Count(ctx, "things", nil)
		assert.Zero(t, n)

		// one fault only
		_, err = db.BatchCommit(ctx, []core.BatchWrite{{Collection: "things", Doc: doc{Name: "a"}}})
		assert.NoError(t, err)
	})
}

func TestDB_faults(t *testing.T) {
	ctx := context.Background()
	db := Open()
	id, err := db.Insert(ctx, "things", doc{Name: "a"})
	require.NoError(t, err)

	ops := map[string]func() error{
		OpGet:    func() error { var d doc; return db.Get(ctx, "things", id, &d) },
		OpQuery:  func() error { var ds []doc; return db.GetAll(ctx, "things", &ds) },
		OpCount:  func() error { _, err := db.Count(ctx, "things", nil); return err },
		OpInsert: func() error { _, err := db.Insert(ctx, "things", doc{Name: "b"}); return err },
		OpUpdate: func() error { return db.Update(ctx, "things", id, core.Fields{"count": 1}) },
		OpUpsert: func() error { return db.Upsert(ctx, "things", "k", doc{}) },
		OpPing:   func() error { return db.Ping(ctx) },
	}
	for op, call := range ops {
		t.Run(op, func(t *testing.T) {
			db.FailNext(op, 1)
			err := call()
			assert.True(t, core.IsDataAccess(err))
			assert.ErrorIs(t, err, ErrInjected)
			assert.NoError(t, call())
		})
	}

	t.Run("down", func(t *testing.T) {
		db.SetDown(true)
		for _, call := range ops {
			assert.True(t, core.IsDataAccess(call()))
		}
		db.SetDown(false)
		assert.NoError(t, db.Ping(ctx))
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := db.Ping(cctx)
		assert.True(t, core.IsDataAccess(err))
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("reset", func(t *testing.T) {
		db.FailNext(OpGet, 5)
		db.Reset()
		var d doc
		assert.Equal(t, core.ErrNotFound, db.Get(ctx, "things", id, &d))
	})
}
