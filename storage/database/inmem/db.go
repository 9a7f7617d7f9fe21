package inmemdb

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/storage/database"
)

// Operation names accepted by FailNext.
const (
	OpGet    = "get"
	OpQuery  = "query" // GetAll, GetFiltered, GetOrdered
	OpCount  = "count"
	OpInsert = "insert"
	OpUpdate = "update"
	OpUpsert = "upsert"
	OpDelete = "delete"
	OpBatch  = "batch"
	OpPing   = "ping"
)

var ErrInjected = errors.New("injected store fault")

type (
	table struct {
		docs  map[string]bson.M
		order []string // insertion order
	}

	// DB is an in-memory core.DocStore.
	// Documents round-trip through bson, so decoding behaves like the real store.
	DB struct {
		mutex  sync.RWMutex
		tables map[string]*table
		faults map[string]int
		down   bool
	}
)

var _ core.DocStore = (*DB)(nil)

func Open() *DB {
	return &DB{
		tables: make(map[string]*table),
		faults: make(map[string]int),
	}
}

// FailNext makes the next n calls of op fail with a *core.DataAccessError.
func (db *DB) FailNext(op string, n int) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.faults[op] += n
}

// SetDown makes every call fail (store unreachable) until reset.
func (db *DB) SetDown(down bool) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.down = down
}

// Reset drops all documents and faults.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.tables = make(map[string]*table)
	db.faults = make(map[string]int)
	db.down = false
}

// fault must be called with the lock held.
func (db *DB) fault(ctx context.Context, op, coll string) error {
	if err := ctx.Err(); err != nil {
		return core.NewDataAccessError(coll+"."+op, err)
	}
	if db.down {
		return core.NewDataAccessError(coll+"."+op, ErrInjected)
	}
	if db.faults[op] > 0 {
		db.faults[op]--
		return core.NewDataAccessError(coll+"."+op, ErrInjected)
	}
	return nil
}

func (db *DB) table(coll string) *table {
	t, ok := db.tables[coll]
	if !ok {
		t = &table{docs: make(map[string]bson.M)}
		db.tables[coll] = t
	}
	return t
}

// peek returns the table of coll without creating it, for read paths holding the read lock.
func (db *DB) peek(coll string) *table {
	if t, ok := db.tables[coll]; ok {
		return t
	}
	return &table{}
}

func (db *DB) lockedFault(ctx context.Context, op, coll string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	return db.fault(ctx, op, coll)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.lockedFault(ctx, OpPing, "db")
}

func (db *DB) Get(ctx context.Context, coll, id string, dst interface{}) error {
	if err := db.lockedFault(ctx, OpGet, coll); err != nil {
		return err
	}
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	doc, ok := db.peek(coll).docs[id]
	if !ok {
		return core.ErrNotFound
	}
	return decode(doc, dst)
}

func (db *DB) GetAll(ctx context.Context, coll string, dst interface{}) error {
	return db.GetFiltered(ctx, coll, nil, dst)
}

func (db *DB) GetFiltered(ctx context.Context, coll string, filter core.Filter, dst interface{}) error {
	if err := db.lockedFault(ctx, OpQuery, coll); err != nil {
		return err
	}
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	docs, err := db.filter(coll, filter)
	if err != nil {
		return err
	}
	return decodeAll(docs, dst)
}

func (db *DB) GetOrdered(ctx context.Context, coll string, ord core.DBOrdering, dst interface{}) error {
	if err := db.lockedFault(ctx, OpQuery, coll); err != nil {
		return err
	}
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	docs, err := db.filter(coll, nil)
	if err != nil {
		return err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := compare(docs[i][ord.Field], docs[j][ord.Field])
		if ord.Ascending {
			return c < 0
		}
		return c > 0
	})
	return decodeAll(docs, dst)
}

func (db *DB) Count(ctx context.Context, coll string, filter core.Filter) (int64, error) {
	if err := db.lockedFault(ctx, OpCount, coll); err != nil {
		return 0, err
	}
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	docs, err := db.filter(coll, filter)
	return int64(len(docs)), err
}

func (db *DB) Insert(ctx context.Context, coll string, doc interface{}) (string, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if err := db.fault(ctx, OpInsert, coll); err != nil {
		return "", err
	}

	m, id, err := database.EncodeDoc(doc)
	if err != nil {
		return "", err
	}
	t := db.table(coll)
	if _, exists := t.docs[id]; exists {
		return "", errors.Errorf("%s: duplicate id %q", coll, id)
	}
	t.docs[id] = m
	t.order = append(t.order, id)
	return id, nil
}

func (db *DB) Update(ctx context.Context, coll, id string, fields core.Fields) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if err := db.fault(ctx, OpUpdate, coll); err != nil {
		return err
	}

	doc, ok := db.table(coll).docs[id]
	if !ok {
		return core.ErrNotFound
	}
	updated := make(bson.M, len(doc)+len(fields))
	for k, v := range doc {
		updated[k] = v
	}
	for k, v := range fields {
		nv, err := database.NormalizeValue(v)
		if err != nil {
			return errors.Wrapf(err, "encoding field %q", k)
		}
		updated[k] = nv
	}
	db.table(coll).docs[id] = updated
	return nil
}

func (db *DB) Upsert(ctx context.Context, coll, id string, doc interface{}) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if err := db.fault(ctx, OpUpsert, coll); err != nil {
		return err
	}

	m, _, err := database.EncodeDoc(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	t := db.table(coll)
	if _, exists := t.docs[id]; !exists {
		t.order = append(t.order, id)
	}
	t.docs[id] = m
	return nil
}

func (db *DB) Delete(ctx context.Context, coll, id string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if err := db.fault(ctx, OpDelete, coll); err != nil {
		return err
	}

	t := db.table(coll)
	if _, ok := t.docs[id]; !ok {
		return core.ErrNotFound
	}
	delete(t.docs, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// BatchCommit encodes and checks every write before applying any of them, under one lock.
func (db *DB) BatchCommit(ctx context.Context, writes []core.BatchWrite) ([]string, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	if err := db.fault(ctx, OpBatch, "batch"); err != nil {
		return nil, err
	}

	type pending struct {
		coll string
		id   string
		doc  bson.M
	}
	toWrite := make([]pending, 0, len(writes))
	seen := make(map[string]bool, len(writes))
	for _, w := range writes {
		m, id, err := database.EncodeDoc(w.Doc)
		if err != nil {
			return nil, core.NewDataAccessError(w.Collection+".batch", err)
		}
		key := w.Collection + "/" + id
		if _, exists := db.table(w.Collection).docs[id]; exists || seen[key] {
			return nil, core.NewDataAccessError(w.Collection+".batch", errors.Errorf("duplicate id %q", id))
		}
		seen[key] = true
		toWrite = append(toWrite, pending{coll: w.Collection, id: id, doc: m})
	}

	ids := make([]string, 0, len(toWrite))
	for _, p := range toWrite {
		t := db.table(p.coll)
		t.docs[p.id] = p.doc
		t.order = append(t.order, p.id)
		ids = append(ids, p.id)
	}
	return ids, nil
}

// filter must be called with the (read) lock held.
func (db *DB) filter(coll string, filter core.Filter) ([]bson.M, error) {
	want := make(map[string]interface{}, len(filter))
	for k, v := range filter {
		nv, err := database.NormalizeValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding filter %q", k)
		}
		want[k] = nv
	}

	t := db.peek(coll)
	docs := make([]bson.M, 0, len(t.order))
	for _, id := range t.order {
		doc := t.docs[id]
		match := true
		for k, v := range want {
			if !reflect.DeepEqual(doc[k], v) {
				match = false
				break
			}
		}
		if match {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func decode(doc bson.M, dst interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "decoding document")
	}
	return errors.Wrap(bson.Unmarshal(data, dst), "decoding document")
}

// decodeAll decodes docs into dst, a pointer to a slice.
func decodeAll(docs []bson.M, dst interface{}) error {
	sliceVal := reflect.ValueOf(dst)
	if sliceVal.Kind() != reflect.Ptr || sliceVal.Elem().Kind() != reflect.Slice {
		return errors.New("decoding documents: dst must be a pointer to a slice")
	}
	sliceVal = sliceVal.Elem()
	elemType := sliceVal.Type().Elem()

	out := reflect.MakeSlice(sliceVal.Type(), 0, len(docs))
	for _, doc := range docs {
		elem := reflect.New(elemType)
		if err := decode(doc, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
	}
	sliceVal.Set(out)
	return nil
}

// compare orders the scalar values found in documents; missing values sort first.
func compare(a, b interface{}) int {
	switch av := a.(type) {
	case nil:
		if b == nil {
			return 0
		}
		return -1
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case primitive.DateTime:
		if bv, ok := b.(primitive.DateTime); ok {
			return compareTime(av.Time(), bv.Time())
		}
	case int32, int64, float64:
		if bf, ok := toFloat(b); ok {
			af, _ := toFloat(a)
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok {
			if av == bv {
				return 0
			}
			if !av {
				return -1
			}
			return 1
		}
	}
	if b == nil {
		return 1
	}
	return 0
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
