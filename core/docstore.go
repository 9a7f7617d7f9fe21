package core

import "context"

// Collections
const (
	CollUsers    = "users"
	CollAbsences = "absences"
	CollEvents   = "events"
	CollPosts    = "posts"
	CollMembers  = "members"
)

type (
	// Filter matches documents whose fields equal all the given values.
	Filter map[string]interface{}

	// Fields is a partial document used for updates.
	Fields map[string]interface{}

	// BatchWrite is one insert of a batch commit.
	BatchWrite struct {
		Collection string
		Doc        interface{}
	}

	// DocStore is the document store client.
	// Documents are bson-tagged structs; dst arguments are pointers to a struct (Get) or to a slice (queries).
	// Every method returns ErrNotFound for missing documents and a *DataAccessError when the store fails.
	DocStore interface {
		Ping(ctx context.Context) error
		Get(ctx context.Context, coll, id string, dst interface{}) error
		GetAll(ctx context.Context, coll string, dst interface{}) error
		GetFiltered(ctx context.Context, coll string, filter Filter, dst interface{}) error
		GetOrdered(ctx context.Context, coll string, ord DBOrdering, dst interface{}) error
		Count(ctx context.Context, coll string, filter Filter) (int64, error)
		// Insert stores doc under a new id, or under doc's "_id" when set.
		Insert(ctx context.Context, coll string, doc interface{}) (string, error)
		Update(ctx context.Context, coll, id string, fields Fields) error
		Upsert(ctx context.Context, coll, id string, doc interface{}) error
		Delete(ctx context.Context, coll, id string) error
		// BatchCommit inserts all docs or none of them.
		BatchCommit(ctx context.Context, writes []BatchWrite) ([]string, error)
	}
)

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
