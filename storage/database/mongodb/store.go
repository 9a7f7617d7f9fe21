package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/storage/database"
)

// Store is a core.DocStore backed by MongoDB.
// BatchCommit uses a multi-document transaction, so the server must run as a replica set.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ core.DocStore = (*Store)(nil)

func NewStore(client *mongo.Client, dbName string) *Store {
	return &Store{client: client, db: client.Database(dbName)}
}

func (s *Store) coll(name string) *mongo.Collection {
	return s.db.Collection(name)
}

func dataErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Cause(err) == mongo.ErrNoDocuments {
		return core.ErrNotFound
	}
	return core.NewDataAccessError(op, err)
}

func (s *Store) Ping(ctx context.Context) error {
	return dataErr("db.ping", s.client.Ping(ctx, readpref.Primary()))
}

func (s *Store) Get(ctx context.Context, coll, id string, dst interface{}) error {
	err := s.coll(coll).FindOne(ctx, bson.M{"_id": id}).Decode(dst)
	return dataErr(coll+".get", err)
}

func (s *Store) GetAll(ctx context.Context, coll string, dst interface{}) error {
	return s.find(ctx, coll, bson.M{}, nil, dst)
}

func (s *Store) GetFiltered(ctx context.Context, coll string, filter core.Filter, dst interface{}) error {
	return s.find(ctx, coll, bson.M(filter), nil, dst)
}

func (s *Store) GetOrdered(ctx context.Context, coll string, ord core.DBOrdering, dst interface{}) error {
	direction := -1
	if ord.Ascending {
		direction = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: ord.Field, Value: direction}})
	return s.find(ctx, coll, bson.M{}, opts, dst)
}

func (s *Store) find(ctx context.Context, coll string, filter bson.M, opts *options.FindOptions, dst interface{}) error {
	if filter == nil {
		filter = bson.M{}
	}
	var findOpts []*options.FindOptions
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	cur, err := s.coll(coll).Find(ctx, filter, findOpts...)
	if err != nil {
		return dataErr(coll+".find", err)
	}
	return dataErr(coll+".find", cur.All(ctx, dst))
}

func (s *Store) Count(ctx context.Context, coll string, filter core.Filter) (int64, error) {
	f := bson.M(filter)
	if f == nil {
		f = bson.M{}
	}
	n, err := s.coll(coll).CountDocuments(ctx, f)
	return n, dataErr(coll+".count", err)
}

func (s *Store) Insert(ctx context.Context, coll string, doc interface{}) (string, error) {
	m, id, err := database.EncodeDoc(doc)
	if err != nil {
		return "", err
	}
	if _, err = s.coll(coll).InsertOne(ctx, m); err != nil {
		return "", dataErr(coll+".insert", err)
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, coll, id string, fields core.Fields) error {
	res, err := s.coll(coll).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return dataErr(coll+".update", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, coll, id string, doc interface{}) error {
	m, _, err := database.EncodeDoc(doc)
	if err != nil {
		return err
	}
	m["_id"] = id
	opts := options.Replace().SetUpsert(true)
	_, err = s.coll(coll).ReplaceOne(ctx, bson.M{"_id": id}, m, opts)
	return dataErr(coll+".upsert", err)
}

func (s *Store) Delete(ctx context.Context, coll, id string) error {
	res, err := s.coll(coll).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return dataErr(coll+".delete", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// BatchCommit inserts every write inside one transaction; any failure aborts all of them.
func (s *Store) BatchCommit(ctx context.Context, writes []core.BatchWrite) ([]string, error) {
	docs := make([]bson.M, 0, len(writes))
	ids := make([]string, 0, len(writes))
	for _, w := range writes {
		m, id, err := database.EncodeDoc(w.Doc)
		if err != nil {
			return nil, core.NewDataAccessError(w.Collection+".batch", err)
		}
		docs = append(docs, m)
		ids = append(ids, id)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return nil, dataErr("batch.session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		for i, w := range writes {
			if _, err := s.coll(w.Collection).InsertOne(sc, docs[i]); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, dataErr("batch.commit", err)
	}
	return ids, nil
}
