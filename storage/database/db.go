package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/enactus/membership/core"
)

// Open connects to the document database and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetTimeout(conf.Database.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "pinging database")
	}
	return client, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EncodeDoc converts a bson-tagged struct (or map) into a document, assigning a new "_id" when unset.
func EncodeDoc(doc interface{}) (bson.M, string, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, "", errors.Wrap(err, "encoding document")
	}
	var m bson.M
	if err = bson.Unmarshal(data, &m); err != nil {
		return nil, "", errors.Wrap(err, "encoding document")
	}
	id, _ := m["_id"].(string)
	if id == "" {
		id = uuid.NewString()
		m["_id"] = id
	}
	return m, id, nil
}

// NormalizeValue returns v as it reads back from a stored document.
func NormalizeValue(v interface{}) (interface{}, error) {
	data, err := bson.Marshal(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err = bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m["v"], nil
}
