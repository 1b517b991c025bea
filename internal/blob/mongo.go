package blob

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

type mongoBlob struct {
	Store     string    `bson:"store"`
	Key       string    `bson:"key"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoBackend keeps all stores in one collection, one document per
// (store, key).
type MongoBackend struct {
	col   *mongo.Collection
	store string
}

// EnsureMongoIndexes creates the unique (store, key) index. Idempotent.
func EnsureMongoIndexes(ctx context.Context, col *mongo.Collection) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "store", Value: 1}, {Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, err := col.Indexes().CreateOne(ctx, idx)
	return err
}

func NewMongoBackend(col *mongo.Collection, store string) *MongoBackend {
	return &MongoBackend{col: col, store: store}
}

func (m *MongoBackend) filter(key string) bson.M {
	return bson.M{"store": m.store, "key": key}
}

func (m *MongoBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoBlob
	if err := m.col.FindOne(ctx, m.filter(key)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Value, nil
}

func (m *MongoBackend) Set(ctx context.Context, key string, value []byte) error {
	upd := bson.M{"$set": bson.M{"value": value, "updatedAt": time.Now().UTC()}}
	_, err := m.col.UpdateOne(ctx, m.filter(key), upd, options.Update().SetUpsert(true))
	return err
}

func (m *MongoBackend) Delete(ctx context.Context, key string) (bool, error) {
	res, err := m.col.DeleteOne(ctx, m.filter(key))
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoBackend) Keys(ctx context.Context) ([]string, error) {
	cur, err := m.col.Find(ctx, bson.M{"store": m.store}, options.Find().SetProjection(bson.M{"key": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []string
	for cur.Next(ctx) {
		var doc mongoBlob
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Key)
	}
	return out, cur.Err()
}
