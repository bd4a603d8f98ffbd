// Package store implements the key-value record store over MongoDB (durable)
// with a Redis cache and geo index in front.
package store

import (
	"context"
	"errors"
	"log"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"goodimpact-server/observability"
	"goodimpact-server/utils/geo"
)

// ErrNotFound is returned by Get when the key has no record.
var ErrNotFound = errors.New("record not found")

// Store is the record contract the catalogue depends on. Keys under the
// "mission:" and "user:" prefixes are opaque catalogue partitions; the
// values are JSON documents the store does not interpret.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	GetByPrefix(ctx context.Context, prefix string) ([][]byte, error)
}

const (
	cacheKeyPrefix = "kv:"
	usersGeoKey    = "users:geo"
	cacheTTL       = 24 * time.Hour
	geoTTL         = 5 * time.Minute
)

type record struct {
	Key   string `bson:"_id"`
	Value []byte `bson:"value"`
}

// KVStore is the production Store: MongoDB holds the durable records, Redis
// caches single-key reads. Prefix scans always go to Mongo since the cache
// may be incomplete.
type KVStore struct {
	collection  *mongo.Collection
	redisClient *redis.Client
}

func NewKVStore(ctx context.Context, mongoURI, database string, redisClient *redis.Client) (*KVStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	log.Println("Connected to MongoDB")

	return &KVStore{
		collection:  client.Database(database).Collection("records"),
		redisClient: redisClient,
	}, nil
}

// Get returns the record for key, preferring the Redis cache and falling
// back to Mongo. A Mongo hit is re-cached with a TTL.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	cached, err := s.redisClient.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		observability.CacheErrors.Inc()
		log.Printf("Redis get error for %s, reading Mongo: %v", key, err)
	}

	var rec record
	err = s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		observability.StoreErrors.Inc()
		return nil, err
	}

	if err := s.redisClient.Set(ctx, cacheKeyPrefix+key, rec.Value, cacheTTL).Err(); err != nil {
		observability.CacheErrors.Inc()
		log.Printf("Failed to cache record %s: %v", key, err)
	}
	return rec.Value, nil
}

// Set writes the record through to Mongo, then refreshes the cache. A cache
// write failure is logged and counted but does not fail the operation.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.collection.ReplaceOne(
		ctx,
		bson.M{"_id": key},
		record{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		observability.StoreErrors.Inc()
		return err
	}

	if err := s.redisClient.Set(ctx, cacheKeyPrefix+key, value, cacheTTL).Err(); err != nil {
		observability.CacheErrors.Inc()
		log.Printf("Failed to cache record %s: %v", key, err)
	}
	return nil
}

// GetByPrefix returns every record whose key starts with prefix.
func (s *KVStore) GetByPrefix(ctx context.Context, prefix string) ([][]byte, error) {
	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		observability.StoreErrors.Inc()
		return nil, err
	}
	defer cursor.Close(ctx)

	var values [][]byte
	for cursor.Next(ctx) {
		var rec record
		if err := cursor.Decode(&rec); err != nil {
			observability.StoreErrors.Inc()
			return nil, err
		}
		values = append(values, rec.Value)
	}
	if err := cursor.Err(); err != nil {
		observability.StoreErrors.Inc()
		return nil, err
	}
	return values, nil
}

// GeoUpsert records a user position in the Redis geo index. The index is a
// live-presence mirror with a short TTL: entries for users that stop pinging
// expire together with the set.
func (s *KVStore) GeoUpsert(ctx context.Context, member string, c geo.Coordinate) error {
	err := s.redisClient.GeoAdd(ctx, usersGeoKey, &redis.GeoLocation{
		Name:      member,
		Longitude: c.Lng,
		Latitude:  c.Lat,
	}).Err()
	if err != nil {
		return err
	}
	return s.redisClient.Expire(ctx, usersGeoKey, geoTTL).Err()
}

// GeoNearby returns ids of users currently pinging within radiusKm of c,
// nearest first.
func (s *KVStore) GeoNearby(ctx context.Context, c geo.Coordinate, radiusKm float64) ([]string, error) {
	results, err := s.redisClient.GeoRadius(ctx, usersGeoKey, c.Lng, c.Lat, &redis.GeoRadiusQuery{
		Radius:   radiusKm,
		Unit:     "km",
		WithDist: true,
		Sort:     "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Name)
	}
	return ids, nil
}
