package store

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps every table in a hash, fields are the hex state keys
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Backend = &RedisStore{}

func NewRedisStore(addr string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		prefix: "tabrl:" + tablePrefix,
	}
}

// Ping checks the connection to the server
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Save(ctx context.Context, name string, records []Record) error {
	key := r.prefix + name
	fields := make(map[string]interface{}, len(records))
	for _, rec := range records {
		fields[hex.EncodeToString(rec.Key)] = encodeValues(rec)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	return errors.Wrapf(err, "saving %s", name)
}

func (r *RedisStore) Load(ctx context.Context, name string) ([]Record, error) {
	fields, err := r.client.HGetAll(ctx, r.prefix+name).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", name)
	}
	if len(fields) == 0 {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	records := make([]Record, 0, len(fields))
	for field, value := range fields {
		key, err := hex.DecodeString(field)
		if err != nil {
			return nil, errors.Wrap(err, "decoding key")
		}
		rec, err := decodeValues(key, []byte(value))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
