package store

import (
	"context"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const tablePrefix = "q:"

// LevelDBStore keeps the records under keys q:<table>:<hex state key>
type LevelDBStore struct {
	db    *leveldb.DB
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

var _ Backend = &LevelDBStore{}

// OpenLevelDB opens (or creates) the database at path
func OpenLevelDB(path string) (*LevelDBStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb %s", path)
	}
	return NewLevelDBStore(db), nil
}

func NewLevelDBStore(db *leveldb.DB) *LevelDBStore {
	return &LevelDBStore{db: db}
}

func prefix(name string) []byte {
	return []byte(tablePrefix + name + ":")
}

func (l *LevelDBStore) Save(ctx context.Context, name string, records []Record) error {
	p := prefix(name)
	batch := new(leveldb.Batch)
	iter := l.db.NewIterator(util.BytesPrefix(p), l.rOpts)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := append(append([]byte(nil), p...), hex.EncodeToString(r.Key)...)
		batch.Put(key, encodeValues(r))
	}
	return l.db.Write(batch, l.wOpts)
}

func (l *LevelDBStore) Load(ctx context.Context, name string) ([]Record, error) {
	p := prefix(name)
	iter := l.db.NewIterator(util.BytesPrefix(p), l.rOpts)
	defer iter.Release()

	records := make([]Record, 0)
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key, err := hex.DecodeString(string(iter.Key()[len(p):]))
		if err != nil {
			return nil, errors.Wrap(err, "decoding key")
		}
		r, err := decodeValues(key, iter.Value())
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	return records, nil
}

func (l *LevelDBStore) Close() error {
	return l.db.Close()
}
