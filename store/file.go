package store

import (
	"context"
	"encoding/json"
	"os"
	"path"

	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/util"
)

// FileStore keeps every table as a json lines file in a directory
type FileStore struct {
	dir string
}

var _ Backend = &FileStore{}

func NewFileStore(dir string) (*FileStore, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) file(name string) string {
	return path.Join(f.dir, name+".jsonl")
}

func (f *FileStore) Save(_ context.Context, name string, records []Record) error {
	lines := make([]string, len(records))
	for i, r := range records {
		bs, err := json.Marshal(r)
		if err != nil {
			return errors.Wrap(err, "encoding record")
		}
		lines[i] = string(bs)
	}
	return util.WriteToFile(f.file(name), lines...)
}

func (f *FileStore) Load(_ context.Context, name string) ([]Record, error) {
	lines, err := util.ReadLines(f.file(name))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, name)
	} else if err != nil {
		return nil, err
	}
	records := make([]Record, len(lines))
	for i, line := range lines {
		if err := json.Unmarshal([]byte(line), &records[i]); err != nil {
			return nil, errors.Wrapf(err, "decoding line %d of %s", i+1, name)
		}
	}
	return records, nil
}

func (f *FileStore) Close() error {
	return nil
}
