package store

import (
	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/config"
)

// Open creates the backend of the section. Kinds: file (param dir),
// leveldb (param path) and redis (params addr, db).
func Open(section config.Section) (Backend, error) {
	switch section.Kind {
	case "file", "":
		f, err := NewFileStore(section.Params.StringOr("dir", "tables"))
		if err != nil {
			return nil, err
		}
		return f, nil
	case "leveldb":
		path, err := section.Params.String("path")
		if err != nil {
			return nil, err
		}
		l, err := OpenLevelDB(path)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "redis":
		db, err := section.Params.IntOr("db", 0)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(section.Params.StringOr("addr", "localhost:6379"), db), nil
	}
	return nil, errors.Wrapf(config.ErrBadValue, "unknown store %q", section.Kind)
}
