// Package store persists learned tables.
//
// Tables are converted to Records whose keys are the binary encoding of the
// states, so only states implementing encoding.BinaryMarshaler can be
// stored. Restoring needs the Decoder of the environment the states belong to.
package store

import (
	"context"
	"encoding"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/zeu5/tabular-marl/table"
	"github.com/zeu5/tabular-marl/types"
)

// Record is the persisted form of a table entry
type Record struct {
	Key    []byte    `json:"key"`
	Values []float64 `json:"values"`
	Usage  int       `json:"usage"`
}

// Backend stores the records of named tables
type Backend interface {
	// Save replaces the records of the table
	Save(ctx context.Context, name string, records []Record) error
	Load(ctx context.Context, name string) ([]Record, error)
	Close() error
}

// ErrNotFound is returned when loading a table that was never saved
var ErrNotFound = errors.New("table not found")

// Decoder recreates a state from its binary encoding
type Decoder func([]byte) (types.State, error)

type Dumper interface {
	Entries() []table.Entry
}

type Loader interface {
	Load([]table.Entry)
}

// Snapshot converts the entries of the table to records
func Snapshot(t Dumper) ([]Record, error) {
	entries := t.Entries()
	records := make([]Record, len(entries))
	for i, e := range entries {
		m, ok := e.State.(encoding.BinaryMarshaler)
		if !ok {
			return nil, errors.Errorf("state %T cannot be marshaled", e.State)
		}
		key, err := m.MarshalBinary()
		if err != nil {
			return nil, errors.Wrap(err, "marshaling state")
		}
		records[i] = Record{Key: key, Values: e.Values, Usage: e.Usage}
	}
	return records, nil
}

// Restore decodes the records and loads them into the table
func Restore(t Loader, records []Record, decode Decoder) error {
	entries := make([]table.Entry, len(records))
	for i, r := range records {
		state, err := decode(r.Key)
		if err != nil {
			return errors.Wrapf(err, "decoding record %d", i)
		}
		entries[i] = table.Entry{State: state, Values: r.Values, Usage: r.Usage}
	}
	t.Load(entries)
	return nil
}

// encodeValues packs the usage followed by the values
func encodeValues(r Record) []byte {
	buf := make([]byte, 8*(len(r.Values)+1))
	binary.LittleEndian.PutUint64(buf, uint64(r.Usage))
	for i, v := range r.Values {
		binary.LittleEndian.PutUint64(buf[8*(i+1):], math.Float64bits(v))
	}
	return buf
}

func decodeValues(key, buf []byte) (Record, error) {
	if len(buf) < 8 || len(buf)%8 != 0 {
		return Record{}, errors.Errorf("invalid record of %d bytes", len(buf))
	}
	r := Record{
		Key:    key,
		Usage:  int(binary.LittleEndian.Uint64(buf)),
		Values: make([]float64, len(buf)/8-1),
	}
	for i := range r.Values {
		r.Values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*(i+1):]))
	}
	return r, nil
}

// SaveTable snapshots the table and saves it under name
func SaveTable(ctx context.Context, b Backend, name string, t Dumper) error {
	records, err := Snapshot(t)
	if err != nil {
		return err
	}
	return b.Save(ctx, name, records)
}

// LoadTable loads the records saved under name into the table
func LoadTable(ctx context.Context, b Backend, name string, t Loader, decode Decoder) error {
	records, err := b.Load(ctx, name)
	if err != nil {
		return err
	}
	return Restore(t, records, decode)
}
