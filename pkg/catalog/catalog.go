// Package catalog persists transport-file metadata in a local pebble store
// so tooling can answer "what datasets do we have" without re-decoding every
// file. Entries hold header and namestr metadata only; row data never enters
// the catalog.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/trialdata/xportio/pkg/engine"
)

const entryPrefix = "dataset/"

// ColumnSummary is the per-variable slice of a catalog entry.
type ColumnSummary struct {
	Name   string `json:"name"`
	Label  string `json:"label,omitempty"`
	Kind   string `json:"kind"`
	Length int    `json:"length"`
	Format string `json:"format,omitempty"`
}

// Entry is one cataloged dataset.
type Entry struct {
	ID        string          `json:"id"` // ksuid assigned at first index
	File      string          `json:"file"`
	Dataset   string          `json:"dataset"`
	Label     string          `json:"label,omitempty"`
	Version   string          `json:"version"`
	Columns   []ColumnSummary `json:"columns"`
	Rows      int64           `json:"rows"`
	Bytes     int64           `json:"bytes"`
	IndexedAt time.Time       `json:"indexed_at"`
}

// Catalog is a handle on the pebble store. It is not safe for concurrent
// mutation from multiple processes; one catalog directory belongs to one
// tool invocation at a time.
type Catalog struct {
	db *pebble.DB
}

// Open opens (or creates) the catalog at path.
func Open(path string) (*Catalog, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Put stores an entry under its dataset name, assigning an ID on first
// insert and preserving it on re-index.
func (c *Catalog) Put(e *Entry) error {
	if e.Dataset == "" {
		return fmt.Errorf("catalog entry has no dataset name")
	}
	prev, err := c.Get(e.Dataset)
	switch {
	case err == nil:
		e.ID = prev.ID
	case errors.Is(err, pebble.ErrNotFound):
		// First index of this dataset.
	default:
		return fmt.Errorf("look up catalog entry %q: %w", e.Dataset, err)
	}
	if e.ID == "" {
		e.ID = ksuid.New().String()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal catalog entry: %w", err)
	}
	return c.db.Set([]byte(entryPrefix+e.Dataset), data, pebble.Sync)
}

// Get fetches the entry for a dataset name.
func (c *Catalog) Get(name string) (*Entry, error) {
	data, closer, err := c.db.Get([]byte(entryPrefix + name))
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal catalog entry %q: %w", name, err)
	}
	return &e, nil
}

// List returns every entry in dataset-name order.
func (c *Catalog) List() ([]*Entry, error) {
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(entryPrefix),
		UpperBound: []byte(entryPrefix + "\xff"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []*Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("unmarshal catalog entry %q: %w", iter.Key(), err)
		}
		entries = append(entries, &e)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Delete removes a dataset's entry.
func (c *Catalog) Delete(name string) error {
	return c.db.Delete([]byte(entryPrefix+name), pebble.Sync)
}

// Close closes the underlying store.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// IndexFile decodes the metadata of one transport file, streams through its
// rows to count them, and stores the result.
func (c *Catalog) IndexFile(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e, err := Summarize(f, path)
	if err != nil {
		return nil, err
	}
	if err := c.Put(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Summarize builds a catalog entry from a transport byte stream without
// touching the store.
func Summarize(r io.Reader, path string) (*Entry, error) {
	rd, err := engine.NewReader(r, engine.ReaderConfig{})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	ds := rd.Dataset()

	cols := make([]ColumnSummary, len(ds.Columns))
	for i, col := range ds.Columns {
		cols[i] = ColumnSummary{
			Name:   col.Name,
			Label:  col.Label,
			Kind:   col.Kind.String(),
			Length: col.Length,
			Format: col.Format.Name,
		}
	}

	var rows int64
	it := rd.Rows()
	for it.Next() {
		rows++
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("count rows in %s: %w", path, err)
	}

	return &Entry{
		File:      path,
		Dataset:   ds.Name,
		Label:     ds.Label,
		Version:   ds.Version.String(),
		Columns:   cols,
		Rows:      rows,
		Bytes:     rows * int64(ds.RecordLength()),
		IndexedAt: time.Now().UTC(),
	}, nil
}
