package domain

import (
	"fmt"
	"path"
	"time"
)

// Chunk is an ordered batch of consecutive source rows uploaded as one object.
type Chunk struct {
	Index  int        // zero-based position in the run
	Header []string   // column names, repeated in every chunk
	Rows   [][]string // data rows in source order, at most the configured chunk size
}

// Len returns the number of data rows in the chunk.
func (c *Chunk) Len() int { return len(c.Rows) }

// ObjectKey names the remote object a chunk is stored under.
type ObjectKey struct {
	Dir    string // optional path prefix, e.g. "landing"
	Prefix string // key prefix, e.g. "transactions"
	Unix   int64
	Index  int
}

// NewObjectKey builds the key for chunk index at time t.
func NewObjectKey(dir, prefix string, t time.Time, index int) ObjectKey {
	return ObjectKey{Dir: dir, Prefix: prefix, Unix: t.Unix(), Index: index}
}

// String renders the key as "<dir>/<prefix>_chunk_<unix>_<index>.csv".
// The index keeps keys unique within a run when the timestamp repeats.
func (k ObjectKey) String() string {
	name := fmt.Sprintf("%s_chunk_%d_%d.csv", k.Prefix, k.Unix, k.Index)
	if k.Dir == "" {
		return name
	}
	return path.Join(k.Dir, name)
}
