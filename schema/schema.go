// Package schema implements the fabric's column-type/row-count descriptor
// (spec.md §4.7), grounded in original_source/src/dataframe/schema.h but
// backed by a Go slice instead of a manually resized char*.
package schema

import (
	"fmt"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/wire"
)

// Schema is an ordered list of column types plus the dataframe's current
// row count.
type Schema struct {
	types []column.Kind
	nrows int
}

// New constructs a Schema from an initial type sequence.
func New(types ...column.Kind) *Schema {
	cp := append([]column.Kind(nil), types...)
	return &Schema{types: cp}
}

// Width reports the number of columns.
func (s *Schema) Width() int { return len(s.types) }

// Len reports the number of rows.
func (s *Schema) Len() int { return s.nrows }

// ColType returns the type tag of column idx.
func (s *Schema) ColType(idx int) column.Kind {
	return s.types[idx]
}

// AddColumn appends a column type; existing rows keep their count, the new
// column starts out owing the dataframe a push per row (the caller's
// responsibility per the rectangularity invariant).
func (s *Schema) AddColumn(k column.Kind) {
	s.types = append(s.types, k)
}

// AddRow increments the row count. DataFrame calls this once all fields of
// a row have been pushed to their columns.
func (s *Schema) AddRow() {
	s.nrows++
}

// Clone returns an independent copy with the same types and row count, the
// basis for DataFrame.NewLike (spec.md §5 supplement).
func (s *Schema) Clone() *Schema {
	return &Schema{types: append([]column.Kind(nil), s.types...), nrows: s.nrows}
}

// Serialize encodes <n_cols:4><n_rows:4><types...> matching spec.md §8.
func (s *Schema) Serialize() []byte {
	buf := make([]byte, 8+len(s.types))
	wire.PutUint32(buf[0:4], uint32(len(s.types)))
	wire.PutUint32(buf[4:8], uint32(s.nrows))
	for i, t := range s.types {
		buf[8+i] = byte(t)
	}
	return buf
}

// Deserialize is the inverse of Serialize.
func Deserialize(buf []byte) (*Schema, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("schema: buffer too short (%d bytes)", len(buf))
	}
	ncols := int(wire.Uint32(buf[0:4]))
	nrows := int(wire.Uint32(buf[4:8]))
	if len(buf) < 8+ncols {
		return nil, fmt.Errorf("schema: buffer too short for %d columns", ncols)
	}
	types := make([]column.Kind, ncols)
	for i := 0; i < ncols; i++ {
		types[i] = column.Kind(buf[8+i])
	}
	return &Schema{types: types, nrows: nrows}, nil
}
