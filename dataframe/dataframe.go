// Package dataframe implements the fabric's schema + columns + own-key
// aggregate (spec.md §4.7-4.9), grounded in
// original_source/src/dataframe/dataframe.h. The original's
// DataFrameAddFielder visitor becomes an unexported Fielder implementation
// (addFielder); PrintDataFrame{Fielder,Rower} are dropped per the
// "console colour printing" Non-goal.
package dataframe

import (
	"context"
	"fmt"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/row"
	"github.com/chunkfabric/eau2/schema"
)

// DataFrame is a schema-shaped table of equal-length columns, published to
// a Store under its own Key so any peer can reconstruct a read handle from
// the key alone.
type DataFrame struct {
	key       kv.Key
	schema    *schema.Schema
	cols      []column.Column
	store     *kv.Store
	chunkSize int
}

func columnName(dfName string, idx int) string {
	return fmt.Sprintf("%s:0x%X", dfName, idx)
}

func newColumn(store *kv.Store, name string, k column.Kind, chunkSize int) (column.Column, error) {
	switch k {
	case column.Bool:
		return column.NewBoolColumn(store, name, chunkSize), nil
	case column.Int:
		return column.NewIntColumn(store, name, chunkSize), nil
	case column.Double:
		return column.NewDoubleColumn(store, name, chunkSize), nil
	case column.String:
		return column.NewStringColumn(store, name, chunkSize), nil
	default:
		return nil, fmt.Errorf("dataframe: bad column type %v", k)
	}
}

// New creates an empty dataframe shaped by sch, publishing its metadata to
// store under key.
func New(ctx context.Context, store *kv.Store, key kv.Key, sch *schema.Schema, chunkSize int) (*DataFrame, error) {
	df := &DataFrame{key: key, schema: sch.Clone(), store: store, chunkSize: chunkSize}
	for i := 0; i < sch.Width(); i++ {
		col, err := newColumn(store, columnName(key.Name, i), sch.ColType(i), chunkSize)
		if err != nil {
			return nil, err
		}
		df.cols = append(df.cols, col)
	}
	if err := df.publish(ctx); err != nil {
		return nil, err
	}
	return df, nil
}

// NewLike creates an empty dataframe with the same schema shape as other
// but no rows, under a fresh key (spec.md §5 supplement, used by Filter).
func NewLike(ctx context.Context, other *DataFrame, key kv.Key) (*DataFrame, error) {
	bare := schema.New()
	for i := 0; i < other.schema.Width(); i++ {
		bare.AddColumn(other.schema.ColType(i))
	}
	return New(ctx, other.store, key, bare, other.chunkSize)
}

// Key returns the dataframe's own key.
func (df *DataFrame) Key() kv.Key { return df.key }

// Schema returns the dataframe's schema. Mutating it directly is undefined.
func (df *DataFrame) Schema() *schema.Schema { return df.schema }

// NRows reports the row count.
func (df *DataFrame) NRows() int { return df.schema.Len() }

// NCols reports the column count.
func (df *DataFrame) NCols() int { return len(df.cols) }

func (df *DataFrame) publish(ctx context.Context) error {
	return df.store.Put(ctx, df.key, kv.NewValue(df.Serialize()))
}

// AddColumn appends col, which must be empty or already match the
// dataframe's row count (spec.md §4.7 rectangularity invariant).
func (df *DataFrame) AddColumn(ctx context.Context, col column.Column) error {
	return df.addColumn(ctx, col, true)
}

func (df *DataFrame) addColumn(ctx context.Context, col column.Column, publish bool) error {
	if col == nil {
		return fmt.Errorf("dataframe: AddColumn: col is nil")
	}
	if len(df.cols) != 0 && col.Len() != df.NRows() {
		return fmt.Errorf("dataframe: AddColumn: not rectangular (col len=%d, nrows=%d)", col.Len(), df.NRows())
	}
	df.schema.AddColumn(col.Kind())
	if len(df.cols) == 0 {
		for i := df.NRows(); i < col.Len(); i++ {
			df.schema.AddRow()
		}
	}
	df.cols = append(df.cols, col)
	if publish {
		return df.publish(ctx)
	}
	return nil
}

// Get<T> return the value at (col, rowIdx); requesting the wrong type or
// an out-of-bounds index is an error.
func (df *DataFrame) GetInt(ctx context.Context, col, rowIdx int) (int32, error) {
	c, err := df.intColumn(col)
	if err != nil {
		return 0, err
	}
	return c.Get(ctx, rowIdx)
}

func (df *DataFrame) GetBool(ctx context.Context, col, rowIdx int) (bool, error) {
	c, err := df.boolColumn(col)
	if err != nil {
		return false, err
	}
	return c.Get(ctx, rowIdx)
}

func (df *DataFrame) GetDouble(ctx context.Context, col, rowIdx int) (float64, error) {
	c, err := df.doubleColumn(col)
	if err != nil {
		return 0, err
	}
	return c.Get(ctx, rowIdx)
}

func (df *DataFrame) GetString(ctx context.Context, col, rowIdx int) (string, error) {
	c, err := df.stringColumn(col)
	if err != nil {
		return "", err
	}
	return c.Get(ctx, rowIdx)
}

func (df *DataFrame) column(idx int) (column.Column, error) {
	if idx < 0 || idx >= len(df.cols) {
		return nil, fmt.Errorf("dataframe: column %d out of bounds (ncols=%d)", idx, len(df.cols))
	}
	return df.cols[idx], nil
}

func (df *DataFrame) intColumn(idx int) (*column.IntColumn, error) {
	c, err := df.column(idx)
	if err != nil {
		return nil, err
	}
	ic, ok := c.(*column.IntColumn)
	if !ok {
		return nil, fmt.Errorf("dataframe: column %d is %v, not int", idx, c.Kind())
	}
	return ic, nil
}

func (df *DataFrame) boolColumn(idx int) (*column.BoolColumn, error) {
	c, err := df.column(idx)
	if err != nil {
		return nil, err
	}
	bc, ok := c.(*column.BoolColumn)
	if !ok {
		return nil, fmt.Errorf("dataframe: column %d is %v, not bool", idx, c.Kind())
	}
	return bc, nil
}

func (df *DataFrame) doubleColumn(idx int) (*column.DoubleColumn, error) {
	c, err := df.column(idx)
	if err != nil {
		return nil, err
	}
	dc, ok := c.(*column.DoubleColumn)
	if !ok {
		return nil, fmt.Errorf("dataframe: column %d is %v, not double", idx, c.Kind())
	}
	return dc, nil
}

func (df *DataFrame) stringColumn(idx int) (*column.StringColumn, error) {
	c, err := df.column(idx)
	if err != nil {
		return nil, err
	}
	sc, ok := c.(*column.StringColumn)
	if !ok {
		return nil, fmt.Errorf("dataframe: column %d is %v, not string", idx, c.Kind())
	}
	return sc, nil
}

// FillRow reads row idx's values into r, dense, column by column.
func (df *DataFrame) FillRow(ctx context.Context, idx int, r *row.Row) error {
	if idx < 0 || idx >= df.NRows() {
		return fmt.Errorf("dataframe: FillRow(%d): out of bounds (nrows=%d)", idx, df.NRows())
	}
	r.SetIdx(idx)
	for i, c := range df.cols {
		switch c.Kind() {
		case column.Bool:
			v, err := c.(*column.BoolColumn).Get(ctx, idx)
			if err != nil {
				return err
			}
			if err := r.SetBool(i, v); err != nil {
				return err
			}
		case column.Int:
			v, err := c.(*column.IntColumn).Get(ctx, idx)
			if err != nil {
				return err
			}
			if err := r.SetInt(i, v); err != nil {
				return err
			}
		case column.Double:
			v, err := c.(*column.DoubleColumn).Get(ctx, idx)
			if err != nil {
				return err
			}
			if err := r.SetDouble(i, v); err != nil {
				return err
			}
		case column.String:
			v, err := c.(*column.StringColumn).Get(ctx, idx)
			if err != nil {
				return err
			}
			if err := r.SetString(i, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// addFielder drives one row's fields into the matching columns by
// position, the Go counterpart of the original's DataFrameAddFielder.
type addFielder struct {
	cols []column.Column
	ctx  context.Context
	idx  int
	err  error
}

func (f *addFielder) Start(int)             { f.idx = 0 }
func (f *addFielder) AcceptBool(v bool)     { f.push(func() error { return f.cols[f.idx].(*column.BoolColumn).Push(f.ctx, v) }) }
func (f *addFielder) AcceptInt(v int32)     { f.push(func() error { return f.cols[f.idx].(*column.IntColumn).Push(f.ctx, v) }) }
func (f *addFielder) AcceptDouble(v float64) {
	f.push(func() error { return f.cols[f.idx].(*column.DoubleColumn).Push(f.ctx, v) })
}
func (f *addFielder) AcceptString(v string) {
	f.push(func() error { return f.cols[f.idx].(*column.StringColumn).Push(f.ctx, v) })
}
func (f *addFielder) Done() {}

func (f *addFielder) push(do func() error) {
	if f.err != nil {
		return
	}
	if f.idx >= len(f.cols) {
		f.err = fmt.Errorf("dataframe: AddRow: too many fields for %d columns", len(f.cols))
		return
	}
	if err := do(); err != nil {
		f.err = err
		return
	}
	f.idx++
}

// AddRow pushes r's fields to the matching columns, in order, and
// republishes the dataframe's metadata.
func (df *DataFrame) AddRow(ctx context.Context, r *row.Row) error {
	return df.addRow(ctx, r, true)
}

func (df *DataFrame) addRow(ctx context.Context, r *row.Row, publish bool) error {
	f := &addFielder{cols: df.cols, ctx: ctx}
	r.Visit(df.NRows(), f)
	if f.err != nil {
		return f.err
	}
	if f.idx != len(df.cols) {
		return fmt.Errorf("dataframe: AddRow: filled %d of %d columns", f.idx, len(df.cols))
	}
	if len(df.cols) > 0 && df.cols[0].Len() > df.NRows() {
		df.schema.AddRow()
	}
	if publish {
		return df.publish(ctx)
	}
	return nil
}

// Map visits every row in order via rower.Accept, then republishes the
// dataframe's metadata (spec.md §4.9: map republishes, LocalMap does not).
func (df *DataFrame) Map(ctx context.Context, r row.Rower) error {
	if err := df.mapRows(ctx, 0, df.NRows(), r); err != nil {
		return err
	}
	return df.publish(ctx)
}

// LocalMap visits every row in order via rower.Accept without republishing,
// the shape used by a pmap worker band and by §4.9's "run without
// republishing" contract.
func (df *DataFrame) LocalMap(ctx context.Context, r row.Rower) error {
	return df.mapRows(ctx, 0, df.NRows(), r)
}

// cloneForRead returns a shallow copy of df whose columns are independent
// read handles (column.Column.Clone), safe to drive concurrently with df
// and with clones handed to other goroutines. Used by PMap to give each
// worker band its own column caches instead of sharing df.cols.
func (df *DataFrame) cloneForRead() *DataFrame {
	cols := make([]column.Column, len(df.cols))
	for i, c := range df.cols {
		cols[i] = c.Clone()
	}
	return &DataFrame{key: df.key, schema: df.schema, cols: cols, store: df.store, chunkSize: df.chunkSize}
}

func (df *DataFrame) mapRows(ctx context.Context, start, end int, r row.Rower) error {
	rowBuf := row.New(df.schema)
	for i := start; i < end; i++ {
		if err := df.FillRow(ctx, i, rowBuf); err != nil {
			return err
		}
		r.Accept(rowBuf)
	}
	return nil
}

// Filter builds a new dataframe under key, with the same schema shape, of
// every row for which rower.Accept returns true.
func (df *DataFrame) Filter(ctx context.Context, r row.Rower, key kv.Key) (*DataFrame, error) {
	out, err := NewLike(ctx, df, key)
	if err != nil {
		return nil, err
	}
	rowBuf := row.New(df.schema)
	for i := 0; i < df.NRows(); i++ {
		if err := df.FillRow(ctx, i, rowBuf); err != nil {
			return nil, err
		}
		if r.Accept(rowBuf) {
			if err := out.AddRow(ctx, rowBuf); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Serialize encodes <key><n_cols:4>[col_meta...] (spec.md §4.7/§8).
func (df *DataFrame) Serialize() []byte {
	buf := append([]byte(nil), df.key.Marshal()...)
	countBuf := make([]byte, 4)
	nCols := uint32(len(df.cols))
	countBuf[0] = byte(nCols)
	countBuf[1] = byte(nCols >> 8)
	countBuf[2] = byte(nCols >> 16)
	countBuf[3] = byte(nCols >> 24)
	buf = append(buf, countBuf...)
	for _, c := range df.cols {
		buf = append(buf, c.Serialize()...)
	}
	return buf
}

// Deserialize reconstructs a read handle for a dataframe from bytes
// produced by Serialize; it does not republish.
func Deserialize(buf []byte, store *kv.Store, chunkSize int) (*DataFrame, error) {
	key, off := kv.UnmarshalKey(buf)
	if off+4 > len(buf) {
		return nil, fmt.Errorf("dataframe: truncated header")
	}
	nCols := int(buf[off]) | int(buf[off+1])<<8 | int(buf[off+2])<<16 | int(buf[off+3])<<24
	off += 4

	df := &DataFrame{key: key, schema: schema.New(), store: store, chunkSize: chunkSize}
	for i := 0; i < nCols; i++ {
		col, err := column.Deserialize(buf[off:], store, chunkSize)
		if err != nil {
			return nil, err
		}
		off += len(col.Serialize())
		df.schema.AddColumn(col.Kind())
		df.cols = append(df.cols, col)
	}
	if len(df.cols) > 0 {
		for i := 0; i < df.cols[0].Len(); i++ {
			df.schema.AddRow()
		}
	}
	return df, nil
}

// Load fetches key's metadata from store and deserializes it into a read
// handle, the common "reconstruct a handle from a key alone" path
// (spec.md §3).
func Load(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int) (*DataFrame, error) {
	v, ok, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("dataframe: key %q not found", key.Name)
	}
	return Deserialize(v.Bytes(), store, chunkSize)
}

// LoadAndWait blocks until key's metadata appears, then deserializes it.
func LoadAndWait(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int) (*DataFrame, error) {
	v, err := store.GetAndWait(ctx, key)
	if err != nil {
		return nil, err
	}
	return Deserialize(v.Bytes(), store, chunkSize)
}
