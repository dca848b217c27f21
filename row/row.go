// Package row implements the dataframe's row-visitor protocol (spec.md
// §4.8), grounded in original_source/src/dataframe/row.h and
// reader_writer.h. The original's Box/BoolBox/IntBox/DoubleBox/StringBox
// inheritance tower collapses into a single tagged Field struct per the
// Design Notes instruction to realize the closed {Bool,Int,Double,String}
// set as a tagged sum rather than a virtual-call tower.
package row

import (
	"fmt"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/schema"
)

// Field is one column's value within a Row, tagged by Kind. Only the
// member matching Kind is meaningful.
type Field struct {
	Kind   column.Kind
	Bool   bool
	Int    int32
	Double float64
	Str    string
	set    bool
}

// Row is one dataframe row, shaped by a Schema. Rows are reused by callers
// (a single Row is typically filled and visited many times in a loop), so
// a Row is not safe to retain past the call that produced it without
// cloning its Fields.
type Row struct {
	schema *schema.Schema
	fields []Field
	idx    int
}

// New builds an empty row shaped by s.
func New(s *schema.Schema) *Row {
	fields := make([]Field, s.Width())
	for i := range fields {
		fields[i].Kind = s.ColType(i)
	}
	return &Row{schema: s, fields: fields}
}

// Width reports the number of fields in the row.
func (r *Row) Width() int { return len(r.fields) }

// ColType reports the type tag of field idx.
func (r *Row) ColType(idx int) column.Kind { return r.fields[idx].Kind }

// SetIdx records this row's position in its dataframe, for informational
// use only.
func (r *Row) SetIdx(idx int) { r.idx = idx }

// Idx returns the row's recorded position.
func (r *Row) Idx() int { return r.idx }

func (r *Row) checkKind(col int, want column.Kind) error {
	if col < 0 || col >= len(r.fields) {
		return fmt.Errorf("row: column %d out of bounds (width=%d)", col, len(r.fields))
	}
	if r.fields[col].Kind != want {
		return fmt.Errorf("row: column %d is %s, not %s", col, r.fields[col].Kind, want)
	}
	return nil
}

func (r *Row) SetBool(col int, v bool) error {
	if err := r.checkKind(col, column.Bool); err != nil {
		return err
	}
	r.fields[col].Bool, r.fields[col].set = v, true
	return nil
}

func (r *Row) SetInt(col int, v int32) error {
	if err := r.checkKind(col, column.Int); err != nil {
		return err
	}
	r.fields[col].Int, r.fields[col].set = v, true
	return nil
}

func (r *Row) SetDouble(col int, v float64) error {
	if err := r.checkKind(col, column.Double); err != nil {
		return err
	}
	r.fields[col].Double, r.fields[col].set = v, true
	return nil
}

func (r *Row) SetString(col int, v string) error {
	if err := r.checkKind(col, column.String); err != nil {
		return err
	}
	r.fields[col].Str, r.fields[col].set = v, true
	return nil
}

func (r *Row) GetBool(col int) (bool, error) {
	if err := r.checkSet(col, column.Bool); err != nil {
		return false, err
	}
	return r.fields[col].Bool, nil
}

func (r *Row) GetInt(col int) (int32, error) {
	if err := r.checkSet(col, column.Int); err != nil {
		return 0, err
	}
	return r.fields[col].Int, nil
}

func (r *Row) GetDouble(col int) (float64, error) {
	if err := r.checkSet(col, column.Double); err != nil {
		return 0, err
	}
	return r.fields[col].Double, nil
}

func (r *Row) GetString(col int) (string, error) {
	if err := r.checkSet(col, column.String); err != nil {
		return "", err
	}
	return r.fields[col].Str, nil
}

func (r *Row) checkSet(col int, want column.Kind) error {
	if err := r.checkKind(col, want); err != nil {
		return err
	}
	if !r.fields[col].set {
		return fmt.Errorf("row: column %d read before being set", col)
	}
	return nil
}

// Fielder is a field visitor invoked by Row.Visit, the Go counterpart of
// the original's Fielder base class.
type Fielder interface {
	Start(rowIdx int)
	AcceptBool(v bool)
	AcceptInt(v int32)
	AcceptDouble(v float64)
	AcceptString(v string)
	Done()
}

// Visit walks every field of the row in schema order, dispatching to the
// matching Fielder method. Calling Visit before every field has been set
// is undefined, matching the original's contract.
func (r *Row) Visit(idx int, f Fielder) {
	f.Start(idx)
	for i := range r.fields {
		switch r.fields[i].Kind {
		case column.Bool:
			f.AcceptBool(r.fields[i].Bool)
		case column.Int:
			f.AcceptInt(r.fields[i].Int)
		case column.Double:
			f.AcceptDouble(r.fields[i].Double)
		case column.String:
			f.AcceptString(r.fields[i].Str)
		}
	}
	f.Done()
}

// Rower iterates the rows of a dataframe. Accept is called once per row;
// its return value indicates whether Filter should keep the row. Clone
// produces an independent Rower for a parallel pmap worker band; Join
// folds a worker's partial result back into the original after all bands
// complete.
type Rower interface {
	Accept(r *Row) bool
	Clone() Rower
	Join(other Rower)
}

// Writer produces rows to be loaded into a dataframe, e.g. from a file.
type Writer interface {
	Visit(r *Row)
	Done() bool
}

// Reader produces a boolean per row, the same shape Writer consumes,
// for the file-ingestion-into-existing-dataframe idiom (original_source's
// word count Adder : Reader).
type Reader interface {
	VisitRow(r *Row) bool
}

// AsRower adapts a Reader into a Rower whose Accept delegates to VisitRow,
// matching the original's `Reader : Rower { accept(r) { return visit(r); } }`.
// clone and join are supplied by the caller since a Reader alone carries no
// cloning policy.
func AsRower(reader Reader, clone func() Rower, join func(Rower)) Rower {
	return &readerRower{Reader: reader, clone: clone, join: join}
}

type readerRower struct {
	Reader
	clone func() Rower
	join  func(Rower)
}

func (rr *readerRower) Accept(r *Row) bool { return rr.VisitRow(r) }
func (rr *readerRower) Clone() Rower {
	if rr.clone != nil {
		return rr.clone()
	}
	return rr
}
func (rr *readerRower) Join(other Rower) {
	if rr.join != nil {
		rr.join(other)
	}
}
