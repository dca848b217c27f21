package dataframe

import (
	"context"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/row"
	"github.com/chunkfabric/eau2/schema"
)

// FromIntArray builds a single-column int dataframe under key, publishing
// it once after every value is loaded (spec.md §4.9, original's
// fromArray<int>).
func FromIntArray(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, vals []int32) (*DataFrame, error) {
	sch := schema.New(column.Int)
	df, err := New(ctx, store, key, sch, chunkSize)
	if err != nil {
		return nil, err
	}
	r := row.New(sch)
	for _, v := range vals {
		if err := r.SetInt(0, v); err != nil {
			return nil, err
		}
		if err := df.addRow(ctx, r, false); err != nil {
			return nil, err
		}
	}
	if err := df.publish(ctx); err != nil {
		return nil, err
	}
	return df, nil
}

func FromDoubleArray(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, vals []float64) (*DataFrame, error) {
	sch := schema.New(column.Double)
	df, err := New(ctx, store, key, sch, chunkSize)
	if err != nil {
		return nil, err
	}
	r := row.New(sch)
	for _, v := range vals {
		if err := r.SetDouble(0, v); err != nil {
			return nil, err
		}
		if err := df.addRow(ctx, r, false); err != nil {
			return nil, err
		}
	}
	if err := df.publish(ctx); err != nil {
		return nil, err
	}
	return df, nil
}

func FromBoolArray(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, vals []bool) (*DataFrame, error) {
	sch := schema.New(column.Bool)
	df, err := New(ctx, store, key, sch, chunkSize)
	if err != nil {
		return nil, err
	}
	r := row.New(sch)
	for _, v := range vals {
		if err := r.SetBool(0, v); err != nil {
			return nil, err
		}
		if err := df.addRow(ctx, r, false); err != nil {
			return nil, err
		}
	}
	if err := df.publish(ctx); err != nil {
		return nil, err
	}
	return df, nil
}

func FromStringArray(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, vals []string) (*DataFrame, error) {
	sch := schema.New(column.String)
	df, err := New(ctx, store, key, sch, chunkSize)
	if err != nil {
		return nil, err
	}
	r := row.New(sch)
	for _, v := range vals {
		if err := r.SetString(0, v); err != nil {
			return nil, err
		}
		if err := df.addRow(ctx, r, false); err != nil {
			return nil, err
		}
	}
	if err := df.publish(ctx); err != nil {
		return nil, err
	}
	return df, nil
}

func FromIntScalar(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, val int32) (*DataFrame, error) {
	return FromIntArray(ctx, store, key, chunkSize, []int32{val})
}

func FromDoubleScalar(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, val float64) (*DataFrame, error) {
	return FromDoubleArray(ctx, store, key, chunkSize, []float64{val})
}

func FromBoolScalar(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, val bool) (*DataFrame, error) {
	return FromBoolArray(ctx, store, key, chunkSize, []bool{val})
}

func FromStringScalar(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, val string) (*DataFrame, error) {
	return FromStringArray(ctx, store, key, chunkSize, []string{val})
}

// FromVisitor builds a dataframe shaped by types, pumping rows from w
// until w.Done() reports true, matching the original's
// from_visitor(key, store, schema_str, writer) file-ingestion constructor
// used by word count.
func FromVisitor(ctx context.Context, store *kv.Store, key kv.Key, chunkSize int, types []column.Kind, w row.Writer) (*DataFrame, error) {
	sch := schema.New(types...)
	df, err := New(ctx, store, key, sch, chunkSize)
	if err != nil {
		return nil, err
	}
	r := row.New(sch)
	for !w.Done() {
		w.Visit(r)
		if err := df.addRow(ctx, r, false); err != nil {
			return nil, err
		}
	}
	if err := df.publish(ctx); err != nil {
		return nil, err
	}
	return df, nil
}
