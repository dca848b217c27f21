package dataframe

import (
	"context"
	"testing"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/row"
	"github.com/chunkfabric/eau2/schema"
)

func TestFromIntArrayAndGet(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	df, err := FromIntArray(ctx, store, kv.New(0, "nums"), 16, []int32{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("FromIntArray: %v", err)
	}
	if df.NRows() != 5 || df.NCols() != 1 {
		t.Fatalf("shape = %dx%d, want 5x1", df.NRows(), df.NCols())
	}
	v, err := df.GetInt(ctx, 0, 4)
	if err != nil || v != 5 {
		t.Fatalf("GetInt(0,4) = %d, %v, want 5", v, err)
	}
}

func TestDataFrameSerializeDeserialize(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	df, err := FromDoubleArray(ctx, store, kv.New(0, "vals"), 8, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("FromDoubleArray: %v", err)
	}

	buf := df.Serialize()
	restored, err := Deserialize(buf, store, 8)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if restored.NRows() != df.NRows() {
		t.Fatalf("nrows = %d, want %d", restored.NRows(), df.NRows())
	}
	v, err := restored.GetDouble(ctx, 0, 9)
	if err != nil || v != 9 {
		t.Fatalf("GetDouble(0,9) = %v, %v, want 9", v, err)
	}
}

func TestDataFrameLoad(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	key := kv.New(0, "df1")
	if _, err := FromIntArray(ctx, store, key, 16, []int32{10, 20, 30}); err != nil {
		t.Fatalf("FromIntArray: %v", err)
	}
	loaded, err := Load(ctx, store, key, 16)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v, err := loaded.GetInt(ctx, 0, 1)
	if err != nil || v != 20 {
		t.Fatalf("GetInt(0,1) = %d, %v, want 20", v, err)
	}
}

func TestAddColumnRectangularityCheck(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	df, err := New(ctx, store, kv.New(0, "t"), schema.New(), 4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	col := column.NewIntColumn(store, "t:0x0", 4)
	for i := int32(0); i < 3; i++ {
		_ = col.Push(ctx, i)
	}
	if err := df.AddColumn(ctx, col); err != nil {
		t.Fatalf("add first column: %v", err)
	}

	mismatched := column.NewIntColumn(store, "t:0x1", 4)
	_ = mismatched.Push(ctx, 1)
	if err := df.AddColumn(ctx, mismatched); err == nil {
		t.Fatalf("expected rectangularity error")
	}
}

type sumRower struct {
	total int64
}

func (r *sumRower) Accept(row *row.Row) bool {
	v, err := row.GetInt(0)
	if err == nil {
		r.total += int64(v)
	}
	return true
}
func (r *sumRower) Clone() row.Rower { return &sumRower{} }
func (r *sumRower) Join(other row.Rower) {
	r.total += other.(*sumRower).total
}

func TestDataFrameMap(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	vals := make([]int32, 100)
	for i := range vals {
		vals[i] = int32(i)
	}
	df, err := FromIntArray(ctx, store, kv.New(0, "m"), 16, vals)
	if err != nil {
		t.Fatalf("FromIntArray: %v", err)
	}
	s := &sumRower{}
	if err := df.Map(ctx, s); err != nil {
		t.Fatalf("map: %v", err)
	}
	if s.total != 4950 {
		t.Fatalf("sum = %d, want 4950", s.total)
	}
}

func TestDataFramePMapMatchesMap(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	vals := make([]int32, 997)
	for i := range vals {
		vals[i] = int32(i)
	}
	df, err := FromIntArray(ctx, store, kv.New(0, "p"), 32, vals)
	if err != nil {
		t.Fatalf("FromIntArray: %v", err)
	}

	serial := &sumRower{}
	if err := df.LocalMap(ctx, serial); err != nil {
		t.Fatalf("localmap: %v", err)
	}

	parallel := &sumRower{}
	if err := df.PMap(ctx, parallel, 8); err != nil {
		t.Fatalf("pmap: %v", err)
	}

	if parallel.total != serial.total {
		t.Fatalf("pmap sum = %d, map sum = %d", parallel.total, serial.total)
	}
}

type keepEven struct{}

func (keepEven) Accept(r *row.Row) bool {
	v, _ := r.GetInt(0)
	return v%2 == 0
}
func (k keepEven) Clone() row.Rower     { return k }
func (keepEven) Join(other row.Rower) {}

func TestDataFrameFilter(t *testing.T) {
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	df, err := FromIntArray(ctx, store, kv.New(0, "f"), 8, []int32{0, 1, 2, 3, 4, 5, 6, 7})
	if err != nil {
		t.Fatalf("FromIntArray: %v", err)
	}
	out, err := df.Filter(ctx, keepEven{}, kv.New(0, "f-even"))
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if out.NRows() != 4 {
		t.Fatalf("nrows = %d, want 4", out.NRows())
	}
	v, err := out.GetInt(ctx, 0, 3)
	if err != nil || v != 6 {
		t.Fatalf("GetInt(0,3) = %d, %v, want 6", v, err)
	}
}
