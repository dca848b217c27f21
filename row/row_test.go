package row

import (
	"testing"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/schema"
)

func TestRowSetGet(t *testing.T) {
	s := schema.New(column.Bool, column.Int, column.Double, column.String)
	r := New(s)

	if err := r.SetBool(0, true); err != nil {
		t.Fatalf("set bool: %v", err)
	}
	if err := r.SetInt(1, 42); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if err := r.SetDouble(2, 3.5); err != nil {
		t.Fatalf("set double: %v", err)
	}
	if err := r.SetString(3, "hi"); err != nil {
		t.Fatalf("set string: %v", err)
	}

	if b, _ := r.GetBool(0); !b {
		t.Fatalf("get bool = %v, want true", b)
	}
	if i, _ := r.GetInt(1); i != 42 {
		t.Fatalf("get int = %d, want 42", i)
	}
	if d, _ := r.GetDouble(2); d != 3.5 {
		t.Fatalf("get double = %v, want 3.5", d)
	}
	if sv, _ := r.GetString(3); sv != "hi" {
		t.Fatalf("get string = %q, want hi", sv)
	}
}

func TestRowSetWrongTypeErrors(t *testing.T) {
	s := schema.New(column.Int)
	r := New(s)
	if err := r.SetString(0, "nope"); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestRowGetBeforeSetErrors(t *testing.T) {
	s := schema.New(column.Int)
	r := New(s)
	if _, err := r.GetInt(0); err == nil {
		t.Fatalf("expected error reading unset field")
	}
}

type recordingFielder struct {
	started bool
	ints    []int32
	done    bool
}

func (f *recordingFielder) Start(int)            { f.started = true }
func (f *recordingFielder) AcceptBool(bool)      {}
func (f *recordingFielder) AcceptInt(v int32)    { f.ints = append(f.ints, v) }
func (f *recordingFielder) AcceptDouble(float64) {}
func (f *recordingFielder) AcceptString(string)  {}
func (f *recordingFielder) Done()                { f.done = true }

func TestRowVisit(t *testing.T) {
	s := schema.New(column.Int, column.Int)
	r := New(s)
	_ = r.SetInt(0, 1)
	_ = r.SetInt(1, 2)

	f := &recordingFielder{}
	r.Visit(7, f)

	if !f.started || !f.done {
		t.Fatalf("expected Start and Done to be called")
	}
	if len(f.ints) != 2 || f.ints[0] != 1 || f.ints[1] != 2 {
		t.Fatalf("got ints %v, want [1 2]", f.ints)
	}
	if r.Idx() != 0 {
		// Visit does not itself call SetIdx; FillRow does. Idx remains
		// whatever it was before Visit.
		t.Fatalf("unexpected idx mutation: %d", r.Idx())
	}
}
