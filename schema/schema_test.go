package schema

import (
	"testing"

	"github.com/chunkfabric/eau2/column"
)

func TestSchemaSerializeRoundTrip(t *testing.T) {
	s := New(column.Bool, column.Int, column.Double, column.String)
	s.AddRow()
	s.AddRow()

	buf := s.Serialize()
	got, err := Deserialize(buf)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got.Width() != s.Width() || got.Len() != s.Len() {
		t.Fatalf("got width=%d len=%d, want width=%d len=%d", got.Width(), got.Len(), s.Width(), s.Len())
	}
	for i := 0; i < s.Width(); i++ {
		if got.ColType(i) != s.ColType(i) {
			t.Fatalf("col %d type %v, want %v", i, got.ColType(i), s.ColType(i))
		}
	}
}

func TestSchemaClone(t *testing.T) {
	s := New(column.Int)
	s.AddRow()
	c := s.Clone()
	c.AddColumn(column.String)
	if s.Width() != 1 {
		t.Fatalf("original mutated: width=%d", s.Width())
	}
	if c.Width() != 2 {
		t.Fatalf("clone width=%d, want 2", c.Width())
	}
}

func TestSchemaDeserializeTruncated(t *testing.T) {
	if _, err := Deserialize([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error on truncated buffer")
	}
}
