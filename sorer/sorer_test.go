package sorer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/kv"
)

func writeTempFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.sor")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestParseRowBasic(t *testing.T) {
	fields := parseRow(`<1><3.14><"hello world"><>`)
	if len(fields) != 4 {
		t.Fatalf("got %d fields, want 4", len(fields))
	}
	if *fields[0] != "1" {
		t.Fatalf("field 0 = %q, want 1", *fields[0])
	}
	if *fields[1] != "3.14" {
		t.Fatalf("field 1 = %q, want 3.14", *fields[1])
	}
	if *fields[2] != "hello world" {
		t.Fatalf("field 2 = %q, want %q", *fields[2], "hello world")
	}
	if fields[3] != nil {
		t.Fatalf("field 3 = %v, want nil (missing)", *fields[3])
	}
}

func TestInferTypePromotion(t *testing.T) {
	one, pi, word := "1", "3.14", "word"
	if inferType(&one) != column.Bool {
		t.Fatalf("expected %q to infer as bool", one)
	}
	two := "2"
	if inferType(&two) != column.Int {
		t.Fatalf("expected %q to infer as int", two)
	}
	if inferType(&pi) != column.Double {
		t.Fatalf("expected %q to infer as double", pi)
	}
	if inferType(&word) != column.String {
		t.Fatalf("expected %q to infer as string", word)
	}
	if inferType(nil) != column.Bool {
		t.Fatalf("expected missing field to infer as bool")
	}
}

func TestReadInfersAndParses(t *testing.T) {
	path := writeTempFile(t, "<1><2><3.5><hello>\n<0><4><6.25><world>\n<1><><7><>\n")
	ctx := context.Background()
	store := kv.NewStore(0, nil)
	df, err := Read(ctx, store, path, kv.New(0, "sor"), 16)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if df.NCols() != 4 {
		t.Fatalf("ncols = %d, want 4", df.NCols())
	}
	if df.NRows() != 3 {
		t.Fatalf("nrows = %d, want 3", df.NRows())
	}
	v, err := df.GetDouble(ctx, 2, 1)
	if err != nil || v != 6.25 {
		t.Fatalf("GetDouble(2,1) = %v, %v, want 6.25", v, err)
	}
}

func TestReadSkipsIncompatibleRows(t *testing.T) {
	// The inference pass only samples the first InferLineCount lines, so a
	// field type seen only beyond that sample can be incompatible with the
	// inferred schema and must be skipped during the parse pass.
	var buf []byte
	for i := 0; i < InferLineCount; i++ {
		buf = append(buf, "<1><2>\n"...)
	}
	buf = append(buf, "<1><not-an-int>\n"...)
	buf = append(buf, "<1><3>\n"...)
	path := writeTempFile(t, string(buf))

	ctx := context.Background()
	store := kv.NewStore(0, nil)
	df, err := Read(ctx, store, path, kv.New(0, "sor2"), 32)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if df.NRows() != InferLineCount+1 {
		t.Fatalf("nrows = %d, want %d (one incompatible row skipped)", df.NRows(), InferLineCount+1)
	}
}
