package sorer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/chunkfabric/eau2/column"
	"github.com/chunkfabric/eau2/kv"
	"github.com/chunkfabric/eau2/row"
	"github.com/chunkfabric/eau2/schema"

	"github.com/chunkfabric/eau2/dataframe"
)

// InferLineCount bounds how many lines the first pass samples to infer
// column types (spec.md §8, INFER_LINE_COUNT).
const InferLineCount = 500

// maxLineBytes bounds a single scanned line, matching the original's
// 4096*16-byte fgets buffer.
const maxLineBytes = 4096 * 16

// Read ingests the file at path into a fresh dataframe under key,
// inferring its schema from the file's first InferLineCount lines and then
// reparsing every row against that schema, skipping rows whose field
// count or types are incompatible with it (spec.md §4.10).
func Read(ctx context.Context, store *kv.Store, path string, key kv.Key, chunkSize int) (*dataframe.DataFrame, error) {
	sch, err := inferSchema(path)
	if err != nil {
		return nil, err
	}

	df, err := dataframe.New(ctx, store, key, sch, chunkSize)
	if err != nil {
		return nil, err
	}
	if err := parseInto(ctx, df, sch, path); err != nil {
		return nil, err
	}
	return df, nil
}

func newScanner(f *os.File) *bufio.Scanner {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return sc
}

func inferSchema(path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sorer: %w", err)
	}
	defer f.Close()

	var types []column.Kind
	sc := newScanner(f)
	lines := 0
	for lines < InferLineCount && sc.Scan() {
		lines++
		fields := parseRow(sc.Text())
		for i, field := range fields {
			inferred := inferType(field)
			if i >= len(types) {
				types = append(types, inferred)
				continue
			}
			if shouldPromote(types[i], inferred) {
				types[i] = inferred
			}
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("sorer: scanning %s: %w", path, err)
	}
	return schema.New(types...), nil
}

func parseInto(ctx context.Context, df *dataframe.DataFrame, sch *schema.Schema, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sorer: %w", err)
	}
	defer f.Close()

	r := row.New(sch)
	sc := newScanner(f)
	for sc.Scan() {
		fields := parseRow(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if incompatible(sch, fields) {
			continue
		}
		fillRow(r, sch, fields)
		if err := df.AddRow(ctx, r); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && err != io.EOF {
		return fmt.Errorf("sorer: scanning %s: %w", path, err)
	}
	return nil
}

func incompatible(sch *schema.Schema, fields []*string) bool {
	for i := 0; i < sch.Width(); i++ {
		if i >= len(fields) || fields[i] == nil {
			continue
		}
		if shouldPromote(sch.ColType(i), inferType(fields[i])) {
			return true
		}
	}
	return false
}

func fillRow(r *row.Row, sch *schema.Schema, fields []*string) {
	for i := 0; i < sch.Width(); i++ {
		var field *string
		if i < len(fields) {
			field = fields[i]
		}
		switch sch.ColType(i) {
		case column.Bool:
			if field == nil {
				_ = r.SetBool(i, false)
			} else {
				_ = r.SetBool(i, asBool(*field))
			}
		case column.Int:
			if field == nil {
				_ = r.SetInt(i, 0)
			} else {
				_ = r.SetInt(i, asInt(*field))
			}
		case column.Double:
			if field == nil {
				_ = r.SetDouble(i, 0)
			} else {
				_ = r.SetDouble(i, asDouble(*field))
			}
		case column.String:
			if field == nil {
				_ = r.SetString(i, "")
			} else {
				_ = r.SetString(i, *field)
			}
		}
	}
}
