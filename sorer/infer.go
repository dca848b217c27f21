// Package sorer implements the fabric's structured-text file ingester
// (spec.md §4.10), grounded in original_source/src/dataframe/sorer.h
// column.h's infer_type/is_int/is_double family). Field syntax:
// "<field1><field2>..." per row; a field may be quoted (spaces allowed) or
// bare (terminated by a space or '>'); an empty "<>" is a missing value.
package sorer

import (
	"strconv"
	"strings"

	"github.com/chunkfabric/eau2/column"
)

// typeRank orders the promotion lattice Bool < Int < Double < String
// (spec.md §4.10).
func typeRank(k column.Kind) int {
	switch k {
	case column.Bool:
		return 1
	case column.Int:
		return 2
	case column.Double:
		return 3
	case column.String:
		return 4
	default:
		return 0
	}
}

// shouldPromote reports whether inferred outranks current on the
// promotion lattice.
func shouldPromote(current, inferred column.Kind) bool {
	return typeRank(current) < typeRank(inferred)
}

// inferType classifies one field's text. A missing field (nil) infers as
// Bool, matching the original's infer_type(nullptr) == BOOL so an
// all-missing column defaults to the narrowest type.
func inferType(field *string) column.Kind {
	if field == nil {
		return column.Bool
	}
	s := *field
	if len(s) == 1 && (s == "0" || s == "1") {
		return column.Bool
	}
	if isInt(s) {
		return column.Int
	}
	if isDouble(s) {
		return column.Double
	}
	return column.String
}

func isInt(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '+' || s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isDouble(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '+' || s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil && strings.IndexFunc(s[start:], func(r rune) bool {
		return r != '.' && (r < '0' || r > '9')
	}) == -1
}

func asBool(s string) bool   { return s == "1" }
func asInt(s string) int32   { v, _ := strconv.ParseInt(s, 10, 32); return int32(v) }
func asDouble(s string) float64 { v, _ := strconv.ParseFloat(s, 64); return v }
