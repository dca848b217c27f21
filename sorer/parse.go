package sorer

import "strings"

// parseRow splits one line of "<field1><field2>..." into field values, nil
// for a missing (empty or whitespace-only) field. Malformed input (no
// closing '>') truncates the row at the last well-formed field, mirroring
// the original's best-effort line parser.
func parseRow(line string) []*string {
	var fields []*string
	i := 0
	for i < len(line) {
		if line[i] != '<' {
			i++
			continue
		}
		start := i + 1
		end := strings.IndexByte(line[start:], '>')
		if end == -1 {
			break
		}
		end += start
		fields = append(fields, parseField(line[start:end]))
		i = end + 1
	}
	return fields
}

// parseField extracts one field's value from the text between '<' and
// '>', honoring quoted strings (which may contain spaces) and returning
// nil for an empty field.
func parseField(raw string) *string {
	s := strings.TrimLeft(raw, " ")
	if s == "" {
		return nil
	}
	if s[0] == '"' {
		if end := strings.IndexByte(s[1:], '"'); end != -1 {
			val := s[1 : 1+end]
			return &val
		}
		val := s[1:]
		return &val
	}
	if sp := strings.IndexByte(s, ' '); sp != -1 {
		s = s[:sp]
	}
	if s == "" {
		return nil
	}
	return &s
}
