// Package csvparse reads vendor CSV exports into header-keyed row records.
//
// The format handled here is the loose dialect the storefront and venue
// point-of-sale exports produce: one record per physical line, quotes
// toggle a literal section anywhere in a field, and "" inside quotes is an
// escaped quote. Malformed quoting never fails a parse; the last field of
// a line is always flushed.
package csvparse

import "strings"

const bom = "\ufeff"

// Options controls parsing. The zero value parses comma-delimited text,
// skips empty lines and trims every field.
type Options struct {
	Delimiter      rune
	KeepEmptyLines bool
	KeepWhitespace bool
}

// Row is one data line keyed by header name.
type Row struct {
	// Line is the 1-based line number in the source, header included.
	Line   int
	Fields map[string]string
}

// Get returns the value for column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r.Fields[column]
}

// Has reports whether column is present and non-empty.
func (r Row) Has(column string) bool {
	return r.Fields[column] != ""
}

// NewRow builds a Row from parallel header and value slices. Missing
// values become "", surplus values are dropped.
func NewRow(line int, header, values []string) Row {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(values) {
			fields[h] = values[i]
		} else {
			fields[h] = ""
		}
	}
	return Row{Line: line, Fields: fields}
}

// Parse splits content into rows using the first line as the header.
// Empty input yields no rows.
func Parse(content string, opts Options) []Row {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	trim := !opts.KeepWhitespace

	lines := strings.Split(content, "\n")
	header := splitLine(strings.TrimPrefix(trimCR(lines[0]), bom), delim, trim)

	var rows []Row
	for i := 1; i < len(lines); i++ {
		line := trimCR(lines[i])
		if !opts.KeepEmptyLines && strings.TrimSpace(line) == "" {
			continue
		}

		values := splitLine(line, delim, trim)
		if len(values) == 1 && values[0] == "" {
			continue
		}

		rows = append(rows, NewRow(i+1, header, values))
	}
	return rows
}

// Header returns the parsed header line of content.
func Header(content string, opts Options) []string {
	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}
	first, _, _ := strings.Cut(content, "\n")
	return splitLine(strings.TrimPrefix(trimCR(first), bom), delim, !opts.KeepWhitespace)
}

func trimCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}

func splitLine(line string, delim rune, trim bool) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	flush := func() {
		v := current.String()
		if trim {
			v = strings.TrimSpace(v)
		}
		fields = append(fields, v)
		current.Reset()
	}

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return fields
}
