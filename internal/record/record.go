// Package record parses the headerless, comma-separated out.csv rows written by
// the packing generator.
//
// Two row shapes exist:
//
//	narrow: score,packing,order
//	wide:   score,spread_score,packing,order,closeness
//
// Fields are kept as raw strings; numeric conversion happens when a consumer
// asks for a column, so a run only fails on the columns it actually reads.
package record

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMissingColumn is returned when a column is requested that the record's
// schema does not carry.
var ErrMissingColumn = errors.New("column not in schema")

// Schema identifies a row shape by its field count.
type Schema int

const (
	// SchemaAuto detects the shape from the first line.
	SchemaAuto Schema = 0
	// SchemaNarrow is score,packing,order.
	SchemaNarrow Schema = 3
	// SchemaWide is score,spread_score,packing,order,closeness.
	SchemaWide Schema = 5
)

// ParseSchema accepts "auto", "3", "5", "narrow" or "wide".
func ParseSchema(s string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return SchemaAuto, nil
	case "3", "narrow":
		return SchemaNarrow, nil
	case "5", "wide":
		return SchemaWide, nil
	}
	return SchemaAuto, fmt.Errorf("unknown schema %q", s)
}

func (s Schema) String() string {
	switch s {
	case SchemaAuto:
		return "auto"
	case SchemaNarrow:
		return "narrow"
	case SchemaWide:
		return "wide"
	}
	return fmt.Sprintf("schema(%d)", int(s))
}

// Column names a positional field.
type Column int

const (
	ColumnScore Column = iota
	ColumnSpread
	ColumnPacking
	ColumnOrder
	ColumnCloseness
)

var columnNames = [...]string{
	ColumnScore:     "score",
	ColumnSpread:    "spread_score",
	ColumnPacking:   "packing",
	ColumnOrder:     "order",
	ColumnCloseness: "closeness",
}

func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return fmt.Sprintf("column(%d)", int(c))
	}
	return columnNames[c]
}

// ParseColumn resolves a column by name. "spread" and "closeness" are accepted
// as short forms.
func ParseColumn(name string) (Column, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "score":
		return ColumnScore, nil
	case "spread", "spread_score":
		return ColumnSpread, nil
	case "packing":
		return ColumnPacking, nil
	case "order":
		return ColumnOrder, nil
	case "closeness", "closeness_score":
		return ColumnCloseness, nil
	}
	return 0, fmt.Errorf("unknown column %q", name)
}

// Index returns the field position of c under s.
func (s Schema) Index(c Column) (int, bool) {
	switch s {
	case SchemaNarrow:
		switch c {
		case ColumnScore:
			return 0, true
		case ColumnPacking:
			return 1, true
		case ColumnOrder:
			return 2, true
		}
	case SchemaWide:
		if c >= ColumnScore && c <= ColumnCloseness {
			return int(c), true
		}
	}
	return 0, false
}

// Record is one line of the input.
type Record struct {
	Line   int
	schema Schema
	fields []string
}

// Schema reports the row shape the record was parsed with.
func (r Record) Schema() Schema { return r.schema }

// Field returns the raw text of c, or "" when the schema has no such column.
func (r Record) Field(c Column) string {
	i, ok := r.schema.Index(c)
	if !ok {
		return ""
	}
	return r.fields[i]
}

// Order returns the grouping key.
func (r Record) Order() string { return r.Field(ColumnOrder) }

// Score parses the integer score column. Whitespace around the number is
// ignored.
func (r Record) Score() (int, error) {
	raw := r.Field(ColumnScore)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &FieldParseError{Line: r.Line, Column: ColumnScore, Value: raw, cause: err}
	}
	return v, nil
}

// Float parses c as a float64. Whitespace around the number is ignored.
func (r Record) Float(c Column) (float64, error) {
	i, ok := r.schema.Index(c)
	if !ok {
		return 0, fmt.Errorf("line %d: %s in %s row: %w", r.Line, c, r.schema, ErrMissingColumn)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.fields[i]), 64)
	if err != nil {
		return 0, &FieldParseError{Line: r.Line, Column: c, Value: r.fields[i], cause: err}
	}
	return v, nil
}

// ParseLine splits one line into a record of the given schema. Surrounding
// whitespace (including the line terminator) is removed from the whole line
// before splitting; individual fields are not trimmed.
func ParseLine(line string, lineNo int, schema Schema) (Record, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != int(schema) {
		return Record{}, &RowShapeError{Line: lineNo, Want: int(schema), Got: len(fields)}
	}
	return Record{Line: lineNo, schema: schema, fields: fields}, nil
}

// Load parses every line of data. With SchemaAuto the shape is taken from the
// field count of the first line, which must be 3 or 5; every following line
// must match it. The resolved schema is returned alongside the records.
//
// Parsing stops at the first malformed line.
func Load(data []byte, schema Schema) ([]Record, Schema, error) {
	records := make([]Record, 0, bytes.Count(data, []byte{'\n'})+1)
	lineNo := 0
	for len(data) > 0 {
		var line []byte
		nl := bytes.IndexByte(data, '\n')
		if nl == -1 {
			line, data = data, nil
		} else {
			line, data = data[:nl], data[nl+1:]
		}
		lineNo++

		if schema == SchemaAuto {
			var err error
			if schema, err = detect(line, lineNo); err != nil {
				return nil, SchemaAuto, err
			}
		}

		rec, err := ParseLine(string(line), lineNo, schema)
		if err != nil {
			return nil, schema, err
		}
		records = append(records, rec)
	}
	return records, schema, nil
}

func detect(line []byte, lineNo int) (Schema, error) {
	n := bytes.Count(bytes.TrimSpace(line), []byte{','}) + 1
	switch Schema(n) {
	case SchemaNarrow, SchemaWide:
		return Schema(n), nil
	}
	return SchemaAuto, &RowShapeError{Line: lineNo, Want: int(SchemaWide), Got: n}
}
