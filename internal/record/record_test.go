package record

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDetectsSchema(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		want  Schema
		rows  int
	}{
		{name: "narrow", input: "3,p,A\n7,p,B\n", want: SchemaNarrow, rows: 2},
		{name: "wide", input: "2,1.1,p1,A,0.9\n7,2.2,p2,B,0.1\n", want: SchemaWide, rows: 2},
		{name: "no trailing newline", input: "2,1.1,p1,A,0.9\n7,2.2,p2,B,0.1", want: SchemaWide, rows: 2},
		{name: "crlf", input: "3,p,A\r\n4,p,B\r\n", want: SchemaNarrow, rows: 2},
		{name: "empty", input: "", want: SchemaAuto, rows: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			records, schema, err := Load([]byte(tc.input), SchemaAuto)
			require.NoError(t, err)
			assert.Equal(t, tc.want, schema)
			assert.Len(t, records, tc.rows)
		})
	}
}

func TestLoadRejectsBadShapes(t *testing.T) {
	for _, tc := range []struct {
		name   string
		input  string
		schema Schema
		line   int
		got    int
	}{
		{name: "four fields", input: "1,2,3,4\n", schema: SchemaAuto, line: 1, got: 4},
		{name: "mixed widths", input: "3,p,A\n2,1.1,p1,A,0.9\n", schema: SchemaAuto, line: 2, got: 5},
		{name: "blank line", input: "3,p,A\n\n4,p,B\n", schema: SchemaAuto, line: 2, got: 1},
		{name: "forced wide", input: "3,p,A\n", schema: SchemaWide, line: 1, got: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Load([]byte(tc.input), tc.schema)
			var shapeErr *RowShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tc.line, shapeErr.Line)
			assert.Equal(t, tc.got, shapeErr.Got)
		})
	}
}

func TestRecordColumns(t *testing.T) {
	rec, err := ParseLine("3,1.0,2.0,X,0.5\n", 1, SchemaWide)
	require.NoError(t, err)

	score, err := rec.Score()
	require.NoError(t, err)
	assert.Equal(t, 3, score)

	spread, err := rec.Float(ColumnSpread)
	require.NoError(t, err)
	assert.Equal(t, 1.0, spread)

	closeness, err := rec.Float(ColumnCloseness)
	require.NoError(t, err)
	assert.Equal(t, 0.5, closeness)

	assert.Equal(t, "X", rec.Order())
	assert.Equal(t, "2.0", rec.Field(ColumnPacking))
}

func TestNarrowRecordHasNoFloatColumns(t *testing.T) {
	rec, err := ParseLine("3,p,A", 1, SchemaNarrow)
	require.NoError(t, err)
	assert.Equal(t, "A", rec.Order())

	_, err = rec.Float(ColumnSpread)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestFieldParseError(t *testing.T) {
	rec, err := ParseLine("x,p,A", 4, SchemaNarrow)
	require.NoError(t, err)

	_, err = rec.Score()
	var parseErr *FieldParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 4, parseErr.Line)
	assert.Equal(t, ColumnScore, parseErr.Column)
	assert.Equal(t, "x", parseErr.Value)
	assert.True(t, errors.Is(err, strconv.ErrSyntax))
}

func TestParseSchemaAndColumn(t *testing.T) {
	for in, want := range map[string]Schema{"": SchemaAuto, "auto": SchemaAuto, "3": SchemaNarrow, "WIDE": SchemaWide} {
		got, err := ParseSchema(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSchema("4")
	assert.Error(t, err)

	for in, want := range map[string]Column{"spread": ColumnSpread, "closeness": ColumnCloseness, "score": ColumnScore} {
		got, err := ParseColumn(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err = ParseColumn("area")
	assert.Error(t, err)
}

func TestNumbersIgnoreSurroundingWhitespace(t *testing.T) {
	records, schema, err := Load([]byte("3 ,p,A\n"), SchemaAuto)
	require.NoError(t, err)
	require.Equal(t, SchemaNarrow, schema)
	score, err := records[0].Score()
	require.NoError(t, err)
	assert.Equal(t, 3, score)
	assert.Equal(t, "3 ", records[0].Field(ColumnScore), "raw field is kept as split")

	records, _, err = Load([]byte("2,\t1.5 ,p,A, 0.5\n"), SchemaWide)
	require.NoError(t, err)
	spread, err := records[0].Float(ColumnSpread)
	require.NoError(t, err)
	assert.Equal(t, 1.5, spread)
	closeness, err := records[0].Float(ColumnCloseness)
	require.NoError(t, err)
	assert.Equal(t, 0.5, closeness)

	records, _, err = Load([]byte("3 4,p,A\n"), SchemaAuto)
	require.NoError(t, err)
	_, err = records[0].Score()
	var fpe *FieldParseError
	require.ErrorAs(t, err, &fpe)
	assert.Equal(t, "3 4", fpe.Value)
}
