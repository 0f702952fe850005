package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"xpug.it/packscore/internal/config"
	"xpug.it/packscore/internal/generate"
	"xpug.it/packscore/internal/record"
	"xpug.it/packscore/internal/scatter"
	"xpug.it/packscore/internal/source"
	"xpug.it/packscore/internal/tally"
)

const wide = "2,1.1,p1,A,0.9\n7,2.2,p2,B,0.1\n0,3.3,p3,A,0.5\n"

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(strings.NewReader(""), &out, &errOut).run(context.Background(), args)
	return out.String(), errOut.String(), err
}

var number = regexp.MustCompile(`-?\d+(?:\.\d+)?(?:e[-+]?\d+)?|NaN`)

// matrixValues pulls the entries of a printed matrix in row order.
func matrixValues(t *testing.T, out string) []float64 {
	t.Helper()
	var values []float64
	for _, m := range number.FindAllString(out, -1) {
		v, err := strconv.ParseFloat(m, 64)
		require.NoError(t, err, m)
		values = append(values, v)
	}
	return values
}

func TestCountVariants(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	for _, tc := range []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "default below", args: nil, expected: "A: 2\n"},
		{name: "zero", args: []string{"--variant", "zero"}, expected: "A: 1\n"},
		{name: "override value", args: []string{"--value", "8"}, expected: "A: 2\nB: 1\n"},
		{name: "equality on 7", args: []string{"--predicate", "eq", "--value", "7"}, expected: "B: 1\n"},
		{name: "nothing matches", args: []string{"--value", "0"}, expected: ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			out, _, err := runApp(t, append([]string{"count", "--input", input}, tc.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestCountNarrowSchema(t *testing.T) {
	input := writeInput(t, "out.csv", "0,p,X\r\n3,p,Y\r\n9,p,X\r\n")
	out, _, err := runApp(t, "count", "--input", input, "--schema", "3")
	require.NoError(t, err)
	assert.Equal(t, "X: 1\nY: 1\n", out)
}

func TestCountErrors(t *testing.T) {
	_, _, err := runApp(t, "count", "--input", filepath.Join(t.TempDir(), "out.csv"))
	var nf *record.FileNotFoundError
	assert.ErrorAs(t, err, &nf)

	input := writeInput(t, "out.csv", "2,1.1,p1,A,0.9\n1,2,3,4\n")
	_, _, err = runApp(t, "count", "--input", input)
	var shape *record.RowShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, 2, shape.Line)

	input = writeInput(t, "out.csv", "x,1.1,p1,A,0.9\n")
	_, _, err = runApp(t, "count", "--input", input)
	var field *record.FieldParseError
	assert.ErrorAs(t, err, &field)

	_, _, err = runApp(t, "count", "--input", input, "--variant", "above")
	assert.Error(t, err)
}

func TestCountFromEnvironment(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	t.Setenv("PACKSCORE_INPUT", input)
	t.Setenv("PACKSCORE_COUNT_VARIANT", "zero")

	out, _, err := runApp(t, "count")
	require.NoError(t, err)
	assert.Equal(t, "A: 1\n", out)
}

func TestCountFromConfigFile(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	cfg := writeInput(t, "packscore.yaml", "input: "+input+"\ncount:\n  variant: zero\n")

	out, _, err := runApp(t, "count", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "A: 1\n", out)
}

func TestCorrelate(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	for _, tc := range []struct {
		column string
		r      float64
	}{
		{column: "spread_score", r: -0.2773500981126146},
		// sxy = -2, sxx = 26, syy = 0.32
		{column: "closeness", r: -0.6933752452815364},
	} {
		t.Run(tc.column, func(t *testing.T) {
			out, _, err := runApp(t, "correlate", "--input", input, "--column", tc.column, "--no-plot")
			require.NoError(t, err)
			values := matrixValues(t, out)
			require.Len(t, values, 4)
			assert.Equal(t, 1.0, values[0])
			assert.InDelta(t, tc.r, values[1], 1e-12)
			assert.InDelta(t, tc.r, values[2], 1e-12)
			assert.Equal(t, 1.0, values[3])
		})
	}
}

func TestCorrelateDisplaysPlot(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	for _, tc := range []struct {
		column string
		yLabel string
	}{
		{column: "spread_score", yLabel: "Spread Score"},
		{column: "closeness", yLabel: "Closeness Score"},
	} {
		t.Run(tc.column, func(t *testing.T) {
			var out, errOut bytes.Buffer
			a := newApp(strings.NewReader(""), &out, &errOut)
			var shown *plot.Plot
			var viewer scatter.Viewer
			a.display = func(_ context.Context, p *plot.Plot, _ scatter.Size, v scatter.Viewer) error {
				shown, viewer = p, v
				return nil
			}

			err := a.run(context.Background(), []string{"correlate", "--input", input, "--column", tc.column, "--viewer", "feh -Z"})
			require.NoError(t, err)
			require.NotNil(t, shown)
			assert.Equal(t, "Area Score", shown.X.Label.Text)
			assert.Equal(t, tc.yLabel, shown.Y.Label.Text)
			assert.Equal(t, []string{"feh", "-Z"}, viewer.Command)
		})
	}
}

func TestCorrelateSavesPlot(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	plotPath := filepath.Join(t.TempDir(), "scatter.png")
	_, logs, err := runApp(t, "correlate", "--input", input, "--column", "closeness", "--plot-out", plotPath, "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, logs, `"plot saved"`)

	data, err := os.ReadFile(plotPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))
}

func TestCorrelateDegenerate(t *testing.T) {
	input := writeInput(t, "out.csv", "2,1.1,p1,A,0.9\n")
	out, logs, err := runApp(t, "correlate", "--input", input, "--no-plot", "--log-format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "NaN")
	assert.Contains(t, logs, "correlation undefined")

	empty := writeInput(t, "empty.csv", "")
	_, _, err = runApp(t, "correlate", "--input", empty, "--no-plot")
	assert.Error(t, err)
}

func TestCorrelateNeedsWideSchema(t *testing.T) {
	input := writeInput(t, "out.csv", "0,p,X\n")
	_, _, err := runApp(t, "correlate", "--input", input, "--no-plot")
	assert.Error(t, err)

	_, _, err = runApp(t, "correlate", "--input", input, "--column", "order", "--no-plot")
	assert.Error(t, err)
}

func TestCorrelateBadPlotSize(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	_, _, err := runApp(t, "correlate", "--input", input, "--plot-width", "wide")
	assert.Error(t, err)
}

func TestGenerateThenAnalyse(t *testing.T) {
	output := filepath.Join(t.TempDir(), "out.csv.zst")
	_, _, err := runApp(t, "generate", "--output", output, "--trials", "300", "--seed", "5", "--workers", "3")
	require.NoError(t, err)

	in, err := source.Open(context.Background(), output, source.Options{})
	require.NoError(t, err)
	records, schema, err := record.Load(in.Bytes(), record.SchemaAuto)
	require.NoError(t, in.Close())
	require.NoError(t, err)
	assert.Equal(t, record.SchemaWide, schema)
	require.Len(t, records, 300)

	want, err := tally.Run(records, tally.Below)
	require.NoError(t, err)
	var expected bytes.Buffer
	require.NoError(t, want.Print(&expected))

	out, _, err := runApp(t, "count", "--input", output)
	require.NoError(t, err)
	assert.Equal(t, expected.String(), out)

	out, _, err = runApp(t, "correlate", "--input", output, "--no-plot")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))
}

func TestGeneratorSettingsOnlyCheckedByGenerate(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	t.Setenv("PACKSCORE_GENERATE_WORKERS", "0")

	out, _, err := runApp(t, "count", "--input", input)
	require.NoError(t, err)
	assert.Equal(t, "A: 2\n", out)

	_, _, err = runApp(t, "generate", "--output", filepath.Join(t.TempDir(), "out.csv"), "--trials", "1")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestFailureUsesConfiguredLogger(t *testing.T) {
	var out, errOut bytes.Buffer
	missing := filepath.Join(t.TempDir(), "out.csv")
	code := newApp(strings.NewReader(""), &out, &errOut).main(context.Background(),
		[]string{"count", "--input", missing, "--log-format", "json"})
	assert.Equal(t, 1, code)

	lines := strings.Split(strings.TrimSpace(errOut.String()), "\n")
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "packscore failed", entry["message"])
	assert.Contains(t, entry["error"], "input not found")

	errOut.Reset()
	code = newApp(strings.NewReader(""), &out, &errOut).main(context.Background(), []string{"count", "--log-level", "loud"})
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut.String(), "packscore failed")
}

func TestInvalidSettings(t *testing.T) {
	_, _, err := runApp(t, "generate", "--trials", "0", "--output", filepath.Join(t.TempDir(), "out.csv"))
	assert.ErrorIs(t, err, config.ErrInvalid)

	_, _, err = runApp(t, "count", "--log-level", "loud")
	assert.Error(t, err)

	_, _, err = runApp(t, "count", "--schema", "4")
	assert.Error(t, err)
}

func TestCPUProfile(t *testing.T) {
	input := writeInput(t, "out.csv", wide)
	profile := filepath.Join(t.TempDir(), "cpu.out")
	_, _, err := runApp(t, "count", "--input", input, "--cpuprofile", profile)
	require.NoError(t, err)

	st, err := os.Stat(profile)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func BenchmarkCount(b *testing.B) {
	var data bytes.Buffer
	if _, err := generate.Run(context.Background(), &data, generate.Options{Trials: 100_000, Seed: 1, Workers: 4}); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(data.Len()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		records, _, err := record.Load(data.Bytes(), record.SchemaAuto)
		if err != nil {
			b.Fatal(err)
		}
		t, err := tally.Run(records, tally.Below)
		if err != nil {
			b.Fatal(err)
		}
		if err := t.Print(io.Discard); err != nil {
			b.Fatal(err)
		}
	}
}
