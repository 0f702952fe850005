// Package correlation measures the linear relationship between the area score
// and one of the floating point columns of a wide record.
package correlation

import (
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"xpug.it/packscore/internal/record"
)

// ErrEmptySeries is returned by Compute when there are no observations.
var ErrEmptySeries = errors.New("correlation of empty series")

// Series holds the parallel x (score) and y observations.
type Series struct {
	Column record.Column
	Scores []float64
	Values []float64
}

// Len is the number of observations.
func (s Series) Len() int { return len(s.Scores) }

// Label returns the axis caption for the y series.
func Label(c record.Column) string {
	switch c {
	case record.ColumnSpread:
		return "Spread Score"
	case record.ColumnCloseness:
		return "Closeness Score"
	case record.ColumnScore:
		return "Area Score"
	}
	return c.String()
}

// Extract pulls the score column and column c out of records. Only the
// spread and closeness columns are accepted.
func Extract(records []record.Record, c record.Column) (Series, error) {
	if c != record.ColumnSpread && c != record.ColumnCloseness {
		return Series{}, fmt.Errorf("cannot correlate against %s", c)
	}
	s := Series{
		Column: c,
		Scores: make([]float64, 0, len(records)),
		Values: make([]float64, 0, len(records)),
	}
	for _, rec := range records {
		score, err := rec.Score()
		if err != nil {
			return Series{}, err
		}
		v, err := rec.Float(c)
		if err != nil {
			return Series{}, err
		}
		s.Scores = append(s.Scores, float64(score))
		s.Values = append(s.Values, v)
	}
	return s, nil
}

// Result is the 2x2 Pearson coefficient matrix of a series.
type Result struct {
	N      int
	R      float64
	Matrix *mat.SymDense
}

// Defined reports whether the coefficient is a number. A single observation
// or a series with zero variance leaves it undefined.
func (r Result) Defined() bool { return !math.IsNaN(r.R) }

// Compute returns the coefficient matrix [[1, r], [r, 1]].
func Compute(s Series) (Result, error) {
	if len(s.Scores) != len(s.Values) {
		return Result{}, fmt.Errorf("series length mismatch: %d scores, %d values", len(s.Scores), len(s.Values))
	}
	n := s.Len()
	if n == 0 {
		return Result{}, ErrEmptySeries
	}

	r := math.NaN()
	if n > 1 {
		r = stat.Correlation(s.Scores, s.Values, nil)
	}
	return Result{
		N:      n,
		R:      r,
		Matrix: mat.NewSymDense(2, []float64{1, r, r, 1}),
	}, nil
}

// Print writes the matrix using gonum's default matrix formatting.
func (r Result) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%v\n", mat.Formatted(r.Matrix, mat.Squeeze()))
	return err
}

// Summary is per-series descriptive statistics.
type Summary struct {
	Mean   float64
	StdDev float64
}

// Describe returns the mean and sample standard deviation of both series.
func Describe(s Series) (scores, values Summary) {
	scores.Mean, scores.StdDev = stat.MeanStdDev(s.Scores, nil)
	values.Mean, values.StdDev = stat.MeanStdDev(s.Values, nil)
	return scores, values
}
