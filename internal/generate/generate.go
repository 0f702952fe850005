// Package generate produces out.csv files: one row per random packing of the
// initial rectangles, scored by every heuristic.
package generate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"xpug.it/packscore/internal/codec"
	"xpug.it/packscore/internal/packing"
)

// DefaultBatchSize is the number of rows a worker produces per unit of work.
const DefaultBatchSize = 10000

type Options struct {
	Trials    int
	Seed      int64
	Workers   int
	BatchSize int
	Log       zerolog.Logger
}

func (o Options) batchSize() int {
	size := o.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	if o.Trials < size {
		size = o.Trials
	}
	return size
}

func (o Options) workers() int {
	if o.Workers <= 0 {
		return 1
	}
	return o.Workers
}

// Stats summarizes a finished run.
type Stats struct {
	Rows    int
	Tries   int
	Bytes   int64
	Elapsed time.Duration
}

// Row is one line of out.csv.
type Row struct {
	Score     int
	Spread    float64
	Packing   string
	Order     string
	Closeness float32
}

// NewRow scores a placed packing.
func NewRow(rects []packing.Rect) (Row, error) {
	packed, err := packing.EncodeRects(rects)
	if err != nil {
		return Row{}, err
	}
	order, err := packing.EncodeSizes(rects)
	if err != nil {
		return Row{}, err
	}
	return Row{
		Score:     packing.Score(rects),
		Spread:    packing.SpreadScore(rects),
		Packing:   packed,
		Order:     order,
		Closeness: packing.ClosenessScore(rects),
	}, nil
}

// AppendTo appends the CSV form of r, newline included.
func (r Row) AppendTo(buf []byte) []byte {
	buf = strconv.AppendInt(buf, int64(r.Score), 10)
	buf = append(buf, ',')
	buf = strconv.AppendFloat(buf, r.Spread, 'f', -1, 64)
	buf = append(buf, ',')
	buf = append(buf, r.Packing...)
	buf = append(buf, ',')
	buf = append(buf, r.Order...)
	buf = append(buf, ',')
	buf = strconv.AppendFloat(buf, float64(r.Closeness), 'f', -1, 32)
	return append(buf, '\n')
}

func (r Row) String() string {
	b := r.AppendTo(nil)
	return string(b[:len(b)-1])
}

type batch struct {
	data  []byte
	rows  int
	tries int
}

// batchSeed derives the RNG seed of one batch. Seed and index are mixed with a
// splitmix64 step, so nearby seeds do not share batch streams.
func batchSeed(seed int64, index int) int64 {
	z := uint64(seed) + (uint64(index)+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}

// buildBatch packs rows trials with an RNG seeded from seed and index, so the
// output depends only on the seed and not on the number of workers.
func buildBatch(seed int64, index, rows int) (batch, error) {
	packer := packing.RandomPacker{Rand: rand.New(rand.NewSource(batchSeed(seed, index)))}
	initial := packing.InitialRects()

	b := batch{rows: rows}
	for i := 0; i < rows; i++ {
		rects, tries := packer.PackUntilValid(initial)
		row, err := NewRow(rects)
		if err != nil {
			return batch{}, fmt.Errorf("batch %d row %d: %w", index, i, err)
		}
		b.data = row.AppendTo(b.data)
		b.tries += tries
	}
	return b, nil
}

// Run writes opts.Trials rows to w. Batches are built concurrently, a window of
// opts.Workers at a time, and written in batch order.
func Run(ctx context.Context, w io.Writer, opts Options) (Stats, error) {
	start := time.Now()
	if opts.Trials <= 0 {
		return Stats{}, fmt.Errorf("trials must be positive, got %d", opts.Trials)
	}
	size := opts.batchSize()
	batches := (opts.Trials + size - 1) / size
	workers := opts.workers()

	var stats Stats
	window := make([]batch, workers)
	for first := 0; first < batches; first += workers {
		last := min(first+workers, batches)

		g, gctx := errgroup.WithContext(ctx)
		for idx := first; idx < last; idx++ {
			rows := min(size, opts.Trials-idx*size)
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b, err := buildBatch(opts.Seed, idx, rows)
				if err != nil {
					return err
				}
				window[idx-first] = b
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return stats, err
		}

		for _, b := range window[:last-first] {
			n, err := w.Write(b.data)
			stats.Bytes += int64(n)
			if err != nil {
				return stats, fmt.Errorf("error writing batch: %w", err)
			}
			stats.Rows += b.rows
			stats.Tries += b.tries
		}
		opts.Log.Debug().
			Int("rows", stats.Rows).
			Int("trials", opts.Trials).
			Str("written", humanize.IBytes(uint64(stats.Bytes))).
			Msg("progress")
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}

// EstimateSize projects the output size of trials rows from a small sample.
func EstimateSize(trials int, seed int64) (string, error) {
	const sample = 100
	b, err := buildBatch(seed, 0, sample)
	if err != nil {
		return "", err
	}
	avg := float64(len(b.data)) / sample
	return humanize.IBytes(uint64(avg * float64(trials))), nil
}

// FileWriter creates output files.
type FileWriter interface {
	Create(name string) (io.WriteCloser, error)
}

// RealFileWriter creates files on disk.
type RealFileWriter struct{}

func (RealFileWriter) Create(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

// WriteFile generates into name, compressing according to its suffix.
func WriteFile(ctx context.Context, fw FileWriter, name string, opts Options) (stats Stats, err error) {
	file, err := fw.Create(name)
	if err != nil {
		return Stats{}, fmt.Errorf("error creating file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", name, cerr)
		}
	}()

	enc, err := codec.NewWriter(codec.Detect(name), file)
	if err != nil {
		return Stats{}, err
	}
	writer := bufio.NewWriterSize(enc, 1<<16)

	stats, err = Run(ctx, writer, opts)
	if err != nil {
		return stats, err
	}
	if err := writer.Flush(); err != nil {
		return stats, fmt.Errorf("flush %s: %w", name, err)
	}
	if err := enc.Close(); err != nil {
		return stats, fmt.Errorf("finish %s: %w", name, err)
	}
	return stats, nil
}
