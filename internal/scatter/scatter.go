// Package scatter draws score/value scatter plots and hands them to a viewer.
package scatter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Size is the rendered canvas size.
type Size struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultSize matches a typical interactive figure.
var DefaultSize = Size{Width: 6 * vg.Inch, Height: 4 * vg.Inch}

// New builds a scatter plot of ys against xs.
func New(xs, ys []float64, xLabel, yLabel string) (*plot.Plot, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("scatter: %d x values, %d y values", len(xs), len(ys))
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(s)
	return p, nil
}

// Render encodes p in the given image format ("png", "svg", "pdf", ...).
func Render(w io.Writer, p *plot.Plot, size Size, format string) error {
	wt, err := p.WriterTo(size.Width, size.Height, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save writes p to path; the format follows the file extension.
func Save(p *plot.Plot, size Size, path string) error {
	return p.Save(size.Width, size.Height, path)
}

// Viewer opens an image file in an external program.
type Viewer struct {
	Command []string
	// Blocks is set when Command exits only after the image window closes.
	// Launchers such as xdg-open hand the file to another process and return
	// at once.
	Blocks bool
}

// DefaultViewer returns the platform's image opener. Only macOS `open -W`
// blocks until the window is closed.
func DefaultViewer() Viewer {
	switch runtime.GOOS {
	case "darwin":
		return Viewer{Command: []string{"open", "-W", "-n"}, Blocks: true}
	case "windows":
		return Viewer{Command: []string{"cmd", "/c", "start", "/wait", ""}}
	}
	return Viewer{Command: []string{"xdg-open"}}
}

// ParseViewer splits a command line on whitespace. An empty string selects
// DefaultViewer. A custom command is assumed not to block.
func ParseViewer(s string) Viewer {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return DefaultViewer()
	}
	return Viewer{Command: fields}
}

// Show runs the viewer on path and waits for the command to exit.
func (v Viewer) Show(ctx context.Context, path string) error {
	if len(v.Command) == 0 {
		return fmt.Errorf("scatter: no viewer command")
	}
	args := append(append([]string{}, v.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, v.Command[0], args...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("viewer %s: %w", v.Command[0], err)
	}
	return nil
}

// Hold blocks until the user is done with a displayed image.
type Hold func(ctx context.Context) error

// WaitForEnter prompts on w and returns once a line (or EOF) is read from r,
// or ctx is done.
func WaitForEnter(r io.Reader, w io.Writer) Hold {
	return func(ctx context.Context) error {
		fmt.Fprintln(w, "Press Enter to close the plot.")
		done := make(chan error, 1)
		go func() {
			_, err := bufio.NewReader(r).ReadString('\n')
			if errors.Is(err, io.EOF) {
				err = nil
			}
			done <- err
		}()
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Display renders p to a temporary PNG and shows it with v. When v does not
// block, hold keeps the image alive until the user is done. The file is
// removed afterwards.
func Display(ctx context.Context, p *plot.Plot, size Size, v Viewer, hold Hold) error {
	dir, err := os.MkdirTemp("", "packscore-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "scatter.png")
	if err := writePNG(p, size, path); err != nil {
		return err
	}
	if err := v.Show(ctx, path); err != nil {
		return err
	}
	if v.Blocks || hold == nil {
		return nil
	}
	return hold(ctx)
}

func writePNG(p *plot.Plot, size Size, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return Render(f, p, size, "png")
}
