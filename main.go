package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gonum.org/v1/plot"

	"xpug.it/packscore/internal/config"
	"xpug.it/packscore/internal/logging"
	"xpug.it/packscore/internal/record"
	"xpug.it/packscore/internal/scatter"
	"xpug.it/packscore/internal/source"
)

// app carries the state shared by every subcommand.
type app struct {
	v          *viper.Viper
	cfg        config.Config
	log        zerolog.Logger
	stdin      io.Reader
	out        io.Writer
	stderr     io.Writer
	configFile string
	cpuprofile string
	profile    *os.File

	// fetchers replaces the remote stores in tests.
	fetchers map[string]source.Fetcher
	display  func(ctx context.Context, p *plot.Plot, size scatter.Size, v scatter.Viewer) error
}

func newApp(stdin io.Reader, out, stderr io.Writer) *app {
	// Used until the configured logger replaces it in setup; the defaults
	// always parse.
	log, _ := logging.NewWithWriter(stderr, "", "")
	a := &app{v: config.New(), stdin: stdin, out: out, stderr: stderr, log: log}
	a.display = func(ctx context.Context, p *plot.Plot, size scatter.Size, v scatter.Viewer) error {
		return scatter.Display(ctx, p, size, v, scatter.WaitForEnter(a.stdin, a.stderr))
	}
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "packscore",
		Short:         "Analyse and generate rectangle packing results",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "read settings from `file` (yaml, toml or json)")
	pf.StringVar(&a.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	pf.String("input", "out.csv", "results file: a path, s3://bucket/key or minio://bucket/key")
	pf.String("schema", "auto", "column layout: auto, 3 or 5")
	pf.String("log-level", "info", "log level")
	pf.String("log-format", "console", "log format: console or json")
	a.bind(pf, map[string]string{
		"input":      "input",
		"schema":     "schema",
		"log-level":  "log.level",
		"log-format": "log.format",
	})

	root.AddCommand(newCountCmd(a), newCorrelateCmd(a), newGenerateCmd(a))
	return root
}

func (a *app) bind(fs *pflag.FlagSet, keys map[string]string) {
	if err := config.BindFlags(a.v, fs, keys); err != nil {
		panic(err)
	}
}

func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.log, err = logging.NewWithWriter(a.stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	if a.cpuprofile != "" {
		f, err := os.Create(a.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		a.profile = f
	}
	return nil
}

func (a *app) teardown() error {
	if a.profile == nil {
		return nil
	}
	pprof.StopCPUProfile()
	err := a.profile.Close()
	a.profile = nil
	return err
}

func (a *app) sourceOptions() source.Options {
	return source.Options{
		S3: source.S3Options{Region: a.cfg.S3.Region},
		MinIO: source.MinIOOptions{
			Endpoint:  a.cfg.MinIO.Endpoint,
			AccessKey: a.cfg.MinIO.AccessKey,
			SecretKey: a.cfg.MinIO.SecretKey,
			Secure:    a.cfg.MinIO.Secure,
		},
		Fetchers: a.fetchers,
	}
}

// readData loads every record of the configured input. The input is released
// before returning; records own their fields.
func (a *app) readData(ctx context.Context) ([]record.Record, record.Schema, error) {
	schema, err := record.ParseSchema(a.cfg.Schema)
	if err != nil {
		return nil, record.SchemaAuto, err
	}

	in, err := source.Open(ctx, a.cfg.Input, a.sourceOptions())
	if err != nil {
		return nil, schema, err
	}
	defer in.Close()

	records, schema, err := record.Load(in.Bytes(), schema)
	if err != nil {
		return nil, schema, fmt.Errorf("%s: %w", a.cfg.Input, err)
	}
	a.log.Debug().
		Str("input", a.cfg.Input).
		Str("format", in.Format.String()).
		Int("records", len(records)).
		Stringer("schema", schema).
		Msg("loaded")
	return records, schema, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); err == nil {
		err = terr
	}
	return err
}

// main runs args and returns the process exit code. A failure is logged with
// the configured logger when setup got that far.
func (a *app) main(ctx context.Context, args []string) int {
	if err := a.run(ctx, args); err != nil {
		a.log.Error().Err(err).Msg("packscore failed")
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := newApp(os.Stdin, os.Stdout, os.Stderr).main(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
