package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Odelialan/Sales-Data-Analysis/internal/config"
	"github.com/Odelialan/Sales-Data-Analysis/internal/datasource/file"
	"github.com/Odelialan/Sales-Data-Analysis/internal/logging"
	"github.com/Odelialan/Sales-Data-Analysis/internal/metrics"
	"github.com/Odelialan/Sales-Data-Analysis/internal/metrics/datadog"
	"github.com/Odelialan/Sales-Data-Analysis/internal/metrics/prompush"
	"github.com/Odelialan/Sales-Data-Analysis/internal/pipeline"
	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
	"github.com/Odelialan/Sales-Data-Analysis/internal/storage"

	// register every output backend; -format picks one at runtime.
	_ "github.com/Odelialan/Sales-Data-Analysis/internal/storage/all"
)

// appDeps are the side-effecting collaborators of runMain.
type appDeps struct {
	readFile    func(string) ([]byte, error)
	initMetrics func(ctx context.Context, p config.Pipeline) (func(), error)
	scan        func(root string) ([]string, error)
	// newWriter overrides storage.New when non-nil.
	newWriter storage.Factory
}

func defaultDeps() appDeps {
	return appDeps{
		readFile:    os.ReadFile,
		initMetrics: initMetrics,
		scan:        scanPaths,
	}
}

// closableBackend is a metrics backend that must be closed at shutdown.
type closableBackend interface {
	metrics.Backend
	Close() error
}

// Seams for metrics wiring, replaced in tests.
var (
	newDatadogBackend = func(ctx context.Context, opts datadog.Options) (closableBackend, error) {
		return datadog.NewBackend(ctx, opts)
	}
	newPushBackend = func(job, url string) (metrics.Backend, error) {
		return prompush.NewBackend(job, url)
	}
	setMetricsBackend = metrics.SetBackend
	logPrintf         = log.Printf
)

// main is the entry point of the sales batch: scan a directory, process
// every table, merge them and write the results.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := runMain(ctx, os.Args[1:], os.Stdout, os.Stderr, defaultDeps())
	stop()
	os.Exit(code)
}

// runMain returns the process exit code: 0 when the batch completed (even
// with failed files), 1 on setup, scan or write errors, 2 on usage errors.
func runMain(ctx context.Context, args []string, stdout, stderr io.Writer, deps appDeps) int {
	fs := flag.NewFlagSet("salesetl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		cfgPath        = fs.String("config", "", "pipeline config JSON path (optional)")
		input          = fs.String("input", "", "directory to scan for .csv/.xlsx files")
		output         = fs.String("output", "", "output directory")
		format         = fs.String("format", "", "output format: csv|xlsx|sqlite|postgres|mssql")
		dsn            = fs.String("dsn", "", "database DSN for postgres/mssql (sqlite: file path)")
		separate       = fs.Bool("separate", true, "write one processed table per input file")
		combined       = fs.Bool("combined", true, "write the merged table")
		writeReport    = fs.Bool("report", false, "write the JSON analysis report")
		collision      = fs.String("collision", "", "column mapping collision policy: fail|first|last\n(first keeps StockCode over Description in InvoiceNo,StockCode,Description layouts)")
		metricsBackend = fs.String("metrics-backend", "", "metrics backend: none|datadog|pushgateway")
		pushGatewayURL = fs.String("pushgateway-url", "", "Pushgateway base URL")
		env            = fs.String("env", "", "log format: development|production")
		validate       = fs.Bool("validate", false, "validate the configuration and exit")
		verbose        = fs.Bool("v", false, "enable verbose logs")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "usage: salesetl [-config file.json] [-input dir] [-output dir] ...; unexpected argument %q\n", fs.Arg(0))
		return 2
	}

	p := config.Default()
	if strings.TrimSpace(*cfgPath) != "" {
		raw, err := deps.readFile(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "read config: %v\n", err)
			return 1
		}
		if err := config.Decode(raw, &p); err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
	}
	if err := config.ApplyEnv(&p); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	// Explicit flags win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			p.Source.Dir = *input
		case "output":
			p.Output.Dir = *output
		case "format":
			p.Output.Format = *format
		case "dsn":
			p.Output.DSN = *dsn
		case "separate":
			p.Output.Separate = *separate
		case "combined":
			p.Output.Combined = *combined
		case "report":
			p.Output.Report = *writeReport
		case "collision":
			p.Mapper.Collision = *collision
		case "metrics-backend":
			p.Metrics.Backend = *metricsBackend
		case "pushgateway-url":
			p.Metrics.PushgatewayURL = *pushGatewayURL
		case "env":
			p.Log.Env = *env
		}
	})

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if *validate {
		fmt.Fprintln(stdout, "configuration is valid")
		return 0
	}

	logger, err := logging.New(p.Log.Env, *verbose, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	cleanup, err := deps.initMetrics(ctx, p)
	if err != nil {
		fmt.Fprintf(stderr, "init metrics: %v\n", err)
		return 1
	}
	defer cleanup()

	start := time.Now()
	paths, err := deps.scan(p.Source.Dir)
	if err != nil {
		fmt.Fprintf(stderr, "scan: %v\n", err)
		return 1
	}
	logger.Info("scan complete", zap.String("dir", p.Source.Dir), zap.Int("files", len(paths)))
	if len(paths) == 0 {
		fmt.Fprintf(stdout, "no .csv or .xlsx files found in %s\n", p.Source.Dir)
		return 0
	}

	collisionPolicy, _ := schema.ParseCollision(p.Mapper.Collision)
	s := pipeline.NewSession(pipeline.Options{
		Encodings:       p.Source.Encodings,
		Collision:       collisionPolicy,
		MaxUnionColumns: p.Merge.MaxUnionColumns,
		Logger:          logging.StdLog(logger.Named("pipeline")),
		NewWriter:       deps.newWriter,
	})
	logger.Info("run started", zap.String("run_id", s.RunID), zap.String("job", p.Job))

	s.ProcessMany(ctx, paths, func(done, total int, msg string) {
		logger.Debug("progress", zap.Int("done", done), zap.Int("total", total), zap.String("msg", msg))
	})

	ok, conflicts := 0, 0
	for _, oc := range s.Outcomes() {
		var clash *schema.SchemaConflictError
		if errors.As(oc.Err, &clash) {
			conflicts++
		}
		if oc.OK {
			ok++
			fmt.Fprintf(stdout, "ok    %s rows=%d columns=%d encoding=%s sales=%t\n",
				oc.Path, oc.Rows, oc.Columns, oc.Encoding, oc.IsSalesData)
			continue
		}
		fmt.Fprintf(stdout, "FAIL  %s: %v\n", oc.Path, oc.Err)
	}
	fmt.Fprintf(stdout, "processed %d/%d files, %d failed\n", ok, len(paths), len(s.Outcomes())-ok)
	if conflicts > 0 && collisionPolicy == schema.CollisionFail {
		fmt.Fprintf(stdout, "hint: %d file(s) map several columns onto one field; rerun with -collision first or -collision last to keep one\n", conflicts)
	}

	written, err := s.Save(ctx, p.Output.Dir, pipeline.SaveOptions{
		Separate: p.Output.Separate,
		Combined: p.Output.Combined,
		Report:   p.Output.Report,
		Format:   p.Output.Format,
		DSN:      p.Output.DSN,
	})
	for _, w := range written {
		fmt.Fprintf(stdout, "wrote %s\n", w)
	}
	switch {
	case errors.Is(err, pipeline.ErrNoResults):
		fmt.Fprintln(stdout, "nothing to save")
	case err != nil:
		fmt.Fprintf(stderr, "save: %v\n", err)
		return 1
	}

	logger.Info("run complete",
		zap.String("run_id", s.RunID),
		zap.String("merge_strategy", s.MergeStrategy()),
		zap.Duration("elapsed", time.Since(start).Truncate(time.Millisecond)))
	return 0
}

func scanPaths(root string) ([]string, error) {
	entries, err := file.Scan(root)
	if err != nil {
		return nil, err
	}
	return file.Paths(entries), nil
}

// initMetrics installs the configured backend and returns its cleanup.
// cleanup is never nil and is safe to call when err != nil.
func initMetrics(ctx context.Context, p config.Pipeline) (func(), error) {
	noop := func() {}
	job := p.Job
	if job == "" {
		job = "salesetl"
	}

	switch p.Metrics.Backend {
	case "", "none":
		return noop, nil

	case "pushgateway":
		// flag/config -> env -> default
		gwURL := p.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := newPushBackend(job, gwURL)
		if err != nil {
			return noop, fmt.Errorf("pushgateway: %w", err)
		}
		setMetricsBackend(b)
		return func() {
			if err := b.Flush(); err != nil {
				logPrintf("metrics: pushgateway flush error: %v", err)
			}
		}, nil

	case "datadog":
		tags := append([]string(nil), p.Metrics.Tags...)
		tags = append(tags, datadog.ParseTagsCSV(os.Getenv("METRICS_TAGS"))...)
		b, err := newDatadogBackend(ctx, datadog.Options{
			JobName:    job,
			Tags:       tags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			return noop, fmt.Errorf("datadog: %w", err)
		}
		setMetricsBackend(b)
		// Close stops the flush loop and submits what is left.
		return func() {
			if err := b.Close(); err != nil {
				logPrintf("metrics: datadog close error: %v", err)
			}
		}, nil

	default:
		return noop, fmt.Errorf("unknown metrics backend %q (want none|datadog|pushgateway)", p.Metrics.Backend)
	}
}
