package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Odelialan/Sales-Data-Analysis/internal/loader"
	"github.com/Odelialan/Sales-Data-Analysis/internal/schema"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path is the JSON path of the field.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// Output formats the binaries register.
var formats = map[string]bool{
	"csv": false, "xlsx": false, "sqlite": false,
	// true: needs output.dsn
	"postgres": true, "mssql": true,
}

// ValidatePipeline checks p and returns every issue found, errors and
// warnings interleaved in field order. A nil result means p is usable.
func ValidatePipeline(p Pipeline) []Issue {
	var out []Issue
	add := func(sev Severity, path, format string, a ...any) {
		out = append(out, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, a...)})
	}

	if strings.TrimSpace(p.Source.Dir) == "" {
		add(SeverityError, "source.dir", "must not be empty")
	}
	if len(p.Source.Encodings) == 0 {
		add(SeverityWarning, "source.encodings", "empty; the default trial order is used")
	}
	for i, enc := range p.Source.Encodings {
		if !loader.KnownEncoding(enc) {
			add(SeverityError, fmt.Sprintf("source.encodings[%d]", i), "unknown encoding %q", enc)
		}
	}

	if _, err := schema.ParseCollision(p.Mapper.Collision); err != nil {
		add(SeverityError, "mapper.collision", "%v", err)
	}

	if p.Merge.MaxUnionColumns < 0 {
		add(SeverityError, "merge.max_union_columns", "must be >= 0, got %d", p.Merge.MaxUnionColumns)
	}

	if strings.TrimSpace(p.Output.Dir) == "" {
		add(SeverityError, "output.dir", "must not be empty")
	}
	needsDSN, ok := formats[p.Output.Format]
	switch {
	case !ok:
		add(SeverityError, "output.format", "unknown format %q", p.Output.Format)
	case needsDSN && p.Output.DSN == "":
		add(SeverityError, "output.dsn", "required for format %q", p.Output.Format)
	}
	if !p.Output.Separate && !p.Output.Combined && !p.Output.Report {
		add(SeverityWarning, "output", "separate, combined and report are all off; only the processing summary is written")
	}

	switch p.Metrics.Backend {
	case "", "none", "datadog":
	case "pushgateway":
		if p.Metrics.PushgatewayURL != "" {
			if u, err := url.Parse(p.Metrics.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
				add(SeverityError, "metrics.pushgateway_url", "invalid URL %q", p.Metrics.PushgatewayURL)
			}
		}
	default:
		add(SeverityError, "metrics.backend", "unknown backend %q (want none, datadog or pushgateway)", p.Metrics.Backend)
	}

	switch p.Log.Env {
	case "", "development", "production":
	default:
		add(SeverityError, "log.env", "unknown env %q (want development or production)", p.Log.Env)
	}
	return out
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
