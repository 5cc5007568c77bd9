// Package config defines the pipeline configuration file and its validation.
//
// Values are resolved in three layers: Default, then the JSON file, then
// SALESETL_* environment variables. Command-line flags are applied by the
// binaries on top of the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces environment overrides, e.g. SALESETL_OUTPUT_DIR.
const EnvPrefix = "SALESETL"

// Pipeline is the full configuration of one run.
type Pipeline struct {
	Job     string  `json:"job" envconfig:"JOB"`
	Source  Source  `json:"source" envconfig:"SOURCE"`
	Mapper  Mapper  `json:"mapper" envconfig:"MAPPER"`
	Merge   Merge   `json:"merge" envconfig:"MERGE"`
	Output  Output  `json:"output" envconfig:"OUTPUT"`
	Metrics Metrics `json:"metrics" envconfig:"METRICS"`
	Log     Log     `json:"log" envconfig:"LOG"`
}

type Source struct {
	Dir string `json:"dir" envconfig:"DIR"`
	// Encodings is the trial order for delimited text files.
	Encodings []string `json:"encodings" envconfig:"ENCODINGS"`
}

type Mapper struct {
	// Collision is one of "fail", "first", "last".
	Collision string `json:"collision" envconfig:"COLLISION"`
}

type Merge struct {
	// MaxUnionColumns caps the full-union width; 0 means unlimited.
	MaxUnionColumns int `json:"max_union_columns" envconfig:"MAX_UNION_COLUMNS"`
}

type Output struct {
	Dir      string `json:"dir" envconfig:"DIR"`
	Format   string `json:"format" envconfig:"FORMAT"`
	Separate bool   `json:"separate" envconfig:"SEPARATE"`
	Combined bool   `json:"combined" envconfig:"COMBINED"`
	Report   bool   `json:"report" envconfig:"REPORT"`
	// DSN is required by the database formats.
	DSN string `json:"dsn" envconfig:"DSN"`
}

type Metrics struct {
	Backend        string   `json:"backend" envconfig:"BACKEND"`
	PushgatewayURL string   `json:"pushgateway_url" envconfig:"PUSHGATEWAY_URL"`
	Tags           []string `json:"tags" envconfig:"TAGS"`
}

type Log struct {
	Env string `json:"env" envconfig:"ENV"`
}

// Default returns the configuration used when nothing is set.
func Default() Pipeline {
	return Pipeline{
		Job: "salesetl",
		Source: Source{
			Dir:       "data",
			Encodings: []string{"utf-8", "gbk", "latin-1"},
		},
		Mapper: Mapper{Collision: "fail"},
		Output: Output{
			Dir:      "outputs",
			Format:   "csv",
			Separate: true,
			Combined: true,
		},
		Metrics: Metrics{Backend: "none"},
		Log:     Log{Env: "development"},
	}
}

// Load reads the JSON file at path over Default and applies environment
// overrides. An empty path skips the file.
func Load(path string) (Pipeline, error) {
	p := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return p, fmt.Errorf("read config: %w", err)
		}
		if err := Decode(raw, &p); err != nil {
			return p, err
		}
	}
	if err := ApplyEnv(&p); err != nil {
		return p, err
	}
	return p, nil
}

// Decode unmarshals raw into p. Fields absent from raw keep their value.
func Decode(raw []byte, p *Pipeline) error {
	if err := json.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// ApplyEnv overrides p with any SALESETL_* variables that are set.
func ApplyEnv(p *Pipeline) error {
	if err := envconfig.Process(EnvPrefix, p); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	return nil
}
