// Package logging builds the zap logger used by the binaries and bridges it
// to the Printf-style Logger seams of the library packages.
package logging

import (
	"io"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// New returns a logger for env. Production logs JSON with ISO8601
// timestamps at info level; anything else logs to the console at debug level
// when verbose is set and info otherwise.
//
// When w is nil the logger writes to stderr.
func New(env string, verbose bool, w io.Writer) (*zap.Logger, error) {
	var cfg zap.Config
	if env == EnvProduction {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		if !verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	if w == nil {
		return cfg.Build()
	}

	var enc zapcore.Encoder
	if cfg.Encoding == "json" {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), cfg.Level)
	return zap.New(core, zap.AddCaller()), nil
}

// StdLog adapts l for packages that take a Printf logger. Lines are logged
// at info level.
func StdLog(l *zap.Logger) *log.Logger {
	return zap.NewStdLog(l)
}
