package logger

import (
	"io"
	"log/slog"
)

type Backend string

const (
	BackendStd Backend = "std" // slog text handler, for local runs
	BackendZap Backend = "zap" // zap JSON core behind slog-zap
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level     slog.Level
	Env       Env
	Backend   Backend // zap outside dev, std in dev
	Debug     bool
	AddSource bool

	// zap sampling per second: first SampleInitial entries, then every SampleThereafter-th
	SampleInitial    int
	SampleThereafter int

	// Output defaults to os.Stdout.
	Output io.Writer
}

func (c Config) level() slog.Level {
	if c.Debug && c.Level == 0 {
		return slog.LevelDebug
	}
	return c.Level
}
