// Command labourlens answers employment-standards questions from the
// command line.
//
// Usage:
//
//	labourlens ask "How much overtime pay am I owed?" --province on --config config.yaml
//	labourlens validate config.yaml
//	labourlens schema
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/labourlens/labourlens"
	"github.com/labourlens/labourlens/pkg/config"
	"github.com/labourlens/labourlens/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Ask      AskCmd      `cmd:"" help:"Answer a question through the pipeline."`
	Validate ValidateCmd `cmd:"" help:"Validate a configuration file."`
	Schema   SchemaCmd   `cmd:"" help:"Generate JSON Schema for the configuration."`
	Version  VersionCmd  `cmd:"" help:"Show version information."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (text or json)." default:"text"`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := labourlens.GetVersion()
	if bi, ok := debug.ReadBuildInfo(); ok {
		if bi.Main.Version != "(devel)" && bi.Main.Version != "" {
			info.Version = bi.Main.Version
		}
	}
	fmt.Println(info.String())
	return nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("labourlens"),
		kong.Description("labourlens - employment standards question answering"),
		kong.UsageOnError(),
	)

	_, cleanup, err := logger.Setup(logger.Options{
		Level:  cli.LogLevel,
		Format: cli.LogFormat,
		File:   cli.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cleanup() }()

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
