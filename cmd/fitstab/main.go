// Command fitstab works on table extensions stored as a header text file
// next to a raw data file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/tuannm99/novafits/internal"
)

const usage = `usage: fitstab <command> [flags]

commands:
  build     build a table from a YAML column description
  dump      write a table as text files
  load      rebuild a table from text files
  info      summarize a table
  checksum  print the data checksum of a table
  schema    print the JSON Schema of the column description
`

var commands = map[string]func(args []string) error{
	"build":    runBuild,
	"dump":     runDump,
	"load":     runLoad,
	"info":     runInfo,
	"checksum": runChecksum,
	"schema":   runSchema,
}

func main() {
	if err := mainImpl(os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "fitstab: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		fmt.Fprint(os.Stderr, usage)
		return nil
	}
	run, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return run(args[1:])
}

// globals are the flags every command accepts.
type globals struct {
	fs       *flag.FlagSet
	config   *string
	logLevel *string
}

func newFlagSet(name string) *globals {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &globals{
		fs:       fs,
		config:   fs.String("config", "", "YAML config file (FITSTAB_* variables override it)"),
		logLevel: fs.String("log-level", "", "Log level (debug, info, warn, error)"),
	}
}

// parse parses args, loads the config and installs the logger.
func (g *globals) parse(args []string) (*internal.NovaFitsConfig, error) {
	if err := g.fs.Parse(args); err != nil {
		return nil, err
	}
	if g.fs.NArg() > 0 {
		return nil, fmt.Errorf("unknown arguments: %v", g.fs.Args())
	}
	cfg, err := internal.LoadConfig(*g.config)
	if err != nil {
		return nil, err
	}
	if *g.logLevel != "" {
		cfg.Log.Level = *g.logLevel
	}
	if err := setupLogging(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

// isSet reports whether the flag was given on the command line.
func (g *globals) isSet(name string) bool {
	set := false
	g.fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      l,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)
	return nil
}
