// Command respmap maps a response body through the lenient deserializer and
// prints the result as JSON.
//
// Usage:
//
//	respmap [-format json|xml|yaml|form] [-root name] [-as dynamic|object|strings|numbers|list] [file]
//
// Without a file, the body is read from stdin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pasqal-io/respmap/deserialize"
	"github.com/pasqal-io/respmap/document"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	format     string
	root       string
	dateFormat string
	strict     bool
	as         string
	dump       bool
	debug      bool
	file       string
}

var errUsage = errors.New("usage: respmap [-format json|xml|yaml|form] [-root name] [-date-format layout] [-strict] [-as dynamic|object|strings|numbers|list] [-dump] [-debug] [file]")

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	flags := flag.NewFlagSet("respmap", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cfg.format, "format", "json", "Format of the body: json, xml, yaml or form")
	flags.StringVar(&cfg.root, "root", "", "Member containing the payload (optional)")
	flags.StringVar(&cfg.dateFormat, "date-format", "", "Date format, tried before the built-in formats (optional)")
	flags.BoolVar(&cfg.strict, "strict", false, "Fail if any value cannot be converted")
	flags.StringVar(&cfg.as, "as", "dynamic", "Target: dynamic, object, strings, numbers or list")
	flags.BoolVar(&cfg.dump, "dump", false, "Dump the Go value instead of printing JSON")
	flags.BoolVar(&cfg.debug, "debug", false, "Log every note and lookup")
	if err := flags.Parse(args); err != nil {
		return cfg, fmt.Errorf("%w\n\t * %w", errUsage, err)
	}
	switch flags.NArg() {
	case 0:
	case 1:
		cfg.file = flags.Arg(0)
	default:
		return cfg, errUsage
	}
	return cfg, nil
}

func options(cfg config) (deserialize.Options, error) {
	var result deserialize.Options
	switch cfg.format {
	case "json":
		result = deserialize.JSONOptions(cfg.root)
	case "xml":
		result = deserialize.XMLOptions(cfg.root)
	case "yaml":
		result = deserialize.YAMLOptions(cfg.root)
	case "form":
		result = deserialize.FormOptions(cfg.root)
	default:
		return result, fmt.Errorf("unknown format %q", cfg.format)
	}
	result.DateFormat = cfg.dateFormat
	result.Strict = cfg.strict
	return result, nil
}

// Notes are always reported, `-debug` adds the deserializer's own logs.
func newLogger(debug bool, stderr io.Writer) *zap.Logger {
	level := zap.WarnLevel
	if debug {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(stderr),
		level,
	)
	return zap.New(core)
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	opts, err := options(cfg)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.debug, stderr)
	defer func() { _ = logger.Sync() }()
	if cfg.debug {
		opts.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug})) //nolint:exhaustruct
	}

	var source []byte
	if cfg.file == "" {
		source, err = io.ReadAll(stdin)
	} else {
		source, err = os.ReadFile(cfg.file)
	}
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	node, err := opts.Parser.Parse(source)
	if err != nil {
		return fmt.Errorf("parse %s body: %w", opts.Parser.Name(), err)
	}

	result, notes, err := mapNode(cfg.as, node, opts)
	for _, note := range notes {
		logger.Warn("value could not be deserialized",
			zap.String("path", note.Path),
			zap.Stringer("kind", note.Kind),
			zap.String("input", note.Input),
			zap.Error(note.Err))
	}
	if err != nil {
		return err
	}

	if cfg.dump {
		spew.Fdump(stdout, result)
		return nil
	}
	buf, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintln(stdout, string(buf))
	return err //nolint:wrapcheck
}

func mapNode(as string, node document.Node, opts deserialize.Options) (any, []deserialize.Note, error) {
	switch as {
	case "dynamic":
		return mapAs[any](node, opts)
	case "object":
		return mapAs[map[string]any](node, opts)
	case "strings":
		return mapAs[map[string]string](node, opts)
	case "numbers":
		return mapAs[map[string]float64](node, opts)
	case "list":
		return mapAs[[]any](node, opts)
	default:
		return nil, nil, fmt.Errorf("unknown target %q", as)
	}
}

func mapAs[T any](node document.Node, opts deserialize.Options) (any, []deserialize.Note, error) {
	deserializer, err := deserialize.MakeDeserializer[T](opts)
	if err != nil {
		return nil, nil, err //nolint:wrapcheck
	}
	result, notes, err := deserializer.DeserializeNodeWithNotes(node)
	if err != nil {
		return nil, notes, err //nolint:wrapcheck
	}
	return *result, notes, nil
}
