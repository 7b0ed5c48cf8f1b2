package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/avro-xform/codec/document"
	"github.com/wippyai/avro-xform/transcoder"
)

var errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

type config struct {
	schemaFile string
	destFile   string
	op         string
	inFile     string
	from       string
	to         string
	opts       transcoder.Options
	verbose    bool
}

func main() {
	var (
		cfg         config
		interactive bool
	)
	cfg.opts = transcoder.DefaultOptions()

	flag.StringVar(&cfg.schemaFile, "schema", "", "Path to the source Avro schema")
	flag.StringVar(&cfg.destFile, "dest", "", "Path to the destination schema (defaults to -schema)")
	flag.StringVar(&cfg.op, "op", "flatten", "Operation: flatten, unflatten, xflatten, names, types, compat")
	flag.StringVar(&cfg.inFile, "in", "-", "Input document (- for stdin)")
	flag.StringVar(&cfg.from, "from", "json", "Input format: json, yaml, cbor, msgpack")
	flag.StringVar(&cfg.to, "to", "", "Output format (defaults to -from)")
	flag.BoolVar(&cfg.opts.AssumeNulTerminatedStrings, "nul-terminated", false, "Truncate names at the first NUL")
	flag.BoolVar(&cfg.opts.AssumeNoEmbeddedNULs, "no-nul-check", false, "Do not reject names containing NUL")
	flag.BoolVar(&cfg.opts.AssumeUTF8, "assume-utf8", false, "Skip UTF-8 validation")
	flag.BoolVar(&cfg.opts.AssumeNoDuplicateMapKeys, "no-dup-check", false, "Let repeated map keys overwrite")
	flag.BoolVar(&cfg.opts.EnableFastSkip, "fast-skip", cfg.opts.EnableFastSkip, "Skip unknown writer fields unchecked")
	flag.BoolVar(&cfg.opts.CollapseNested, "collapse", cfg.opts.CollapseNested, "Inline nested records and unions")
	flag.BoolVar(&cfg.opts.IntegerEnums, "int-enums", cfg.opts.IntegerEnums, "Terse enums as symbol indexes")
	flag.BoolVar(&cfg.opts.IntegerUnionTags, "int-tags", cfg.opts.IntegerUnionTags, "Terse unions as [index, payload]")
	flag.IntVar(&cfg.opts.PositionBase, "base", 0, "First position of update operations")
	flag.IntVar(&cfg.opts.MaxDepth, "max-depth", cfg.opts.MaxDepth, "Nesting limit")
	flag.BoolVar(&cfg.verbose, "v", false, "Debug logging to stderr")
	flag.BoolVar(&interactive, "i", false, "Interactive mode with TUI")
	flag.Parse()

	if cfg.schemaFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: avrox -schema <schema.avsc> [-dest <schema.avsc>] [-op flatten] [-in file] [-from json] [-to json]")
		fmt.Fprintln(os.Stderr, "       avrox -schema <schema.avsc> -op names|types")
		fmt.Fprintln(os.Stderr, "       avrox -schema <schema.avsc> -i  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(cfg.verbose)
	if err == nil {
		transcoder.SetLogger(log)
		defer func() { _ = log.Sync() }()
	}

	if interactive {
		err = runInteractive(cfg)
	} else {
		err = run(cfg, os.Stdout)
	}
	if err != nil {
		msg := fmt.Sprintf("Error: %v", err)
		if term.IsTerminal(int(os.Stderr.Fd())) {
			msg = errStyle.Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction(zap.IncreaseLevel(zap.WarnLevel))
}

func loadSchemas(cfg config) (src, dest *transcoder.Schema, err error) {
	src, err = loadSchema(cfg.schemaFile)
	if err != nil {
		return nil, nil, err
	}
	dest = src
	if cfg.destFile != "" {
		if dest, err = loadSchema(cfg.destFile); err != nil {
			return nil, nil, err
		}
	}
	return src, dest, nil
}

func loadSchema(path string) (*transcoder.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	s, err := transcoder.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func run(cfg config, out *os.File) error {
	src, dest, err := loadSchemas(cfg)
	if err != nil {
		return err
	}

	switch cfg.op {
	case "names", "types":
		list := dest.FlatNames
		if cfg.op == "types" {
			list = dest.FlatTypes
		}
		cols, err := list()
		if err != nil {
			return err
		}
		for i, c := range cols {
			fmt.Fprintf(out, "%d\t%s\n", i+cfg.opts.PositionBase, c)
		}
		return nil
	case "compat":
		if err := transcoder.Compatible(src, dest); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s can be read as %s\n", src, dest)
		return nil
	}

	op, err := transcoder.ParseOp(cfg.op)
	if err != nil {
		return err
	}
	from, err := document.ParseFormat(cfg.from)
	if err != nil {
		return err
	}
	to := from
	if cfg.to != "" {
		if to, err = document.ParseFormat(cfg.to); err != nil {
			return err
		}
	}
	if to.Binary() && term.IsTerminal(int(out.Fd())) {
		return fmt.Errorf("refusing to write %s to a terminal", to)
	}

	input, err := readInput(cfg.inFile)
	if err != nil {
		return err
	}

	tr, err := transcoder.New(src, dest, cfg.opts)
	if err != nil {
		return err
	}

	var result []byte
	if from == document.FormatMsgpack && to == document.FormatMsgpack {
		result, err = tr.Msgpack(op, input)
	} else {
		result, err = transform(tr, op, from, to, input)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(result)
	return err
}

func transform(tr *transcoder.Transcoder, op transcoder.Op, from, to document.Format, input []byte) ([]byte, error) {
	in, err := document.Decode(from, input)
	if err != nil {
		return nil, err
	}
	res, err := tr.Tree(op, in)
	if err != nil {
		return nil, err
	}
	return document.Encode(to, res)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// describeOptions renders the non-default options for display.
func describeOptions(o transcoder.Options) string {
	d := transcoder.DefaultOptions()
	var parts []string
	add := func(cond bool, s string) {
		if cond {
			parts = append(parts, s)
		}
	}
	add(o.AssumeNulTerminatedStrings, "nul-terminated")
	add(o.AssumeNoEmbeddedNULs, "no-nul-check")
	add(o.AssumeUTF8, "assume-utf8")
	add(o.AssumeNoDuplicateMapKeys, "no-dup-check")
	add(o.EnableFastSkip != d.EnableFastSkip, fmt.Sprintf("fast-skip=%t", o.EnableFastSkip))
	add(o.CollapseNested != d.CollapseNested, fmt.Sprintf("collapse=%t", o.CollapseNested))
	add(o.IntegerEnums != d.IntegerEnums, fmt.Sprintf("int-enums=%t", o.IntegerEnums))
	add(o.IntegerUnionTags != d.IntegerUnionTags, fmt.Sprintf("int-tags=%t", o.IntegerUnionTags))
	add(o.PositionBase != 0, fmt.Sprintf("base=%d", o.PositionBase))
	if len(parts) == 0 {
		return "defaults"
	}
	return strings.Join(parts, " ")
}
