// chunkjson decodes a chunk-table encoded JSON document and prints it as
// regular, indented JSON.
//
// Input is read from --input (default stdin) and may be gzip, zstd or lz4
// compressed. The decoded document is written to --output (default stdout);
// the output file is only created once decoding has succeeded.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"github.com/reoring/chunkjson"
	"github.com/reoring/chunkjson/compr"
	"github.com/reoring/chunkjson/config"
)

var version = "dev"

// usageError marks errors caused by invalid invocation.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }
func (usageError) ExitCode() int   { return 2 }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

type flags struct {
	input      string
	output     string
	configPath string
	logLevel   string
	sortKeys   bool
	compact    bool
	color      string
	showVer    bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var f flags
	flagSet := pflag.NewFlagSet("chunkjson", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&f.input, "input", "i", "", "encoded JSON file (default: stdin)")
	flagSet.StringVarP(&f.output, "output", "o", "", "decoded JSON file (default: stdout)")
	flagSet.StringVar(&f.configPath, "config", "", "config file (.yaml, .json, .jsonc, .toml); default $"+config.EnvConfig)
	flagSet.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolVar(&f.sortKeys, "sort-keys", false, "sort object keys in the output")
	flagSet.BoolVar(&f.compact, "compact", false, "write the output on a single line")
	flagSet.StringVar(&f.color, "color", "auto", "colorize output: auto, always, never")
	flagSet.BoolVar(&f.showVer, "version", false, "print version information")
	flagSet.Usage = func() { printHelp(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return usageError{err}
	}
	if f.showVer {
		fmt.Fprintf(stdout, "chunkjson %s\n", version)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return usageError{fmt.Errorf("unexpected argument: %s", rest[0])}
	}
	if f.color != "auto" && f.color != "always" && f.color != "never" {
		return usageError{fmt.Errorf("--color must be one of: auto, always, never")}
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		cfg.LogLevel = f.logLevel
	}
	if flagSet.Changed("sort-keys") {
		cfg.SortKeys = f.sortKeys
	}
	if flagSet.Changed("compact") {
		cfg.Compact = f.compact
	}
	level, err := cfg.Level()
	if err != nil {
		return usageError{err}
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts, err := cfg.Options(logger)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(f.input, stdin, cfg.Decompress, logger)
	if err != nil {
		return err
	}
	defer closeIn()

	value, err := chunkjson.Decode(ctx, in, opts)
	if err != nil {
		return err
	}

	out, err := chunkjson.MarshalIndent(value, cfg.WriteOptions())
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if useColor(f.color, f.output, stdout) {
		out = pretty.Color(out, pretty.TerminalStyle)
	}
	return writeOutput(f.output, stdout, out)
}

// openInput opens path (or stdin) and undoes any stream compression.
func openInput(path string, stdin io.Reader, decompress string, logger *slog.Logger) (io.Reader, func(), error) {
	var (
		raw     io.Reader = stdin
		closers []io.Closer
	)
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open input file: %w", err)
		}
		raw = file
		closers = append(closers, file)
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i].Close()
		}
	}
	if decompress == "none" {
		return raw, closeAll, nil
	}
	rc, format, err := compr.NewReader(raw)
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("failed to read input: %w", err)
	}
	closers = append(closers, rc)
	if format != compr.None {
		logger.Debug("decompressing input", "format", format.String())
	}
	return rc, closeAll, nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("failed to write JSON data: %w", err)
		}
		return nil
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return fmt.Errorf("failed to write JSON data: %w", err)
	}
	return file.Close()
}

func useColor(mode, outputPath string, stdout io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if outputPath != "" || os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := stdout.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `chunkjson decodes chunk-table encoded JSON.

The first input line is a JSON array of chunks. It may be followed by patch
lines "P<index>:<json-array>" and a blank line. Chunk 0 is decoded with all
references resolved and printed with four-space indentation.

Usage:
  chunkjson [flags]

Examples:
  # Decode from stdin to stdout
  chunkjson < encoded.txt

  # Decode a compressed file into another file, keys sorted
  chunkjson -i encoded.txt.zst -o decoded.json --sort-keys

Flags:
`)
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
