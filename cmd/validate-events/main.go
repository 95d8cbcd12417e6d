package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gunvolt24/storefront-sync/pkg/validate"
)

// validate-events: канонические change-event в stdout, ошибки и итог в stderr.
// Без -in читает JSONL из stdin.
func main() {
	in := flag.String("in", "", "path to .json/.jsonl file; stdin when empty")
	format := flag.String("format", "auto", "input format: auto|json|jsonl")
	strict := flag.Bool("strict", false, "exit with status 2 if any event is invalid")
	quiet := flag.Bool("q", false, "do not print per-event failures")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, *in, validate.Format(*format), *strict, *quiet, os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, path string, format validate.Format, strict, quiet bool, stdin io.Reader, stdout, stderr io.Writer) int {
	v := validate.NewEventValidator()

	var (
		rep validate.Report
		err error
	)
	if path == "" {
		if format == validate.FormatAuto {
			format = validate.FormatJSONL
		}
		rep, err = validate.ValidateStream(ctx, v, stdin, format, stdout)
	} else {
		rep, err = validate.ValidateFile(ctx, v, path, format, stdout)
	}

	if !quiet {
		for _, f := range rep.Failures {
			fmt.Fprintf(stderr, "#%d: %v\n", f.Pos, f.Err)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "validation aborted: %v (%s)\n", err, rep)
		return 1
	}
	fmt.Fprintf(stderr, "validation done (%s)\n", rep)
	if strict && rep.Invalid > 0 {
		return 2
	}
	return 0
}
