// Command goscheme runs Scheme programs and provides an interactive REPL.
//
// Usage:
//
//	goscheme [flags] [file ...]
//
// Files are evaluated in order in one top-level environment. With no files
// and no -e expression, or with -i, an interactive session starts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/sandrolain/goscheme"
	"github.com/sandrolain/goscheme/pkg/evaluator"
	"github.com/sandrolain/goscheme/pkg/ext"
	"github.com/sandrolain/goscheme/pkg/parser"
	"github.com/sandrolain/goscheme/pkg/types"
)

const (
	historyFile = ".goscheme_history"
	promptMain  = "> "
	promptCont  = "... "
)

func red(s string) string { return "\x1b[31m" + s + "\x1b[0m" }

type options struct {
	expr        string
	interactive bool
	debug       bool
	foldCase    bool
	maxDepth    int
	version     bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	fs := flag.NewFlagSet("goscheme", flag.ContinueOnError)
	fs.StringVar(&opts.expr, "e", "", "evaluate `expr` and print the result")
	fs.BoolVar(&opts.interactive, "i", false, "start the REPL after running files")
	fs.BoolVar(&opts.debug, "debug", false, "log evaluator internals and print backtraces")
	fs.BoolVar(&opts.foldCase, "fold-case", false, "read symbols case-insensitively")
	fs.IntVar(&opts.maxDepth, "max-depth", 0, "frame depth limit (0 for the default)")
	fs.BoolVar(&opts.version, "version", false, "print the version and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: goscheme [flags] [file ...]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Println(goscheme.Version())
		return 0
	}

	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	evalOpts := []evaluator.EvalOption{
		evaluator.WithLogger(logger),
		evaluator.WithDebug(opts.debug),
		evaluator.WithFoldCase(opts.foldCase),
		evaluator.WithInput(os.Stdin),
		evaluator.WithOutput(os.Stdout),
		ext.WithAll(),
	}
	if opts.maxDepth > 0 {
		evalOpts = append(evalOpts, evaluator.WithMaxDepth(opts.maxDepth))
	}
	ev := evaluator.New(evalOpts...)

	status := batch(ev, opts, fs.Args())
	if status < 0 && (opts.interactive || (fs.NArg() == 0 && opts.expr == "")) {
		status = repl(ev, opts)
	}
	if err := ev.Wait(); err != nil && status <= 0 {
		status = report(ev, opts, err)
	}
	ev.Cleanup()
	return max(status, 0)
}

// batch evaluates the files and the -e expression. It returns -1 when
// everything succeeded.
func batch(ev *evaluator.Evaluator, opts options, files []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "goscheme: cannot read %s: %v\n", file, err)
			return 1
		}
		if _, err := ev.EvalString(ctx, string(src)); err != nil {
			return report(ev, opts, err)
		}
	}
	if opts.expr != "" {
		v, err := ev.EvalString(ctx, opts.expr)
		if err != nil {
			return report(ev, opts, err)
		}
		printValue(os.Stdout, v)
	}
	return -1
}

// report prints err and returns the process exit status it implies.
func report(ev *evaluator.Evaluator, opts options, err error) int {
	var cond *types.Error
	if errors.As(err, &cond) && cond.Code == types.ErrExit && cond.Err == nil {
		return cond.Status
	}
	fmt.Fprintln(os.Stderr, red(err.Error()))
	if opts.debug {
		_ = ev.Backtrace(os.Stderr)
	}
	return 1
}

func printValue(w io.Writer, v types.Value) {
	if v == types.Unspecified {
		return
	}
	fmt.Fprintln(w, types.String(v, true))
}

func repl(ev *evaluator.Evaluator, opts options) (status int) {
	fmt.Printf("goscheme %s. Type :quit or Ctrl-D to exit.\n", goscheme.Version())

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readByParseProbe(ln, opts.foldCase)
		if !ok {
			fmt.Println()
			return 0
		}
		trimmed := strings.TrimSpace(code)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, ":"):
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			case ":backtrace", ":bt":
				_ = ev.Backtrace(os.Stdout)
			default:
				fmt.Println("unknown command. Type :quit to exit.")
			}
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		v, err := ev.EvalString(ctx, code)
		stop()
		if err != nil {
			var cond *types.Error
			if errors.As(err, &cond) && cond.Code == types.ErrExit && cond.Err == nil {
				return cond.Status
			}
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		printValue(os.Stdout, v)
	}
}

// readByParseProbe reads lines until they form complete data, switching to
// the continuation prompt while the reader reports incomplete input.
func readByParseProbe(ln *liner.State, foldCase bool) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl-C discards the pending input.
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if _, err := parser.Compile(src, parser.WithFoldCase(foldCase)); types.IsIncomplete(err) {
			continue
		}
		return src, true
	}
}
