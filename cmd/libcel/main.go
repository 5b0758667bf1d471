package main

import (
	"context"
	"encoding/json"
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
	"gopkg.in/yaml.v3"

	libcel "github.com/libdbm/libcel-go"
	"github.com/libdbm/libcel-go/observability"
	"github.com/libdbm/libcel-go/rules"
)

const (
	appName     = "libcel"
	historyFile = ".libcel_history"
	promptMain  = "cel> "
	promptCont  = " ..> "
)

var (
	banner   = fmt.Sprintf("libcel %s REPL\nCtrl+C cancels input, Ctrl+D exits. Type :quit to exit.", libcel.Version)
	helpText = `
REPL commands:
  :help    Show this help
  :quit    Exit the REPL
`
)

func red(s string) string   { return "\x1b[31m" + s + "\x1b[0m" }
func green(s string) string { return "\x1b[32m" + s + "\x1b[0m" }
func blue(s string) string  { return "\x1b[94m" + s + "\x1b[0m" }

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "eval":
		os.Exit(cmdEval(os.Args[2:]))
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "rules":
		os.Exit(cmdRules(os.Args[2:]))
	case "version":
		fmt.Println(libcel.Version)
		return
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`libcel %s (built %s)

Usage:
  %s eval [-b bindings] <expr>            Evaluate an expression.
  %s run [-b bindings] <file.cel>         Evaluate an expression file.
  %s repl [-b bindings]                   Start the REPL.
  %s rules list [--store <path>]          List stored rules.
  %s rules add [--store <path>] <file>    Import rules from a YAML/JSON file.
  %s rules rm [--store <path>] <name>     Delete a rule.
  %s rules eval [flags] <name>            Evaluate one stored rule.
  %s rules match [flags]                  Print names of rules that evaluate to true.
  %s version                              Print the compiled version

Bindings files are YAML or JSON documents mapping variable names to values.

`, libcel.Version, libcel.BuildDate, appName, appName, appName, appName,
		appName, appName, appName, appName, appName)
}

// loadBindings reads a YAML or JSON bindings file and converts each entry
// to an engine value.
func loadBindings(path string) (map[string]libcel.Value, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings file: %w", err)
	}

	var raw map[string]any
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse bindings yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse bindings json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported bindings file extension: %s", ext)
	}

	bindings := make(map[string]libcel.Value, len(raw))
	for name, v := range raw {
		val, err := libcel.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		bindings[name] = val
	}
	return bindings, nil
}

// evalSource compiles and evaluates one expression, printing the result or
// a caret-annotated error. name labels the source in error output; empty
// for command-line expressions.
func evalSource(src, name string, bindings map[string]libcel.Value) int {
	prog, err := libcel.Compile(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(libcel.WrapErrorWithName(err, name, src).Error()))
		return 1
	}

	result, err := prog.Evaluate(bindings)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	fmt.Println(blue(libcel.FormatValue(result)))
	return 0
}

// -----------------------------------------------------------------------------
// eval
// -----------------------------------------------------------------------------

func cmdEval(args []string) int {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	bindingsPath := fs.String("b", "", "bindings file (.yaml|.yml|.json)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s eval [-b bindings] <expr>\n", appName)
		return 2
	}
	src := strings.Join(fs.Args(), " ")

	bindings, err := loadBindings(*bindingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	return evalSource(src, "", bindings)
}

// -----------------------------------------------------------------------------
// run
// -----------------------------------------------------------------------------

func cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	bindingsPath := fs.String("b", "", "bindings file (.yaml|.yml|.json)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run [-b bindings] <file.cel>\n", appName)
		return 2
	}
	file := fs.Arg(0)

	src, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, file, err)
		return 1
	}

	bindings, err := loadBindings(*bindingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	return evalSource(string(src), file, bindings)
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(args []string) int {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	bindingsPath := fs.String("b", "", "bindings file (.yaml|.yml|.json)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	bindings, err := loadBindings(*bindingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			break
		}

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			switch strings.TrimSpace(strings.ToLower(code)) {
			case ":quit":
				return 0
			case ":help":
				fmt.Print(helpText)
			default:
				fmt.Printf("unknown command. Type :quit to exit.\n")
			}
			continue
		}

		if strings.TrimSpace(code) == "" {
			continue
		}

		prog, err := libcel.Compile(code)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(libcel.WrapErrorWithSource(err, code).Error()))
			continue
		}
		v, err := prog.Evaluate(bindings)
		if err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
			continue
		}
		fmt.Println(blue(libcel.FormatValue(v)))
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}

	return 0
}

// readByParseProbe accumulates input lines until the source parses, hits a
// hard syntax error, or the user aborts. Incomplete parses prompt for a
// continuation line.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		_, perr := libcel.Compile(src)
		if perr == nil {
			return src, true
		}
		if libcel.IsIncomplete(perr) {
			continue
		}
		return src, true
	}
}

// -----------------------------------------------------------------------------
// rules
// -----------------------------------------------------------------------------

func cmdRules(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s rules <list|add|rm|eval|match> [flags]\n", appName)
		return 2
	}

	sub := args[0]
	switch sub {
	case "list":
		return cmdRulesList(args[1:])
	case "add":
		return cmdRulesAdd(args[1:])
	case "rm":
		return cmdRulesRm(args[1:])
	case "eval":
		return cmdRulesEval(args[1:])
	case "match":
		return cmdRulesMatch(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown rules command %q\n", appName, sub)
		return 2
	}
}

func openStore(path string) (*rules.SQLiteStore, int) {
	store, err := rules.NewSQLiteStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: open rule store %s: %v\n", appName, path, err)
		return nil, 1
	}
	return store, 0
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newEngine(store rules.Store, verbose bool) *rules.Engine {
	return rules.NewEngine(store,
		rules.WithLogger(newLogger(verbose)),
		rules.WithSpanManager(observability.NewSpanManager()),
		rules.WithMetrics(observability.NewMetricsRecorder()))
}

func cmdRulesList(args []string) int {
	fs := flag.NewFlagSet("rules list", flag.ContinueOnError)
	storePath := fs.String("store", "rules.db", "rule store path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store, code := openStore(*storePath)
	if store == nil {
		return code
	}
	defer store.Close()

	all, err := store.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	for _, rule := range all {
		line := fmt.Sprintf("%-24s %s", rule.Name, rule.Expr)
		if rule.Description != "" {
			line += green("  # " + rule.Description)
		}
		fmt.Println(line)
	}
	return 0
}

func cmdRulesAdd(args []string) int {
	fs := flag.NewFlagSet("rules add", flag.ContinueOnError)
	storePath := fs.String("store", "rules.db", "rule store path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s rules add [--store <path>] <file.(yaml|json)>\n", appName)
		return 2
	}

	loaded, err := rules.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	// Reject files with uncompilable expressions before touching the store
	for _, rule := range loaded {
		if _, err := libcel.Compile(rule.Expr); err != nil {
			fmt.Fprintln(os.Stderr, red(libcel.WrapErrorWithName(err, rule.Name, rule.Expr).Error()))
			return 1
		}
	}

	store, code := openStore(*storePath)
	if store == nil {
		return code
	}
	defer store.Close()

	for _, rule := range loaded {
		if err := store.Save(rule); err != nil {
			fmt.Fprintf(os.Stderr, "%s: save %s: %v\n", appName, rule.Name, err)
			return 1
		}
		fmt.Println(green("saved " + rule.Name))
	}
	return 0
}

func cmdRulesRm(args []string) int {
	fs := flag.NewFlagSet("rules rm", flag.ContinueOnError)
	storePath := fs.String("store", "rules.db", "rule store path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s rules rm [--store <path>] <name>\n", appName)
		return 2
	}

	store, code := openStore(*storePath)
	if store == nil {
		return code
	}
	defer store.Close()

	if err := store.Delete(fs.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

func cmdRulesEval(args []string) int {
	fs := flag.NewFlagSet("rules eval", flag.ContinueOnError)
	storePath := fs.String("store", "rules.db", "rule store path")
	bindingsPath := fs.String("b", "", "bindings file (.yaml|.yml|.json)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s rules eval [--store <path>] [-b bindings] [-v] <name>\n", appName)
		return 2
	}
	name := fs.Arg(0)

	bindings, err := loadBindings(*bindingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	store, code := openStore(*storePath)
	if store == nil {
		return code
	}
	defer store.Close()

	eng := newEngine(store, *verbose)
	result, err := eng.Evaluate(context.Background(), name, bindings)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	fmt.Println(blue(libcel.FormatValue(result)))
	return 0
}

func cmdRulesMatch(args []string) int {
	fs := flag.NewFlagSet("rules match", flag.ContinueOnError)
	storePath := fs.String("store", "rules.db", "rule store path")
	bindingsPath := fs.String("b", "", "bindings file (.yaml|.yml|.json)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	bindings, err := loadBindings(*bindingsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	store, code := openStore(*storePath)
	if store == nil {
		return code
	}
	defer store.Close()

	eng := newEngine(store, *verbose)
	matched, err := eng.EvaluateAll(context.Background(), bindings)
	if err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		return 1
	}

	for _, name := range matched {
		fmt.Println(name)
	}
	return 0
}
