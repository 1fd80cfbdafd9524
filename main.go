package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"coolz80/ast"
	"coolz80/codegen"
	"coolz80/lexer"
	"coolz80/logger"
	"coolz80/parser"
	"coolz80/semant"
)

// exitUsage is the status for a bad command line, as package flag uses.
const exitUsage = 2

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	output   string
	disptab  string
	emitLLVM string
	dumpAST  bool
	dumpCG   bool
	verbose  bool
	logFmt   string
	inputs   []string
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("coolc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: coolc [flags] file.cl ...")
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.output, "o", "", "output assembly `file` (default: first input with .s)")
	fs.StringVar(&opts.disptab, "disptab", codegen.DefaultDispatchInclude, "dispatch table `file` next to the output; empty writes the tables in line")
	fs.StringVar(&opts.emitLLVM, "emit-llvm", "", "write the object model as LLVM IR to `file`")
	fs.BoolVar(&opts.dumpAST, "dump-ast", false, "print the parsed program")
	fs.BoolVar(&opts.dumpCG, "c", false, "print the class table on stderr")
	fs.BoolVar(&opts.verbose, "v", false, "verbose logging")
	fs.StringVar(&opts.logFmt, "log-format", "text", "log format, text or json")
	// Accepted for compatibility. Code generation has one fixed strategy.
	for _, name := range []string{"g", "t", "T", "O", "r"} {
		fs.Bool(name, false, "ignored")
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return exitUsage
	}
	opts.inputs = fs.Args()
	if len(opts.inputs) == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg := logger.DefaultConfig()
	cfg.Output = stderr
	cfg.Format = opts.logFmt
	if opts.verbose {
		cfg.Level = slog.LevelDebug
	} else if opts.dumpCG {
		cfg.Level = slog.LevelInfo
	}
	if err := logger.Init(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "g", "t", "T", "O", "r":
			logger.Debug("flag has no effect", "flag", f.Name)
		}
	})

	return compile(opts, stdout, stderr)
}

func compile(opts options, stdout, stderr io.Writer) int {
	start := logger.LogPhase("parse", "files", len(opts.inputs))
	program, errs, err := parseFiles(opts.inputs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(errs) > 0 {
		report(stderr, errs)
		fmt.Fprintln(stderr, "Compilation halted due to lex and parse errors")
		return 1
	}
	logger.LogPhaseComplete("parse", start, "classes", len(program.Classes))

	if opts.dumpAST {
		ast.Dump(stdout, program)
	}

	start = logger.LogPhase("semant")
	analyzer := semant.NewSemanticAnalyzer()
	analyzer.Analyze(program)
	if errs := analyzer.Errors(); len(errs) > 0 {
		report(stderr, errs)
		fmt.Fprintln(stderr, "Compilation halted due to static semantic errors.")
		return 1
	}
	logger.LogPhaseComplete("semant", start)

	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(opts.inputs[0], filepath.Ext(opts.inputs[0])) + ".s"
	}

	start = logger.LogPhase("codegen", "output", output)
	generator := codegen.NewCodeGenerator(codegen.Options{DispatchInclude: includeName(output, opts.disptab)})
	if err := writeAssembly(generator, program, output, dispatchPath(output, opts.disptab)); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger.LogPhaseComplete("codegen", start,
		"labels", generator.Labels(),
		"strings", generator.Constants().Strings.Len(),
		"ints", generator.Constants().Ints.Len())

	if opts.dumpCG {
		if err := generator.ClassTable().Dump(stderr); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	if opts.emitLLVM != "" {
		m := codegen.BuildManifest(generator.ClassTable())
		if err := os.WriteFile(opts.emitLLVM, []byte(m.String()), 0644); err != nil {
			fmt.Fprintln(stderr, errors.Wrap(err, "cannot write LLVM manifest"))
			return 1
		}
	}
	return 0
}

func report(w io.Writer, errs []string) {
	for _, e := range errs {
		fmt.Fprintln(w, e)
	}
}

// parsedFile is the outcome of parsing one input and everything it imports.
type parsedFile struct {
	sources []parser.Source
	classes [][]*ast.Class
	errors  [][]string
}

// parseFiles reads and parses the inputs concurrently. Classes are merged in
// command-line order, imported files first, and a file imported twice is
// only compiled once.
func parseFiles(paths []string) (*ast.Program, []string, error) {
	results := make([]parsedFile, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			code, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrapf(err, "cannot read %s", path)
			}
			sources, err := parser.ResolveImports(path, string(code))
			if err != nil {
				return err
			}
			res := parsedFile{sources: sources}
			for _, src := range sources {
				p := parser.New(lexer.NewLexer(strings.NewReader(src.Text)), src.Path)
				prog := p.ParseProgram()
				res.classes = append(res.classes, prog.Classes)
				res.errors = append(res.errors, p.Errors())
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	program := &ast.Program{}
	var errs []string
	seen := make(map[string]bool)
	for _, res := range results {
		for i, src := range res.sources {
			key := filepath.Clean(src.Path)
			if seen[key] {
				continue
			}
			seen[key] = true
			program.Classes = append(program.Classes, res.classes[i]...)
			errs = append(errs, res.errors[i]...)
		}
	}
	return program, errs, nil
}

// dispatchPath places a relative dispatch table file next to the output.
func dispatchPath(output, disptab string) string {
	if disptab == "" || filepath.IsAbs(disptab) {
		return disptab
	}
	return filepath.Join(filepath.Dir(output), disptab)
}

// includeName is the dispatch file as the assembly's #include names it,
// relative to the output.
func includeName(output, disptab string) string {
	if disptab == "" {
		return ""
	}
	path := dispatchPath(output, disptab)
	rel, err := filepath.Rel(filepath.Dir(output), path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func writeAssembly(g *codegen.CodeGenerator, program *ast.Program, output, disptab string) error {
	f, err := os.Create(output)
	if err != nil {
		return errors.Errorf("cannot open output file %s", output)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	var tables io.Writer
	var tablesBuf *bufio.Writer
	if disptab != "" {
		df, err := os.Create(disptab)
		if err != nil {
			return errors.Errorf("cannot open output file %s", disptab)
		}
		defer df.Close()
		tablesBuf = bufio.NewWriter(df)
		tables = tablesBuf
	}

	if err := g.Generate(program, w, tables); err != nil {
		if codegen.IsInternal(err) {
			logger.Error("code generation failed", "error", fmt.Sprintf("%+v", errors.Cause(err)))
		}
		return err
	}
	if tablesBuf != nil {
		if err := tablesBuf.Flush(); err != nil {
			return errors.Wrapf(err, "writing %s", disptab)
		}
	}
	if err := w.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", output)
	}
	return f.Close()
}
