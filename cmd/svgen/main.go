package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"svgen/internal/backend"
	"svgen/internal/diag"
	"svgen/internal/frontend"
	"svgen/internal/ir"
	"svgen/internal/passes"
	"svgen/internal/sv"
)

var emit = backend.Emit

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printGlobalUsage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "compile":
		return runCompile(args[1:])
	case "lint":
		return runLint(args[1:])
	case "dump":
		return runDump(args[1:])
	default:
		printGlobalUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printGlobalUsage() {
	fmt.Fprintf(os.Stderr, "svgen: SystemVerilog generator for component IR documents\n\n")
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  svgen <command> [options] <design.cue|design.json>\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  compile    Lower every component to one .sv file per module or interface\n")
	fmt.Fprintf(os.Stderr, "  lint       Validate the document and run the IR checks without generating\n")
	fmt.Fprintf(os.Stderr, "  dump       Print the loaded IR\n")
}

func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	output := fs.String("o", "", "output directory for the generated .sv files")
	debug := fs.Bool("debug", false, "prefix emitted elements with source-location comments")
	override := fs.Bool("allow-binding-override", false, "let a later binding replace an earlier one on the same element")
	jobs := fs.Int("j", runtime.GOMAXPROCS(0), "number of components lowered in parallel")
	lint := fs.Bool("lint", false, "run the lint tool over the generated files")
	lintTool := fs.String("lint-tool", "", "path to the lint tool (optional, falls back to PATH lookup of verilator)")
	dumpIR := fs.String("dump-ir", "", "path to dump the loaded IR (optional)")
	keepTemps := fs.Bool("keep-temps", false, "keep the lint file list on disk")
	diagFormat := fs.String("diag-format", "text", "diagnostic output format (text|json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("compile requires exactly one IR document")
	}
	if *output == "" {
		return fmt.Errorf("compile requires -o <dir>")
	}

	design, err := frontend.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	reporter := diag.NewReporter(os.Stderr, *diagFormat)
	opts := backend.Options{
		Generate: sv.Options{
			Debug:                *debug,
			AllowBindingOverride: *override,
			Parallelism:          *jobs,
		},
		Lint:       *lint,
		LintPath:   *lintTool,
		DumpIRPath: *dumpIR,
		KeepTemps:  *keepTemps,
	}
	res, err := emit(design, *output, opts)
	for _, f := range res.Failures {
		reporter.ComponentError(f.Component, f.Source, f.Err)
	}
	if err != nil {
		return err
	}
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d components failed to lower", len(res.Failures), countDefined(design))
	}
	return nil
}

func countDefined(design *ir.Context) int {
	n := 0
	for _, comp := range design.Types {
		if !comp.External {
			n++
		}
	}
	return n
}

func runLint(args []string) error {
	fs := flag.NewFlagSet("lint", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	diagFormat := fs.String("diag-format", "text", "diagnostic output format (text|json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("lint requires exactly one IR document")
	}

	path := fs.Arg(0)
	reporter := diag.NewReporter(os.Stderr, *diagFormat)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	loader, err := frontend.NewLoader()
	if err != nil {
		return err
	}
	if msgs := loader.ValidationErrors(path, data); len(msgs) > 0 {
		for _, msg := range msgs {
			reporter.Error(&ir.Location{File: path}, msg)
		}
		return fmt.Errorf("%s does not match the IR schema", path)
	}
	design, err := loader.LoadBytes(path, data)
	if err != nil {
		return err
	}
	return runDefaultPasses(design, reporter)
}

func runDefaultPasses(design *ir.Context, reporter *diag.Reporter) error {
	passMgr := passes.NewManager()
	passMgr.Add(passes.NewReferenceCheck(reporter))
	passMgr.Add(passes.NewWidthScope(reporter))
	if err := passMgr.Run(design); err != nil {
		return err
	}
	if reporter != nil && reporter.HasErrors() {
		return fmt.Errorf("analysis passes reported errors")
	}
	return nil
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	output := fs.String("o", "", "output file path (stdout when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("dump requires exactly one IR document")
	}
	design, err := frontend.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *output != "" && *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	ir.Dump(design, w)
	return nil
}
