package backend

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"svgen/internal/ir"
	"svgen/internal/sv"
)

// DefaultLintArgs are passed to the lint tool ahead of the file list.
var DefaultLintArgs = []string{"--lint-only", "-Wall", "-Wno-MULTITOP"}

// Options configures how generated units are written and checked.
type Options struct {
	// Generate is handed to sv.Generate unchanged.
	Generate sv.Options
	// Lint runs an external lint tool over the written files.
	Lint bool
	// LintPath optionally overrides the lint binary. When empty the backend
	// looks up verilator on PATH.
	LintPath string
	// LintArgs replaces DefaultLintArgs when non-nil.
	LintArgs []string
	// DumpIRPath writes the textual IR dump to the provided path when
	// non-empty.
	DumpIRPath string
	// KeepTemps preserves the lint file list on disk for debugging.
	KeepTemps bool
}

// Result lists the files written and the components that failed to lower.
type Result struct {
	Paths    []string
	Failures []*sv.ComponentError
}

// Emit lowers the design and writes one <unit>.sv file per emitted unit into
// outDir. Component failures are reported in Result.Failures; the returned
// error covers I/O and lint problems only.
func Emit(design *ir.Context, outDir string, opts Options) (Result, error) {
	if design == nil {
		return Result{}, fmt.Errorf("backend: design is nil")
	}
	if outDir == "" || outDir == "-" {
		return Result{}, fmt.Errorf("backend: an output directory is required")
	}

	var lintPath string
	if opts.Lint {
		var err error
		if lintPath, err = resolveBinary(opts.LintPath, "verilator"); err != nil {
			return Result{}, fmt.Errorf("backend: resolve lint tool: %w", err)
		}
	}

	if opts.DumpIRPath != "" {
		if err := dumpIR(design, opts.DumpIRPath); err != nil {
			return Result{}, err
		}
	}

	out := sv.Generate(design, opts.Generate)
	res := Result{Failures: out.Failures}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return res, fmt.Errorf("backend: create output dir: %w", err)
	}
	for _, u := range out.Units {
		path := filepath.Join(outDir, u.FileName())
		if err := os.WriteFile(path, []byte(u.Text), 0o644); err != nil {
			return res, fmt.Errorf("backend: write %s: %w", u.Name, err)
		}
		res.Paths = append(res.Paths, path)
	}

	if opts.Lint && len(res.Paths) > 0 {
		args := opts.LintArgs
		if args == nil {
			args = DefaultLintArgs
		}
		if err := runLint(lintPath, args, res.Paths, opts.KeepTemps); err != nil {
			return res, err
		}
	}
	return res, nil
}

func dumpIR(design *ir.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("backend: create ir dump dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("backend: create ir dump: %w", err)
	}
	defer f.Close()
	ir.Dump(design, f)
	return nil
}

// runLint hands the written files to the lint tool through a -f file list.
func runLint(binary string, args, paths []string, keep bool) error {
	tempDir, err := os.MkdirTemp("", "svgen-lint-*")
	if err != nil {
		return fmt.Errorf("backend: create temp dir: %w", err)
	}
	if !keep {
		defer os.RemoveAll(tempDir)
	}
	list := filepath.Join(tempDir, "files.f")
	if err := os.WriteFile(list, []byte(strings.Join(paths, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("backend: write lint file list: %w", err)
	}

	cmdArgs := append(append([]string{}, args...), "-f", list)
	cmd := exec.Command(binary, cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("backend: lint failed: %w", err)
	}
	return nil
}

func resolveBinary(explicit, fallback string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}
	path, err := exec.LookPath(fallback)
	if err != nil {
		return "", err
	}
	return path, nil
}
