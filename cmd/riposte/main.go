// Command riposte is the thin CLI driver over the execution core, wiring
// the flags spec.md §6 names onto a driver.Session. It carries no parser
// or compiler (out of scope for this core) — Compile is a seam an
// embedder's frontend fills in; this build's default reports a CompileError
// explaining that a frontend must be wired in, the same way the core's
// interpret(Prototype, Environment) entry point expects its caller to have
// already produced a Prototype. Exit codes follow the teacher's convention
// (_examples/nooga-paserati/cmd/paserati/main.go): 0 clean, 64 usage error,
// 70 internal/execution error.
package main

import (
	"flag"
	"fmt"
	"os"

	"riposte/pkg/driver"
	"riposte/pkg/errors"
	"riposte/pkg/intern"
	"riposte/pkg/value"
)

const usageExitCode = 64
const failureExitCode = 70

func main() {
	var (
		file        = flag.String("f", "", "execute the named source file non-interactively")
		fileLong    = flag.String("file", "", "alias of -f")
		workers     = flag.Int("j", 0, "start N worker threads (0 = runtime.NumCPU())")
		verbose     = flag.Bool("v", false, "verbose diagnostics")
		verboseLong = flag.Bool("verbose", false, "alias of -v")
		quiet       = flag.Bool("q", false, "suppress echo of top-level results")
		quietLong   = flag.Bool("quiet", false, "alias of -q")
		format      = flag.String("F", "R", "output format: R|Riposte")
		profile     = flag.String("p", "", "enable profile dump under this name")
	)
	argv := os.Args[1:]
	for i, a := range argv {
		if a == "--args" {
			argv = argv[:i]
			break
		}
	}
	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)
	if err := flag.CommandLine.Parse(argv); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(usageExitCode)
	}

	if *fileLong != "" {
		*file = *fileLong
	}
	v := *verbose || *verboseLong
	q := *quiet || *quietLong

	if *format != "R" && *format != "Riposte" {
		fmt.Fprintf(os.Stderr, "riposte: unknown output format %q (want R or Riposte)\n", *format)
		os.Exit(usageExitCode)
	}

	s := driver.New(driver.Options{Workers: *workers, Verbose: v})
	defer s.Close()

	bindArgs(s, remainingArgs())

	var exitCode int
	if *file != "" {
		exitCode = runFile(s, *file, q)
	} else {
		exitCode = runRepl(s, q)
	}

	if *profile != "" {
		s.Profile(os.Stderr, *profile)
	}
	os.Exit(exitCode)
}

// remainingArgs returns whatever argv followed a literal "--args" marker,
// spec.md §6's "stop flag parsing; remaining argv visible to the program".
func remainingArgs() []string {
	for i, a := range os.Args {
		if a == "--args" {
			return os.Args[i+1:]
		}
	}
	return nil
}

// bindArgs exposes --args's remainder to running code as a Character
// vector bound to "argv" in the session's global environment.
func bindArgs(s *driver.Session, args []string) {
	handles := make([]intern.Handle, len(args))
	for i, a := range args {
		handles[i] = intern.Intern(a)
	}
	argv := value.NewCharacterVector(handles, s.VM.Heap)
	s.VM.Global.Set(intern.Intern("argv"), argv)
}

func runFile(s *driver.Session, path string, quiet bool) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "riposte: cannot read %s: %v\n", path, err)
		return failureExitCode
	}

	proto, err := compile(string(source))
	if err != nil {
		reportCompile(path, err)
		return failureExitCode
	}

	v, err := s.Eval(proto, nil)
	if err != nil {
		if ie, ok := err.(*errors.InternalError); ok {
			driver.Fatal(ie)
		}
		fmt.Fprintln(os.Stderr, err)
		return failureExitCode
	}
	if !quiet {
		driver.PrintValue(os.Stdout, v)
	}
	return 0
}

func runRepl(s *driver.Session, quiet bool) int {
	err := driver.RunRepl(s, compile, driver.ReplOptions{Quiet: quiet})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return failureExitCode
	}
	return 0
}

// compile is the frontend seam: this build has none, so every source
// string is reported as an unresolvable CompileError. An embedder linking
// a real lexer/parser/bytecode compiler replaces this with one that
// actually produces a *value.Prototype.
func compile(source string) (*value.Prototype, error) {
	return nil, &errors.CompileError{Msg: "no compiler is wired into this build; the execution core expects an already-built Prototype"}
}

func reportCompile(path string, err error) {
	if ce, ok := err.(*errors.CompileError); ok {
		fmt.Fprintf(os.Stderr, "%s: %s Error: %s\n", path, ce.Kind(), ce.Message())
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
}
