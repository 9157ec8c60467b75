package driver

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"riposte/pkg/value"
)

// HistoryFileName is the REPL history file spec.md §6 names.
const HistoryFileName = ".riposte_history"

// ReplOptions configures a REPL run.
type ReplOptions struct {
	Quiet bool // suppress echo of top-level results (-q)
	In    io.Reader
	Out   io.Writer
}

// Compile adapts a raw source line into a runnable Prototype. The core has
// no parser (out of scope), so a REPL driver must supply this — tests and
// an embedder that owns its own frontend construct one directly.
type Compile func(source string) (*value.Prototype, error)

// RunRepl drives an interactive loop over s, reading lines with
// github.com/peterh/liner (history persisted to HistoryFileName in the
// user's home directory) the way
// _examples/daios-ai-msg/mindscript/cmd/main.go's runREPL does, gated by
// github.com/mattn/go-isatty so piped stdin doesn't get prompts or result
// echoes it can't do anything useful with.
func RunRepl(s *Session, compile Compile, opts ReplOptions) error {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	interactive := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			f.Close()
		}
	}()

	prompt := "> "
	if !interactive {
		prompt = ""
	}

	for {
		line, err := ln.Prompt(prompt)
		if err != nil { // io.EOF on Ctrl+D, liner.ErrPromptAborted on Ctrl+C
			if interactive {
				fmt.Fprintln(out)
			}
			return nil
		}
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		proto, err := compile(line)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}

		v, err := s.Eval(proto, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if !opts.Quiet && interactive {
			PrintValue(out, v)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return HistoryFileName
	}
	return filepath.Join(home, HistoryFileName)
}
