package errors

// Position locates a CompileError in program source. Line and Column are
// 1-based. The core itself never constructs a non-zero Position — it has
// no lexer — an external compiler collaborator attaches one to the
// CompileErrors it raises, and the core passes those through unmodified.
type Position struct {
	Line   int
	Column int
	File   string
}

func (p Position) IsZero() bool { return p.Line == 0 && p.Column == 0 && p.File == "" }
