package driver

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"

	"riposte/pkg/intern"
	"riposte/pkg/value"
)

// PrintValue echoes a top-level result the way a REPL or -f-mode driver
// would, the counterpart to the teacher's value.Inspect()/fmt.Println
// pair in pkg/driver/driver.go's DisplayResult. Character vectors are
// column-aligned accounting for East Asian wide runes (golang.org/x/text/
// width), since a naive len()-based pad misaligns a terminal display.
func PrintValue(w io.Writer, v value.Value) {
	switch {
	case v.IsNil():
		return
	case v.IsNull():
		fmt.Fprintln(w, "NULL")
	case v.IsCharacter():
		printCharacterVector(w, v.AsCharacterSlice())
	case v.IsLogical():
		printLogicalVector(w, v.AsLogicalSlice())
	case v.IsInteger():
		printIntegerVector(w, v.AsIntegerSlice())
	case v.IsDouble():
		printDoubleVector(w, v.AsDoubleSlice())
	case v.IsClosure():
		fmt.Fprintf(w, "<closure>\n")
	case v.IsEnvironment():
		fmt.Fprintf(w, "<environment>\n")
	case v.IsPromise():
		fmt.Fprintf(w, "<promise>\n")
	default:
		fmt.Fprintf(w, "<%s>\n", v.Tag())
	}
}

func printCharacterVector(w io.Writer, hs []intern.Handle) {
	strs := make([]string, len(hs))
	colWidth := 0
	for i, h := range hs {
		strs[i] = h.String()
		if dw := displayWidth(strs[i]); dw > colWidth {
			colWidth = dw
		}
	}
	for _, s := range strs {
		pad := colWidth - displayWidth(s)
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(w, "[1] \"%s\"%s\n", s, strings.Repeat(" ", pad))
	}
}

// displayWidth sums each rune's terminal column width, treating East Asian
// wide and fullwidth runes as 2 columns and everything else as 1.
func displayWidth(s string) int {
	total := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			total += 2
		default:
			total++
		}
	}
	return total
}

func printLogicalVector(w io.Writer, bs []byte) {
	for _, b := range bs {
		switch b {
		case 1:
			fmt.Fprintln(w, "[1] TRUE")
		case 0:
			fmt.Fprintln(w, "[1] FALSE")
		default:
			fmt.Fprintln(w, "[1] NA")
		}
	}
}

func printIntegerVector(w io.Writer, xs []int32) {
	for _, x := range xs {
		fmt.Fprintf(w, "[1] %d\n", x)
	}
}

func printDoubleVector(w io.Writer, xs []float64) {
	for _, x := range xs {
		fmt.Fprintf(w, "[1] %g\n", x)
	}
}
