package driver

import (
	"bytes"
	"strings"
	"testing"

	"riposte/pkg/intern"
	"riposte/pkg/value"
)

func TestDisplayWidthCountsWideRunesAsTwoColumns(t *testing.T) {
	if w := displayWidth("ab"); w != 2 {
		t.Fatalf("expected ascii width 2, got %d", w)
	}
	if w := displayWidth("日本"); w != 4 {
		t.Fatalf("expected two wide runes to measure 4 columns, got %d", w)
	}
}

func TestPrintCharacterVectorPadsToWidestEntry(t *testing.T) {
	hs := []intern.Handle{intern.Intern("a"), intern.Intern("bbb")}
	var buf bytes.Buffer
	printCharacterVector(&buf, hs)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(lines), lines)
	}
	if len(lines[0]) != len(lines[1]) {
		t.Fatalf("expected both printed lines padded to equal length, got %q and %q", lines[0], lines[1])
	}
}

func TestPrintValueHandlesEachVectorKind(t *testing.T) {
	var buf bytes.Buffer
	PrintValue(&buf, value.NewLogical(1))
	PrintValue(&buf, value.NewInteger(7))
	PrintValue(&buf, value.NewDouble(1.5))
	PrintValue(&buf, value.NullValue())
	PrintValue(&buf, value.NilValue())

	out := buf.String()
	for _, want := range []string{"TRUE", "7", "1.5", "NULL"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}
