package errors

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

func TestFormatter_Format_NilError(t *testing.T) {
	f := &Formatter{Indent: "  "}
	if got := f.Format(nil); got != "" {
		t.Errorf("expected empty string for nil error, got %q", got)
	}
}

func TestFormatter_Format_StandardError(t *testing.T) {
	f := &Formatter{Indent: "  "}
	got := f.Format(fmt.Errorf("something went wrong"))
	if got != "Error: something went wrong" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestFormatter_Format_GraphError(t *testing.T) {
	err := ShapeMismatch("layer", 0, []int{1, 1, 2, 2}, []int{1, 1, 2, 3}).
		WithCause(fmt.Errorf("from numpy"))

	out := Sprint(err)
	for _, want := range []string{
		"ERROR [SHAPE_MISMATCH]: layer 0 shape (1, 1, 2, 3) != (1, 1, 2, 2)",
		"  actual: (1, 1, 2, 3)",
		"  expected: (1, 1, 2, 2)",
		"  layer: 0",
		"  cause: from numpy",
		"→ Every layer must be shaped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, colorReset) {
		t.Error("Sprint must not emit color codes")
	}
}

func TestFormatter_Color(t *testing.T) {
	f := &Formatter{UseColor: true, Indent: "  "}
	out := f.Format(New(ErrMalformedFile, CategoryFormat, "bad"))
	if !strings.Contains(out, colorRed) || !strings.Contains(out, colorReset) {
		t.Errorf("expected color codes in %q", out)
	}
}

func TestFormatter_Display(t *testing.T) {
	var buf bytes.Buffer
	f := &Formatter{Writer: &buf, Indent: "  "}
	f.Display(New(ErrConfigInvalid, CategoryConfig, "port must be positive"))
	if !strings.HasPrefix(buf.String(), "ERROR [CONFIG_INVALID]: port must be positive") {
		t.Errorf("unexpected display output %q", buf.String())
	}
	buf.Reset()
	f.Display(nil)
	if buf.Len() != 0 {
		t.Error("Display(nil) must write nothing")
	}
}
