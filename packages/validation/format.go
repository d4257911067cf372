package validation

import (
	"errors"
	"strings"

	"github.com/fatih/color"
)

var (
	failColor     = color.New(color.FgRed, color.Bold)
	labelColor    = color.New(color.FgCyan)
	expectedColor = color.New(color.FgGreen)
	actualColor   = color.New(color.FgRed)
)

// Format renders a validation failure as a human-readable, colorized
// diagnostic. Non-validation errors render via their Error method.
func Format(err error) string {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return formatValidationError(valErr)
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return failColor.Sprint("✗ ") + parseErr.Error()
	}
	return err.Error()
}

func formatValidationError(e *ValidationError) string {
	var b strings.Builder
	b.WriteString(failColor.Sprintf("✗ assertion failed (%s)", e.Mode))
	if e.Path != "" {
		b.WriteString(labelColor.Sprintf("  path: ") + e.Path)
	}
	b.WriteString("\n")
	if e.Expected != nil {
		b.WriteString(labelColor.Sprint("  expected: "))
		b.WriteString(expectedColor.Sprintf("%v", e.Expected))
		b.WriteString("\n")
	}
	if e.Actual != nil {
		b.WriteString(labelColor.Sprint("  actual:   "))
		b.WriteString(actualColor.Sprintf("%v", e.Actual))
		b.WriteString("\n")
	}
	b.WriteString("  ")
	b.WriteString(e.Message)
	return b.String()
}

// TestingT is the subset of testing.T needed to fail a test.
type TestingT interface {
	Errorf(format string, args ...any)
	FailNow()
}

// Require fails t immediately when the chain has recorded a failure.
func (v *Validator) Require(t TestingT) {
	if h, ok := t.(interface{ Helper() }); ok {
		h.Helper()
	}
	if v.err != nil {
		t.Errorf("%s", Format(v.err))
		t.FailNow()
	}
}
