package validation

import "fmt"

// Mode identifies the kind of assertion that produced a ValidationError.
type Mode string

const (
	ModeStatusCode  Mode = "status_code"
	ModeContentType Mode = "content_type"
	ModeHeader      Mode = "header"
	ModeExists      Mode = "exists"
	ModeEquals      Mode = "equals"
	ModeMatches     Mode = "matches"
	ModeValidate    Mode = "validate"
	ModeSchema      Mode = "schema"
)

// NotFound marks the actual value of an assertion whose path did not
// resolve, distinguishing "absent" from present-but-falsy values.
const NotFound = "<path not found>"

// ValidationError reports a failed assertion with enough structure to
// render a diagnostic without re-running the request.
type ValidationError struct {
	Path     string
	Mode     Mode
	Expected any
	Actual   any
	Message  string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("assertion %s failed at %q: %s", e.Mode, e.Path, e.Message)
	}
	return fmt.Sprintf("assertion %s failed: %s", e.Mode, e.Message)
}

// ParseError indicates a body that was expected to be JSON could not
// be parsed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("response body is not valid JSON: %v", e.Err)
	}
	return "response body is not valid JSON"
}

func (e *ParseError) Unwrap() error { return e.Err }
