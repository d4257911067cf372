package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/whtdrgn101/apicheck/packages/httpclient"
	"github.com/whtdrgn101/apicheck/packages/jsonpath"
)

// statusBodyLimit bounds how much of the response body a status-code
// diagnostic includes.
const statusBodyLimit = 500

// Predicate is a custom validation applied to a resolved JSON value.
type Predicate func(value gjson.Result) bool

// Validator evaluates assertions against one response. Every assertion
// method returns the validator so calls chain; the first failure
// latches and all later assertions in the chain are skipped, so a chain
// stops at its first failing assertion.
type Validator struct {
	resp *httpclient.Response
	err  error
}

// Check wraps resp for assertion chaining.
func Check(resp *httpclient.Response) *Validator {
	return &Validator{resp: resp}
}

// Err returns the first recorded failure: a *ValidationError for a
// failed assertion or a *ParseError for a JSON assertion against an
// unparsable body.
func (v *Validator) Err() error {
	return v.err
}

// StatusCode asserts the response status equals code.
func (v *Validator) StatusCode(code int) *Validator {
	if v.err != nil {
		return v
	}
	if v.resp.StatusCode != code {
		v.err = &ValidationError{
			Mode:     ModeStatusCode,
			Expected: code,
			Actual:   v.resp.StatusCode,
			Message:  fmt.Sprintf("expected status %d but got %d. Response: %s", code, v.resp.StatusCode, truncate(v.resp.BodyString(), statusBodyLimit)),
		}
	}
	return v
}

// StatusCodeIn asserts the response status is one of codes.
func (v *Validator) StatusCodeIn(codes ...int) *Validator {
	if v.err != nil {
		return v
	}
	for _, code := range codes {
		if v.resp.StatusCode == code {
			return v
		}
	}
	v.err = &ValidationError{
		Mode:     ModeStatusCode,
		Expected: codes,
		Actual:   v.resp.StatusCode,
		Message:  fmt.Sprintf("expected status to be one of %v but got %d. Response: %s", codes, v.resp.StatusCode, truncate(v.resp.BodyString(), statusBodyLimit)),
	}
	return v
}

// ContentType asserts the Content-Type header starts with expected,
// ignoring case and any trailing parameters such as charset.
func (v *Validator) ContentType(expected string) *Validator {
	if v.err != nil {
		return v
	}
	actual := v.resp.ContentType()
	mediaType := strings.TrimSpace(strings.SplitN(actual, ";", 2)[0])
	if !strings.HasPrefix(strings.ToLower(mediaType), strings.ToLower(expected)) {
		v.err = &ValidationError{
			Mode:     ModeContentType,
			Expected: expected,
			Actual:   actual,
			Message:  fmt.Sprintf("expected content type %q but got %q", expected, actual),
		}
	}
	return v
}

// Header asserts the named header (case-insensitive) is present and
// equals expected.
func (v *Validator) Header(name, expected string) *Validator {
	if v.err != nil {
		return v
	}
	actual := v.resp.Header(name)
	if actual != expected {
		v.err = &ValidationError{
			Path:     name,
			Mode:     ModeHeader,
			Expected: expected,
			Actual:   actual,
			Message:  fmt.Sprintf("header %s: expected %q but got %q", name, expected, actual),
		}
	}
	return v
}

// JSONPathExists asserts the path resolves to a present value. A
// present-but-falsy value (false, 0, "", null) satisfies the assertion.
func (v *Validator) JSONPathExists(path string) *Validator {
	if v.err != nil {
		return v
	}
	_, found, ok := v.resolve(path)
	if !ok {
		return v
	}
	if !found {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeExists,
			Expected: true,
			Actual:   NotFound,
			Message:  fmt.Sprintf("path %q not found in response", path),
		}
	}
	return v
}

// JSONPathAbsent asserts the path does not resolve.
func (v *Validator) JSONPathAbsent(path string) *Validator {
	if v.err != nil {
		return v
	}
	value, found, ok := v.resolve(path)
	if !ok {
		return v
	}
	if found {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeExists,
			Expected: false,
			Actual:   value.Value(),
			Message:  fmt.Sprintf("path %q exists but should not", path),
		}
	}
	return v
}

// JSONPathEquals asserts the path resolves and its value is
// normalized-equal to expected: integers compare equal to equal-valued
// floats, and numeric strings from test data compare numerically.
func (v *Validator) JSONPathEquals(path string, expected any) *Validator {
	if v.err != nil {
		return v
	}
	value, found, ok := v.resolve(path)
	if !ok {
		return v
	}
	if !found {
		v.err = v.notFoundError(path, ModeEquals, expected)
		return v
	}
	if !jsonpath.EqualValues(value, expected) {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeEquals,
			Expected: expected,
			Actual:   value.Value(),
			Message:  fmt.Sprintf("path %q: expected %v but got %v", path, expected, value.Value()),
		}
	}
	return v
}

// JSONPathMatches asserts the path resolves to a string-coercible value
// whose entire string form matches pattern. The match is anchored:
// partial matches do not pass, so a malformed value cannot slip through
// on a substring hit.
func (v *Validator) JSONPathMatches(path string, pattern string) *Validator {
	if v.err != nil {
		return v
	}
	value, found, ok := v.resolve(path)
	if !ok {
		return v
	}
	if !found {
		v.err = v.notFoundError(path, ModeMatches, pattern)
		return v
	}
	if value.IsObject() || value.IsArray() {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeMatches,
			Expected: pattern,
			Actual:   value.Value(),
			Message:  fmt.Sprintf("path %q: value is not string-coercible", path),
		}
		return v
	}

	re, err := regexp.Compile(anchor(pattern))
	if err != nil {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeMatches,
			Expected: pattern,
			Actual:   value.Value(),
			Message:  fmt.Sprintf("invalid pattern %q: %v", pattern, err),
		}
		return v
	}
	if !re.MatchString(value.String()) {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeMatches,
			Expected: pattern,
			Actual:   value.Value(),
			Message:  fmt.Sprintf("path %q: value %q does not match pattern %q", path, value.String(), pattern),
		}
	}
	return v
}

// JSONPathValid asserts the path resolves and pred accepts its value.
// An empty path applies the predicate to the entire parsed body. A
// panic inside the predicate is recovered and reported as a
// ValidationError identifying the predicate failure.
func (v *Validator) JSONPathValid(path string, pred Predicate) *Validator {
	if v.err != nil {
		return v
	}
	value, found, ok := v.resolve(path)
	if !ok {
		return v
	}
	if !found {
		v.err = v.notFoundError(path, ModeValidate, "predicate")
		return v
	}

	passed, panicked := runPredicate(pred, value)
	if panicked != nil {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeValidate,
			Expected: "predicate",
			Actual:   value.Value(),
			Message:  fmt.Sprintf("path %q: predicate failed: %v", path, panicked),
		}
		return v
	}
	if !passed {
		v.err = &ValidationError{
			Path:     path,
			Mode:     ModeValidate,
			Expected: "predicate",
			Actual:   value.Value(),
			Message:  fmt.Sprintf("path %q: custom validation failed for value %v", path, value.Value()),
		}
	}
	return v
}

func runPredicate(pred Predicate, value gjson.Result) (passed bool, panicked error) {
	defer func() {
		if r := recover(); r != nil {
			panicked = fmt.Errorf("%v", r)
		}
	}()
	return pred(value), nil
}

// resolve parses the body (recording a ParseError on failure) and
// resolves path within it. The third return value reports whether the
// chain may continue.
func (v *Validator) resolve(path string) (gjson.Result, bool, bool) {
	doc, parsed := v.resp.JSON()
	if !parsed {
		v.err = &ParseError{}
		return gjson.Result{}, false, false
	}
	value, found := jsonpath.Resolve(doc, path)
	return value, found, true
}

func (v *Validator) notFoundError(path string, mode Mode, expected any) *ValidationError {
	return &ValidationError{
		Path:     path,
		Mode:     mode,
		Expected: expected,
		Actual:   NotFound,
		Message:  fmt.Sprintf("path %q not found in response", path),
	}
}

// anchor wraps pattern so the whole value must match. Already-anchored
// patterns pass through unchanged.
func anchor(pattern string) string {
	if strings.HasPrefix(pattern, "^") && strings.HasSuffix(pattern, "$") {
		return pattern
	}
	return "^(?:" + pattern + ")$"
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
