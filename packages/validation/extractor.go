package validation

import (
	"github.com/tidwall/gjson"

	"github.com/whtdrgn101/apicheck/packages/httpclient"
	"github.com/whtdrgn101/apicheck/packages/jsonpath"
)

// Extractor provides read-only, non-asserting access to a response.
// Missing paths return defaults instead of failing, so extraction can
// never abort a test the way a Validator assertion does.
type Extractor struct {
	resp *httpclient.Response
}

// Extract wraps resp for value extraction.
func Extract(resp *httpclient.Response) *Extractor {
	return &Extractor{resp: resp}
}

// AsString returns the raw body as a string.
func (e *Extractor) AsString() string {
	return e.resp.BodyString()
}

// AsJSON returns the parsed body, or a *ParseError when the body is not
// valid JSON.
func (e *Extractor) AsJSON() (gjson.Result, error) {
	doc, ok := e.resp.JSON()
	if !ok {
		return gjson.Result{}, &ParseError{}
	}
	return doc, nil
}

// Path resolves expr in the body. An unresolvable path (or a non-JSON
// body) yields the zero Result, whose Exists method reports false.
func (e *Extractor) Path(expr string) gjson.Result {
	doc, ok := e.resp.JSON()
	if !ok {
		return gjson.Result{}
	}
	value, found := jsonpath.Resolve(doc, expr)
	if !found {
		return gjson.Result{}
	}
	return value
}

// PathOr resolves expr in the body, returning def when the path is not
// found or the body is not JSON.
func (e *Extractor) PathOr(expr string, def any) any {
	value := e.Path(expr)
	if !value.Exists() {
		return def
	}
	return value.Value()
}
