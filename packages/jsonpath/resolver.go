package jsonpath

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Delimiter separates segments in a path expression.
const Delimiter = "/"

// Resolve walks expr into doc and returns the value at that location.
// The boolean reports whether the path resolved to a present value.
// Resolution never fails: a missing key, an out-of-range index, or a
// segment applied to a non-container all return found=false.
//
// A leading delimiter is ignored, so "/user/id" and "user/id" are
// equivalent. The empty expression resolves to doc itself.
func Resolve(doc gjson.Result, expr string) (gjson.Result, bool) {
	expr = strings.TrimPrefix(expr, Delimiter)
	if expr == "" {
		return doc, doc.Exists()
	}

	result := doc.Get(translate(expr))
	return result, result.Exists()
}

// translate converts a slash-delimited expression into gjson syntax.
// Segments are escaped so keys containing gjson metacharacters are
// looked up literally.
func translate(expr string) string {
	segments := strings.Split(expr, Delimiter)
	out := make([]string, len(segments))
	for i, seg := range segments {
		out[i] = escapeSegment(seg)
	}
	return strings.Join(out, ".")
}

func escapeSegment(seg string) string {
	if _, err := strconv.Atoi(seg); err == nil {
		// Numeric segments index arrays (or numeric object keys)
		// and need no escaping.
		return seg
	}

	var b strings.Builder
	for _, r := range seg {
		switch r {
		case '.', '*', '?', '\\', '#', '@', '|':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EqualValues compares a resolved JSON value against an expected
// literal using normalized equality: an integer and the equal-valued
// float compare equal, and numeric strings (common in CSV-driven test
// data) compare numerically against numeric response values.
func EqualValues(actual gjson.Result, expected any) bool {
	actualVal := actual.Value()

	if reflect.DeepEqual(actualVal, expected) {
		return true
	}

	actualNum, aOK := toFloat64(actualVal)
	expectedNum, eOK := toFloat64(expected)
	if aOK && eOK {
		return actualNum == expectedNum
	}

	return fmt.Sprintf("%v", actualVal) == fmt.Sprintf("%v", expected)
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
