// Package jsonpath resolves slash-delimited path expressions against
// parsed JSON documents.
//
// A path expression is a sequence of segments separated by "/". A
// numeric segment indexes into an array; any other segment looks up an
// object key. The empty expression denotes the document root. Paths
// that cannot be resolved (missing key, index out of range, segment
// applied to a scalar) report absence instead of failing, so callers
// can assert on non-existence as easily as existence.
package jsonpath
