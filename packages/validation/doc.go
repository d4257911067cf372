// Package validation evaluates assertions against completed HTTP
// exchanges and extracts values from response bodies.
//
// Check wraps a response into a Validator whose assertion methods chain
// fluently and stop at the first failure:
//
//	err := validation.Check(resp).
//		StatusCode(200).
//		ContentType("application/json").
//		JSONPathEquals("user/id", 123).
//		Err()
//
// A failed assertion is reported as a *ValidationError carrying the
// path, assertion mode, expected and actual values, so the diagnostic
// can be rendered without re-running the request. Extract provides the
// non-asserting counterpart for pulling values out of a response.
package validation
