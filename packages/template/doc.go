// Package template renders request payload templates for API tests.
//
// It provides:
//   - File-based payload templates resolved through search paths
//   - {{placeholder}} substitution from a render context
//   - Built-in generator functions (uuid, now, randomString, etc.)
//   - Environment variable access via the {{$VAR}} form
//   - CSV test data loading for data-driven cases
package template
