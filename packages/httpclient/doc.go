// Package httpclient provides the HTTP layer for apicheck test execution.
//
// It wraps the standard library's http package with additional features:
//   - Configurable timeouts that surface as TimeoutError
//   - Redirect handling, proxy support and TLS verification control
//   - A fluent request builder with bearer-token injection
//   - Responses with case-insensitive header lookup and a lazily
//     parsed, memoized JSON body
//   - Sensitive header masking for log output
package httpclient
