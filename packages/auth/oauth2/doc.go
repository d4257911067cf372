// Package oauth2 acquires and caches bearer tokens for authenticated
// test execution using the OAuth client-credentials grant.
//
// Tokens are cached per normalized scope set and reused until they
// approach expiry. Concurrent requests for the same scope set share a
// single in-flight fetch, so a burst of test cases starting together
// costs one round-trip to the token endpoint, not one per test.
package oauth2
