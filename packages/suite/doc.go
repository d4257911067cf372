// Package suite assembles the framework components for a test package.
//
// A Suite owns the configuration, logger, token provider, HTTP client,
// and payload template service, and hands out request builders that are
// pre-wired for bearer authentication. Create one in TestMain and share
// it across tests; cached tokens are then reused for the whole run.
package suite
