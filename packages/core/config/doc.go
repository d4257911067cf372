// Package config loads and validates the framework configuration.
//
// Configuration is assembled in three layers, later layers taking
// precedence: built-in defaults, an optional YAML config file
// (apicheck.yaml or .apicheckrc.yaml), and environment variables. A
// .env file in the working directory is loaded into the environment
// first, so local development setups work the same way as CI.
package config
