// Package config loads the bridge configuration from the environment and an
// optional YAML file.
//
// Environment variables win over the file, which wins over defaults. The API
// key is mandatory: Load fails with ErrMissingAPIKey when it is absent, and
// its value may be a secret reference resolved through package secret.
package config
