// Package secret resolves credentials referenced from configuration.
//
// A configured value is first expanded strictly against the environment
// (see ExpandEnvStrict) and then any secret references in it are resolved
// through registered providers:
//
//	secretref:env:TAOSTATS_API_KEY
//	secretref:file:/run/secrets/taostats
//	secretref:age:TAOSTATS_API_KEY
//
// The env, file and age providers are built in (see NewDefaultRegistry).
// The age provider decrypts an age-encrypted JSON object of named secrets
// with an X25519 identity.
package secret
