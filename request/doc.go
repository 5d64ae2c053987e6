// Package request performs single upstream GET calls and reports the outcome
// as a tagged Result instead of an error.
//
// Each call has independent phase budgets: connecting (dial and TLS
// handshake), reading, writing, and waiting for a connection slot. A
// timeout in any phase yields a Timeout failure, a non-2xx status yields
// an HTTPError failure, and everything else yields Unexpected. Every
// failure is logged before Execute returns. No call is ever retried.
package request
