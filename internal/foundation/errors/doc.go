// Package errors provides classified, structured errors for the aggregation
// pipeline. Errors carry a category (config, auth, git, network, content,
// resource), a severity, a retry hint, and free-form context, and compose with
// the standard library via Unwrap/Is/As.
package errors
