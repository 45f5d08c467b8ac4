// Package types holds the shared vocabulary of the paper pipeline:
// structured errors, normalized paper references, and model backend
// configuration. It has no dependencies on other project packages so
// every layer can import it.
package types
