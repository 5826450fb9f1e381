// Package adapter ships the built-in capability adapters: thin, stateless
// bridges from a routed sub-query to an external effect (HTTP API, local
// filesystem, subprocess) or a pure local computation.
//
// Every adapter follows the same shape: a struct constructed via New* with
// functional options (base URL and HTTP client injectable for tests), a
// Capability() descriptor ready for registration, and an Invoke method that
// wraps failures in the typed transient/permanent errors the executor's
// retry policy keys on.
package adapter
