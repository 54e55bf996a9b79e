// Package session holds the client's belief about the current login state.
//
// A Store is the single owner of that state. Callers read it with
// Snapshot and change it only through Store operations, which talk to the
// auth gateway and translate its raw responses into user-facing messages.
// The login bit and the user record survive restarts through a Persister;
// every other field is transient and re-derived after Hydrate.
package session
