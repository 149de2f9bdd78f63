// Package keyring keeps the set of public keys that authentication tokens may
// be signed with.
//
// Keys live in a versioned secret so they can be rotated. A Ring re-reads the
// secret on every call to CurrentKeys but only re-parses it when the store
// reports a newer modification time; otherwise the cached keys are returned.
// Readers always see a complete, immutable snapshot.
package keyring
