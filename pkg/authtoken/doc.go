// Package authtoken validates the signed authentication tokens carried in the
// edge context.
//
// Validation never fails the caller. A Validator turns any string into an
// AuthenticationToken that is either Validated, holding the token's claims,
// or Invalid, whose accessors all return ErrNoAuthentication. Code that needs
// the reason a token was rejected can call Verify instead.
package authtoken
