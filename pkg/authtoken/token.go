package authtoken

import (
	"errors"
	"maps"
	"slices"
)

// ErrNoAuthentication is returned by every accessor of an invalid token, and
// by identity views that need a valid one.
var ErrNoAuthentication = errors.New("authtoken: no valid authentication token")

// AuthenticationToken exposes the claims of a token. Accessors on an invalid
// token return ErrNoAuthentication; on a valid token they return the claim,
// or its zero value when the claim is absent.
type AuthenticationToken interface {
	Valid() bool
	Subject() (string, error)
	UserRoles() (Set, error)
	OAuthClientID() (string, error)
	OAuthClientType() (string, error)
	Scopes() (Set, error)
	LoID() (string, error)
	LoIDCreatedMs() (int64, error)
}

var (
	_ AuthenticationToken = (*Validated)(nil)
	_ AuthenticationToken = Invalid{}
)

// Validated is a token whose signature and expiry have been checked.
type Validated struct {
	claims Claims
	roles  Set
	scopes Set
}

// NewValidated wraps claims that have already been verified.
func NewValidated(claims Claims) *Validated {
	claims.Roles = slices.Clone(claims.Roles)
	claims.Scopes = slices.Clone(claims.Scopes)
	if claims.LoID != nil {
		loid := *claims.LoID
		claims.LoID = &loid
	}
	return &Validated{
		claims: claims,
		roles:  NewSet(claims.Roles...),
		scopes: NewSet(claims.Scopes...),
	}
}

// Claims returns a copy of the token's claims.
func (t *Validated) Claims() Claims {
	c := t.claims
	c.Roles = slices.Clone(c.Roles)
	c.Scopes = slices.Clone(c.Scopes)
	if c.LoID != nil {
		loid := *c.LoID
		c.LoID = &loid
	}
	return c
}

func (t *Validated) Valid() bool { return true }

func (t *Validated) Subject() (string, error) { return t.claims.Subject, nil }

func (t *Validated) UserRoles() (Set, error) { return maps.Clone(t.roles), nil }

func (t *Validated) OAuthClientID() (string, error) { return t.claims.OAuthClientID, nil }

func (t *Validated) OAuthClientType() (string, error) { return t.claims.OAuthClientType, nil }

func (t *Validated) Scopes() (Set, error) { return maps.Clone(t.scopes), nil }

func (t *Validated) LoID() (string, error) {
	if t.claims.LoID == nil {
		return "", nil
	}
	return t.claims.LoID.ID, nil
}

func (t *Validated) LoIDCreatedMs() (int64, error) {
	if t.claims.LoID == nil {
		return 0, nil
	}
	return t.claims.LoID.CreatedMs, nil
}

// Invalid stands in for a missing, malformed, expired or unverifiable token.
type Invalid struct{}

func (Invalid) Valid() bool { return false }

func (Invalid) Subject() (string, error) { return "", ErrNoAuthentication }

func (Invalid) UserRoles() (Set, error) { return nil, ErrNoAuthentication }

func (Invalid) OAuthClientID() (string, error) { return "", ErrNoAuthentication }

func (Invalid) OAuthClientType() (string, error) { return "", ErrNoAuthentication }

func (Invalid) Scopes() (Set, error) { return nil, ErrNoAuthentication }

func (Invalid) LoID() (string, error) { return "", ErrNoAuthentication }

func (Invalid) LoIDCreatedMs() (int64, error) { return 0, ErrNoAuthentication }
