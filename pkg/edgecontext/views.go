package edgecontext

import (
	"strings"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
)

const (
	// LoIDPrefix is the fullname prefix of account ids and LoIDs.
	LoIDPrefix = "t2_"

	// ServicePrefix is the subject prefix of service tokens.
	ServicePrefix = "service/"
)

// ErrNoAuthentication is returned by identity accessors when the request
// carries no valid authentication for the requested view.
var ErrNoAuthentication = authtoken.ErrNoAuthentication

// User is the user view of a request.
type User struct {
	token           authtoken.AuthenticationToken
	rawLoID         string
	cookieCreatedMs int64
}

// ID returns the authenticated account id.
func (u User) ID() (string, error) {
	subject, err := u.token.Subject()
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(subject, LoIDPrefix) {
		return "", ErrNoAuthentication
	}
	return subject, nil
}

// IsLoggedIn reports whether the request carries an authenticated account.
func (u User) IsLoggedIn() bool {
	_, err := u.ID()
	return err == nil
}

// Roles returns the roles granted by the authentication token.
func (u User) Roles() (authtoken.Set, error) {
	return u.token.UserRoles()
}

// HasRole reports whether the user has role, ignoring case.
func (u User) HasRole(role string) (bool, error) {
	roles, err := u.Roles()
	if err != nil {
		return false, err
	}
	return roles.HasFold(role), nil
}

// LoID returns the logged in account id if there is one, then the LoID from
// the header, then the LoID claim of the token. It returns "" if none is set.
func (u User) LoID() string {
	if id, err := u.ID(); err == nil {
		return id
	}
	if u.rawLoID != "" {
		return u.rawLoID
	}
	if loid, err := u.token.LoID(); err == nil && loid != "" {
		return loid
	}
	return ""
}

// CookieCreatedMs returns the creation time of the LoID cookie in epoch
// milliseconds, or 0 if unknown.
func (u User) CookieCreatedMs() int64 {
	return u.cookieCreatedMs
}

// EventFields returns the user fields attached to telemetry events.
func (u User) EventFields() map[string]any {
	return map[string]any{
		"user_id":                  nilIfEmpty(u.LoID()),
		"logged_in":                u.IsLoggedIn(),
		"cookie_created_timestamp": nilIfZero(u.cookieCreatedMs),
	}
}

// OAuthClient is the OAuth2 client view of a request.
type OAuthClient struct {
	token authtoken.AuthenticationToken
}

// ID returns the client id, which may be empty on a valid token.
func (c OAuthClient) ID() (string, error) {
	return c.token.OAuthClientID()
}

// IsType reports whether the client type is one of types, ignoring case.
// Check that a client is one of the allowed types rather than that it is
// not one of the disallowed ones.
func (c OAuthClient) IsType(types ...string) (bool, error) {
	clientType, err := c.token.OAuthClientType()
	if err != nil {
		return false, err
	}
	if clientType == "" {
		return false, nil
	}
	for _, t := range types {
		if strings.EqualFold(t, clientType) {
			return true, nil
		}
	}
	return false, nil
}

// EventFields returns the client fields attached to telemetry events.
func (c OAuthClient) EventFields() map[string]any {
	id, err := c.ID()
	if err != nil {
		return map[string]any{"oauth_client_id": nil}
	}
	return map[string]any{"oauth_client_id": nilIfEmpty(id)}
}

// Service is the service view of a request.
type Service struct {
	token authtoken.AuthenticationToken
}

// Name returns the authenticated service name.
func (s Service) Name() (string, error) {
	subject, err := s.token.Subject()
	if err != nil {
		return "", err
	}
	name, ok := strings.CutPrefix(subject, ServicePrefix)
	if !ok {
		return "", ErrNoAuthentication
	}
	return name, nil
}

// Session holds the session id.
type Session struct {
	ID string
}

// Device holds the id of the client device.
type Device struct {
	ID string
}

// OriginService names the service that first handled the request.
type OriginService struct {
	Name string
}

// Geolocation holds the ISO 3166-1 alpha-2 country code of the client.
type Geolocation struct {
	CountryCode string
}

// RequestID holds the human-readable id of the edge request.
type RequestID struct {
	ReadableID string
}

// ID returns the readable id.
func (r RequestID) ID() string {
	return r.ReadableID
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilIfZero(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
