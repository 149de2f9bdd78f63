package edgecontext

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"
	"sync"

	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/authtoken"
	"github.com/doodlesbykumbi/edgecontext-in-go/pkg/edgecontext/header"
)

var countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

var (
	// ErrInvalidArgument is returned by Factory.New for malformed arguments.
	ErrInvalidArgument = errors.New("edgecontext: invalid argument")

	// ErrInvalidLoID is returned by Factory.New when the LoID lacks the
	// LoIDPrefix.
	ErrInvalidLoID = fmt.Errorf("%w: loid should have %s prefix", ErrInvalidArgument, LoIDPrefix)

	// ErrInvalidCountryCode is returned by Factory.New when the country code
	// is not in ISO 3166-1 alpha-2 format.
	ErrInvalidCountryCode = fmt.Errorf("%w: country code should be two upper case letters", ErrInvalidArgument)
)

// TokenValidator turns a raw authentication token into a token view.
// Validate must not fail; *authtoken.Validator satisfies it.
type TokenValidator interface {
	Validate(raw string) authtoken.AuthenticationToken
}

// Factory creates EdgeContexts sharing a validator.
type Factory struct {
	validator TokenValidator
	logger    *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the logger header decode failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a Factory.
func NewFactory(validator TokenValidator, opts ...Option) *Factory {
	f := &Factory{
		validator: validator,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FromUpstream creates an EdgeContext from a header received from an
// upstream service. raw may be nil. The header is decoded on first use; a
// header that cannot be decoded is treated as empty.
func (f *Factory) FromUpstream(raw []byte) *EdgeContext {
	raw = bytes.Clone(raw)
	return f.newEdgeContext(raw, func() header.Request {
		req, err := header.Decode(raw)
		if err != nil {
			f.logger.Debug("unable to decode edge request header", "error", err, "size", len(raw))
		}
		return req
	})
}

// NewArgs are the arguments to Factory.New. All fields are optional.
type NewArgs struct {
	// LoID must have the LoIDPrefix when set.
	LoID          string
	LoIDCreatedMs int64

	SessionID string
	DeviceID  string

	// AuthToken is the raw token returned by the authentication service.
	AuthToken string

	OriginServiceName string

	// CountryCode must be an ISO 3166-1 alpha-2 code such as "US" when set.
	CountryCode string

	RequestID string
}

// New creates an EdgeContext from scratch. Services at the edge use it to
// pass what they learned from the client on to downstream services.
func (f *Factory) New(args NewArgs) (*EdgeContext, error) {
	if args.LoID != "" && !strings.HasPrefix(args.LoID, LoIDPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLoID, args.LoID)
	}
	if args.CountryCode != "" && !countryCodeRegex.MatchString(args.CountryCode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCountryCode, args.CountryCode)
	}

	req := header.Request{
		Loid:                header.Loid{ID: args.LoID, CreatedMs: args.LoIDCreatedMs},
		Session:             header.Session{ID: args.SessionID},
		AuthenticationToken: args.AuthToken,
		Device:              header.Device{ID: args.DeviceID},
		OriginService:       header.OriginService{Name: args.OriginServiceName},
		Geolocation:         header.Geolocation{CountryCode: args.CountryCode},
		RequestID:           header.RequestID{ReadableID: args.RequestID},
	}
	raw, err := header.Encode(req)
	if err != nil {
		return nil, fmt.Errorf("edgecontext: encode header: %w", err)
	}
	return f.newEdgeContext(raw, func() header.Request { return req }), nil
}

func (f *Factory) newEdgeContext(raw []byte, decode func() header.Request) *EdgeContext {
	ec := &EdgeContext{raw: raw}
	ec.request = sync.OnceValue(decode)
	ec.token = sync.OnceValue(func() authtoken.AuthenticationToken {
		return f.validator.Validate(ec.request().AuthenticationToken)
	})
	ec.user = sync.OnceValue(func() User {
		req := ec.request()
		return User{
			token:           ec.token(),
			rawLoID:         req.Loid.ID,
			cookieCreatedMs: req.Loid.CreatedMs,
		}
	})
	ec.oauthClient = sync.OnceValue(func() OAuthClient {
		return OAuthClient{token: ec.token()}
	})
	ec.service = sync.OnceValue(func() Service {
		return Service{token: ec.token()}
	})
	return ec
}

// EdgeContext is the edge request context of a single request. It is safe
// for concurrent use.
type EdgeContext struct {
	raw []byte

	request     func() header.Request
	token       func() authtoken.AuthenticationToken
	user        func() User
	oauthClient func() OAuthClient
	service     func() Service
}

// Header returns the serialized header, suitable for passing to downstream
// services.
func (ec *EdgeContext) Header() []byte {
	return bytes.Clone(ec.raw)
}

// Request returns the decoded header.
func (ec *EdgeContext) Request() header.Request {
	return ec.request()
}

// AuthenticationToken returns the validated authentication token.
func (ec *EdgeContext) AuthenticationToken() authtoken.AuthenticationToken {
	return ec.token()
}

// User returns the user view.
func (ec *EdgeContext) User() User {
	return ec.user()
}

// OAuthClient returns the OAuth2 client view.
func (ec *EdgeContext) OAuthClient() OAuthClient {
	return ec.oauthClient()
}

// Service returns the service view.
func (ec *EdgeContext) Service() Service {
	return ec.service()
}

// Session returns the session.
func (ec *EdgeContext) Session() Session {
	return Session{ID: ec.request().Session.ID}
}

// Device returns the client device.
func (ec *EdgeContext) Device() Device {
	return Device{ID: ec.request().Device.ID}
}

// OriginService returns the service that first handled the request.
func (ec *EdgeContext) OriginService() OriginService {
	return OriginService{Name: ec.request().OriginService.Name}
}

// Geolocation returns the location of the client.
func (ec *EdgeContext) Geolocation() Geolocation {
	return Geolocation{CountryCode: ec.request().Geolocation.CountryCode}
}

// RequestID returns the readable id of the edge request.
func (ec *EdgeContext) RequestID() RequestID {
	return RequestID{ReadableID: ec.request().RequestID.ReadableID}
}

// EventFields returns the fields attached to telemetry events.
func (ec *EdgeContext) EventFields() map[string]any {
	fields := map[string]any{
		"session_id": nilIfEmpty(ec.Session().ID),
	}
	if id := ec.Device().ID; id != "" {
		fields["device_id"] = id
	}
	if id := ec.RequestID().ID(); id != "" {
		fields["edge_request_id"] = id
	}
	maps.Copy(fields, ec.User().EventFields())
	maps.Copy(fields, ec.OAuthClient().EventFields())
	return fields
}
