// Package edgecontext exposes the identity and request metadata carried by
// the edge request header.
//
// An EdgeContext wraps the raw header bytes together with a token
// validator. Nothing is decoded or verified until a view is first read, and
// every view is computed at most once per EdgeContext.
//
// # Basic Usage
//
//	// Services behind the edge rebuild the context from the inbound header
//	ec := factory.FromUpstream(rawHeader)
//
//	// Edge services build it from scratch
//	ec, err := factory.New(edgecontext.NewArgs{
//	    LoID:      "t2_deadbeef",
//	    AuthToken: token,
//	})
//
//	// Store in request context
//	ctx = edgecontext.Set(ctx, ec)
//
//	// Retrieve from context
//	ec, ok := edgecontext.Get(ctx)
//
// # Views
//
// User, OAuthClient and Service read from the authentication token and
// return ErrNoAuthentication when the token is missing or invalid, or when
// the subject is not of the expected kind. Session, Device, OriginService,
// Geolocation and RequestID expose the raw envelope fields and never fail.
// EventFields never fails either: anything that cannot be resolved is
// reported as nil or false.
package edgecontext
