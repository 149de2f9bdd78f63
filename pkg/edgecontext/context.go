package edgecontext

import "context"

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for the EdgeContext.
	Key ContextKey = "edgecontext"
)

// Set stores ec in ctx. A nil ec leaves ctx unchanged.
func Set(ctx context.Context, ec *EdgeContext) context.Context {
	if ec == nil {
		return ctx
	}
	return context.WithValue(ctx, Key, ec)
}

// Get retrieves the EdgeContext from ctx.
func Get(ctx context.Context) (*EdgeContext, bool) {
	ec, ok := ctx.Value(Key).(*EdgeContext)
	return ec, ok
}

// RawHeader returns the serialized header of the EdgeContext stored in ctx,
// or nil if there is none.
func RawHeader(ctx context.Context) []byte {
	ec, ok := Get(ctx)
	if !ok {
		return nil
	}
	return ec.Header()
}
