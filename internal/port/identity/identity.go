// Package identity defines the port for resolving an opaque credential to a
// user identity. The realtime handshake depends on this and nothing else
// from the auth stack.
package identity

import "context"

// Resolver turns a bearer credential (an opaque session ID) into a user ID.
// A failed resolution returns an error wrapping domain.ErrInvalidSession;
// the resolver itself is stateless and safe for concurrent use.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (userID string, err error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, credential string) (string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, credential string) (string, error) {
	return f(ctx, credential)
}
