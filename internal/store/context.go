package store

import "context"

type ctxKey struct{}

// WithContext returns a context carrying s.
func WithContext(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the store attached to ctx.
func FromContext(ctx context.Context) (*Store, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Store)
	return s, ok && s != nil
}

// MustFromContext returns the store attached to ctx and panics when there is
// none. Consumers that issue commands must be handed a store explicitly.
func MustFromContext(ctx context.Context) *Store {
	s, ok := FromContext(ctx)
	if !ok {
		panic(ErrUninitialized)
	}
	return s
}
