package auth

import (
	"context"
	"strings"
)

// Identity is the verified store identity attached to a request.
type Identity struct {
	StoreID   string
	StoreName string
}

type ctxKey string

const identityKey ctxKey = "auth_store_identity"

// ContextWithStore stores the verified store identity in the context.
func ContextWithStore(ctx context.Context, id Identity) context.Context {
	id.StoreID = strings.TrimSpace(id.StoreID)
	return context.WithValue(ctx, identityKey, id)
}

// StoreFromContext extracts the authenticated store identity from context.
func StoreFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	if !ok || v.StoreID == "" {
		return Identity{}, false
	}
	return v, true
}
