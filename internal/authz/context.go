package authz

import (
	"context"
	"net/http"

	"github.com/stanstork/console-api/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the signed in identity on the context.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromRequest(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	if !ok || id.UserID == "" {
		return models.Identity{}, false
	}
	return id, true
}
