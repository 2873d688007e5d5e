package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-storefront/apperr"
	"go-storefront/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key type for context
type contextKey string

const (
	identityKey  = contextKey("identity")
	tokenErrKey  = contextKey("tokenError")
	bearerPrefix = "Bearer "
)

// Identity is the caller resolved from a bearer token
type Identity struct {
	UserID  primitive.ObjectID
	IsAdmin bool
}

// TokenParser verifies identity tokens
type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

// WithIdentity returns a copy of ctx carrying id
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the caller attached by Authenticate, if any
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

func tokenErrorFrom(ctx context.Context) error {
	err, _ := ctx.Value(tokenErrKey).(error)
	return err
}

// Authenticate resolves the Authorization header into an Identity on the
// request context. It never rejects a request by itself: a missing or bad
// token leaves the caller anonymous and the route's guard decides.
func Authenticate(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				ctx = context.WithValue(ctx, tokenErrKey, apperr.Unauthorizedf("Invalid Token"))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := tokens.Parse(strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix)))
			if err == nil {
				var uid primitive.ObjectID
				uid, err = primitive.ObjectIDFromHex(claims.UserID)
				if err == nil {
					ctx = WithIdentity(ctx, &Identity{UserID: uid, IsAdmin: claims.IsAdmin})
				}
			}
			if err != nil {
				ctx = context.WithValue(ctx, tokenErrKey, apperr.Wrap(err, apperr.Unauthorized, "Invalid Token"))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
