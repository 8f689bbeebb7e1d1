// Package auth implements the bearer-token session model: opaque tokens
// issued once per user and validated by an HTTP middleware before any
// handler logic runs.
package auth

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Verkylen/projeto17-shortly/internal/logger"
)

type sessionKeeper interface {
	CreateSession(ctx context.Context, userID int64, token string) (string, error)
	FindSessionByToken(ctx context.Context, token string) (int64, bool, error)
	FindSessionByUserID(ctx context.Context, userID int64) (string, bool, error)
}

// ContextKey is a dedicated type for request context values to avoid
// collisions with other packages.
type ContextKey string

// UserIDKey is the context key holding the authenticated user's id.
const UserIDKey ContextKey = "userID"

var bearerPattern = regexp.MustCompile(`^Bearer [a-f0-9-]+$`)

// Auth issues and validates session tokens backed by the sessions table.
type Auth struct {
	db sessionKeeper
}

// New creates an Auth over the given session storage.
func New(db sessionKeeper) *Auth {
	return &Auth{db: db}
}

// IssueOrReuseToken returns the user's existing session token, or mints
// a fresh one. The storage insert is constraint-protected, so two
// concurrent sign-ins converge on a single winning token.
func (a *Auth) IssueOrReuseToken(ctx context.Context, userID int64) (string, error) {
	token, found, err := a.db.FindSessionByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if found {
		return token, nil
	}

	return a.db.CreateSession(ctx, userID, uuid.NewString())
}

// AuthenticateUser is an HTTP middleware that rejects requests without a
// well-formed `Bearer <token>` Authorization header or with a token that
// matches no session. On success the owning user id is stored in the
// request context under UserIDKey.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		authorization := request.Header.Get("Authorization")
		if !bearerPattern.MatchString(authorization) {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authorization, "Bearer ")

		userID, found, err := a.db.FindSessionByToken(request.Context(), token)
		if err != nil {
			logger.Log.Debugln("session lookup failed:", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}
		if !found {
			response.WriteHeader(http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(request.Context(), UserIDKey, userID)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserIDFromContext extracts the authenticated user id placed into the
// context by AuthenticateUser.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}
