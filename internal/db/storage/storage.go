// Package storage declares the persistence contract shared by the
// PostgreSQL and in-memory backends, together with the sentinel errors
// the service layer maps to HTTP outcomes.
package storage

import (
	"context"
	"errors"

	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/user"
)

// ErrEmailTaken is returned by CreateUser when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// ErrNotFound is returned by lookups when the referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Storage is the full persistence surface consumed by the service and
// auth layers. Both backends must keep the uniqueness guarantees the
// schema declares: users.email, sessions.userId, sessions.token,
// shortenedUrls.shortUrl and (userId, url).
type Storage interface {
	CreateUser(ctx context.Context, usr *user.User) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
	FindUserByID(ctx context.Context, id int64) (*user.User, bool, error)

	// CreateSession inserts a session row unless one already exists for
	// the user, and returns the token that won — callers must not assume
	// the token they passed in was persisted.
	CreateSession(ctx context.Context, userID int64, token string) (string, error)
	FindSessionByToken(ctx context.Context, token string) (int64, bool, error)
	FindSessionByUserID(ctx context.Context, userID int64) (string, bool, error)

	FindShortByUserAndURL(ctx context.Context, userID int64, url string) (string, bool, error)

	// InsertShortenedURL persists a new mapping and returns the short code
	// that ended up stored; a concurrent duplicate of (userID, url) makes
	// it return the winner's code instead of failing.
	InsertShortenedURL(ctx context.Context, userID int64, url, short string) (string, error)
	IsShortTaken(ctx context.Context, short string) (bool, error)

	// ResolveAndCountVisit atomically increments the visit counter of the
	// matching row and returns its target URL.
	ResolveAndCountVisit(ctx context.Context, short string) (string, bool, error)

	FindShortenedURLByID(ctx context.Context, id int64) (*models.ShortenedURL, bool, error)
	DeleteShortenedURL(ctx context.Context, id int64) error

	GetUserLinks(ctx context.Context, userID int64) ([]models.ProfileLink, error)
	GetRanking(ctx context.Context, limit int) ([]models.RankingEntry, error)

	Ping(ctx context.Context) error
	Close() error
}
