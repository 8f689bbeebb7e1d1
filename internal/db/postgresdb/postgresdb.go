// Package postgresdb implements the storage contract on top of
// PostgreSQL. It runs schema migrations on startup and relies on the
// schema's uniqueness constraints instead of application-side
// read-then-write checks.
package postgresdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/Verkylen/projeto17-shortly/internal/db/storage"
	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/user"
)

const uniqueViolationCode = "23505"

// PostgresDB is the PostgreSQL-backed storage implementation.
type PostgresDB struct {
	database          *sql.DB
	connectionTimeout time.Duration
}

// New opens the connection pool, applies goose migrations from
// migrationsDir and returns a ready PostgresDB.
func New(
	ctx context.Context,
	databaseDSN string,
	connectionTimeout time.Duration,
	migrationsDir string,
) (*PostgresDB, error) {
	database, err := sql.Open("pgx", databaseDSN)
	if err != nil {
		return nil, err
	}

	result := &PostgresDB{
		database:          database,
		connectionTimeout: connectionTimeout,
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(result.database, migrationsDir); err != nil {
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return result, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// CreateUser inserts a new account row and returns its generated id.
// A duplicate email maps to storage.ErrEmailTaken.
func (db *PostgresDB) CreateUser(ctx context.Context, usr *user.User) (int64, error) {
	row := db.database.QueryRowContext(
		ctx,
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`,
		usr.Name,
		usr.Email,
		usr.PasswordHash,
	)

	var id int64
	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrEmailTaken
		}
		return 0, err
	}

	return id, nil
}

// FindUserByEmail fetches an account by its exact email string.
func (db *PostgresDB) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email, password FROM users WHERE email = $1`,
		email,
	)

	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// FindUserByID fetches an account by id.
func (db *PostgresDB) FindUserByID(ctx context.Context, id int64) (*user.User, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, name, email, password FROM users WHERE id = $1`,
		id,
	)

	usr := &user.User{}
	err := row.Scan(&usr.ID, &usr.Name, &usr.Email, &usr.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return usr, true, nil
}

// CreateSession inserts a session unless the user already has one.
// The UNIQUE("userId") constraint serializes concurrent sign-ins: the
// insert is a no-op for the loser and the follow-up select returns the
// token that actually won.
func (db *PostgresDB) CreateSession(ctx context.Context, userID int64, token string) (string, error) {
	_, err := db.database.ExecContext(
		ctx,
		`INSERT INTO sessions ("userId", token) VALUES ($1, $2) ON CONFLICT ("userId") DO NOTHING`,
		userID,
		token,
	)
	if err != nil {
		return "", err
	}

	winner, found, err := db.FindSessionByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", storage.ErrNotFound
	}

	return winner, nil
}

// FindSessionByToken resolves a bearer token to the owning user id.
func (db *PostgresDB) FindSessionByToken(ctx context.Context, token string) (int64, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT "userId" FROM sessions WHERE token = $1`,
		token,
	)

	var userID int64
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}

	return userID, true, nil
}

// FindSessionByUserID returns the active token of a user, if any.
func (db *PostgresDB) FindSessionByUserID(ctx context.Context, userID int64) (string, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT token FROM sessions WHERE "userId" = $1`,
		userID,
	)

	var token string
	if err := row.Scan(&token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return token, true, nil
}

// FindShortByUserAndURL returns the code a user already holds for a URL.
func (db *PostgresDB) FindShortByUserAndURL(ctx context.Context, userID int64, url string) (string, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT "shortUrl" FROM "shortenedUrls" WHERE "userId" = $1 AND url = $2`,
		userID,
		url,
	)

	var short string
	if err := row.Scan(&short); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return short, true, nil
}

// InsertShortenedURL persists a new mapping. When a concurrent request
// already inserted the same (userId, url) pair the conflict clause makes
// the statement a no-op and the stored code is fetched instead.
func (db *PostgresDB) InsertShortenedURL(ctx context.Context, userID int64, url, short string) (string, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			INSERT INTO "shortenedUrls" ("userId", url, "shortUrl")
				VALUES ($1, $2, $3)
				ON CONFLICT ("userId", url) DO NOTHING
				RETURNING "shortUrl"
		`,
		userID,
		url,
		short,
	)

	var stored string
	err := row.Scan(&stored)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	winner, found, err := db.FindShortByUserAndURL(ctx, userID, url)
	if err != nil {
		return "", err
	}
	if !found {
		return "", storage.ErrNotFound
	}

	return winner, nil
}

// IsShortTaken reports whether a short code already exists.
func (db *PostgresDB) IsShortTaken(ctx context.Context, short string) (bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM "shortenedUrls" WHERE "shortUrl" = $1`,
		short,
	)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// ResolveAndCountVisit increments the visit counter and returns the
// target URL in a single statement, so concurrent resolutions never
// lose counts.
func (db *PostgresDB) ResolveAndCountVisit(ctx context.Context, short string) (string, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`
			UPDATE "shortenedUrls"
				SET "visitCount" = "visitCount" + 1
				WHERE "shortUrl" = $1
				RETURNING url
		`,
		short,
	)

	var url string
	if err := row.Scan(&url); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return url, true, nil
}

// FindShortenedURLByID fetches a link row by its numeric id.
func (db *PostgresDB) FindShortenedURLByID(ctx context.Context, id int64) (*models.ShortenedURL, bool, error) {
	row := db.database.QueryRowContext(
		ctx,
		`SELECT id, "userId", url, "shortUrl", "visitCount" FROM "shortenedUrls" WHERE id = $1`,
		id,
	)

	record := &models.ShortenedURL{}
	err := row.Scan(&record.ID, &record.UserID, &record.URL, &record.ShortURL, &record.VisitCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return record, true, nil
}

// DeleteShortenedURL removes a link row.
func (db *PostgresDB) DeleteShortenedURL(ctx context.Context, id int64) error {
	_, err := db.database.ExecContext(
		ctx,
		`DELETE FROM "shortenedUrls" WHERE id = $1`,
		id,
	)

	return err
}

// GetUserLinks lists all links owned by a user, oldest first.
func (db *PostgresDB) GetUserLinks(ctx context.Context, userID int64) ([]models.ProfileLink, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT id, "shortUrl", url, "visitCount"
				FROM "shortenedUrls"
				WHERE "userId" = $1
				ORDER BY id
		`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.ProfileLink{}
	for rows.Next() {
		var link models.ProfileLink
		if err := rows.Scan(&link.ID, &link.ShortURL, &link.URL, &link.VisitCount); err != nil {
			return nil, err
		}

		result = append(result, link)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// GetRanking aggregates the most visited owners. Users without links
// are excluded by the inner join.
func (db *PostgresDB) GetRanking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	rows, err := db.database.QueryContext(
		ctx,
		`
			SELECT
				users.id,
				users.name,
				COUNT("shortenedUrls".id) AS "linksCount",
				COALESCE(SUM("shortenedUrls"."visitCount"), 0)::bigint AS "visitCount"
			FROM users JOIN "shortenedUrls"
				ON users.id = "shortenedUrls"."userId"
			GROUP BY users.id
			ORDER BY "visitCount" DESC
			LIMIT $1
		`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []models.RankingEntry{}
	for rows.Next() {
		var entry models.RankingEntry
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.LinksCount, &entry.VisitCount); err != nil {
			return nil, err
		}

		result = append(result, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Ping verifies database connectivity within the configured timeout.
func (db *PostgresDB) Ping(ctx context.Context) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, db.connectionTimeout)
	defer cancel()

	return db.database.PingContext(ctxWithTimeout)
}

// Close releases the connection pool.
func (db *PostgresDB) Close() error {
	return db.database.Close()
}
