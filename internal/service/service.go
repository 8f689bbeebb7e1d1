// Package service implements the application flows: account sign-up and
// sign-in, URL shortening and resolution, link deletion, the personal
// dashboard and the global ranking. Handlers stay thin; every rule
// lives here or in the storage layer.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/Verkylen/projeto17-shortly/internal/db/storage"
	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/user"
)

// ErrEmailTaken signals a sign-up with an already registered email.
var ErrEmailTaken = errors.New("email already in use")

// ErrUnauthenticated signals unknown credentials or an invalid token.
var ErrUnauthenticated = errors.New("authentication failed")

// ErrForbidden signals an operation on a link owned by another user.
var ErrForbidden = errors.New("not the owner of the resource")

// ErrNotFound signals an absent entity.
var ErrNotFound = errors.New("entity not found")

// ValidationError carries the complete set of violated input rules.
type ValidationError struct {
	Fields []models.FieldError
}

func (e *ValidationError) Error() string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, field.Message)
	}

	return "validation failed: " + strings.Join(messages, "; ")
}

const (
	triesToGenerateUniqueKey = 10
	shortKeyLength           = 21
	shortKeyAlphabet         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"
	rankingLimit             = 10
)

var (
	noSpacesPattern  = regexp.MustCompile(`^\S+$`)
	secureURLPattern = regexp.MustCompile(`^https://[^ ]*$`)
	numericIDPattern = regexp.MustCompile(`^[1-9][0-9]*$`)
)

type userKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) (int64, error)
	FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error)
	FindUserByID(ctx context.Context, id int64) (*user.User, bool, error)
}

type linkKeeper interface {
	FindShortByUserAndURL(ctx context.Context, userID int64, url string) (string, bool, error)
	InsertShortenedURL(ctx context.Context, userID int64, url, short string) (string, error)
	IsShortTaken(ctx context.Context, short string) (bool, error)
	ResolveAndCountVisit(ctx context.Context, short string) (string, bool, error)
	FindShortenedURLByID(ctx context.Context, id int64) (*models.ShortenedURL, bool, error)
	DeleteShortenedURL(ctx context.Context, id int64) error
	GetUserLinks(ctx context.Context, userID int64) ([]models.ProfileLink, error)
	GetRanking(ctx context.Context, limit int) ([]models.RankingEntry, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type serviceStorage interface {
	userKeeper
	linkKeeper
	pinger
}

type tokenIssuer interface {
	IssueOrReuseToken(ctx context.Context, userID int64) (string, error)
}

// Service wires the storage and the session manager into the
// application flows.
type Service struct {
	db       serviceStorage
	sessions tokenIssuer
	validate *validator.Validate
}

// New builds a Service. The returned instance is safe for concurrent
// use by HTTP handlers.
func New(db serviceStorage, sessions tokenIssuer) (*Service, error) {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := validate.RegisterValidation("nospaces", func(fieldLevel validator.FieldLevel) bool {
		return noSpacesPattern.MatchString(fieldLevel.Field().String())
	})
	if err != nil {
		return nil, err
	}

	err = validate.RegisterValidation("secureurl", func(fieldLevel validator.FieldLevel) bool {
		return secureURLPattern.MatchString(fieldLevel.Field().String())
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		db:       db,
		sessions: sessions,
		validate: validate,
	}, nil
}

// validateStruct runs the validator and converts the full set of
// violations into a ValidationError, never stopping at the first one.
func (s *Service) validateStruct(request any) error {
	err := s.validate.Struct(request)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return err
	}

	fields := make([]models.FieldError, 0, len(violations))
	for _, violation := range violations {
		fields = append(fields, models.FieldError{
			Field:   violation.Field(),
			Message: fmt.Sprintf("%s fails on the '%s' rule", violation.Field(), violation.Tag()),
		})
	}

	return &ValidationError{Fields: fields}
}

// SignUp registers a new account. The password is stored as a bcrypt
// hash with the default work factor of 10.
func (s *Service) SignUp(ctx context.Context, request models.SignUpRequest) error {
	if err := s.validateStruct(request); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.db.CreateUser(ctx, &user.User{
		Name:         request.Name,
		Email:        request.Email,
		PasswordHash: string(passwordHash),
	})
	if errors.Is(err, storage.ErrEmailTaken) {
		return ErrEmailTaken
	}

	return err
}

// SignIn checks the credentials and returns the user's session token.
// Repeated sign-ins return the same token.
func (s *Service) SignIn(ctx context.Context, request models.SignInRequest) (string, error) {
	if err := s.validateStruct(request); err != nil {
		return "", err
	}

	usr, found, err := s.db.FindUserByEmail(ctx, request.Email)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrUnauthenticated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(request.Password)); err != nil {
		return "", ErrUnauthenticated
	}

	return s.sessions.IssueOrReuseToken(ctx, usr.ID)
}

func generateRandomKey(length int) (string, error) {
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		index, err := rand.Int(rand.Reader, big.NewInt(int64(len(shortKeyAlphabet))))
		if err != nil {
			return "", err
		}
		builder.WriteByte(shortKeyAlphabet[index.Int64()])
	}

	return builder.String(), nil
}

func (s *Service) generateShortKey(ctx context.Context) (string, error) {
	for i := 0; i < triesToGenerateUniqueKey; i++ {
		short, err := generateRandomKey(shortKeyLength)
		if err != nil {
			return "", err
		}

		taken, err := s.db.IsShortTaken(ctx, short)
		if err != nil {
			return "", err
		}
		if !taken {
			return short, nil
		}
	}

	return "", errors.New("the number of attempts to generate a unique key has been exceeded")
}

// ShortenURL returns the short code for a user's URL, reusing the code
// from an earlier request for the same URL.
func (s *Service) ShortenURL(ctx context.Context, userID int64, request models.ShortenRequest) (string, error) {
	if err := s.validateStruct(request); err != nil {
		return "", err
	}

	short, found, err := s.db.FindShortByUserAndURL(ctx, userID, request.URL)
	if err != nil {
		return "", err
	}
	if found {
		return short, nil
	}

	short, err = s.generateShortKey(ctx)
	if err != nil {
		return "", err
	}

	return s.db.InsertShortenedURL(ctx, userID, request.URL, short)
}

func parseLinkID(idParam string) (int64, error) {
	if !numericIDPattern.MatchString(idParam) {
		return 0, ErrNotFound
	}

	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return 0, ErrNotFound
	}

	return id, nil
}

// DeleteURL removes one of the user's own links.
func (s *Service) DeleteURL(ctx context.Context, userID int64, idParam string) error {
	id, err := parseLinkID(idParam)
	if err != nil {
		return err
	}

	link, found, err := s.db.FindShortenedURLByID(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	if link.UserID != userID {
		return ErrForbidden
	}

	return s.db.DeleteShortenedURL(ctx, id)
}

// GetURLByID returns the public view of a link.
func (s *Service) GetURLByID(ctx context.Context, idParam string) (models.URLRecord, error) {
	id, err := parseLinkID(idParam)
	if err != nil {
		return models.URLRecord{}, err
	}

	link, found, err := s.db.FindShortenedURLByID(ctx, id)
	if err != nil {
		return models.URLRecord{}, err
	}
	if !found {
		return models.URLRecord{}, ErrNotFound
	}

	return models.URLRecord{
		ID:       link.ID,
		ShortURL: link.ShortURL,
		URL:      link.URL,
	}, nil
}

// OpenShortURL resolves a short code to its target and counts the
// visit. The increment happens in the storage layer in one step, so
// concurrent resolutions are all counted.
func (s *Service) OpenShortURL(ctx context.Context, short string) (string, error) {
	url, found, err := s.db.ResolveAndCountVisit(ctx, short)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}

	return url, nil
}

// GetProfile aggregates a user's links and total visit count. A user
// without links still gets a profile with an empty list.
func (s *Service) GetProfile(ctx context.Context, userID int64) (models.ProfileResponse, error) {
	usr, found, err := s.db.FindUserByID(ctx, userID)
	if err != nil {
		return models.ProfileResponse{}, err
	}
	if !found {
		return models.ProfileResponse{}, ErrNotFound
	}

	links, err := s.db.GetUserLinks(ctx, userID)
	if err != nil {
		return models.ProfileResponse{}, err
	}

	var totalVisits int64
	for _, link := range links {
		totalVisits += link.VisitCount
	}

	return models.ProfileResponse{
		ID:            usr.ID,
		Name:          usr.Name,
		VisitCount:    totalVisits,
		ShortenedURLs: links,
	}, nil
}

// GetRanking lists the ten owners with the most visits overall.
func (s *Service) GetRanking(ctx context.Context) ([]models.RankingEntry, error) {
	return s.db.GetRanking(ctx, rankingLimit)
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
