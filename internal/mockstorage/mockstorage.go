// Package mockstorage provides a testify-based mock implementation of
// the storage contract. Router and service tests use it to simulate
// backend failures that the in-memory storage cannot produce.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/user"
)

// StorageMock is a testify mock that implements storage.Storage.
type StorageMock struct {
	mock.Mock
}

func (m *StorageMock) CreateUser(ctx context.Context, usr *user.User) (int64, error) {
	args := m.Called(ctx, usr)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindUserByID(ctx context.Context, id int64) (*user.User, bool, error) {
	args := m.Called(ctx, id)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

func (m *StorageMock) CreateSession(ctx context.Context, userID int64, token string) (string, error) {
	args := m.Called(ctx, userID, token)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) FindSessionByToken(ctx context.Context, token string) (int64, bool, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindSessionByUserID(ctx context.Context, userID int64) (string, bool, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindShortByUserAndURL(ctx context.Context, userID int64, url string) (string, bool, error) {
	args := m.Called(ctx, userID, url)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) InsertShortenedURL(ctx context.Context, userID int64, url, short string) (string, error) {
	args := m.Called(ctx, userID, url, short)
	return args.String(0), args.Error(1)
}

func (m *StorageMock) IsShortTaken(ctx context.Context, short string) (bool, error) {
	args := m.Called(ctx, short)
	return args.Bool(0), args.Error(1)
}

func (m *StorageMock) ResolveAndCountVisit(ctx context.Context, short string) (string, bool, error) {
	args := m.Called(ctx, short)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *StorageMock) FindShortenedURLByID(ctx context.Context, id int64) (*models.ShortenedURL, bool, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(*models.ShortenedURL)
	return record, args.Bool(1), args.Error(2)
}

func (m *StorageMock) DeleteShortenedURL(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *StorageMock) GetUserLinks(ctx context.Context, userID int64) ([]models.ProfileLink, error) {
	args := m.Called(ctx, userID)
	links, _ := args.Get(0).([]models.ProfileLink)
	return links, args.Error(1)
}

func (m *StorageMock) GetRanking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	args := m.Called(ctx, limit)
	entries, _ := args.Get(0).([]models.RankingEntry)
	return entries, args.Error(1)
}

func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
