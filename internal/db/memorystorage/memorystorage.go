// Package memorystorage implements the storage contract with in-process
// maps guarded by a mutex. It backs the service when no database DSN is
// configured and is the storage of choice in tests.
package memorystorage

import (
	"context"
	"sort"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/Verkylen/projeto17-shortly/internal/db/storage"
	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/user"
)

// MemoryStorage keeps all rows in memory. The single mutex mirrors the
// serialization the relational backend gets from its constraints.
type MemoryStorage struct {
	mu sync.RWMutex

	users        map[int64]*user.User
	emails       map[string]int64
	tokens       map[string]int64
	userSessions map[int64]string
	links        map[int64]*models.ShortenedURL
	shorts       map[string]int64

	nextUserID int64
	nextLinkID int64
}

// New returns an empty MemoryStorage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		users:        map[int64]*user.User{},
		emails:       map[string]int64{},
		tokens:       map[string]int64{},
		userSessions: map[int64]string{},
		links:        map[int64]*models.ShortenedURL{},
		shorts:       map[string]int64{},
		nextUserID:   1,
		nextLinkID:   1,
	}, nil
}

func (s *MemoryStorage) CreateUser(ctx context.Context, usr *user.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.emails[usr.Email]; exists {
		return 0, storage.ErrEmailTaken
	}

	id := s.nextUserID
	s.nextUserID++

	stored := *usr
	stored.ID = id
	s.users[id] = &stored
	s.emails[stored.Email] = id

	return id, nil
}

func (s *MemoryStorage) FindUserByEmail(ctx context.Context, email string) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, found := s.emails[email]
	if !found {
		return nil, false, nil
	}

	usr := *s.users[id]

	return &usr, true, nil
}

func (s *MemoryStorage) FindUserByID(ctx context.Context, id int64) (*user.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, found := s.users[id]
	if !found {
		return nil, false, nil
	}

	usr := *stored

	return &usr, true, nil
}

func (s *MemoryStorage) CreateSession(ctx context.Context, userID int64, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if winner, exists := s.userSessions[userID]; exists {
		return winner, nil
	}

	s.userSessions[userID] = token
	s.tokens[token] = userID

	return token, nil
}

func (s *MemoryStorage) FindSessionByToken(ctx context.Context, token string) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, found := s.tokens[token]

	return userID, found, nil
}

func (s *MemoryStorage) FindSessionByUserID(ctx context.Context, userID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, found := s.userSessions[userID]

	return token, found, nil
}

func (s *MemoryStorage) FindShortByUserAndURL(ctx context.Context, userID int64, url string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findShortByUserAndURLLocked(userID, url)
}

func (s *MemoryStorage) findShortByUserAndURLLocked(userID int64, url string) (string, bool, error) {
	for _, link := range s.links {
		if link.UserID == userID && link.URL == url {
			return link.ShortURL, true, nil
		}
	}

	return "", false, nil
}

func (s *MemoryStorage) InsertShortenedURL(ctx context.Context, userID int64, url, short string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if winner, found, _ := s.findShortByUserAndURLLocked(userID, url); found {
		return winner, nil
	}

	id := s.nextLinkID
	s.nextLinkID++

	s.links[id] = &models.ShortenedURL{
		ID:       id,
		UserID:   userID,
		URL:      url,
		ShortURL: short,
	}
	s.shorts[short] = id

	return short, nil
}

func (s *MemoryStorage) IsShortTaken(ctx context.Context, short string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, taken := s.shorts[short]

	return taken, nil
}

func (s *MemoryStorage) ResolveAndCountVisit(ctx context.Context, short string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, found := s.shorts[short]
	if !found {
		return "", false, nil
	}

	link := s.links[id]
	link.VisitCount++

	return link.URL, true, nil
}

func (s *MemoryStorage) FindShortenedURLByID(ctx context.Context, id int64) (*models.ShortenedURL, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, found := s.links[id]
	if !found {
		return nil, false, nil
	}

	link := *stored

	return &link, true, nil
}

func (s *MemoryStorage) DeleteShortenedURL(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, found := s.links[id]
	if !found {
		return nil
	}

	delete(s.shorts, link.ShortURL)
	delete(s.links, id)

	return nil
}

func (s *MemoryStorage) GetUserLinks(ctx context.Context, userID int64) ([]models.ProfileLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.ProfileLink{}
	for _, link := range s.links {
		if link.UserID != userID {
			continue
		}

		result = append(result, models.ProfileLink{
			ID:         link.ID,
			ShortURL:   link.ShortURL,
			URL:        link.URL,
			VisitCount: link.VisitCount,
		})
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result, nil
}

func (s *MemoryStorage) GetRanking(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byOwner := map[int64]*models.RankingEntry{}
	for _, link := range s.links {
		entry, exists := byOwner[link.UserID]
		if !exists {
			entry = &models.RankingEntry{
				ID:   link.UserID,
				Name: s.users[link.UserID].Name,
			}
			byOwner[link.UserID] = entry
		}

		entry.LinksCount++
		entry.VisitCount += link.VisitCount
	}

	entries := funk.Map(byOwner, func(_ int64, entry *models.RankingEntry) models.RankingEntry {
		return *entry
	}).([]models.RankingEntry)

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].VisitCount > entries[j].VisitCount
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}
