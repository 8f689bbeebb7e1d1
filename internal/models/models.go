package models

// SignUpRequest is the POST /signup body.
// ConfirmPassword must repeat Password exactly.
type SignUpRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,nospaces"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// SignInRequest is the POST /signin body.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,nospaces"`
}

// ShortenRequest is the POST /urls/shorten body.
// Only https targets are accepted.
type ShortenRequest struct {
	URL string `json:"url" validate:"required,secureurl"`
}

// ShortenResponse carries the generated (or reused) short code.
type ShortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

// URLRecord is the public GET /urls/{id} view of a shortened URL.
// It deliberately omits the owner and the visit count.
type URLRecord struct {
	ID       int64  `json:"id"`
	ShortURL string `json:"shortUrl"`
	URL      string `json:"url"`
}

// ShortenedURL is the full persisted link row.
type ShortenedURL struct {
	ID         int64
	UserID     int64
	URL        string
	ShortURL   string
	VisitCount int64
}

// ProfileLink is one entry of a user's dashboard; owner and creation
// timestamp are stripped from the stored row.
type ProfileLink struct {
	ID         int64  `json:"id"`
	ShortURL   string `json:"shortUrl"`
	URL        string `json:"url"`
	VisitCount int64  `json:"visitCount"`
}

// ProfileResponse is the GET /users/me body.
type ProfileResponse struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	VisitCount    int64         `json:"visitCount"`
	ShortenedURLs []ProfileLink `json:"shortenedUrls"`
}

// RankingEntry is one row of GET /ranking.
type RankingEntry struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	LinksCount int64  `json:"linksCount"`
	VisitCount int64  `json:"visitCount"`
}

// FieldError describes a single violated validation rule.
// Validation responses carry the full set, not just the first failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Storage backend kinds selectable via configuration.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeMemory
)
