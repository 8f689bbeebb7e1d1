package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Verkylen/projeto17-shortly/internal/auth"
	"github.com/Verkylen/projeto17-shortly/internal/db/memorystorage"
	"github.com/Verkylen/projeto17-shortly/internal/models"
)

var tokenPattern = regexp.MustCompile(`^[a-f0-9-]+$`)

func newTestService(t *testing.T) (*Service, *memorystorage.MemoryStorage) {
	t.Helper()

	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	svc, err := New(theStorage, auth.New(theStorage))
	require.NoError(t, err)

	return svc, theStorage
}

func signUpAndIn(t *testing.T, svc *Service, name, email, password string) string {
	t.Helper()
	ctx := context.Background()

	err := svc.SignUp(ctx, models.SignUpRequest{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)

	token, err := svc.SignIn(ctx, models.SignInRequest{Email: email, Password: password})
	require.NoError(t, err)

	return token
}

func TestSignUpCollectsEveryValidationFailure(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.SignUp(context.Background(), models.SignUpRequest{
		Name:            "",
		Email:           "not-an-email",
		Password:        "has space",
		ConfirmPassword: "different",
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Fields, 4, "all violated rules must be reported together")

	fields := map[string]bool{}
	for _, field := range validationErr.Fields {
		fields[field.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["password"])
	assert.True(t, fields["confirmPassword"])
}

func TestSignUpDuplicateEmailConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.SignUp(ctx, models.SignUpRequest{
		Name:            "first",
		Email:           "dup@mail.com",
		Password:        "secret-1",
		ConfirmPassword: "secret-1",
	})
	require.NoError(t, err)

	err = svc.SignUp(ctx, models.SignUpRequest{
		Name:            "second",
		Email:           "dup@mail.com",
		Password:        "other-secret",
		ConfirmPassword: "other-secret",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "somebody", "somebody@mail.com", "right-password")

	_, err := svc.SignIn(ctx, models.SignInRequest{Email: "somebody@mail.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.SignIn(ctx, models.SignInRequest{Email: "nobody@mail.com", Password: "right-password"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSignInReturnsTheSameTokenTwice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := signUpAndIn(t, svc, "somebody", "somebody@mail.com", "right-password")
	assert.Regexp(t, tokenPattern, first)

	second, err := svc.SignIn(ctx, models.SignInRequest{Email: "somebody@mail.com", Password: "right-password"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestShortenURLDeduplicatesPerUser(t *testing.T) {
	svc, theStorage := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")
	signUpAndIn(t, svc, "beta", "beta@mail.com", "secret-b")

	alpha, _, err := theStorage.FindUserByEmail(ctx, "alpha@mail.com")
	require.NoError(t, err)
	beta, _, err := theStorage.FindUserByEmail(ctx, "beta@mail.com")
	require.NoError(t, err)

	request := models.ShortenRequest{URL: "https://example.com/some/long/path"}

	first, err := svc.ShortenURL(ctx, alpha.ID, request)
	require.NoError(t, err)
	assert.Len(t, first, 21)

	again, err := svc.ShortenURL(ctx, alpha.ID, request)
	require.NoError(t, err)
	assert.Equal(t, first, again, "repeated shortening by the same user must reuse the code")

	other, err := svc.ShortenURL(ctx, beta.ID, request)
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "two users shortening the same URL must get distinct codes")
}

func TestShortenURLRejectsInsecureTargets(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")

	for _, target := range []string{"http://example.com", "ftp://example.com", "example.com", "https://bro ken"} {
		_, err := svc.ShortenURL(ctx, 1, models.ShortenRequest{URL: target})

		var validationErr *ValidationError
		assert.ErrorAs(t, err, &validationErr, "target %q must be rejected", target)
	}
}

func TestOpenShortURLCountsVisits(t *testing.T) {
	svc, theStorage := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")

	short, err := svc.ShortenURL(ctx, 1, models.ShortenRequest{URL: "https://example.com"})
	require.NoError(t, err)

	url, err := svc.OpenShortURL(ctx, short)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", url)

	record, found, err := theStorage.FindShortenedURLByID(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(1), record.VisitCount)

	_, err = svc.OpenShortURL(ctx, "never-created")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentOpensCountEveryVisit(t *testing.T) {
	svc, theStorage := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")

	short, err := svc.ShortenURL(ctx, 1, models.ShortenRequest{URL: "https://example.com"})
	require.NoError(t, err)

	const visitors = 50

	var wg sync.WaitGroup
	for i := 0; i < visitors; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.OpenShortURL(ctx, short)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	record, _, err := theStorage.FindShortenedURLByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(visitors), record.VisitCount)
}

func TestDeleteURLOwnershipAndIdentifiers(t *testing.T) {
	svc, theStorage := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")
	signUpAndIn(t, svc, "beta", "beta@mail.com", "secret-b")

	alpha, _, err := theStorage.FindUserByEmail(ctx, "alpha@mail.com")
	require.NoError(t, err)
	beta, _, err := theStorage.FindUserByEmail(ctx, "beta@mail.com")
	require.NoError(t, err)

	_, err = svc.ShortenURL(ctx, alpha.ID, models.ShortenRequest{URL: "https://example.com"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteURL(ctx, beta.ID, "1"), ErrForbidden)
	assert.ErrorIs(t, svc.DeleteURL(ctx, alpha.ID, "999"), ErrNotFound)

	for _, badID := range []string{"abc", "0", "-1", "1.5", ""} {
		assert.ErrorIs(t, svc.DeleteURL(ctx, alpha.ID, badID), ErrNotFound, "id %q", badID)
	}

	require.NoError(t, svc.DeleteURL(ctx, alpha.ID, "1"))

	_, err = svc.GetURLByID(ctx, "1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetURLByIDReturnsThePublicFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")

	short, err := svc.ShortenURL(ctx, 1, models.ShortenRequest{URL: "https://example.com"})
	require.NoError(t, err)

	record, err := svc.GetURLByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.URLRecord{ID: 1, ShortURL: short, URL: "https://example.com"}, record)
}

func TestGetProfileWithAndWithoutLinks(t *testing.T) {
	svc, theStorage := newTestService(t)
	ctx := context.Background()

	signUpAndIn(t, svc, "alpha", "alpha@mail.com", "secret-a")

	alpha, _, err := theStorage.FindUserByEmail(ctx, "alpha@mail.com")
	require.NoError(t, err)

	profile, err := svc.GetProfile(ctx, alpha.ID)
	require.NoError(t, err)
	assert.Equal(t, "alpha", profile.Name)
	assert.Empty(t, profile.ShortenedURLs, "zero links is a valid profile, not an error")
	assert.Zero(t, profile.VisitCount)

	short, err := svc.ShortenURL(ctx, alpha.ID, models.ShortenRequest{URL: "https://example.com"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = svc.OpenShortURL(ctx, short)
		require.NoError(t, err)
	}

	profile, err = svc.GetProfile(ctx, alpha.ID)
	require.NoError(t, err)
	require.Len(t, profile.ShortenedURLs, 1)
	assert.Equal(t, int64(3), profile.VisitCount)
	assert.Equal(t, int64(3), profile.ShortenedURLs[0].VisitCount)

	_, err = svc.GetProfile(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRankingTopTenDescending(t *testing.T) {
	svc, theStorage := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		email := fmt.Sprintf("owner-%d@mail.com", i)
		signUpAndIn(t, svc, fmt.Sprintf("owner-%d", i), email, "secret-pw")

		owner, _, err := theStorage.FindUserByEmail(ctx, email)
		require.NoError(t, err)

		short, err := svc.ShortenURL(ctx, owner.ID, models.ShortenRequest{URL: fmt.Sprintf("https://example.com/%d", i)})
		require.NoError(t, err)

		for j := 0; j <= i; j++ {
			_, err = svc.OpenShortURL(ctx, short)
			require.NoError(t, err)
		}
	}

	ranking, err := svc.GetRanking(ctx)
	require.NoError(t, err)
	require.Len(t, ranking, 10)

	assert.Equal(t, int64(12), ranking[0].VisitCount)
	for i := 1; i < len(ranking); i++ {
		assert.GreaterOrEqual(t, ranking[i-1].VisitCount, ranking[i].VisitCount)
	}
}
