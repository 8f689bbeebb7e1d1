package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Verkylen/projeto17-shortly/internal/db/memorystorage"
	"github.com/Verkylen/projeto17-shortly/internal/user"
)

func newAuthWithSession(t *testing.T) (*Auth, string, int64) {
	t.Helper()

	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	userID, err := theStorage.CreateUser(context.Background(), &user.User{
		Name:         "somebody",
		Email:        "somebody@mail.com",
		PasswordHash: "x",
	})
	require.NoError(t, err)

	theAuth := New(theStorage)

	token, err := theAuth.IssueOrReuseToken(context.Background(), userID)
	require.NoError(t, err)

	return theAuth, token, userID
}

func TestIssueOrReuseTokenIsIdempotent(t *testing.T) {
	theAuth, token, userID := newAuthWithSession(t)

	again, err := theAuth.IssueOrReuseToken(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, token, again)
}

func TestAuthenticateUserHeaderHandling(t *testing.T) {
	theAuth, token, userID := newAuthWithSession(t)

	handlerCalled := false
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true

		gotID, ok := UserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, userID, gotID)
	}))

	testCases := []struct {
		name          string
		authorization string
		expectedCode  int
		expectHandler bool
	}{
		{name: "missing_header", authorization: "", expectedCode: http.StatusUnauthorized},
		{name: "no_bearer_prefix", authorization: token, expectedCode: http.StatusUnauthorized},
		{name: "wrong_scheme", authorization: "Token " + token, expectedCode: http.StatusUnauthorized},
		{name: "uppercase_token", authorization: "Bearer ABCDEF", expectedCode: http.StatusUnauthorized},
		{name: "unknown_token", authorization: "Bearer deadbeef-0000", expectedCode: http.StatusUnauthorized},
		{name: "valid_token", authorization: "Bearer " + token, expectedCode: http.StatusOK, expectHandler: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			handlerCalled = false

			request := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if testCase.authorization != "" {
				request.Header.Set("Authorization", testCase.authorization)
			}

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.expectedCode, recorder.Code)
			assert.Equal(t, testCase.expectHandler, handlerCalled)
		})
	}
}
