// Package router exposes the HTTP surface of the service over chi and
// maps typed service errors to status codes. Handlers only decode
// input, call the service and encode the outcome.
package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Verkylen/projeto17-shortly/internal/auth"
	"github.com/Verkylen/projeto17-shortly/internal/gzippedhttp"
	"github.com/Verkylen/projeto17-shortly/internal/logger"
	"github.com/Verkylen/projeto17-shortly/internal/models"
	"github.com/Verkylen/projeto17-shortly/internal/service"
)

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
}

// Router holds the handler dependencies.
type Router struct {
	service *service.Service
}

// New assembles the chi mux with logging, compression and
// authentication middleware in place.
func New(svc *service.Service, theAuth authenticator) *chi.Mux {
	myRouter := &Router{service: svc}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)

	router.Post(`/signup`, myRouter.PostSignup)
	router.Post(`/signin`, myRouter.PostSignin)

	router.With(theAuth.AuthenticateUser).Post(`/urls/shorten`, myRouter.PostUrlsShorten)
	router.With(theAuth.AuthenticateUser).Delete(`/urls/{id}`, myRouter.DeleteUrlsID)
	router.With(theAuth.AuthenticateUser, gzippedhttp.GzipResponse).Get(`/users/me`, myRouter.GetUsersMe)

	router.With(gzippedhttp.GzipResponse).Get(`/urls/{id}`, myRouter.GetUrlsID)
	router.Get(`/urls/open/{shortUrl}`, myRouter.GetUrlsOpenShortURL)
	router.With(gzippedhttp.GzipResponse).Get(`/ranking`, myRouter.GetRanking)

	router.Get(`/ping`, myRouter.GetPing)

	return router
}

func decodeJSONBody(request *http.Request, target any) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return &service.ValidationError{
			Fields: []models.FieldError{
				{Field: "body", Message: "request body is not valid JSON"},
			},
		}
	}

	return nil
}

// writeServiceError translates a service error into the response
// status. Anything without an explicit mapping collapses to 500 with no
// detail leaking to the caller.
func writeServiceError(response http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		response.Header().Set("Content-Type", "application/json")
		response.WriteHeader(http.StatusUnprocessableEntity)
		if err := json.NewEncoder(response).Encode(validationErr.Fields); err != nil {
			logger.Log.Debugln("writing validation response:", zap.Error(err))
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrEmailTaken):
		response.WriteHeader(http.StatusConflict)
	case errors.Is(err, service.ErrUnauthenticated):
		response.WriteHeader(http.StatusUnauthorized)
	case errors.Is(err, service.ErrForbidden):
		response.WriteHeader(http.StatusForbidden)
	case errors.Is(err, service.ErrNotFound):
		response.WriteHeader(http.StatusNotFound)
	default:
		logger.Log.Debugln("unexpected error:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(response http.ResponseWriter, statusCode int, body any) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(body); err != nil {
		logger.Log.Debugln("writing JSON response:", zap.Error(err))
	}
}

func userIDFromRequest(request *http.Request) (int64, bool) {
	return auth.UserIDFromContext(request.Context())
}

// PostSignup handles POST /signup.
func (rt *Router) PostSignup(response http.ResponseWriter, request *http.Request) {
	var body models.SignUpRequest
	if err := decodeJSONBody(request, &body); err != nil {
		writeServiceError(response, err)
		return
	}

	if err := rt.service.SignUp(request.Context(), body); err != nil {
		writeServiceError(response, err)
		return
	}

	response.WriteHeader(http.StatusCreated)
}

// PostSignin handles POST /signin. The token is returned as a raw body,
// not wrapped in JSON.
func (rt *Router) PostSignin(response http.ResponseWriter, request *http.Request) {
	var body models.SignInRequest
	if err := decodeJSONBody(request, &body); err != nil {
		writeServiceError(response, err)
		return
	}

	token, err := rt.service.SignIn(request.Context(), body)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	if _, err := response.Write([]byte(token)); err != nil {
		logger.Log.Debugln("writing token response:", zap.Error(err))
	}
}

// PostUrlsShorten handles POST /urls/shorten.
func (rt *Router) PostUrlsShorten(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body models.ShortenRequest
	if err := decodeJSONBody(request, &body); err != nil {
		writeServiceError(response, err)
		return
	}

	short, err := rt.service.ShortenURL(request.Context(), userID, body)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusCreated, models.ShortenResponse{ShortURL: short})
}

// DeleteUrlsID handles DELETE /urls/{id}.
func (rt *Router) DeleteUrlsID(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	if err := rt.service.DeleteURL(request.Context(), userID, chi.URLParam(request, "id")); err != nil {
		writeServiceError(response, err)
		return
	}

	response.WriteHeader(http.StatusNoContent)
}

// GetUrlsID handles GET /urls/{id}; no authentication required.
func (rt *Router) GetUrlsID(response http.ResponseWriter, request *http.Request) {
	record, err := rt.service.GetURLByID(request.Context(), chi.URLParam(request, "id"))
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, record)
}

// GetUrlsOpenShortURL handles GET /urls/open/{shortUrl} with a redirect
// to the original URL.
func (rt *Router) GetUrlsOpenShortURL(response http.ResponseWriter, request *http.Request) {
	url, err := rt.service.OpenShortURL(request.Context(), chi.URLParam(request, "shortUrl"))
	if err != nil {
		writeServiceError(response, err)
		return
	}

	http.Redirect(response, request, url, http.StatusFound)
}

// GetUsersMe handles GET /users/me.
func (rt *Router) GetUsersMe(response http.ResponseWriter, request *http.Request) {
	userID, ok := userIDFromRequest(request)
	if !ok {
		response.WriteHeader(http.StatusUnauthorized)
		return
	}

	profile, err := rt.service.GetProfile(request.Context(), userID)
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, profile)
}

// GetRanking handles GET /ranking.
func (rt *Router) GetRanking(response http.ResponseWriter, request *http.Request) {
	ranking, err := rt.service.GetRanking(request.Context())
	if err != nil {
		writeServiceError(response, err)
		return
	}

	writeJSON(response, http.StatusOK, ranking)
}

// GetPing handles GET /ping with a storage health check.
func (rt *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := rt.service.Ping(request.Context()); err != nil {
		logger.Log.Debugln("storage ping failed:", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)
		return
	}

	response.WriteHeader(http.StatusOK)
}
