package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/campus-events/server/internal/api/middleware"
	"github.com/campus-events/server/internal/auth"
	"github.com/campus-events/server/internal/domain/events"
	"github.com/campus-events/server/internal/domain/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newAuthHandler() (*AuthHandler, *fakeUserRepo) {
	repo := newFakeUserRepo()
	tokens := auth.NewJWTManager("test-secret", time.Hour, "campus-events")
	service := users.NewService(repo, tokens, "pucit.edu.pk", zerolog.Nop())
	return NewAuthHandler(service, "test"), repo
}

func TestRegisterHandlerCreatesUser(t *testing.T) {
	handler, _ := newAuthHandler()

	body := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret","name":"Ayesha Khan","role":"student","department":"CS"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))

	handler.Register(w, r)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "ayesha@pucit.edu.pk", resp.Email)
	require.Equal(t, "student", resp.Role)
	require.NotEmpty(t, resp.ID)
	require.True(t, resp.IsActive)
}

func TestRegisterHandlerRejectsMissingFields(t *testing.T) {
	handler, _ := newAuthHandler()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"email":"a@pucit.edu.pk"}`))

	handler.Register(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRegisterHandlerRejectsForeignDomain(t *testing.T) {
	handler, _ := newAuthHandler()

	body := `{"email":"ayesha@gmail.com","password":"sup3rsecret","name":"Ayesha Khan","role":"student"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))

	handler.Register(w, r)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterHandlerDuplicateEmailConflicts(t *testing.T) {
	handler, _ := newAuthHandler()
	body := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret","name":"Ayesha Khan","role":"student"}`

	first := httptest.NewRecorder()
	handler.Register(first, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.Register(second, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, second.Code)
}

func TestLoginHandlerIssuesToken(t *testing.T) {
	handler, _ := newAuthHandler()

	registerBody := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret","name":"Ayesha Khan","role":"student"}`
	w := httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(registerBody)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	loginBody := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret"}`
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(loginBody)))

	require.Equal(t, http.StatusOK, w.Code)

	var resp loginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "ayesha@pucit.edu.pk", resp.User.Email)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	handler, _ := newAuthHandler()

	registerBody := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret","name":"Ayesha Khan","role":"student"}`
	w := httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(registerBody)))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ayesha@pucit.edu.pk","password":"nope"}`)))

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginHandlerDeactivatedAccount(t *testing.T) {
	handler, repo := newAuthHandler()

	registerBody := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret","name":"Ayesha Khan","role":"student"}`
	w := httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(registerBody)))
	require.Equal(t, http.StatusCreated, w.Code)

	var created userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NoError(t, repo.SetActive(t.Context(), created.ID, false))

	w = httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret"}`)))

	require.Equal(t, http.StatusForbidden, w.Code)
}

// doDeactivate runs the deactivate handler behind the bearer middleware so the
// actor reaches the handler the same way it does in production.
func doDeactivate(t *testing.T, handler *AuthHandler, actor events.Actor, targetID string) *httptest.ResponseRecorder {
	t.Helper()

	token, err := testTokens.Generate(actor.ULID, actor.Role, actor.Name, actor.Email)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/users/"+targetID+"/deactivate", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	r.SetPathValue("id", targetID)

	middleware.BearerAuth(testTokens, "test")(http.HandlerFunc(handler.Deactivate)).ServeHTTP(w, r)
	return w
}

func registerTestUser(t *testing.T, handler *AuthHandler) userResponse {
	t.Helper()

	body := `{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret","name":"Ayesha Khan","role":"student"}`
	w := httptest.NewRecorder()
	handler.Register(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, w.Code)

	var created userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

func TestDeactivateHandlerAdminDeactivatesUser(t *testing.T) {
	handler, _ := newAuthHandler()
	created := registerTestUser(t, handler)

	w := doDeactivate(t, handler, testAdmin, created.ID)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	handler.Login(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"ayesha@pucit.edu.pk","password":"sup3rsecret"}`)))
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeactivateHandlerNonAdminForbidden(t *testing.T) {
	handler, _ := newAuthHandler()
	created := registerTestUser(t, handler)

	w := doDeactivate(t, handler, testStudent, created.ID)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeactivateHandlerUnknownUser(t *testing.T) {
	handler, _ := newAuthHandler()

	w := doDeactivate(t, handler, testAdmin, "01HYX3KQW7ERTV9XNBM2P8QJZ8")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeactivateHandlerRejectsBadID(t *testing.T) {
	handler, _ := newAuthHandler()

	w := doDeactivate(t, handler, testAdmin, "not-a-ulid")
	require.Equal(t, http.StatusBadRequest, w.Code)
}
