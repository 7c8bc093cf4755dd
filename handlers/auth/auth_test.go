package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodzy/backend/logging"
	"bloodzy/backend/store/memory"
)

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	token, err := tokens.Generate(42)
	require.NoError(t, err)

	id, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = NewTokens("other", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokensRejectExpired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, err := tokens.Generate(1)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Minute).Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	var seen int64
	h := tokens.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := tokens.Generate(7)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), seen)
}

func TestSignupThenLogin(t *testing.T) {
	accounts := memory.NewUserDirectory()
	tokens := NewTokens("secret", time.Hour)
	signup := SignupHandler(accounts, tokens, logging.Discard())
	login := LoginHandler(accounts, tokens, logging.Discard())

	rec := post(signup, `{"username":"ayesha","email":"Ayesha@Example.com","password":"hunter22","age":25}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "ayesha@example.com", created.User.Email)
	id, err := tokens.Parse(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.User.ID, id)

	rec = post(signup, `{"username":"ayesha2","email":"ayesha@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(login, `{"email":"ayesha@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = post(login, `{"email":"ayesha@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(login, `{"email":"nobody@example.com","password":"hunter22"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	h := SignupHandler(memory.NewUserDirectory(), NewTokens("secret", time.Hour), logging.Discard())
	cases := map[string]string{
		"username": `{"username":"ab","email":"a@b.co","password":"hunter22"}`,
		"email":    `{"username":"abc","email":"nope","password":"hunter22"}`,
		"password": `{"username":"abc","email":"a@b.co","password":"123"}`,
		"age":      `{"username":"abc","email":"a@b.co","password":"hunter22","age":16}`,
	}
	for field, body := range cases {
		t.Run(field, func(t *testing.T) {
			rec := post(h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, field, resp["field"])
		})
	}
}
