package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "dev-secret"

func devToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return tok
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestAuth_DevToken(t *testing.T) {
	t.Parallel()

	var gotUID, gotEmail, gotName string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUID = GetUserID(r.Context())
		gotEmail = GetUserEmail(r.Context())
		gotName = GetUserName(r.Context())
	})
	handler := Auth(nil, testSecret)(next)

	token := devToken(t, jwt.MapClaims{
		"user_id": "u1",
		"email":   "a@b.c",
		"name":    "Ada",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(token))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotUID)
	assert.Equal(t, "a@b.c", gotEmail)
	assert.Equal(t, "Ada", gotName)
}

func TestAuth_Rejections(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	})
	handler := Auth(nil, testSecret)(next)

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing header", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "Token abc") }},
		{"bad signature", func(r *http.Request) {
			tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256,
				jwt.MapClaims{"user_id": "u1"}).SignedString([]byte("wrong-secret"))
			r.Header.Set("Authorization", "Bearer "+tok)
		}},
		{"expired token", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+devToken(t, jwt.MapClaims{
				"user_id": "u1",
				"exp":     time.Now().Add(-time.Hour).Unix(),
			}))
		}},
		{"missing user id claim", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+devToken(t, jwt.MapClaims{
				"email": "a@b.c",
				"exp":   time.Now().Add(time.Hour).Unix(),
			}))
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuth_NoVerifierConfigured(t *testing.T) {
	t.Parallel()

	handler := Auth(nil, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest("sometoken"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
