package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychicline-backend/internal/models"
)

func TestGenerateAndParseToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	id := uuid.New()

	token, err := auth.GenerateAccessToken(id, models.RolePsychic)
	require.NoError(t, err)

	p, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, models.RolePsychic, p.Role)
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": models.RoleUser,
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.Secret)
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseTokenRejectsUnknownRoleAndWrongSecret(t *testing.T) {
	auth := NewJWTAuth("test-secret")

	token, err := auth.GenerateAccessToken(uuid.New(), "superuser")
	require.NoError(t, err)
	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	other, err := NewJWTAuth("other-secret").GenerateAccessToken(uuid.New(), models.RoleUser)
	require.NoError(t, err)
	_, err = auth.ParseToken(other)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMiddlewareAttachesPrincipal(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	id := uuid.New()
	token, err := auth.GenerateAccessToken(id, models.RoleAdmin)
	require.NoError(t, err)

	var got models.Principal
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPrincipal(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, models.Principal{ID: id, Role: models.RoleAdmin}, got)
}

func TestMiddlewareRejectsMissingHeader(t *testing.T) {
	auth := NewJWTAuth("test-secret")
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		role string
		want int
	}{
		{models.RoleAdmin, http.StatusNoContent},
		{models.RoleUser, http.StatusForbidden},
		{"", http.StatusForbidden},
	}

	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), models.Principal{ID: uuid.New(), Role: tc.role}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, tc.want, rr.Code, "role %q", tc.role)
	}
}
