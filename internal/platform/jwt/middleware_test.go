package jwtmw

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

// TestMain はテスト実行前にGinをテストモードに設定します。
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func runMiddleware(secret, authHeader string) (*httptest.ResponseRecorder, *gin.Context) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	AuthRequired(secret)(c)
	return w, c
}

func signed(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return s
}

// TestAuthRequired_MissingBearerToken はBearerトークンがない場合やプレフィックスが不正な場合に401が返されることを検証します。
func TestAuthRequired_MissingBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no header", ""},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"bearer lowercase", "bearer token123"},
		{"no space after Bearer", "Bearertoken123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, c := runMiddleware(testSecret, tt.authHeader)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
			if !c.IsAborted() {
				t.Error("expected request to be aborted")
			}
		})
	}
}

// TestAuthRequired_MissingSecret はシークレット未設定時に500が返されることを検証します。
func TestAuthRequired_MissingSecret(t *testing.T) {
	t.Parallel()

	w, c := runMiddleware("", "Bearer whatever")

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if !c.IsAborted() {
		t.Error("expected request to be aborted")
	}
}

// TestAuthRequired_InvalidTokens は不正なトークンが拒否されることを検証します。
func TestAuthRequired_InvalidTokens(t *testing.T) {
	t.Parallel()

	valid := jwt.RegisteredClaims{
		Subject:   "client-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	expired := jwt.RegisteredClaims{
		Subject:   "client-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", signed(t, jwt.SigningMethodHS256, []byte("other-secret"), valid)},
		{"expired", signed(t, jwt.SigningMethodHS256, []byte(testSecret), expired)},
		{"different hmac algorithm", signed(t, jwt.SigningMethodHS512, []byte(testSecret), valid)},
		{"none algorithm", signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, _ := runMiddleware(testSecret, "Bearer "+tt.token)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
			}
		})
	}
}

// TestAuthRequired_ValidToken は有効なトークンでsubjectがコンテキストに設定されることを検証します。
func TestAuthRequired_ValidToken(t *testing.T) {
	t.Parallel()

	token, err := NewGenerator(testSecret, time.Hour).GenerateToken("client-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w, c := runMiddleware(testSecret, "Bearer "+token)

	if c.IsAborted() {
		t.Fatalf("expected request to pass, got status %d", w.Code)
	}
	if got := c.GetString(ContextSubject); got != "client-1" {
		t.Errorf("expected subject %q, got %q", "client-1", got)
	}
}
