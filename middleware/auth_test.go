package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expenshare-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwt := utils.NewJWTManager("secret", time.Hour)
	id := uuid.New()
	token, err := jwt.Generate(id, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}

	r := gin.New()
	r.GET("/me", AuthRequired(jwt), func(c *gin.Context) {
		c.String(http.StatusOK, utils.GetCurrentUserID(c).String())
	})

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: utils.TokenCookie, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"missing", func(r *http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && w.Body.String() != id.String() {
				t.Errorf("user id = %s", w.Body.String())
			}
		})
	}
}
