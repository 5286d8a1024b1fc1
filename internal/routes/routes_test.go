package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"essence_back_end/internal/auth"
	"essence_back_end/internal/handlers"
	"essence_back_end/internal/handlers/offer"
	"essence_back_end/internal/handlers/order"
	"essence_back_end/internal/handlers/product"
	"essence_back_end/internal/handlers/user"
	"essence_back_end/internal/models"
)

func newEngine(tokens *auth.Tokens) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, Handlers{
		Auth:     user.NewHandler(nil),
		Orders:   order.NewHandler(nil, nil),
		Products: product.NewHandler(nil, nil, nil, nil),
		Offers:   offer.NewHandler(nil),
		Checks:   map[string]handlers.Check{},
	}, Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Tokens:         tokens,
		OTPLimit:       3,
		OTPWindow:      time.Minute,
		OTPVerifyLimit: 10,
	})
	return r
}

func token(t *testing.T, tokens *auth.Tokens, role string) string {
	t.Helper()
	s, err := tokens.Issue(&models.User{ID: primitive.NewObjectID(), Email: "a@b.fr", Role: role})
	require.NoError(t, err)
	return s
}

func TestProtectedRoutes(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	r := newEngine(tokens)
	customer := token(t, tokens, models.RoleCustomer)

	tests := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/orders", "", http.StatusUnauthorized},
		{http.MethodPost, "/orders", "", http.StatusUnauthorized},
		{http.MethodGet, "/auth/me", "", http.StatusUnauthorized},
		{http.MethodGet, "/orders/admin/all", customer, http.StatusForbidden},
		{http.MethodPut, "/orders/" + primitive.NewObjectID().Hex() + "/status", customer, http.StatusForbidden},
		{http.MethodPost, "/products", customer, http.StatusForbidden},
		{http.MethodGet, "/offers/all", customer, http.StatusForbidden},
		{http.MethodPut, "/offers/x/quantity", "", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestHealthAndCORS(t *testing.T) {
	r := newEngine(auth.NewTokens("secret", time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
