package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"essence_back_end/internal/auth"
)

// Nombre de demandes de code tolérées par IP, en multiple de la limite par identité
const ipLimitFactor = 4

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// OTPRateLimit limite les demandes de code par identité (email ou téléphone) et par IP.
// Si Redis ne répond pas, la demande passe.
func OTPRateLimit(limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return IdentityRateLimit("otp", limiter, limit, window)
}

// IdentityRateLimit - compteurs séparés par scope (demande de code, vérification)
func IdentityRateLimit(scope string, limiter RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		// Remettre le body pour les handlers suivants
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		var input struct {
			Email string `json:"email"`
			Phone string `json:"phone"`
		}
		keys := []string{scope + "_ip:" + c.ClientIP()}
		limits := []int{limit * ipLimitFactor}
		if json.Unmarshal(bodyBytes, &input) == nil {
			if id, err := auth.ParseIdentity(input.Email, input.Phone); err == nil {
				keys = append(keys, scope+":"+id.Key())
				limits = append(limits, limit)
			}
		}

		for i, key := range keys {
			ok, retry, err := limiter.Allow(c.Request.Context(), key, limits[i], window)
			if err != nil {
				log.Printf("⚠️ Rate limit indisponible: %v", err)
				break
			}
			if !ok {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":       fmt.Sprintf("Trop de tentatives. Réessayez dans %d minutes", int(retry.Minutes())+1),
					"retry_after": int(retry.Seconds()),
				})
				c.Abort()
				return
			}
		}

		c.Next()
	}
}
