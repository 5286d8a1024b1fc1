package user

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"essence_back_end/internal/auth"
	"essence_back_end/internal/models"
)

// AuthService - connexion par code et profil
type AuthService interface {
	RequestCode(ctx context.Context, email, phone string) (auth.Identity, error)
	Login(ctx context.Context, email, phone, code string) (*auth.LoginResult, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, p auth.ProfileUpdate) (*models.User, error)
}

type Handler struct {
	auth AuthService
}

func NewHandler(svc AuthService) *Handler {
	return &Handler{auth: svc}
}

type codeRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Code  string `json:"code" binding:"required"`
}

func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email ou téléphone invalide"})
	case errors.Is(err, auth.ErrChallengeNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code expiré, demandez un nouveau code"})
	case errors.Is(err, auth.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code invalide"})
	case errors.Is(err, auth.ErrTooManyAttempts):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Trop de tentatives, demandez un nouveau code"})
	case errors.Is(err, auth.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur non trouvé"})
	default:
		log.Printf("❌ Erreur auth %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
	}
}

// RequestCode - POST /auth/otp/request
func (h *Handler) RequestCode(c *gin.Context) {
	var input codeRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email ou téléphone requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	id, err := h.auth.RequestCode(ctx, input.Email, input.Phone)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Code envoyé",
		"channel": id.Kind,
	})
}

// VerifyCode - POST /auth/otp/verify
func (h *Handler) VerifyCode(c *gin.Context) {
	var input verifyRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code requis"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := h.auth.Login(ctx, input.Email, input.Phone, input.Code)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	log.Printf("🔐 Connexion réussie: %s (%s)", result.User.ID.Hex(), result.User.Role)
	c.JSON(http.StatusOK, result)
}

// Me - GET /auth/me
func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.auth.Me(ctx, c.GetString("user_id"))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateMe - PUT /auth/me
func (h *Handler) UpdateMe(c *gin.Context) {
	var input auth.ProfileUpdate
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Requête invalide"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.auth.UpdateProfile(ctx, c.GetString("user_id"), input)
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
