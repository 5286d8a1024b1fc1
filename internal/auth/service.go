package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"essence_back_end/internal/models"
)

// Service - connexion sans mot de passe par code à usage unique
type Service struct {
	otp    *OTPService
	users  UserStore
	tokens *Tokens
	admins map[string]bool
	now    func() time.Time
}

type LoginResult struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	IsNewUser bool         `json:"is_new_user"`
}

// NewService - adminIdentities contient des emails ou des téléphones
func NewService(otp *OTPService, users UserStore, tokens *Tokens, adminIdentities []string) *Service {
	admins := map[string]bool{}
	for _, raw := range adminIdentities {
		var id Identity
		var err error
		if strings.Contains(raw, "@") {
			id, err = ParseIdentity(raw, "")
		} else {
			id, err = ParseIdentity("", raw)
		}
		if err != nil {
			log.Printf("⚠️ Identité admin ignorée: %q", raw)
			continue
		}
		admins[id.Key()] = true
	}
	return &Service{otp: otp, users: users, tokens: tokens, admins: admins, now: time.Now}
}

func (s *Service) roleFor(id Identity) string {
	if s.admins[id.Key()] {
		return models.RoleAdmin
	}
	return models.RoleCustomer
}

// RequestCode envoie un code à l'email ou au téléphone
func (s *Service) RequestCode(ctx context.Context, email, phone string) (Identity, error) {
	id, err := ParseIdentity(email, phone)
	if err != nil {
		return Identity{}, err
	}
	return id, s.otp.Request(ctx, id)
}

// Login vérifie le code puis retrouve ou crée l'utilisateur.
// Le rôle est recalculé à chaque connexion depuis la liste des admins.
func (s *Service) Login(ctx context.Context, email, phone, code string) (*LoginResult, error) {
	id, err := ParseIdentity(email, phone)
	if err != nil {
		return nil, err
	}
	if err := s.otp.Verify(ctx, id, strings.TrimSpace(code)); err != nil {
		return nil, err
	}

	now := s.now()
	role := s.roleFor(id)
	isNew := false

	user, err := s.users.FindByIdentity(ctx, id)
	switch {
	case errors.Is(err, ErrUserNotFound):
		user = &models.User{Role: role, CreatedAt: now, LastLoginAt: now}
		if id.Kind == KindEmail {
			user.Email = id.Value
		} else {
			user.Phone = id.Value
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
		isNew = true
		log.Printf("✅ Nouvel utilisateur %s (%s)", user.ID.Hex(), role)
	case err != nil:
		return nil, err
	default:
		user.Role = role
		user.LastLoginAt = now
		if err := s.users.RecordLogin(ctx, user.ID, role, now); err != nil {
			log.Printf("⚠️ Erreur mise à jour dernière connexion: %v", err)
		}
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, User: user, IsNewUser: isNew}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, p ProfileUpdate) (*models.User, error) {
	return s.users.UpdateProfile(ctx, userID, p)
}
