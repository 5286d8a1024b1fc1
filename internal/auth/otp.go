package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrChallengeNotFound = errors.New("aucun code en attente ou code expiré")
	ErrInvalidCode       = errors.New("code invalide")
	ErrTooManyAttempts   = errors.New("trop de tentatives, demandez un nouveau code")
)

const codeDigits = 6

// Challenge - code OTP en attente, stocké haché
type Challenge struct {
	Hash     string
	Attempts int
}

// ChallengeStore conserve les challenges OTP avec expiration
type ChallengeStore interface {
	Save(ctx context.Context, key string, ch Challenge, ttl time.Duration) error
	// Load renvoie ErrChallengeNotFound si le challenge est absent ou expiré
	Load(ctx context.Context, key string) (*Challenge, error)
	// Attempt incrémente le compteur et retourne le challenge en une seule
	// opération atomique : Attempts inclut la tentative en cours.
	Attempt(ctx context.Context, key string) (*Challenge, error)
	// Consume supprime le challenge s'il porte encore ce hash.
	// Un seul appelant obtient true.
	Consume(ctx context.Context, key, hash string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// CodeSender délivre le code à l'utilisateur (email ou SMS)
type CodeSender interface {
	SendCode(ctx context.Context, to, code string, ttl time.Duration) error
}

type OTPOptions struct {
	TTL         time.Duration
	MaxAttempts int
}

type OTPService struct {
	store   ChallengeStore
	senders map[string]CodeSender
	opts    OTPOptions
	newCode func() (string, error)
	cost    int
}

// NewOTPService - senders est indexé par type d'identité (KindEmail, KindPhone)
func NewOTPService(store ChallengeStore, senders map[string]CodeSender, opts OTPOptions) *OTPService {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	return &OTPService{store: store, senders: senders, opts: opts, newCode: generateCode, cost: bcrypt.DefaultCost}
}

func generateCode() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

// Request génère un nouveau code, remplace le challenge précédent et l'envoie
func (s *OTPService) Request(ctx context.Context, id Identity) error {
	sender, ok := s.senders[id.Kind]
	if !ok {
		return fmt.Errorf("%w: aucun envoi configuré pour %s", ErrInvalidIdentity, id.Kind)
	}

	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("génération code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hachage code: %w", err)
	}

	if err := s.store.Save(ctx, id.Key(), Challenge{Hash: string(hash)}, s.opts.TTL); err != nil {
		return fmt.Errorf("enregistrement challenge: %w", err)
	}
	if err := sender.SendCode(ctx, id.Value, code, s.opts.TTL); err != nil {
		_ = s.store.Delete(ctx, id.Key())
		return fmt.Errorf("envoi code: %w", err)
	}

	log.Printf("🔐 Code OTP envoyé (%s)", id.Kind)
	return nil
}

// Verify contrôle le code. Le compteur est incrémenté avant la comparaison,
// donc au plus MaxAttempts codes sont évalués par challenge. Le challenge est
// supprimé après succès ou quand le nombre maximal de tentatives est atteint.
func (s *OTPService) Verify(ctx context.Context, id Identity, code string) error {
	key := id.Key()
	ch, err := s.store.Attempt(ctx, key)
	if err != nil {
		return err
	}
	if ch.Attempts > s.opts.MaxAttempts {
		_ = s.store.Delete(ctx, key)
		return ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(ch.Hash), []byte(code)) != nil {
		if ch.Attempts >= s.opts.MaxAttempts {
			_ = s.store.Delete(ctx, key)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	consumed, err := s.store.Consume(ctx, key, ch.Hash)
	if err != nil {
		return fmt.Errorf("consommation challenge: %w", err)
	}
	if !consumed {
		// déjà utilisé par une requête concurrente
		return ErrChallengeNotFound
	}
	return nil
}
