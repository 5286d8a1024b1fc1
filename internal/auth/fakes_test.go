package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"essence_back_end/internal/models"
)

type memChallenges struct {
	mu   sync.Mutex
	data map[string]*Challenge
}


func newMemChallenges() *memChallenges { return &memChallenges{data: map[string]*Challenge{}} }

func (m *memChallenges) Save(_ context.Context, key string, ch Challenge, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = &ch
	return nil
}

func (m *memChallenges) Load(_ context.Context, key string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.data[key]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	copied := *ch
	return &copied, nil
}

func (m *memChallenges) Attempt(_ context.Context, key string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.data[key]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	ch.Attempts++
	copied := *ch
	return &copied, nil
}

func (m *memChallenges) Consume(_ context.Context, key, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.data[key]
	if !ok || ch.Hash != hash {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}

func (m *memChallenges) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memChallenges) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type captureSender struct {
	last map[string]string
	err  error
}

func newCaptureSender() *captureSender { return &captureSender{last: map[string]string{}} }

func (s *captureSender) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.last[to] = code
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[primitive.ObjectID]*models.User{}} }

func (m *memUsers) FindByIdentity(_ context.Context, id Identity) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if (id.Kind == KindEmail && u.Email == id.Value) || (id.Kind == KindPhone && u.Phone == id.Value) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	u, ok := m.users[oid]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	copied := *u
	m.users[u.ID] = &copied
	return nil
}

func (m *memUsers) RecordLogin(_ context.Context, id primitive.ObjectID, role string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return errors.New("absent")
	}
	u.Role, u.LastLoginAt = role, at
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id string, p ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	oid, _ := primitive.ObjectIDFromHex(id)
	u, ok := m.users[oid]
	if !ok {
		m.mu.Unlock()
		return nil, ErrUserNotFound
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Address != nil {
		u.Address = *p.Address
	}
	m.mu.Unlock()
	return m.FindByID(context.Background(), id)
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

// newTestOTP - coût bcrypt minimal pour garder les tests rapides
func newTestOTP(maxAttempts int) (*OTPService, *memChallenges, *captureSender, *captureSender) {
	store := newMemChallenges()
	mail, sms := newCaptureSender(), newCaptureSender()
	otp := NewOTPService(store, map[string]CodeSender{KindEmail: mail, KindPhone: sms},
		OTPOptions{TTL: time.Minute, MaxAttempts: maxAttempts})
	otp.cost = bcrypt.MinCost
	return otp, store, mail, sms
}
