package auth

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"essence_back_end/internal/models"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name         string
		email, phone string
		want         Identity
		wantErr      bool
	}{
		{"email lowercased", "  Client@Essence.Local ", "", Identity{KindEmail, "client@essence.local"}, false},
		{"email wins", "a@b.fr", "+33612345678", Identity{KindEmail, "a@b.fr"}, false},
		{"phone with separators", "", "+33 6 12-34.56.78", Identity{KindPhone, "+33612345678"}, false},
		{"local phone", "", "0612345678", Identity{KindPhone, "0612345678"}, false},
		{"bad email", "not-an-email", "", Identity{}, true},
		{"display name rejected", "Bob <bob@x.fr>", "", Identity{}, true},
		{"short phone", "", "12345", Identity{}, true},
		{"letters in phone", "", "+33abc12345", Identity{}, true},
		{"plus in the middle", "", "33+612345678", Identity{}, true},
		{"nothing", "", " ", Identity{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseIdentity(tc.email, tc.phone)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIdentity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestOTP_RequestAndVerify(t *testing.T) {
	otp, store, mail, _ := newTestOTP(3)
	ctx := context.Background()
	id := Identity{KindEmail, "client@essence.local"}

	require.NoError(t, otp.Request(ctx, id))
	code := mail.last[id.Value]
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	ch, err := store.Load(ctx, id.Key())
	require.NoError(t, err)
	assert.NotEqual(t, code, ch.Hash)

	require.NoError(t, otp.Verify(ctx, id, code))
	assert.False(t, store.has(id.Key()))

	// un code ne sert qu'une fois
	assert.ErrorIs(t, otp.Verify(ctx, id, code), ErrChallengeNotFound)
}

func TestOTP_PhoneUsesSMSSender(t *testing.T) {
	otp, _, mail, sms := newTestOTP(3)
	id := Identity{KindPhone, "+33612345678"}

	require.NoError(t, otp.Request(context.Background(), id))
	assert.Len(t, sms.last, 1)
	assert.Empty(t, mail.last)
}

func TestOTP_WrongCodeThenLockout(t *testing.T) {
	otp, store, mail, _ := newTestOTP(3)
	ctx := context.Background()
	id := Identity{KindEmail, "client@essence.local"}
	otp.newCode = func() (string, error) { return "123456", nil }

	require.NoError(t, otp.Request(ctx, id))
	require.Equal(t, "123456", mail.last[id.Value])

	assert.ErrorIs(t, otp.Verify(ctx, id, "000000"), ErrInvalidCode)
	assert.ErrorIs(t, otp.Verify(ctx, id, "111111"), ErrInvalidCode)
	assert.ErrorIs(t, otp.Verify(ctx, id, "222222"), ErrTooManyAttempts)
	assert.False(t, store.has(id.Key()))

	// le bon code ne passe plus après verrouillage
	assert.ErrorIs(t, otp.Verify(ctx, id, "123456"), ErrChallengeNotFound)
}

func TestOTP_ParallelGuessesRespectLimit(t *testing.T) {
	otp, store, _, _ := newTestOTP(5)
	ctx := context.Background()
	id := Identity{KindEmail, "client@essence.local"}
	otp.newCode = func() (string, error) { return "123456", nil }
	require.NoError(t, otp.Request(ctx, id))

	const guesses = 20
	results := make(chan error, guesses)
	var wg sync.WaitGroup
	for i := 0; i < guesses; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- otp.Verify(ctx, id, "000000")
		}()
	}
	wg.Wait()
	close(results)

	invalid := 0
	for err := range results {
		if errors.Is(err, ErrInvalidCode) {
			invalid++
		}
	}
	// seules les 4 premières tentatives sont de simples erreurs, la 5e verrouille
	assert.Equal(t, 4, invalid)
	assert.False(t, store.has(id.Key()))
	assert.ErrorIs(t, otp.Verify(ctx, id, "123456"), ErrChallengeNotFound)
}

func TestOTP_CodeIsSingleUseUnderConcurrency(t *testing.T) {
	otp, _, mail, _ := newTestOTP(5)
	ctx := context.Background()
	id := Identity{KindEmail, "client@essence.local"}
	require.NoError(t, otp.Request(ctx, id))
	code := mail.last[id.Value]

	var wg sync.WaitGroup
	var accepted atomic.Int32
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if otp.Verify(ctx, id, code) == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), accepted.Load())
}

func TestOTP_NewRequestResetsAttempts(t *testing.T) {
	otp, _, mail, _ := newTestOTP(2)
	ctx := context.Background()
	id := Identity{KindEmail, "client@essence.local"}

	require.NoError(t, otp.Request(ctx, id))
	assert.ErrorIs(t, otp.Verify(ctx, id, "wrong"), ErrInvalidCode)

	require.NoError(t, otp.Request(ctx, id))
	require.NoError(t, otp.Verify(ctx, id, mail.last[id.Value]))
}

func TestOTP_SendFailureDropsChallenge(t *testing.T) {
	otp, store, mail, _ := newTestOTP(3)
	mail.err = errors.New("smtp down")
	id := Identity{KindEmail, "client@essence.local"}

	err := otp.Request(context.Background(), id)
	assert.ErrorContains(t, err, "smtp down")
	assert.False(t, store.has(id.Key()))
}

func TestTokens_IssueAndParse(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	user := &models.User{ID: primitive.NewObjectID(), Email: "a@b.fr", Role: models.RoleAdmin}

	signed, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "a@b.fr", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = NewTokens("other", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.Issue(&models.User{ID: primitive.NewObjectID(), Role: models.RoleCustomer})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "x", Role: models.RoleAdmin})
	s, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("secret", time.Hour).Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func newTestService(admins ...string) (*Service, *memUsers, *captureSender) {
	otp, _, mail, _ := newTestOTP(3)
	otp.newCode = func() (string, error) { return "424242", nil }
	users := newMemUsers()
	return NewService(otp, users, NewTokens("secret", time.Hour), admins), users, mail
}

func TestService_LoginCreatesCustomer(t *testing.T) {
	svc, users, _ := newTestService("boss@essence.local")
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "Client@Essence.local", "")
	require.NoError(t, err)

	res, err := svc.Login(ctx, "client@essence.local", "", " 424242 ")
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.Equal(t, "client@essence.local", res.User.Email)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 1, users.count())

	claims, err := svc.tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.Hex(), claims.UserID)
}

func TestService_AdminIdentities(t *testing.T) {
	svc, _, _ := newTestService("boss@essence.local", "+33 6 00 00 00 01", "garbage")
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "", "+33600000001")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "", "+33600000001", "424242")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)
	assert.Equal(t, "+33600000001", res.User.Phone)
}

func TestService_ExistingUserRoleRecomputed(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	existing := &models.User{Email: "old@essence.local", Role: models.RoleAdmin}
	require.NoError(t, users.Create(ctx, existing))

	_, err := svc.RequestCode(ctx, "old@essence.local", "")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "old@essence.local", "", "424242")
	require.NoError(t, err)

	assert.False(t, res.IsNewUser)
	assert.Equal(t, existing.ID, res.User.ID)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.Equal(t, 1, users.count())
}

func TestService_WrongCodeCreatesNothing(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	_, err := svc.RequestCode(ctx, "client@essence.local", "")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "client@essence.local", "", "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Zero(t, users.count())
}

func TestService_UpdateProfile(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	u := &models.User{Email: "client@essence.local", Role: models.RoleCustomer}
	require.NoError(t, users.Create(ctx, u))

	name := "Amira"
	updated, err := svc.UpdateProfile(ctx, u.ID.Hex(), ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Amira", updated.Name)

	_, err = svc.Me(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestProfileUpdate_Set(t *testing.T) {
	name, addr := "  Amira ", "12 rue des Lilas"
	set := ProfileUpdate{Name: &name, Address: &addr}.Set()
	assert.Equal(t, bson.M{"name": "Amira", "address": "12 rue des Lilas"}, set)
	assert.Empty(t, ProfileUpdate{}.Set())
}
