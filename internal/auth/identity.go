package auth

import (
	"errors"
	"net/mail"
	"strings"
)

const (
	KindEmail = "email"
	KindPhone = "phone"
)

var ErrInvalidIdentity = errors.New("email ou téléphone invalide")

// Identity - email ou numéro de téléphone auquel on envoie le code
type Identity struct {
	Kind  string
	Value string
}

// Key identifie le challenge OTP dans Redis
func (id Identity) Key() string { return id.Kind + ":" + id.Value }

// ParseIdentity normalise l'identité fournie. L'email est prioritaire si les deux sont renseignés.
func ParseIdentity(email, phone string) (Identity, error) {
	if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return Identity{}, ErrInvalidIdentity
		}
		return Identity{Kind: KindEmail, Value: email}, nil
	}

	if phone = normalizePhone(phone); phone != "" {
		return Identity{Kind: KindPhone, Value: phone}, nil
	}
	return Identity{}, ErrInvalidIdentity
}

// normalizePhone garde le + initial et les chiffres, et refuse les longueurs hors E.164
func normalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
		default:
			return ""
		}
	}
	phone := b.String()
	digits := strings.TrimPrefix(phone, "+")
	if len(digits) < 8 || len(digits) > 15 {
		return ""
	}
	return phone
}
