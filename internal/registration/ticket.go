package registration

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrTicketInvalid = errors.New("registration ticket invalid or expired")

const ticketIssuer = "openidgate"

type ticketClaims struct {
	Brokerage string `json:"brk"`
	jwt.RegisteredClaims
}

// Tickets signs and verifies the opaque handle of a parked registration.
type Tickets struct {
	secret []byte
	now    func() time.Time
}

func NewTickets(secret []byte) *Tickets {
	return &Tickets{secret: secret, now: time.Now}
}

func (t *Tickets) Sign(id, brokerage string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := ticketClaims{
		Brokerage: brokerage,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Issuer:    ticketIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify returns the ticket id.
func (t *Tickets) Verify(raw string) (string, error) {
	var claims ticketClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTicketInvalid, err)
	}
	if claims.ID == "" {
		return "", ErrTicketInvalid
	}
	return claims.ID, nil
}
