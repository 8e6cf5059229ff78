// Package auth signs and checks the OAuth "state" parameter that ties a
// provider callback to the redirect this server issued.
package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultStateTTL bounds the time between redirect and callback.
const DefaultStateTTL = 10 * time.Minute

const stateIssuer = "gophauth"

// StateClaims is the payload of a signed state. Provider is carried in the
// subject claim.
type StateClaims struct {
	jwt.RegisteredClaims
	Nonce string `json:"nonce"`
}

// StateSigner issues HS256 state tokens and verifies them on callback.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewStateSigner(secret []byte, ttl time.Duration) *StateSigner {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &StateSigner{secret: secret, ttl: ttl, now: time.Now}
}

// Issue returns a signed state for provider.
func (s *StateSigner) Issue(provider string) (string, error) {
	nonce, err := common.MakeRandHexString(16)
	if err != nil {
		return "", fmt.Errorf("state nonce: %w", err)
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, StateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			Subject:   provider,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Nonce: nonce,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and provider. Every failure is reported as
// common.ErrOAuthStateInvalid.
func (s *StateSigner) Verify(state, provider string) error {
	claims := &StateClaims{}

	token, err := jwt.ParseWithClaims(state, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithSubject(provider),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.Nonce == "" {
		return common.ErrOAuthStateInvalid
	}
	return nil
}
