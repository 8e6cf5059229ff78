// Package cryptox holds the credential hasher used to store and check
// account passwords.
package cryptox

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the work factor accounts were historically hashed with.
const DefaultCost = 10

// maxPasswordBytes is the longest input bcrypt hashes without truncation.
const maxPasswordBytes = 72

// ErrMalformedDigest is returned by Verify when the stored digest cannot be parsed.
var ErrMalformedDigest = errors.New("malformed password digest")

// Hasher turns plaintext passwords into self-describing digests and checks
// candidates against them.
type Hasher interface {
	// Hash returns a salted digest that is safe to persist.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A mismatch is not an
	// error; only an unparseable digest is.
	Verify(plaintext, digest string) (bool, error)
}

// BcryptHasher implements Hasher with bcrypt at a fixed cost.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, clamped to bcrypt's valid range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Cost returns the bcrypt work factor used for new digests.
func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	b := []byte(plaintext)
	defer common.WipeByteArray(b)

	digest, err := bcrypt.GenerateFromPassword(b, h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) (bool, error) {
	// bcrypt truncates longer input, so a matching prefix would pass
	if len(plaintext) > maxPasswordBytes {
		return false, nil
	}

	b := []byte(plaintext)
	defer common.WipeByteArray(b)

	err := bcrypt.CompareHashAndPassword([]byte(digest), b)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrHashTooShort):
		return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
	default:
		var (
			prefixErr  bcrypt.InvalidHashPrefixError
			versionErr bcrypt.HashVersionTooNewError
			costErr    bcrypt.InvalidCostError
		)
		if errors.As(err, &prefixErr) || errors.As(err, &versionErr) || errors.As(err, &costErr) {
			return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
		}
		return false, err
	}
}
