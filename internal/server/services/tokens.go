// Package services contains the authentication core: the session manager,
// the email verification flow and the orchestrator that combines them.
package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// maxTokenAttempts bounds regeneration after a token collision.
const maxTokenAttempts = 3

// TokenGenerator mints opaque bearer and verification tokens.
type TokenGenerator interface {
	Generate() (string, error)
}

// RandomTokenGenerator draws common.TokenBytes bytes from crypto/rand and
// hex-encodes them.
type RandomTokenGenerator struct{}

func (RandomTokenGenerator) Generate() (string, error) {
	return common.MakeRandHexString(common.TokenBytes)
}

// withFreshToken calls store with newly generated tokens until it succeeds,
// fails with something other than a conflict, or runs out of attempts.
func withFreshToken(gen TokenGenerator, store func(token string) error) error {
	for attempt := 1; ; attempt++ {
		token, err := gen.Generate()
		if err != nil {
			return internalError("generate token", err)
		}

		err = store(token)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrorConflict) {
			return internalError("store token", err)
		}
		if attempt == maxTokenAttempts {
			return internalError("store token", fmt.Errorf("collision after %d attempts", attempt))
		}
	}
}

// internalError hides err behind common.ErrorInternal. The cause stays in the
// message for logs but is not matchable, so kinds from the storage layer do
// not leak to callers.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", common.ErrorInternal, op, err)
}
