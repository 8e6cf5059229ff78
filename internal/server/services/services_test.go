package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/mail"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *captureMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *captureMailer) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	return m.sent[len(m.sent)-1]
}

// seqTokens hands out the queued tokens first, then random ones.
type seqTokens struct {
	mu    sync.Mutex
	queue []string
	err   error
}

func (g *seqTokens) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if len(g.queue) > 0 {
		tok := g.queue[0]
		g.queue = g.queue[1:]
		return tok, nil
	}
	return RandomTokenGenerator{}.Generate()
}

type fixture struct {
	repos         *repomanager.MemoryRepositoryManager
	mailer        *captureMailer
	sessionTokens *seqTokens
	verifyTokens  *seqTokens
	sessions      *SessionService
	verifications *VerificationService
	auth          *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repos:         repomanager.NewMemoryRepositoryManager(),
		mailer:        &captureMailer{},
		sessionTokens: &seqTokens{},
		verifyTokens:  &seqTokens{},
	}
	log := logging.NopLogger{}
	f.sessions = NewSessionService(f.repos, f.sessionTokens, 0, log)
	f.verifications = NewVerificationService(f.repos, f.verifyTokens, f.mailer, "http://app", 0, log)
	f.auth = NewAuthService(f.repos, cryptox.NewBcryptHasher(bcrypt.MinCost), f.sessions, f.verifications, log)
	return f
}

var tokenInLink = regexp.MustCompile(`verify-email\?token=([0-9a-f]+)`)

// register creates an account and returns the verification token from the
// email it triggered.
func (f *fixture) register(t *testing.T, email, password string) string {
	t.Helper()
	_, err := f.auth.Register(context.Background(), RegisterRequest{Email: email, Password: password})
	require.NoError(t, err)

	m := tokenInLink.FindStringSubmatch(f.mailer.last(t).Body)
	require.Len(t, m, 2, "verification link missing from email")
	return m[1]
}

// registerVerified creates an account and redeems its verification token.
func (f *fixture) registerVerified(t *testing.T, email, password string) {
	t.Helper()
	tok := f.register(t, email, password)
	_, err := f.auth.VerifyEmail(context.Background(), tok)
	require.NoError(t, err)
}

var errBoom = errors.New("boom")
