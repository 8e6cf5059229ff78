package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const (
	MsgRegistered    = "Registration successful. Please check your email to verify your account."
	MsgEmailVerified = "Email verified successfully"
	MsgLoggedOut     = "Logged out successfully"
)

// dummyPassword is hashed once and compared against when the account is
// missing, so a failed login costs one bcrypt comparison either way.
const dummyPassword = "gophauth-dummy-password"

type RegisterRequest struct {
	Email    string
	Password string
	Name     *string
}

type RegisterResult struct {
	User    *models.PublicUser
	Message string
}

type LoginResult struct {
	User  *models.PublicUser
	Token string
}

// AuthService orchestrates registration, login, logout, token validation,
// email verification and OAuth account linking.
type AuthService struct {
	repos         repomanager.RepositoryManager
	hasher        cryptox.Hasher
	sessions      *SessionService
	verifications *VerificationService
	logger        logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(
	repos repomanager.RepositoryManager,
	hasher cryptox.Hasher,
	sessions *SessionService,
	verifications *VerificationService,
	logger logging.Logger,
) *AuthService {
	return &AuthService{
		repos:         repos,
		hasher:        hasher,
		sessions:      sessions,
		verifications: verifications,
		logger:        logger.With("module", "auth"),
	}
}

// Register creates an unverified account and sends the verification email.
// A verification failure is logged and does not fail the registration.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, common.ErrEmailRequired
	}
	if req.Password == "" {
		return nil, common.ErrPasswordRequired
	}

	exists, err := s.repos.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, internalError("check email", err)
	}
	if exists {
		return nil, common.ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, common.ErrPasswordTooLong) {
			return nil, err
		}
		return nil, internalError("hash password", err)
	}

	user, err := s.repos.Users().Create(ctx, &models.User{
		Email:        email,
		Name:         normalizeName(req.Name),
		PasswordHash: &hash,
	})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrEmailAlreadyExists
		}
		return nil, internalError("create user", err)
	}

	if _, err := s.verifications.Issue(ctx, user); err != nil {
		s.logger.Error(ctx, "verification not issued", "user_id", user.ID, "error", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return &RegisterResult{User: user.Public(), Message: MsgRegistered}, nil
}

// Login checks credentials and opens a session. Unknown accounts, accounts
// without a password and wrong passwords all yield
// common.ErrInvalidCredentials. Correct credentials on an unverified account
// yield common.ErrEmailNotVerified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, common.ErrEmailRequired
	}
	if password == "" {
		return nil, common.ErrPasswordRequired
	}

	user, err := s.repos.Users().FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, internalError("find user", err)
	}
	if user == nil || user.PasswordHash == nil {
		s.burnComparison(password)
		return nil, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, *user.PasswordHash)
	if err != nil {
		return nil, internalError("verify password", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	if !user.IsEmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Public(), Token: token}, nil
}

// Logout revokes token. It reports success whether or not the token existed.
func (s *AuthService) Logout(ctx context.Context, token string) (string, error) {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return "", err
	}
	return MsgLoggedOut, nil
}

// ValidateToken resolves a bearer token to its user, or nil.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.PublicUser, error) {
	return s.sessions.Validate(ctx, token)
}

func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	if err := s.verifications.Redeem(ctx, token); err != nil {
		return "", err
	}
	return MsgEmailVerified, nil
}

// CheckEmailExists reports whether an account uses email exactly as given.
func (s *AuthService) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	exists, err := s.repos.Users().ExistsByEmail(ctx, email)
	if err != nil {
		return false, internalError("check email", err)
	}
	return exists, nil
}

// OAuthLogin links a provider identity to an account, creating a verified
// password-less account on first sight, and always opens a new session.
// Existing accounts are not modified.
func (s *AuthService) OAuthLogin(ctx context.Context, profile models.OAuthProfile) (*LoginResult, error) {
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		return nil, common.ErrOAuthProfileIncomplete
	}

	user, err := s.repos.Users().FindByEmail(ctx, email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		user, err = s.createOAuthUser(ctx, email, profile)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, internalError("find user", err)
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user.Public(), Token: token}, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, email string, profile models.OAuthProfile) (*models.User, error) {
	user, err := s.repos.Users().Create(ctx, &models.User{
		Email:           email,
		Name:            normalizeName(profile.Name),
		IsEmailVerified: true,
		Avatar:          normalizeName(profile.Picture),
	})
	if err == nil {
		s.logger.Info(ctx, "user created from oauth profile", "user_id", user.ID)
		return user, nil
	}
	if !errors.Is(err, common.ErrorConflict) {
		return nil, internalError("create user", err)
	}

	// created concurrently; link to the winner
	user, err = s.repos.Users().FindByEmail(ctx, email)
	if err != nil {
		return nil, internalError("find user", err)
	}
	return user, nil
}

// UpdateAvatar stores a new avatar reference for the user.
func (s *AuthService) UpdateAvatar(ctx context.Context, userID, avatar string) error {
	if err := s.repos.Users().UpdateAvatar(ctx, userID, avatar); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return internalError("update avatar", err)
	}
	return nil
}

// Ping reports whether the store is reachable.
func (s *AuthService) Ping(ctx context.Context) error {
	return s.repos.Ping(ctx)
}

func (s *AuthService) burnComparison(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(password, s.dummyHash)
	}
}

func normalizeName(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
