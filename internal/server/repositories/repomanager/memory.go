package repomanager

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verifications"
	"github.com/google/uuid"
)

// MemoryRepositoryManager keeps all records in process memory. Transactions
// are serialized: WithTx holds the store lock, works on a copy of the state
// and swaps the copy in only when fn succeeds.
type MemoryRepositoryManager struct {
	mu    *sync.Mutex // nil inside a transaction
	state *memState
	now   func() time.Time
}

type memState struct {
	users               map[string]*models.User
	userByEmail         map[string]string
	verifications       map[string]*models.EmailVerification
	verificationByToken map[string]string
	sessions            map[string]*models.Session
	sessionByToken      map[string]string
}

func newMemState() *memState {
	return &memState{
		users:               map[string]*models.User{},
		userByEmail:         map[string]string{},
		verifications:       map[string]*models.EmailVerification{},
		verificationByToken: map[string]string{},
		sessions:            map[string]*models.Session{},
		sessionByToken:      map[string]string{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for k, v := range s.userByEmail {
		c.userByEmail[k] = v
	}
	for id, v := range s.verifications {
		cp := *v
		c.verifications[id] = &cp
	}
	for k, v := range s.verificationByToken {
		c.verificationByToken[k] = v
	}
	for id, v := range s.sessions {
		cp := *v
		c.sessions[id] = &cp
	}
	for k, v := range s.sessionByToken {
		c.sessionByToken[k] = v
	}
	return c
}

// NewMemoryRepositoryManager returns an empty in-memory store.
func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		mu:    &sync.Mutex{},
		state: newMemState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepositoryManager) do(ctx context.Context, fn func(s *memState) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.mu != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	return fn(m.state)
}

func (m *MemoryRepositoryManager) Users() users.Repository { return &memUsers{m: m} }

func (m *MemoryRepositoryManager) Sessions() sessions.Repository { return &memSessions{m: m} }

func (m *MemoryRepositoryManager) Verifications() verifications.Repository {
	return &memVerifications{m: m}
}

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx RepositoryManager) error) error {
	if m.mu == nil {
		return fn(ctx, m)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &MemoryRepositoryManager{state: m.state.clone(), now: m.now}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error { return ctx.Err() }

func (m *MemoryRepositoryManager) Close() error { return nil }

type memUsers struct{ m *MemoryRepositoryManager }

func (r *memUsers) Create(ctx context.Context, user *models.User) (*models.User, error) {
	err := r.m.do(ctx, func(s *memState) error {
		if _, ok := s.userByEmail[user.Email]; ok {
			return common.ErrorConflict
		}
		now := r.m.now()
		user.ID = uuid.NewString()
		user.CreatedAt = now
		user.UpdatedAt = now
		s.users[user.ID] = user.Clone()
		s.userByEmail[user.Email] = user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *memUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var out *models.User
	err := r.m.do(ctx, func(s *memState) error {
		u, ok := s.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (r *memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := r.m.do(ctx, func(s *memState) error {
		id, ok := s.userByEmail[email]
		if !ok {
			return common.ErrorNotFound
		}
		out = s.users[id].Clone()
		return nil
	})
	return out, err
}

func (r *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.m.do(ctx, func(s *memState) error {
		_, exists = s.userByEmail[email]
		return nil
	})
	return exists, err
}

func (r *memUsers) MarkEmailVerified(ctx context.Context, id string) error {
	return r.update(ctx, id, func(u *models.User) { u.IsEmailVerified = true })
}

func (r *memUsers) UpdateAvatar(ctx context.Context, id string, avatar string) error {
	return r.update(ctx, id, func(u *models.User) { u.Avatar = &avatar })
}

func (r *memUsers) update(ctx context.Context, id string, apply func(u *models.User)) error {
	return r.m.do(ctx, func(s *memState) error {
		u, ok := s.users[id]
		if !ok {
			return common.ErrorNotFound
		}
		apply(u)
		u.UpdatedAt = r.m.now()
		return nil
	})
}

type memSessions struct{ m *MemoryRepositoryManager }

func (r *memSessions) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	err := r.m.do(ctx, func(s *memState) error {
		if _, ok := s.users[session.UserID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := s.sessionByToken[session.Token]; ok {
			return common.ErrorConflict
		}
		session.ID = uuid.NewString()
		session.CreatedAt = r.m.now()
		stored := *session
		stored.User = nil
		s.sessions[session.ID] = &stored
		s.sessionByToken[session.Token] = session.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *memSessions) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	var out *models.Session
	err := r.m.do(ctx, func(s *memState) error {
		id, ok := s.sessionByToken[token]
		if !ok {
			return common.ErrorNotFound
		}
		cp := *s.sessions[id]
		cp.User = s.users[cp.UserID].Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r *memSessions) DeleteByToken(ctx context.Context, token string) (int64, error) {
	var n int64
	err := r.m.do(ctx, func(s *memState) error {
		if id, ok := s.sessionByToken[token]; ok {
			delete(s.sessions, id)
			delete(s.sessionByToken, token)
			n = 1
		}
		return nil
	})
	return n, err
}

func (r *memSessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.m.do(ctx, func(s *memState) error {
		for id, sess := range s.sessions {
			if sess.ExpiresAt.Before(now) {
				delete(s.sessions, id)
				delete(s.sessionByToken, sess.Token)
				n++
			}
		}
		return nil
	})
	return n, err
}

type memVerifications struct{ m *MemoryRepositoryManager }

func (r *memVerifications) Create(ctx context.Context, v *models.EmailVerification) (*models.EmailVerification, error) {
	err := r.m.do(ctx, func(s *memState) error {
		if _, ok := s.users[v.UserID]; !ok {
			return common.ErrorNotFound
		}
		if _, ok := s.verificationByToken[v.Token]; ok {
			return common.ErrorConflict
		}
		v.ID = uuid.NewString()
		v.CreatedAt = r.m.now()
		stored := *v
		stored.User = nil
		s.verifications[v.ID] = &stored
		s.verificationByToken[v.Token] = v.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *memVerifications) FindByToken(ctx context.Context, token string) (*models.EmailVerification, error) {
	var out *models.EmailVerification
	err := r.m.do(ctx, func(s *memState) error {
		id, ok := s.verificationByToken[token]
		if !ok {
			return common.ErrorNotFound
		}
		cp := *s.verifications[id]
		cp.User = s.users[cp.UserID].Clone()
		out = &cp
		return nil
	})
	return out, err
}

func (r *memVerifications) MarkUsed(ctx context.Context, id string) (bool, error) {
	var flipped bool
	err := r.m.do(ctx, func(s *memState) error {
		v, ok := s.verifications[id]
		if ok && !v.IsUsed {
			v.IsUsed = true
			flipped = true
		}
		return nil
	})
	return flipped, err
}
