// Package session tracks who is using the application right now. The pointer
// is restored from the store at startup and written through on every change.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jeanpaul/sakemate/internal/logging"
	"github.com/jeanpaul/sakemate/internal/store"
	"github.com/jeanpaul/sakemate/internal/types"
)

var (
	ErrUnknownUser = errors.New("unknown user")
	ErrNoSession   = errors.New("no user selected")
)

type Session struct {
	mu      sync.RWMutex
	store   *store.Store
	current *types.User
}

// Load restores the persisted current user, if any.
func Load(ctx context.Context, st *store.Store) *Session {
	s := &Session{store: st}
	if u, ok := st.CurrentUser(ctx); ok {
		s.current = &u
		logging.Ctx(ctx).Debug().Str("user_id", u.ID).Msg("session restored")
	}
	return s
}

func (s *Session) Current() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return types.User{}, false
	}
	return *s.current, true
}

// Require is Current with ErrNoSession for the empty case.
func (s *Session) Require() (types.User, error) {
	u, ok := s.Current()
	if !ok {
		return types.User{}, ErrNoSession
	}
	return u, nil
}

// Select makes userID the current user. The id must belong to a stored user.
func (s *Session) Select(ctx context.Context, userID string) (types.User, error) {
	u, ok := s.store.FindUser(ctx, userID)
	if !ok {
		return types.User{}, ErrUnknownUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SetCurrentUser(ctx, u); err != nil {
		return types.User{}, err
	}
	s.current = &u
	logging.Ctx(ctx).Info().Str("user_id", u.ID).Str("name", u.Name).Msg("user selected")
	return u, nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ClearCurrentUser(ctx); err != nil {
		return err
	}
	s.current = nil
	return nil
}

// Reset forgets the in-memory pointer without touching storage; used after
// the store itself was cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}
