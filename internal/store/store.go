// Package store keeps users, sake brands and the current-user pointer in a
// flat key-value area. Every write rewrites the whole collection under its
// key, which is fine for a handful of users and a few dozen brands.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/jeanpaul/sakemate/internal/kv"
	"github.com/jeanpaul/sakemate/internal/logging"
	"github.com/jeanpaul/sakemate/internal/metrics"
	"github.com/jeanpaul/sakemate/internal/types"
)

const (
	UsersKey       = "sake_users"
	BrandsKey      = "sake_brands"
	CurrentUserKey = "sake_current_user"
)

var (
	// ErrCapacityExceeded is returned by AddUser once MaxUsers exist.
	ErrCapacityExceeded = fmt.Errorf("user limit reached (max %d)", types.MaxUsers)
	// ErrStorageUnavailable wraps backend failures on write paths.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type Store struct {
	mu sync.Mutex
	kv kv.Backend
}

func New(backend kv.Backend) *Store {
	return &Store{kv: backend}
}

// Backend exposes the underlying key-value area, used by health checks.
func (s *Store) Backend() kv.Backend { return s.kv }

// readList decodes the JSON array under key into out. Absent keys yield
// ok=true with out untouched; unreadable data is logged and yields ok=false.
func (s *Store) readList(ctx context.Context, key string, out any) bool {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return true
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("storage read failed")
		metrics.StoreReadFailures.WithLabelValues(key).Inc()
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("stored data is corrupt")
		metrics.StoreReadFailures.WithLabelValues(key).Inc()
		return false
	}
	return true
}

func (s *Store) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("key", key).Msg("storage write failed")
		return fmt.Errorf("%w: save %s: %v", ErrStorageUnavailable, key, err)
	}
	return nil
}

func (s *Store) users(ctx context.Context) []types.User {
	var users []types.User
	if !s.readList(ctx, UsersKey, &users) || users == nil {
		return []types.User{}
	}
	return users
}

func (s *Store) brands(ctx context.Context) []types.SakeBrand {
	var brands []types.SakeBrand
	if !s.readList(ctx, BrandsKey, &brands) || brands == nil {
		return []types.SakeBrand{}
	}
	return brands
}

// ListUsers returns all users in registration order. Read failures are
// logged and reported as an empty list.
func (s *Store) ListUsers(ctx context.Context) []types.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users(ctx)
}

// AddUser appends user unless MaxUsers already exist.
func (s *Store) AddUser(ctx context.Context, user types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := s.users(ctx)
	if len(users) >= types.MaxUsers {
		return ErrCapacityExceeded
	}
	return s.write(ctx, UsersKey, append(users, user))
}

func (s *Store) FindUser(ctx context.Context, id string) (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users(ctx) {
		if u.ID == id {
			return u, true
		}
	}
	return types.User{}, false
}

// CurrentUser returns the persisted current-user pointer, if any.
func (s *Store) CurrentUser(ctx context.Context) (types.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kv.Get(ctx, CurrentUserKey)
	if errors.Is(err, kv.ErrNotFound) {
		return types.User{}, false
	}
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("loading current user failed")
		return types.User{}, false
	}
	var u types.User
	if err := json.Unmarshal(data, &u); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("stored current user is corrupt")
		return types.User{}, false
	}
	return u, true
}

func (s *Store) SetCurrentUser(ctx context.Context, user types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, CurrentUserKey, user)
}

func (s *Store) ClearCurrentUser(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.kv.Delete(ctx, CurrentUserKey); err != nil {
		return fmt.Errorf("%w: clear current user: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ListBrands returns the brands owned by userID, or every brand when userID
// is empty, in insertion order.
func (s *Store) ListBrands(ctx context.Context, userID string) []types.SakeBrand {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.brands(ctx)
	if userID == "" {
		return all
	}
	out := []types.SakeBrand{}
	for _, b := range all {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) AddBrand(ctx context.Context, brand types.SakeBrand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, BrandsKey, append(s.brands(ctx), brand))
}

// DeleteBrand removes the brand with the given id from the global list,
// whoever owns it. Unknown ids are a no-op.
func (s *Store) DeleteBrand(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.brands(ctx)
	kept := all[:0]
	for _, b := range all {
		if b.ID != id {
			kept = append(kept, b)
		}
	}
	return s.write(ctx, BrandsKey, kept)
}

// DeleteUserBrand removes brand id only if userID owns it and reports
// whether anything was removed.
func (s *Store) DeleteUserBrand(ctx context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.brands(ctx)
	kept := make([]types.SakeBrand, 0, len(all))
	removed := false
	for _, b := range all {
		if b.ID == id && b.UserID == userID {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	if !removed {
		return false, nil
	}
	return true, s.write(ctx, BrandsKey, kept)
}

// ClearAll erases users, brands and the current-user pointer.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range []string{BrandsKey, UsersKey, CurrentUserKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: clear %s: %v", ErrStorageUnavailable, key, err)
		}
	}
	return nil
}
