package users

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps profiles in process for dev runs without DATABASE_URL.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]User
	clock func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]User), clock: time.Now}
}

// Upsert stores the latest profile. CreatedAt survives later logins.
func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := r.clock().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	user.CreatedAt, user.UpdatedAt = now, now
	if prev, ok := r.byID[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
	}
	r.byID[user.ID] = user
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.byID[userID]; ok {
		return user, nil
	}
	return User{}, ErrNotFound
}
