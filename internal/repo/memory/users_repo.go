package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/contacts/internal/domain/user"
)

// UsersRepo is an in-process credential store. Every mutation matches and
// mutates under one lock, mirroring the single-statement updates of the
// postgres repo.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // id -> user
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) Create(_ context.Context, nu user.NewUser) (user.User, error) {
	u := user.New(nu)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) SetToken(_ context.Context, id, token string) error {
	return r.mutate(id, func(u *user.User) { u.Token = token })
}

func (r *UsersRepo) UpdateAvatar(_ context.Context, id, avatarURL string) error {
	return r.mutate(id, func(u *user.User) { u.AvatarURL = avatarURL })
}

func (r *UsersRepo) UpdateSubscription(_ context.Context, id string, sub user.Subscription) (user.User, error) {
	var out user.User

	err := r.mutate(id, func(u *user.User) {
		u.Subscription = sub
		out = *u
	})

	return out, err
}

// MarkVerified flips the unverified user holding token to verified and clears the token.
func (r *UsersRepo) MarkVerified(_ context.Context, token string) (user.User, error) {
	if token == "" {
		return user.User{}, user.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.items {
		if u.Verified || u.VerificationToken != token {
			continue
		}

		u.Verified = true
		u.VerificationToken = ""
		u.UpdatedAt = time.Now().UTC()
		r.items[id] = u

		return u, nil
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Ping(context.Context) error {
	return nil
}

func (r *UsersRepo) mutate(id string, fn func(u *user.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return user.ErrNotFound
	}

	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.items[id] = u

	return nil
}
