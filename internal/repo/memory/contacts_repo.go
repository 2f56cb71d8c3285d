package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/contacts/internal/domain/contact"
)

type ContactsRepo struct {
	mu    sync.RWMutex
	items map[string]contact.Contact // id -> contact
}

func NewContactsRepo() *ContactsRepo {
	return &ContactsRepo{
		items: make(map[string]contact.Contact),
	}
}

func (r *ContactsRepo) Create(_ context.Context, owner string, req contact.CreateContactRequest) (contact.Contact, error) {
	c := contact.NewFromCreateRequest(owner, req)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phoneTakenLocked(c.Phone, "") {
		return contact.Contact{}, contact.ErrPhoneTaken
	}

	r.items[c.ID] = c

	return c, nil
}

func (r *ContactsRepo) List(_ context.Context, owner string, filter contact.ListFilter) ([]contact.Contact, int, error) {
	r.mu.RLock()
	matched := make([]contact.Contact, 0)
	for _, c := range r.items {
		if c.Owner != owner {
			continue
		}
		if filter.Favorite != nil && c.Favorite != *filter.Favorite {
			continue
		}
		matched = append(matched, c)
	}
	r.mu.RUnlock()

	// stable ordering for pagination
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	total := len(matched)

	start := min(max(filter.Offset, 0), total)
	end := start + min(max(filter.Limit, 0), total-start)

	return matched[start:end], total, nil
}

func (r *ContactsRepo) GetByID(_ context.Context, owner, id string) (contact.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok || c.Owner != owner {
		return contact.Contact{}, contact.ErrNotFound
	}

	return c, nil
}

func (r *ContactsRepo) Update(_ context.Context, owner, id string, req contact.UpdateContactRequest) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok || c.Owner != owner {
		return contact.Contact{}, contact.ErrNotFound
	}

	if r.phoneTakenLocked(req.Phone, id) {
		return contact.Contact{}, contact.ErrPhoneTaken
	}

	c.Name = req.Name
	c.Email = req.Email
	c.Phone = req.Phone
	if req.Favorite != nil {
		c.Favorite = *req.Favorite
	}
	c.UpdatedAt = time.Now().UTC()
	r.items[id] = c

	return c, nil
}

func (r *ContactsRepo) UpdateFavorite(_ context.Context, owner, id string, favorite bool) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok || c.Owner != owner {
		return contact.Contact{}, contact.ErrNotFound
	}

	c.Favorite = favorite
	c.UpdatedAt = time.Now().UTC()
	r.items[id] = c

	return c, nil
}

// Delete removes the contact and returns its prior state.
func (r *ContactsRepo) Delete(_ context.Context, owner, id string) (contact.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if !ok || c.Owner != owner {
		return contact.Contact{}, contact.ErrNotFound
	}

	delete(r.items, id)

	return c, nil
}

func (r *ContactsRepo) phoneTakenLocked(phone, exceptID string) bool {
	for id, c := range r.items {
		if id != exceptID && c.Phone == phone {
			return true
		}
	}
	return false
}
