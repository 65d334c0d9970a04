package onboarding

import (
	"context"
	"sync"
	"time"

	"github.com/fixora/marketplace/application/port/outbound"
	"github.com/fixora/marketplace/domain/entity"
)

// memoryStore is an in-memory OnboardingStore. Transactions are fully
// serialized, which is the behavior a row lock on the provider request
// gives the real store. A failing transaction restores the snapshot taken
// when it began.
type memoryStore struct {
	mu sync.Mutex

	requests map[string]entity.ProviderRequest
	users    map[string]entity.User
	profiles map[string]entity.ProviderProfile
	listings map[string]entity.Listing

	// listingConflicts makes the next n CreateListing calls fail the way a
	// lost unique-index race does.
	listingConflicts int
	txCount          int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		requests: map[string]entity.ProviderRequest{},
		users:    map[string]entity.User{},
		profiles: map[string]entity.ProviderProfile{},
		listings: map[string]entity.Listing{},
	}
}

func (s *memoryStore) addRequest(req entity.ProviderRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.Status == "" {
		req.Status = entity.ProviderRequestPending
	}
	s.requests[req.ID] = req
}

func (s *memoryStore) addUser(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *memoryStore) addListing(l entity.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = l
}

func (s *memoryStore) request(id string) entity.ProviderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[id]
}

func (s *memoryStore) counts() (users, profiles, listings int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), len(s.profiles), len(s.listings)
}

func (s *memoryStore) transactions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

func (s *memoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx outbound.OnboardingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txCount++

	requests := cloneMap(s.requests)
	users := cloneMap(s.users)
	profiles := cloneMap(s.profiles)
	listings := cloneMap(s.listings)

	if err := fn(ctx, &memoryTx{s: s}); err != nil {
		s.requests, s.users, s.profiles, s.listings = requests, users, profiles, listings
		return err
	}
	return nil
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// memoryTx runs with memoryStore.mu held.
type memoryTx struct {
	s *memoryStore
}

func (t *memoryTx) FindProviderRequestForUpdate(_ context.Context, id string) (*entity.ProviderRequest, error) {
	req, ok := t.s.requests[id]
	if !ok {
		return nil, outbound.ErrProviderRequestNotFound
	}
	return &req, nil
}

func (t *memoryTx) UpdateProviderRequestStatus(_ context.Context, id string, status entity.ProviderRequestStatus, updatedAt time.Time) error {
	req, ok := t.s.requests[id]
	if !ok {
		return outbound.ErrProviderRequestNotFound
	}
	req.Status = status
	req.UpdatedAt = updatedAt
	t.s.requests[id] = req
	return nil
}

func (t *memoryTx) FindUserByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range t.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) CreateUser(_ context.Context, user *entity.User) error {
	for _, u := range t.s.users {
		if u.Email == user.Email {
			return outbound.ErrConflict
		}
	}
	t.s.users[user.ID] = *user
	return nil
}

func (t *memoryTx) UpdateUser(_ context.Context, user *entity.User) error {
	t.s.users[user.ID] = *user
	return nil
}

func (t *memoryTx) FindProfileByUserID(_ context.Context, userID string) (*entity.ProviderProfile, error) {
	for _, p := range t.s.profiles {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) CreateProfile(_ context.Context, profile *entity.ProviderProfile) error {
	for _, p := range t.s.profiles {
		if p.UserID == profile.UserID {
			return outbound.ErrConflict
		}
	}
	t.s.profiles[profile.ID] = *profile
	return nil
}

func (t *memoryTx) UpdateProfile(_ context.Context, profile *entity.ProviderProfile) error {
	t.s.profiles[profile.ID] = *profile
	return nil
}

func (t *memoryTx) FindActiveListingByOwner(_ context.Context, ownerID string) (*entity.Listing, error) {
	for _, l := range t.s.listings {
		if l.OwnerID == ownerID && l.DeletedAt == nil {
			return &l, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) CreateListing(_ context.Context, listing *entity.Listing) error {
	if t.s.listingConflicts > 0 {
		t.s.listingConflicts--
		return outbound.ErrConflict
	}
	for _, l := range t.s.listings {
		if l.Slug == listing.Slug {
			return outbound.ErrConflict
		}
		if l.OwnerID == listing.OwnerID && l.DeletedAt == nil {
			return outbound.ErrConflict
		}
	}
	t.s.listings[listing.ID] = *listing
	return nil
}

func (t *memoryTx) SlugExists(_ context.Context, slug string) (bool, error) {
	for _, l := range t.s.listings {
		if l.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}
