// Package memory is an in-process store used by tests and single-node
// setups without a database.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/openidgate/internal/store"
)

type Store struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]store.User
	emails map[string]int64
	images map[int64]store.Image
}

func New() *Store {
	return &Store{
		users:  map[int64]store.User{},
		emails: map[string]int64{},
		images: map[int64]store.Image{},
	}
}

func (s *Store) CreateUser(_ context.Context, u *store.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(u.Email))
	if key != "" {
		if _, dup := s.emails[key]; dup {
			return 0, store.ErrDuplicateEmail
		}
	}
	s.nextID++
	row := *u
	row.ID = s.nextID
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	s.users[row.ID] = row
	if key != "" {
		s.emails[key] = row.ID
	}
	u.ID = row.ID
	return row.ID, nil
}

func (s *Store) GetUserByIdentity(_ context.Context, identity string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.OpenIDIdentity == identity {
			out := u
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

// Users returns a snapshot of every stored user.
func (s *Store) Users() []store.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out
}

func (s *Store) CreateImage(_ context.Context, img *store.Image) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	row := *img
	row.ID = s.nextID
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now()
	}
	s.images[row.ID] = row
	img.ID = row.ID
	return row.ID, nil
}

func (s *Store) DeleteImage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.images, id)
	return nil
}

// Images returns a snapshot of every stored image row.
func (s *Store) Images() []store.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.Image, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img)
	}
	return out
}

var (
	_ store.UserRepository  = (*Store)(nil)
	_ store.ImageRepository = (*Store)(nil)
)

func (s *Store) Ping(context.Context) error { return nil }
