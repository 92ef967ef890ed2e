// internal/repository/memory/store.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"ebeauty-client/internal/domain/auth"
	"ebeauty-client/internal/domain/catalog"
	xerrors "ebeauty-client/internal/pkg/errors"
)

// Store keeps accounts, artists and bookings in process memory. It backs the
// sandbox when no database is configured.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*auth.Account
	artists  []catalog.ArtistProfile
	bookings map[string]*catalog.Booking
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*auth.Account),
		bookings: make(map[string]*catalog.Booking),
	}
}

// AddAccount inserts or replaces an account
func (s *Store) AddAccount(a auth.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Email = strings.ToLower(a.Email)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = &a
}

// AddArtist inserts or replaces an artist profile with its services
func (s *Store) AddArtist(p catalog.ArtistProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.artists {
		if s.artists[i].ID == p.ID {
			s.artists[i] = p
			return
		}
	}
	s.artists = append(s.artists, p)
}

// ========== auth.Repository ==========

func (s *Store) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range s.accounts {
		if a.Email == email {
			copied := *a
			return &copied, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (s *Store) FindByID(_ context.Context, id string) (*auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

// ========== catalog.ArtistRepository ==========

func (s *Store) ListArtists(_ context.Context, category string) ([]catalog.ArtistProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.ArtistProfile, 0, len(s.artists))
	for _, p := range s.artists {
		if category == "" || offers(p, category) {
			out = append(out, cloneArtist(p))
		}
	}
	return out, nil
}

func (s *Store) FindService(_ context.Context, serviceID string) (*catalog.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.artists {
		for _, svc := range p.Services {
			if svc.ID == serviceID {
				copied := svc
				return &copied, nil
			}
		}
	}
	return nil, xerrors.ErrNotFound
}

// ========== catalog.BookingRepository ==========

func (s *Store) CreateBooking(_ context.Context, b *catalog.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[b.ID]; exists {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	copied := *b
	s.bookings[b.ID] = &copied
	return nil
}

func (s *Store) FindBooking(_ context.Context, id string) (*catalog.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (s *Store) UpdateBookingStatus(_ context.Context, id string, status catalog.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	b.Status = status
	return nil
}

// BookingsFor lists a user's bookings as client or artist, newest first
func (s *Store) BookingsFor(userID string) []catalog.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []catalog.Booking
	for _, b := range s.bookings {
		if b.ClientID == userID || b.ArtistID == userID {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func offers(p catalog.ArtistProfile, category string) bool {
	for _, c := range p.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	for _, svc := range p.Services {
		if strings.EqualFold(svc.Category, category) {
			return true
		}
	}
	return false
}

func cloneArtist(p catalog.ArtistProfile) catalog.ArtistProfile {
	p.Categories = append([]string(nil), p.Categories...)
	p.Services = append([]catalog.Service(nil), p.Services...)
	return p
}
