// Package guestcart keeps the carts of visitors who have not logged in,
// keyed by the guest id the client presents in X-Guest-ID.
package guestcart

//go:generate mockgen -source=store.go -destination=../mocks/mock_guestcart.go -package=mocks -mock_names=Store=MockGuestStore

import (
	"context"
	"time"

	"github.com/Cheertaboi/storefront-service/internal/cache"
	"github.com/Cheertaboi/storefront-service/internal/models"
)

type Store interface {
	// Load returns the guest's lines, or nil when the guest has no cart.
	Load(ctx context.Context, guestID string) ([]models.CartLine, error)
	Save(ctx context.Context, guestID string, lines []models.CartLine) error
	Delete(ctx context.Context, guestID string) error
}

// MemoryStore keeps guest carts in process. Carts expire ttl after their
// last save.
type MemoryStore struct {
	carts *cache.Cache[[]models.CartLine]
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{carts: cache.New[[]models.CartLine](ttl)}
}

func (s *MemoryStore) Load(_ context.Context, guestID string) ([]models.CartLine, error) {
	lines, ok := s.carts.Get(guestID)
	if !ok {
		return nil, nil
	}
	return cloneLines(lines), nil
}

func (s *MemoryStore) Save(_ context.Context, guestID string, lines []models.CartLine) error {
	if len(lines) == 0 {
		s.carts.Delete(guestID)
		return nil
	}
	s.carts.Set(guestID, cloneLines(lines))
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, guestID string) error {
	s.carts.Delete(guestID)
	return nil
}

// Sweep drops expired carts. main runs it on a ticker.
func (s *MemoryStore) Sweep() int {
	return s.carts.Purge()
}

func cloneLines(lines []models.CartLine) []models.CartLine {
	out := make([]models.CartLine, len(lines))
	copy(out, lines)
	return out
}
