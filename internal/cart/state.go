// Package cart holds the in-process cart state object and the guest-to-user
// merge.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Cheertaboi/storefront-service/internal/models"
	"github.com/Cheertaboi/storefront-service/internal/pricing"
)

// Observer is notified with a snapshot of the lines after every change.
type Observer interface {
	CartChanged(lines []models.CartLine)
}

type ObserverFunc func(lines []models.CartLine)

func (f ObserverFunc) CartChanged(lines []models.CartLine) { f(lines) }

// State is a cart owned by one session. Lines keep insertion order and are
// keyed by item; adding an item already present sums the quantities.
type State struct {
	mu        sync.Mutex
	lines     []models.CartLine
	observers map[int]Observer
	nextObs   int
}

func NewState(lines []models.CartLine) *State {
	s := &State{observers: make(map[int]Observer)}
	for _, l := range lines {
		if l.Quantity > 0 {
			s.addLocked(l)
		}
	}
	return s
}

// Subscribe registers o and returns a function that removes it.
func (s *State) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Add puts line in the cart, summing with an existing line for the same
// item. Lines with a non-positive quantity are ignored.
func (s *State) Add(line models.CartLine) {
	if line.Quantity <= 0 {
		return
	}
	s.mu.Lock()
	s.addLocked(line)
	s.mu.Unlock()
	s.notify()
}

func (s *State) addLocked(line models.CartLine) {
	for i := range s.lines {
		if s.lines[i].Item == line.Item {
			s.lines[i].Quantity += line.Quantity
			if !line.UnitPrice.IsZero() {
				s.lines[i].UnitPrice = line.UnitPrice
			}
			if line.Name != "" {
				s.lines[i].Name = line.Name
			}
			return
		}
	}
	s.lines = append(s.lines, line)
}

// SetQuantity sets an absolute quantity; zero or less removes the line.
// It reports whether the item was in the cart.
func (s *State) SetQuantity(item models.ItemRef, qty int) bool {
	s.mu.Lock()
	idx := s.indexLocked(item)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	if qty <= 0 {
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	} else {
		s.lines[idx].Quantity = qty
	}
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *State) Remove(item models.ItemRef) bool {
	return s.SetQuantity(item, 0)
}

func (s *State) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	s.notify()
}

func (s *State) indexLocked(item models.ItemRef) int {
	for i := range s.lines {
		if s.lines[i].Item == item {
			return i
		}
	}
	return -1
}

// Quantity returns how many of item the cart holds.
func (s *State) Quantity(item models.ItemRef) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(item); idx >= 0 {
		return s.lines[idx].Quantity
	}
	return 0
}

// Lines returns a copy of the current lines.
func (s *State) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) Total() decimal.Decimal {
	return pricing.CartTotal(s.Lines())
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *State) snapshotLocked() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// notify runs outside the lock so observers may read the state.
func (s *State) notify() {
	s.mu.Lock()
	lines := s.snapshotLocked()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	for _, o := range obs {
		o.CartChanged(lines)
	}
}
