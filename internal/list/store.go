package list

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
)

// ErrUndetermined is returned when a mutation reaches a group whose domain
// has not been resolved yet.
var ErrUndetermined = errors.New("group domain not determined")

// ErrInvalidValue is returned for expense values that are negative, NaN or
// infinite. Such items are never appended.
var ErrInvalidValue = errors.New("expense value must be finite and non-negative")

// Detector resolves the domain of a group from its first message.
type Detector interface {
	DetectDomain(ctx context.Context, text string) (Domain, error)
}

// Group is the per-conversation state bundle: a domain plus an ordered item
// list. Insertion order is display order. All fields are guarded by the
// owning Store's mutex.
type Group struct {
	Domain        Domain
	Entertainment []EntertainmentItem
	Expenses      []ExpenseItem
	Shopping      []ShoppingItem
}

func (g *Group) itemCount() int {
	switch g.Domain {
	case DomainEntertainment:
		return len(g.Entertainment)
	case DomainExpense:
		return len(g.Expenses)
	case DomainShopping:
		return len(g.Shopping)
	default:
		return 0
	}
}

// Store keeps every known group's state in process memory. State lives for
// the process lifetime only; there is no persistence across restarts.
type Store struct {
	detector Detector
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	groups map[string]*Group
}

// NewStore creates an empty store. The detector is consulted exactly once
// per group, on first contact.
func NewStore(detector Detector, logger *slog.Logger) *Store {
	return &Store{
		detector: detector,
		logger:   logger.With("component", "store"),
		now:      time.Now,
		groups:   make(map[string]*Group),
	}
}

// GetOrCreate returns the group's state, running domain detection on first
// contact. Detection happens outside the lock (it may hit the network);
// concurrent first messages re-check under the lock and the first writer
// wins, so the memoized domain is stable.
func (s *Store) GetOrCreate(ctx context.Context, groupID, firstText string) *Group {
	s.mu.Lock()
	if g, ok := s.groups[groupID]; ok {
		s.mu.Unlock()
		return g
	}
	s.mu.Unlock()

	domain, err := s.detector.DetectDomain(ctx, firstText)
	if err != nil {
		s.logger.Warn("domain detection failed", "group", groupID, "error", err)
		domain = DomainUndetermined
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.groups[groupID]; ok {
		// Another message won the race; discard this detection result.
		return g
	}
	g := &Group{Domain: domain}
	s.groups[groupID] = g
	s.logger.Info("group registered", "group", groupID, "domain", domain)
	return g
}

// Get returns the group state if it exists.
func (s *Store) Get(groupID string) (*Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	return g, ok
}

// SetDomain overrides a group's domain, creating the group if needed.
func (s *Store) SetDomain(groupID string, domain Domain) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		g = &Group{}
		s.groups[groupID] = g
	}
	g.Domain = domain
}

// AddEntertainment appends a title unless a case-insensitively equal name is
// already present. The dedup check runs under the lock, immediately before
// the write. Returns the stored (or pre-existing) item and whether it was
// newly added.
func (s *Store) AddEntertainment(groupID, name string, category EntertainmentCategory, addedBy string) (EntertainmentItem, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok || g.Domain == DomainUndetermined {
		return EntertainmentItem{}, false, ErrUndetermined
	}
	for _, it := range g.Entertainment {
		if strings.EqualFold(it.Name, name) {
			return it, false, nil
		}
	}
	item := EntertainmentItem{
		Name:     name,
		Category: category,
		AddedBy:  addedBy,
		AddedAt:  s.now(),
	}
	g.Entertainment = append(g.Entertainment, item)
	return item, true, nil
}

// MarkWatched flags a title as watched. Lookup is case-insensitive.
func (s *Store) MarkWatched(groupID, name string) (EntertainmentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return EntertainmentItem{}, false
	}
	for i := range g.Entertainment {
		if strings.EqualFold(g.Entertainment[i].Name, name) {
			if !g.Entertainment[i].Watched {
				now := s.now()
				g.Entertainment[i].Watched = true
				g.Entertainment[i].WatchedAt = &now
			}
			return g.Entertainment[i], true
		}
	}
	return EntertainmentItem{}, false
}

// AddExpense validates and appends an expense, returning the new item count.
// A non-finite or negative value is rejected without touching state.
func (s *Store) AddExpense(groupID, description string, value float64, category ExpenseCategory, addedBy string) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, ErrInvalidValue
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok || g.Domain == DomainUndetermined {
		return 0, ErrUndetermined
	}
	g.Expenses = append(g.Expenses, ExpenseItem{
		Description: description,
		Value:       value,
		Category:    category,
		AddedBy:     addedBy,
		AddedAt:     s.now(),
	})
	return len(g.Expenses), nil
}

// AddShopping appends the given labels, skipping case-insensitive
// duplicates. Returns how many were added and the new list length.
func (s *Store) AddShopping(groupID string, items []string) (added, total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok || g.Domain == DomainUndetermined {
		return 0, 0, ErrUndetermined
	}
	for _, raw := range items {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		dup := false
		for _, existing := range g.Shopping {
			if strings.EqualFold(string(existing), label) {
				dup = true
				break
			}
		}
		if !dup {
			g.Shopping = append(g.Shopping, ShoppingItem(label))
			added++
		}
	}
	return added, len(g.Shopping), nil
}

// Clear empties a group's items, preserving its domain. Returns how many
// items were removed.
func (s *Store) Clear(groupID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return 0
	}
	count := g.itemCount()
	g.Entertainment = nil
	g.Expenses = nil
	g.Shopping = nil
	return count
}

// Snapshot returns a copy of the group state for rendering, so formatters
// never hold the store lock.
func (s *Store) Snapshot(groupID string) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		return Group{}, false
	}
	snap := Group{Domain: g.Domain}
	snap.Entertainment = append(snap.Entertainment, g.Entertainment...)
	snap.Expenses = append(snap.Expenses, g.Expenses...)
	snap.Shopping = append(snap.Shopping, g.Shopping...)
	return snap, true
}
