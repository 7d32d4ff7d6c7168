// Package auth tracks which group chats the bot is active in. Direct chats
// never consult this set; they are always active.
package auth

import "sync"

// Set is the process-wide collection of authorized group identifiers.
type Set struct {
	mu     sync.RWMutex
	groups map[string]struct{}
}

// NewSet returns an empty authorization set.
func NewSet() *Set {
	return &Set{groups: make(map[string]struct{})}
}

// Activate marks a group as active. Returns false if it already was.
func (s *Set) Activate(groupID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; ok {
		return false
	}
	s.groups[groupID] = struct{}{}
	return true
}

// Deactivate removes a group. Returns false if it was not active.
func (s *Set) Deactivate(groupID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[groupID]; !ok {
		return false
	}
	delete(s.groups, groupID)
	return true
}

// IsAuthorized reports whether a group is active.
func (s *Set) IsAuthorized(groupID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.groups[groupID]
	return ok
}

// Size returns the number of active groups.
func (s *Set) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}
