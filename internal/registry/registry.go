// Package registry holds the in-memory set of push subscriber tokens.
// Tokens live for the process lifetime only; the browser re-subscribes on
// load, so nothing here is persisted.
package registry

import "sync"

type Registry struct {
	mu     sync.Mutex
	index  map[string]struct{}
	tokens []string // insertion order, keeps dispatch logs stable
}

func New() *Registry {
	return &Registry{index: map[string]struct{}{}}
}

// Register adds token to the set. Re-registering is a no-op; it reports
// whether the token was new.
func (r *Registry) Register(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[token]; ok {
		return false
	}
	r.index[token] = struct{}{}
	r.tokens = append(r.tokens, token)
	return true
}

// Remove deletes token from the set; it reports whether it was present.
func (r *Registry) Remove(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[token]; !ok {
		return false
	}
	delete(r.index, token)
	for i, t := range r.tokens {
		if t == token {
			r.tokens = append(r.tokens[:i], r.tokens[i+1:]...)
			break
		}
	}
	return true
}

// Snapshot returns a point-in-time copy of all tokens in registration order.
// A dispatch run iterates the copy, so concurrent registrations never tear it.
func (r *Registry) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tokens))
	copy(out, r.tokens)
	return out
}

func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}
