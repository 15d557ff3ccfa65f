package persona

import "strings"

// Store exposes persona retrieval for services and HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	// Resolve returns the persona for id, or the default persona when id is empty.
	Resolve(id string) (Persona, bool)
}

// MemoryStore keeps personas loaded at startup; it is never mutated afterwards.
type MemoryStore struct {
	items []Persona
	byID  map[string]int
}

// NewMemoryStore indexes the supplied personas. Later duplicates of an id are ignored.
func NewMemoryStore(items []Persona) *MemoryStore {
	store := &MemoryStore{byID: make(map[string]int, len(items))}
	for _, item := range items {
		if _, exists := store.byID[item.ID]; exists {
			continue
		}
		store.byID[item.ID] = len(store.items)
		store.items = append(store.items, item)
	}
	return store
}

// List returns a copy of the configured personas.
func (s *MemoryStore) List() []Persona {
	return append([]Persona(nil), s.items...)
}

// FindByID 按 id 查找，忽略首尾空白。
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	idx, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Persona{}, false
	}
	return s.items[idx], true
}

// Resolve 空 id 时回退到默认角色。
func (s *MemoryStore) Resolve(id string) (Persona, bool) {
	if strings.TrimSpace(id) == "" {
		id = DefaultID
	}
	return s.FindByID(id)
}
