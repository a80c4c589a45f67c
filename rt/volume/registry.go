package volume

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Registry hands out stable ids for authored models so streaming and
// editing layers can refer to them without holding raw buffer offsets.
type Registry struct {
	mu     sync.RWMutex
	models map[uuid.UUID]RegistryEntry
	byName map[string]uuid.UUID
}

type RegistryEntry struct {
	Name   string
	Ptr    ModelPtr
	Schema uint32
}

func NewRegistry() *Registry {
	return &Registry{
		models: make(map[uuid.UUID]RegistryEntry),
		byName: make(map[string]uuid.UUID),
	}
}

func (r *Registry) Register(w *World, name string, ptr ModelPtr) (uuid.UUID, error) {
	tag, ok := w.Schema(ptr)
	if !ok {
		return uuid.Nil, fmt.Errorf("registry: model pointer %#x does not resolve", ptr)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return uuid.Nil, fmt.Errorf("registry: model %q already registered", name)
	}
	id := uuid.New()
	r.models[id] = RegistryEntry{Name: name, Ptr: ptr, Schema: tag}
	r.byName[name] = id
	return id, nil
}

func (r *Registry) Get(id uuid.UUID) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.models[id]
	return e, ok
}

func (r *Registry) Find(name string) (RegistryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	if !ok {
		return RegistryEntry{}, false
	}
	return r.models[id], true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
