package todo

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Gateway. Records are listed in insertion order.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	items map[string]Todo
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]Todo)}
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.items[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	return todo, nil
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]Todo, 0, len(s.order))
	for _, id := range s.order {
		todos = append(todos, s.items[id])
	}
	return todos, nil
}

func (s *MemoryStore) Insert(ctx context.Context, todo Todo) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	todo.ID = uuid.NewString()
	s.items[todo.ID] = todo
	s.order = append(s.order, todo.ID)
	return todo, nil
}

func (s *MemoryStore) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.items[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}
	s.items[id] = todo
	return todo, nil
}

func (s *MemoryStore) FindByIDAndDelete(ctx context.Context, id string) (Todo, error) {
	if err := ctx.Err(); err != nil {
		return Todo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.items[id]
	if !ok {
		return Todo{}, ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return todo, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
