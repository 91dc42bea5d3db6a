// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package session

import (
	"context"
	"sync"
)

// Manual is a Source whose notifications are injected with Emit. It backs tests
// and platforms without a native session facility.
type Manual struct {
	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
}

// NewManual returns an empty manual source.
func NewManual() *Manual {
	return &Manual{handlers: make(map[int]Handler)}
}

// Subscribe implements Source.
func (m *Manual) Subscribe(_ context.Context, h Handler) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.handlers[id] = h
	return &manualSubscription{source: m, id: id}, nil
}

// Emit delivers ev synchronously to every subscriber.
func (m *Manual) Emit(ev Event) {
	m.mu.Lock()
	handlers := make([]Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (m *Manual) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handlers)
}

type manualSubscription struct {
	source *Manual
	id     int
}

func (s *manualSubscription) Close() error {
	s.source.mu.Lock()
	defer s.source.mu.Unlock()
	delete(s.source.handlers, s.id)
	return nil
}
