/*
Package session
File: manager.go
Description:
    Creates, looks up and reaps session runners. Each runner owns
    one game on its own goroutine.
*/

package session

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/everforgeworks/pizza-copter/internal/game"
	"github.com/everforgeworks/pizza-copter/internal/protocol"
)

// ErrSessionNotFound is returned for unknown or already removed ids.
var ErrSessionNotFound = errors.New("session not found")

// ConfigSource hands out the configuration new sessions start from.
type ConfigSource interface {
	Current() game.Config
}

// Manager owns every running session.
type Manager struct {
	mu      sync.RWMutex
	runners map[string]*Runner
	configs ConfigSource
}

func NewManager(configs ConfigSource) *Manager {
	return &Manager{
		runners: make(map[string]*Runner),
		configs: configs,
	}
}

// Create starts a new session from the current configuration.
func (m *Manager) Create() (*Runner, error) {
	id := uuid.NewString()
	r, err := NewRunner(id, m.configs.Current())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.runners[id] = r
	m.mu.Unlock()

	go r.Run()
	log.Printf("session=%s created", id)
	return r, nil
}

func (m *Manager) Get(id string) (*Runner, error) {
	m.mu.RLock()
	r, ok := m.runners[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, ErrSessionNotFound)
	}
	return r, nil
}

// List returns every session summary, oldest first.
func (m *Manager) List() []protocol.SessionInfo {
	m.mu.RLock()
	out := make([]protocol.SessionInfo, 0, len(m.runners))
	for _, r := range m.runners {
		out = append(out, r.Info())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runners)
}

// Remove stops a session and forgets it.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	r, ok := m.runners[id]
	delete(m.runners, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("remove %s: %w", id, ErrSessionNotFound)
	}
	r.Stop()
	log.Printf("session=%s removed", id)
	return nil
}

// Reap removes sessions that have had no socket attached for longer than ttl
// and returns their ids.
func (m *Manager) Reap(ttl time.Duration, now time.Time) []string {
	var stale []*Runner
	m.mu.Lock()
	for id, r := range m.runners {
		if r.Idle(now) > ttl {
			stale = append(stale, r)
			delete(m.runners, id)
		}
	}
	m.mu.Unlock()

	ids := make([]string, 0, len(stale))
	for _, r := range stale {
		r.Stop()
		ids = append(ids, r.ID)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		log.Printf("reaped %d idle sessions", len(ids))
	}
	return ids
}

// StopAll stops every session and waits for them to exit or for timeout.
func (m *Manager) StopAll(timeout time.Duration) {
	m.mu.Lock()
	runners := make([]*Runner, 0, len(m.runners))
	for id, r := range m.runners {
		runners = append(runners, r)
		delete(m.runners, id)
	}
	m.mu.Unlock()

	deadline := time.After(timeout)
	for _, r := range runners {
		r.Stop()
	}
	for _, r := range runners {
		select {
		case <-r.Done():
		case <-deadline:
			log.Printf("stop: timed out waiting for %d sessions", len(runners))
			return
		}
	}
}
