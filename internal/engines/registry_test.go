// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

package engines

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
)

// memStore is an in-memory learning.Storage for registry tests.
type memStore struct {
	mu       sync.Mutex
	profiles map[string]*learning.UserTasteProfile
	loadErr  error
}

func newMemStore() *memStore {
	return &memStore{profiles: make(map[string]*learning.UserTasteProfile)}
}

func (m *memStore) LoadProfile(_ context.Context, userID string) (*learning.UserTasteProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.profiles[userID], nil
}

func (m *memStore) PersistProfile(_ context.Context, profile *learning.UserTasteProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *profile
	m.profiles[profile.UserID] = &clone
	return nil
}

func (m *memStore) AppendHistory(context.Context, *learning.BrewHistoryEntry) error { return nil }

func (m *memStore) RecentHistory(context.Context, string, int) ([]learning.BrewHistoryEntry, error) {
	return nil, nil
}

func (m *memStore) RecipeProfile(context.Context, string) (*learning.RecipeProfile, error) {
	return nil, nil
}

func noCandidates(context.Context, taste.Vector, int) ([]learning.RecipeProfile, error) {
	return nil, nil
}

func newTestRegistry(store *memStore) *Registry {
	return NewRegistry(Deps{
		Store:      store,
		Candidates: noCandidates,
		Logger:     zerolog.Nop(),
		Clock: func() time.Time {
			return time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
		},
	})
}

func TestAcquireBuildsAndInitializes(t *testing.T) {
	store := newMemStore()
	reg := newTestRegistry(store)

	pair, release, err := reg.Acquire(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer release()

	if pair.Learning.Profile() == nil {
		t.Error("learning engine not initialized")
	}
	if store.profiles["u1"] == nil {
		t.Error("default profile not persisted")
	}
}

func TestAcquireReusesPair(t *testing.T) {
	reg := newTestRegistry(newMemStore())
	ctx := context.Background()

	first, release, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()

	second, release, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()

	if first != second {
		t.Error("Acquire() built a new pair for the same user")
	}
}

func TestAcquireSerializesPerUser(t *testing.T) {
	reg := newTestRegistry(newMemStore())
	ctx := context.Background()

	_, release, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		_, release2, err := reg.Acquire(ctx, "u1")
		if err != nil {
			t.Errorf("second Acquire() error = %v", err)
			close(acquired)
			return
		}
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire() returned while the pair was held")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire() still blocked after release")
	}
}

func TestAcquireDistinctUsersIndependent(t *testing.T) {
	reg := newTestRegistry(newMemStore())
	ctx := context.Background()

	_, release1, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire(u1) error = %v", err)
	}
	defer release1()

	done := make(chan struct{})
	go func() {
		_, release2, err := reg.Acquire(ctx, "u2")
		if err != nil {
			t.Errorf("Acquire(u2) error = %v", err)
		} else {
			release2()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Acquire(u2) blocked on u1's lock")
	}
}

func TestAcquireEmptyUser(t *testing.T) {
	reg := newTestRegistry(newMemStore())

	if _, _, err := reg.Acquire(context.Background(), ""); err == nil {
		t.Error("Acquire(\"\") = nil error, want error")
	}
}

func TestAcquireInitFailureIsRetryable(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("store offline")
	reg := newTestRegistry(store)
	ctx := context.Background()

	if _, _, err := reg.Acquire(ctx, "u1"); err == nil {
		t.Fatal("Acquire() = nil error, want init failure")
	}

	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()

	pair, release, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire() retry error = %v", err)
	}
	defer release()

	if pair.Learning.Profile() == nil {
		t.Error("engine not initialized after retry")
	}
}

func TestEvictRebuildsPair(t *testing.T) {
	reg := newTestRegistry(newMemStore())
	ctx := context.Background()

	first, release, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	release()

	reg.Evict("u1")

	second, release, err := reg.Acquire(ctx, "u1")
	if err != nil {
		t.Fatalf("Acquire() after evict error = %v", err)
	}
	release()

	if first == second {
		t.Error("Evict() did not drop the cached pair")
	}
}
