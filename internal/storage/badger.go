// Brewmind - On-Device Coffee Preference Learning and Recommendations
// Copyright 2026 Brewmind Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brewmind/brewmind

// Package storage persists profiles, brew history, and recipe data in an
// embedded Badger key-value store. It implements the learning storage
// contract plus both optional capabilities (similar recipes, community
// flavor stats), and the privacy-delete flow.
package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/brewmind/brewmind/internal/learning"
	"github.com/brewmind/brewmind/internal/taste"
)

// Key layout. History keys embed a fixed-width UTC timestamp so a reverse
// prefix scan yields newest-first order.
const (
	profilePrefix   = "profile:"
	historyPrefix   = "history:"
	recipePrefix    = "recipe:"
	communityKey    = "community:flavors"
	historyTSLayout = "2006-01-02T15:04:05.000000000Z"
)

// Options configures the store.
type Options struct {
	// Path is the on-disk directory; ignored when InMemory is set.
	Path string

	// InMemory runs Badger without touching disk; used in tests.
	InMemory bool
}

// Store is the Badger-backed persistence adapter. All values are JSON.
type Store struct {
	db     *badger.DB
	logger zerolog.Logger
}

// Open opens (or creates) the store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(opts Options, logger zerolog.Logger) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", opts.Path, err)
	}

	return &Store{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadProfile implements learning.Storage. Absent profiles return (nil, nil).
func (s *Store) LoadProfile(_ context.Context, userID string) (*learning.UserTasteProfile, error) {
	var profile *learning.UserTasteProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(profilePrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			profile = &learning.UserTasteProfile{}
			return json.Unmarshal(val, profile)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile for %q: %w", userID, err)
	}
	return profile, nil
}

// PersistProfile implements learning.Storage.
func (s *Store) PersistProfile(_ context.Context, profile *learning.UserTasteProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encoding profile for %q: %w", profile.UserID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(profilePrefix+profile.UserID), payload)
	})
	if err != nil {
		return fmt.Errorf("persisting profile for %q: %w", profile.UserID, err)
	}
	return nil
}

// historyKey builds the sortable per-entry key.
func historyKey(entry *learning.BrewHistoryEntry) []byte {
	ts := entry.CreatedAt.UTC().Format(historyTSLayout)
	return []byte(historyPrefix + entry.UserID + ":" + ts + ":" + entry.ID)
}

// AppendHistory implements learning.Storage. Re-appending the same entry
// overwrites the same key, so at-least-once retries stay idempotent.
func (s *Store) AppendHistory(_ context.Context, entry *learning.BrewHistoryEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding history entry %q: %w", entry.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(historyKey(entry), payload)
	})
	if err != nil {
		return fmt.Errorf("appending history entry %q: %w", entry.ID, err)
	}
	return nil
}

// RecentHistory implements learning.Storage, returning up to limit entries
// newest first.
func (s *Store) RecentHistory(_ context.Context, userID string, limit int) ([]learning.BrewHistoryEntry, error) {
	prefix := []byte(historyPrefix + userID + ":")
	var entries []learning.BrewHistoryEntry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible key under the prefix.
		seek := append(append([]byte{}, prefix...), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry learning.BrewHistoryEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading history for %q: %w", userID, err)
	}
	return entries, nil
}

// RecipeProfile implements learning.Storage. Unknown recipes return
// (nil, nil).
func (s *Store) RecipeProfile(_ context.Context, recipeID string) (*learning.RecipeProfile, error) {
	var recipe *learning.RecipeProfile

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recipePrefix + recipeID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			recipe = &learning.RecipeProfile{}
			return json.Unmarshal(val, recipe)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading recipe %q: %w", recipeID, err)
	}
	return recipe, nil
}

// PutRecipeProfile upserts a recipe into the catalog.
func (s *Store) PutRecipeProfile(_ context.Context, recipe *learning.RecipeProfile) error {
	payload, err := json.Marshal(recipe)
	if err != nil {
		return fmt.Errorf("encoding recipe %q: %w", recipe.ID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(recipePrefix+recipe.ID), payload)
	})
	if err != nil {
		return fmt.Errorf("persisting recipe %q: %w", recipe.ID, err)
	}
	return nil
}

// allRecipes scans the recipe catalog.
func (s *Store) allRecipes() ([]learning.RecipeProfile, error) {
	prefix := []byte(recipePrefix)
	var recipes []learning.RecipeProfile

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var recipe learning.RecipeProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &recipe)
			})
			if err != nil {
				return err
			}
			recipes = append(recipes, recipe)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning recipe catalog: %w", err)
	}
	return recipes, nil
}

// Candidates returns up to limit catalog recipes ranked by taste-vector
// similarity to prefs, best first. It satisfies the recommendation
// engine's candidate fetcher shape.
func (s *Store) Candidates(_ context.Context, prefs taste.Vector, limit int) ([]learning.RecipeProfile, error) {
	recipes, err := s.allRecipes()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recipes, func(a, b int) bool {
		return recipes[a].TasteVector.Cosine(prefs) > recipes[b].TasteVector.Cosine(prefs)
	})

	if limit > 0 && len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

// SimilarRecipes implements learning.SimilarRecipeFinder by ranking the
// catalog against the target recipe's taste vector.
func (s *Store) SimilarRecipes(ctx context.Context, _ string, recipeID string, limit int) ([]learning.RecipeProfile, error) {
	target, err := s.RecipeProfile(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}

	recipes, err := s.allRecipes()
	if err != nil {
		return nil, err
	}

	similar := recipes[:0]
	for _, recipe := range recipes {
		if recipe.ID != recipeID {
			similar = append(similar, recipe)
		}
	}

	sort.SliceStable(similar, func(a, b int) bool {
		return similar[a].TasteVector.Cosine(target.TasteVector) > similar[b].TasteVector.Cosine(target.TasteVector)
	})

	if limit > 0 && len(similar) > limit {
		similar = similar[:limit]
	}
	return similar, nil
}

// CommunityFlavorStats implements learning.CommunityStatsProvider. Absent
// stats return (nil, nil).
func (s *Store) CommunityFlavorStats(_ context.Context) (map[string]learning.CommunityStat, error) {
	var stats map[string]learning.CommunityStat

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(communityKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stats)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading community flavor stats: %w", err)
	}
	return stats, nil
}

// PutCommunityFlavorStats replaces the community flavor-note aggregates.
func (s *Store) PutCommunityFlavorStats(_ context.Context, stats map[string]learning.CommunityStat) error {
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding community flavor stats: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(communityKey), payload)
	})
	if err != nil {
		return fmt.Errorf("persisting community flavor stats: %w", err)
	}
	return nil
}

// DeleteUserData removes the user's profile and entire brew history. This
// is the privacy-delete flow; recipe and community data are not per-user.
func (s *Store) DeleteUserData(_ context.Context, userID string) error {
	historyKeys, err := s.collectKeys([]byte(historyPrefix + userID + ":"))
	if err != nil {
		return fmt.Errorf("collecting history keys for %q: %w", userID, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(profilePrefix + userID)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		for _, key := range historyKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting data for %q: %w", userID, err)
	}

	s.logger.Info().Str("user_id", userID).Int("history_entries", len(historyKeys)).
		Msg("Deleted all user data")
	return nil
}

// collectKeys lists all keys under a prefix without reading values.
func (s *Store) collectKeys(prefix []byte) ([][]byte, error) {
	var keys [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	return keys, err
}

// RunGC performs one value-log garbage collection pass. No-rewrite and
// in-memory results are normal and not errors.
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	switch err {
	case badger.ErrNoRewrite, badger.ErrRejected, badger.ErrGCInMemoryMode:
		return nil
	}
	return err
}

// GCService runs periodic value-log GC under the supervision tree.
type GCService struct {
	store    *Store
	interval time.Duration
	logger   zerolog.Logger
}

// NewGCService creates the GC service; interval <= 0 defaults to 5 minutes.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewGCService(store *Store, interval time.Duration, logger zerolog.Logger) *GCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GCService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("component", "storage-gc").Logger(),
	}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := g.store.RunGC(0.5); err != nil {
				g.logger.Warn().Err(err).Msg("Value-log GC pass failed")
			}
		}
	}
}

func (g *GCService) String() string { return "storage-gc" }
