package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/niksmo/office-storefront/internal/core/port"
)

const (
	RecentSearchesKey = "recentSearches"
	MaxRecentSearches = 5
)

// RecentSearches is the most-recent-first list of submitted search terms
// persisted under [RecentSearchesKey].
//
// It is not safe for concurrent use, the owning [Session] serializes access.
type RecentSearches struct {
	storage port.KVStorage
	terms   []string
}

func NewRecentSearches(storage port.KVStorage) *RecentSearches {
	return &RecentSearches{storage: storage}
}

// Load reads the persisted list. A missing or unreadable entry leaves the
// list empty.
func (r *RecentSearches) Load(ctx context.Context) {
	const op = "RecentSearches.Load"
	log := slog.With("op", op)

	r.terms = nil

	data, err := r.storage.Get(ctx, RecentSearchesKey)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			log.Warn("failed to read recent searches", "err", err)
		}
		return
	}

	var terms []string
	if err := json.Unmarshal(data, &terms); err != nil {
		log.Warn("discard corrupt recent searches", "err", err)
		return
	}
	if len(terms) > MaxRecentSearches {
		terms = terms[:MaxRecentSearches]
	}
	r.terms = terms
}

// Save moves term to the front of the list and persists it. On a storage
// failure the list is left unchanged.
func (r *RecentSearches) Save(ctx context.Context, term string) error {
	const op = "RecentSearches.Save"

	if strings.TrimSpace(term) == "" {
		return nil
	}

	updated := make([]string, 0, MaxRecentSearches)
	updated = append(updated, term)
	for _, t := range r.terms {
		if len(updated) == MaxRecentSearches {
			break
		}
		if t != term {
			updated = append(updated, t)
		}
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.storage.Set(ctx, RecentSearchesKey, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.terms = updated
	return nil
}

func (r *RecentSearches) Clear(ctx context.Context) error {
	const op = "RecentSearches.Clear"
	if err := r.storage.Remove(ctx, RecentSearchesKey); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	r.terms = nil
	return nil
}

func (r *RecentSearches) List() []string {
	return slices.Clone(r.terms)
}
