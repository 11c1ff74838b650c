package exercise

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/repstack/repstack/internal/models"
)

// Store is the persistence surface the resolver needs. All name matching
// is case-insensitive; Find methods return ok=false when nothing matches.
type Store interface {
	FindCatalogByName(ctx context.Context, name string) (models.ExerciseRef, bool, error)
	FindCatalogBySubstring(ctx context.Context, name string) (models.ExerciseRef, bool, error)
	FindCustomByName(ctx context.Context, ownerID int, name string) (models.ExerciseRef, bool, error)
	CreateCustom(ctx context.Context, ownerID int, name string) (models.ExerciseRef, error)
}

// Resolver maps free-text exercise names onto catalog or custom
// exercise references, creating custom entries on demand.
type Resolver struct {
	store Store
	log   *slog.Logger
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store Store, log *slog.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

// Resolve finds or creates a usable exercise reference for a name.
// Matching tiers, first hit wins: exact catalog match, substring catalog
// match, then the owner's custom exercises (created if absent). The
// second return reports whether a custom exercise was created. Only
// storage failures are returned; an unknown name is never an error.
func (r *Resolver) Resolve(ctx context.Context, ownerID int, name string) (models.ExerciseRef, bool, error) {
	name = strings.TrimSpace(name)

	ref, ok, err := r.store.FindCatalogByName(ctx, name)
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("catalog lookup %q: %w", name, err)
	}
	if ok {
		return ref, false, nil
	}

	ref, ok, err = r.store.FindCatalogBySubstring(ctx, name)
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("catalog substring lookup %q: %w", name, err)
	}
	if ok {
		return ref, false, nil
	}

	ref, ok, err = r.store.FindCustomByName(ctx, ownerID, name)
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("custom lookup %q: %w", name, err)
	}
	if ok {
		return ref, false, nil
	}

	ref, err = r.store.CreateCustom(ctx, ownerID, name)
	if err != nil {
		return models.ExerciseRef{}, false, fmt.Errorf("creating custom exercise %q: %w", name, err)
	}
	r.log.Info("created custom exercise", "owner_id", ownerID, "name", name)
	return ref, true, nil
}

// SameExercise reports whether two references denote the same exercise
// for analytics purposes, regardless of which variant each one is. A
// user's custom "Bench Press (Barbell)" merges with the catalog's
// "Barbell Bench Press" without any data migration; history queries
// apply this whenever progress is read "for an exercise".
func SameExercise(a, b models.ExerciseRef) bool {
	return Normalize(a.Name) == Normalize(b.Name)
}
