// =============================================================================
// Legacy Mongo Migrator - Reference Resolver
// =============================================================================
//
// The resolver maps a legacy code to the canonical identifier of an
// already-migrated document. Matching runs a fixed strategy chain and stops
// at the first hit:
//
//   1. exact match on the canonical field
//   2. case-insensitive exact match
//   3. caller-registered fallback transforms, in registration order, each
//      tried as an exact match (e.g. strip a trailing ".0", then try a
//      single leading zero)
//
// A lookup may name several candidate (collection, field) pairs; they are
// tried in order, so "customer, else supplier" is one resolver call rather
// than duplicated caller logic.
//
// Resolution is read-only and cached per run: the engine never mutates the
// target collections while resolving, so a (collection, field, value) result
// cannot go stale within a run. Misses are cached too - a code that failed
// once will fail identically for every later line that carries it.
//
// When a code matches more than one canonical document the store returns the
// first in natural scan order; the unique natural-key index upstream makes
// that case structurally rare, and true ambiguity is a data-quality defect
// for the source system, not something the resolver papers over.
//
// =============================================================================

package resolver

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/legacy-mongo-migrator/internal/store"
)

// Candidate names one (collection, field) pair to try during resolution.
type Candidate struct {
	Collection string
	Field      string
}

// Fallback is a registered transform applied to the legacy code when the
// exact and case-insensitive strategies both miss.
type Fallback struct {
	// Name identifies the transform in logs.
	Name string

	// Apply produces the candidate value, or "" when the transform does
	// not apply to this code.
	Apply func(code string) string
}

// StripDotZero drops a trailing ".0" suffix, an artifact of numeric item
// codes passing through a float-typed export column.
func StripDotZero() Fallback {
	return Fallback{
		Name: "strip_dot_zero",
		Apply: func(code string) string {
			if strings.HasSuffix(code, ".0") {
				return strings.TrimSuffix(code, ".0")
			}
			return ""
		},
	}
}

// LeadingZero prepends a single zero to the code (after any ".0" strip),
// covering exports that dropped a significant leading zero.
func LeadingZero() Fallback {
	return Fallback{
		Name: "leading_zero",
		Apply: func(code string) string {
			code = strings.TrimSuffix(code, ".0")
			if code == "" {
				return ""
			}
			return "0" + code
		},
	}
}

// Resolution describes a successful lookup.
type Resolution struct {
	// ID is the canonical identifier of the matched document.
	ID any

	// Collection is the candidate collection that matched.
	Collection string

	// Matched is the value that finally hit (differs from the legacy code
	// when a fallback transform fired).
	Matched string

	// Strategy names the matching strategy: "exact", "fold", or the
	// fallback's name.
	Strategy string
}

type cacheKey struct {
	collection string
	field      string
	value      string
}

type cacheEntry struct {
	res   Resolution
	found bool
}

// Resolver resolves legacy codes against already-migrated collections.
type Resolver struct {
	store     store.Store
	log       *zap.Logger
	fallbacks []Fallback
	cache     map[cacheKey]cacheEntry
}

// New builds a resolver with the given fallback chain.
func New(st store.Store, log *zap.Logger, fallbacks ...Fallback) *Resolver {
	return &Resolver{
		store:     st,
		log:       log,
		fallbacks: fallbacks,
		cache:     make(map[cacheKey]cacheEntry),
	}
}

// Resolve tries each candidate in order and returns the first hit. The
// boolean reports whether any candidate matched; the caller decides what a
// miss means (skip the record, skip one line, or abort).
func (r *Resolver) Resolve(ctx context.Context, candidates []Candidate, code string) (Resolution, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Resolution{}, false, nil
	}

	for _, cand := range candidates {
		res, found, err := r.resolveOne(ctx, cand, code)
		if err != nil {
			return Resolution{}, false, err
		}
		if found {
			return res, true, nil
		}
	}
	return Resolution{}, false, nil
}

func (r *Resolver) resolveOne(ctx context.Context, cand Candidate, code string) (Resolution, bool, error) {
	key := cacheKey{collection: cand.Collection, field: cand.Field, value: code}
	if entry, ok := r.cache[key]; ok {
		return entry.res, entry.found, nil
	}

	res, found, err := r.lookup(ctx, cand, code)
	if err != nil {
		return Resolution{}, false, err
	}
	r.cache[key] = cacheEntry{res: res, found: found}

	if found && res.Strategy != "exact" {
		r.log.Debug("reference resolved via fallback strategy",
			zap.String("collection", cand.Collection),
			zap.String("code", code),
			zap.String("matched", res.Matched),
			zap.String("strategy", res.Strategy))
	}
	return res, found, nil
}

func (r *Resolver) lookup(ctx context.Context, cand Candidate, code string) (Resolution, bool, error) {
	// Strategy 1: exact match.
	id, found, err := r.store.FindID(ctx, cand.Collection, cand.Field, code)
	if err != nil {
		return Resolution{}, false, err
	}
	if found {
		return Resolution{ID: id, Collection: cand.Collection, Matched: code, Strategy: "exact"}, true, nil
	}

	// Strategy 2: case-insensitive match.
	id, found, err = r.store.FindIDFold(ctx, cand.Collection, cand.Field, code)
	if err != nil {
		return Resolution{}, false, err
	}
	if found {
		return Resolution{ID: id, Collection: cand.Collection, Matched: code, Strategy: "fold"}, true, nil
	}

	// Strategy 3: registered fallback transforms, in order.
	for _, fb := range r.fallbacks {
		alt := fb.Apply(code)
		if alt == "" || alt == code {
			continue
		}
		id, found, err = r.store.FindID(ctx, cand.Collection, cand.Field, alt)
		if err != nil {
			return Resolution{}, false, err
		}
		if found {
			return Resolution{ID: id, Collection: cand.Collection, Matched: alt, Strategy: fb.Name}, true, nil
		}
	}
	return Resolution{}, false, nil
}
