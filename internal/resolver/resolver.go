// Package resolver matches an extracted identity against registered hunters.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"
)

// Kind is how a hunter was matched.
type Kind string

const (
	KindNone  Kind = "none"
	KindExact Kind = "exact"
	KindFuzzy Kind = "fuzzy"
)

// Query is the identity to resolve.
type Query struct {
	Surname   string
	GivenName string
	BirthDate *time.Time
}

// Match is the outcome of a resolution. Hunter is nil for KindNone.
type Match struct {
	Hunter *domain.Hunter
	Kind   Kind
}

// Finder is the read side of the hunter repository the resolver needs.
type Finder interface {
	FindByName(ctx context.Context, surname, givenName string) ([]domain.Hunter, error)
	ListActive(ctx context.Context) ([]domain.Hunter, error)
}

// Resolver looks up hunters exactly first and fuzzily second.
type Resolver struct{}

// New creates a resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve returns the first exact match, else the first fuzzy match among
// active hunters, else KindNone.
func (r *Resolver) Resolve(ctx context.Context, finder Finder, q Query) (Match, error) {
	q = normalize(q)
	if q.Surname == "" || q.GivenName == "" {
		return Match{Kind: KindNone}, nil
	}

	exact, err := finder.FindByName(ctx, q.Surname, q.GivenName)
	if err != nil {
		return Match{}, fmt.Errorf("failed to find hunters by name: %w", err)
	}
	if m := MatchHunters(exact, q); m.Kind == KindExact {
		return m, nil
	}

	active, err := finder.ListActive(ctx)
	if err != nil {
		return Match{}, fmt.Errorf("failed to list active hunters: %w", err)
	}
	return MatchHunters(active, q), nil
}

// MatchHunters scans hunters linearly: an exact match on both names wins,
// then a surname match whose given name contains, or is contained in, the
// queried one. A conflicting birth date only rules out the exact pass.
func MatchHunters(hunters []domain.Hunter, q Query) Match {
	q = normalize(q)
	if q.Surname == "" || q.GivenName == "" {
		return Match{Kind: KindNone}
	}

	for i := range hunters {
		h := &hunters[i]
		if !h.Active || !birthDatesAgree(h.BirthDate, q.BirthDate) {
			continue
		}
		if strings.EqualFold(h.Surname, q.Surname) && strings.EqualFold(h.GivenName, q.GivenName) {
			return Match{Hunter: h, Kind: KindExact}
		}
	}

	given := strings.ToLower(q.GivenName)
	for i := range hunters {
		h := &hunters[i]
		if !h.Active {
			continue
		}
		if !strings.EqualFold(h.Surname, q.Surname) {
			continue
		}
		candidate := strings.ToLower(h.GivenName)
		if candidate == "" {
			continue
		}
		if strings.Contains(candidate, given) || strings.Contains(given, candidate) {
			return Match{Hunter: h, Kind: KindFuzzy}
		}
	}

	return Match{Kind: KindNone}
}

func normalize(q Query) Query {
	q.Surname = domain.NormalizeSurname(q.Surname)
	q.GivenName = domain.NormalizeGivenName(q.GivenName)
	return q
}

func birthDatesAgree(a, b *time.Time) bool {
	if a == nil || b == nil {
		return true
	}
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
