package filter

import "github.com/tev2-toolkit/mrgen/pkg/model"

// Predicate is a test over a term.
type Predicate func(model.Term) bool

func Always(model.Term) bool { return true }

func (p Predicate) And(other Predicate) Predicate {
	return func(t model.Term) bool { return p(t) && other(t) }
}

func (p Predicate) Or(other Predicate) Predicate {
	return func(t model.Term) bool { return p(t) || other(t) }
}

func (p Predicate) Not() Predicate {
	return func(t model.Term) bool { return !p(t) }
}

// AnyOf OR-reduces add filters. An empty list selects every term, so scopes
// that specify no selection keep all of their terms.
func AnyOf(filters []TermFilter, identity string) Predicate {
	if len(filters) == 0 {
		return Always
	}
	p := filters[0].Predicate(identity)
	for _, f := range filters[1:] {
		p = p.Or(f.Predicate(identity))
	}
	return p
}

// NoneOfAll AND-reduces remove filters and negates the result: a term is
// dropped only when it matches every remove filter. An empty list drops nothing.
func NoneOfAll(filters []TermFilter, identity string) Predicate {
	if len(filters) == 0 {
		return Always
	}
	p := filters[0].Predicate(identity)
	for _, f := range filters[1:] {
		p = p.And(f.Predicate(identity))
	}
	return p.Not()
}

// Select is the per-scope predicate: AnyOf(adds) AND NoneOfAll(removes).
func Select(adds, removes []TermFilter, identity string) Predicate {
	return AnyOf(adds, identity).And(NoneOfAll(removes, identity))
}

// Apply returns the terms that satisfy p, keeping their order.
func Apply(terms []model.Term, p Predicate) []model.Term {
	var out []model.Term
	for _, t := range terms {
		if p(t) {
			out = append(out, t)
		}
	}
	return out
}
