package constraint

import "github.com/bedquiltdb/bedquilt/value"

// Set is the collection of constraints declared against one collection,
// keyed by canonical name so that declaring the same constraint twice is
// a no-op (I3: idempotence) rather than a duplicate entry.
type Set struct {
	byName map[string]Constraint
	order  []string
}

// NewSet returns an empty constraint set.
func NewSet() *Set {
	return &Set{byName: make(map[string]Constraint)}
}

// Add declares c, returning false if an identically named constraint was
// already present (idempotent add, I3).
func (s *Set) Add(c Constraint) bool {
	if _, exists := s.byName[c.Name]; exists {
		return false
	}
	s.byName[c.Name] = c
	s.order = append(s.order, c.Name)
	return true
}

// Remove drops the constraint named name, returning false if it was not
// declared (idempotent remove).
func (s *Set) Remove(name string) bool {
	if _, exists := s.byName[name]; !exists {
		return false
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List returns the declared constraints in declaration order.
func (s *Set) List() []Constraint {
	out := make([]Constraint, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byName[n])
	}
	return out
}

// Len reports the number of declared constraints.
func (s *Set) Len() int { return len(s.order) }

// CheckAll validates doc against every declared constraint, returning the
// first violation encountered in declaration order, or nil if doc
// satisfies all of them. The engine calls CheckAll on documents being
// written or re-written. Existing documents are checked separately, one
// constraint at a time, when a constraint is declared
// (engine.AddConstraint), and a declaration they violate is rejected.
func (s *Set) CheckAll(doc value.Value) error {
	for _, n := range s.order {
		if err := s.byName[n].Check(doc); err != nil {
			return err
		}
	}
	return nil
}
