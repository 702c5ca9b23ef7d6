package pricing

import "strconv"

// Scope is an optional id restricting where a promotional entry applies.
// The zero value is the wildcard.
type Scope struct {
	id  int64
	set bool
}

// Any returns the wildcard scope.
func Any() Scope { return Scope{} }

// ID returns a scope bound to a concrete id.
func ID(id int64) Scope { return Scope{id: id, set: true} }

// ScopeFromSentinel converts a catalog column where 0 means "unscoped".
func ScopeFromSentinel(v int64) Scope {
	if v == 0 {
		return Any()
	}
	return ID(v)
}

// IsSet reports whether the scope carries a concrete id.
func (s Scope) IsSet() bool { return s.set }

// Value returns the concrete id and whether one is set.
func (s Scope) Value() (int64, bool) { return s.id, s.set }

// Admits reports whether an entry scoped by s applies to a context value v.
// A wildcard admits anything; a concrete id admits only the identical scope.
func (s Scope) Admits(v Scope) bool {
	return !s.set || s == v
}

// AdmitsID is Admits against a concrete run value.
func (s Scope) AdmitsID(v int64) bool {
	return !s.set || s.id == v
}

func (s Scope) String() string {
	if !s.set {
		return "*"
	}
	return strconv.FormatInt(s.id, 10)
}
