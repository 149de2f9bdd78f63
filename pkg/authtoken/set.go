package authtoken

import (
	"slices"
	"strings"
)

// Set is an unordered set of strings, used for roles and scopes.
type Set map[string]struct{}

// NewSet returns a Set holding items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports whether item is in the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// HasFold reports whether the set holds item, ignoring case.
func (s Set) HasFold(item string) bool {
	for member := range s {
		if strings.EqualFold(member, item) {
			return true
		}
	}
	return false
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	items := make([]string, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	slices.Sort(items)
	return items
}
