package port

import "strings"

// TypeAny is compatible with every other type.
const TypeAny = "any"

// Compatible reports whether an output of type out may feed an input of type
// in. Types match when either is "any", when they are equal, or when out is a
// dotted descendant of in ("number.integer" feeds "number", not the reverse).
func Compatible(out, in string) bool {
	if out == TypeAny || in == TypeAny {
		return true
	}
	if out == in {
		return true
	}
	return strings.HasPrefix(out, in+".")
}

// IsA reports whether typ is base or one of its dotted descendants. "any"
// is treated as satisfying every base.
func IsA(typ, base string) bool {
	return typ == TypeAny || typ == base || strings.HasPrefix(typ, base+".")
}
