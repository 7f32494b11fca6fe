// =============================================================================
// KEYS AND VALUES - OPAQUE BYTES WITH AN EXPLICIT NULL
// =============================================================================
//
// WHAT IS THIS?
// The store's key space is opaque byte sequences PLUS one distinguished
// null key. The null key is a real, writable key: it is distinct from
// the empty byte sequence and from "key never written". Values work the
// same way on the other side of the mapping: a nil value is a legal
// stored value (an explicit "no value"), distinct from a missing entry.
//
// WHY A DEDICATED TYPE?
// Byte slices cannot be map keys in Go, and a bare string cannot
// represent "null" separately from "". Key folds both into a small
// comparable value type usable directly as a map key.
//
// CONVERSION RULES:
//   KeyOf(nil)        -> the null key
//   KeyOf([]byte{})   -> the empty key (distinct from null)
//   KeyOf([]byte("x"))-> a regular key
//
// =============================================================================

package store

import "fmt"

// Key is an opaque, comparable cache key. The zero value is the null key.
type Key struct {
	s       string
	present bool
}

// NullKey is the distinguished absent-key value.
var NullKey = Key{}

// KeyOf builds a Key from raw bytes. A nil slice maps to the null key;
// any non-nil slice, including an empty one, maps to a regular key.
func KeyOf(b []byte) Key {
	if b == nil {
		return NullKey
	}
	return Key{s: string(b), present: true}
}

// Bytes returns the key's byte representation; nil for the null key.
// The returned slice is a fresh copy.
func (k Key) Bytes() []byte {
	if !k.present {
		return nil
	}
	return []byte(k.s)
}

// IsNull reports whether this is the null key.
func (k Key) IsNull() bool {
	return !k.present
}

// String renders the key for logs and debug output.
func (k Key) String() string {
	if !k.present {
		return "<null>"
	}
	return fmt.Sprintf("%q", k.s)
}

// cloneValue copies a stored value, preserving nil.
func cloneValue(v []byte) []byte {
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}
