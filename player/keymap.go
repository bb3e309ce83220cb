// Package player turns note sequences into timed key presses.
package player

import "strings"

// DefaultAliasPrefixes lets Key5, 1Key5, 2Key5 and 3Key5 reach the same key.
var DefaultAliasPrefixes = []string{"", "1", "2", "3"}

// KeyMap resolves logical note ids to physical key symbols. It is read-only
// once built.
type KeyMap struct {
	keys map[string]string
}

// NewKeyMap builds a case-insensitive table with one entry per alias prefix.
// Empty ids and values are skipped.
func NewKeyMap(mapping map[string]string, prefixes []string) *KeyMap {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	km := &KeyMap{keys: make(map[string]string, len(mapping)*len(prefixes))}
	for id, key := range mapping {
		if id == "" || key == "" {
			continue
		}
		for _, p := range prefixes {
			km.keys[strings.ToLower(p+id)] = key
		}
	}
	return km
}

// Resolve returns the physical key for a logical id.
func (km *KeyMap) Resolve(id string) (string, bool) {
	key, ok := km.keys[strings.ToLower(id)]
	return key, ok
}

// Len is the number of resolvable ids, aliases included.
func (km *KeyMap) Len() int {
	return len(km.keys)
}
