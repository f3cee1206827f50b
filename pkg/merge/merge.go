// Package merge applies partial JSON updates onto configuration trees.
//
// Merge works against the small Tree interface so the same recursion serves
// plain maps and the comment-preserving TOML tables of package document.
// A patch value that is a mapping is merged key by key into the existing
// nested mapping; any other value (scalar or array) replaces the target value
// outright, including when the target held a nested mapping. Keys absent from
// the patch are never touched.
package merge

// Tree is a mutable mapping node that a patch can be merged into.
type Tree interface {
	// Subtree returns the nested mapping stored at key. When key is absent
	// or holds a non-mapping value, an empty mapping takes its place.
	Subtree(key string) Tree
	// Set stores a leaf value at key, replacing whatever was there.
	Set(key string, value any)
}

// Merge applies patch onto target in place and returns target.
// Keys of a plain map are visited in sorted order so new keys are added
// deterministically.
func Merge(target Tree, patch map[string]any) Tree {
	return MergeObject(target, FromMap(patch))
}

// MergeObject applies patch onto target in place and returns target. Keys
// are visited in the patch's order, so new keys are added in the order the
// client sent them.
func MergeObject(target Tree, patch *Object) Tree {
	for _, k := range patch.keys {
		switch v := patch.values[k].(type) {
		case *Object:
			MergeObject(target.Subtree(k), v)
		case map[string]any:
			Merge(target.Subtree(k), v)
		default:
			target.Set(k, plain(v))
		}
	}
	return target
}

// Map is a Tree over a plain map. Nested mappings are stored as
// map[string]any so the result compares equal to decoded JSON.
type Map map[string]any

// Subtree implements Tree.
func (m Map) Subtree(key string) Tree {
	switch v := m[key].(type) {
	case map[string]any:
		return Map(v)
	case Map:
		return v
	}
	sub := map[string]any{}
	m[key] = sub
	return Map(sub)
}

// Set implements Tree.
func (m Map) Set(key string, value any) {
	m[key] = value
}
