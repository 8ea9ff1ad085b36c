package filter

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/dietrichf/geocss/internal/types"
)

/*
 * Attribute path resolution for feature documents.
 *
 * Resolves arbitrary paths through nested objects and arrays with wildcard
 * support. Wildcards use ANY semantics: every candidate resolution is
 * enumerated, and a comparison matches when any resolved value satisfies
 * it. Enforces MaxPathDepth and MaxNestedWildcards at resolution time.
 *
 * Wildcard on an object iterates keys in sorted order so the same feature
 * always enumerates resolutions in the same order.
 */

// PathSegment represents one component of an attribute path.
// String for object keys, int for array indices, wildcard for array expansion.
type PathSegment struct {
	Key      string // object key (mutually exclusive with Index/Wildcard)
	Index    int    // array index (mutually exclusive with Key/Wildcard)
	IsIndex  bool   // disambiguates Index=0 from unset
	Wildcard bool   // true = wildcard segment
}

// ResolveResult contains the resolved value and the actual path taken.
type ResolveResult struct {
	Value        any           // resolved value (nil if not found)
	ResolvedPath []PathSegment // path with wildcards replaced by actual indices
	Found        bool          // true if path resolved to a value
}

// Resolve traverses a feature document following path segments and returns
// the first resolution in enumeration order. For non-wildcard paths this is
// the only resolution; wildcard consumers needing ANY semantics use
// ResolveAll instead.
// Returns ErrPathTooDeep if path exceeds MaxPathDepth.
// Returns ErrTooManyWildcards if path contains > MaxNestedWildcards wildcards.
// Returns ErrFieldNotFound if path does not exist in the document.
func Resolve(path []PathSegment, feature json.RawMessage) (ResolveResult, error) {
	results, err := ResolveAll(path, feature)
	if err != nil {
		return ResolveResult{}, err
	}
	return results[0], nil
}

// ResolveAll enumerates every resolution of the path through the feature
// document. Non-wildcard paths yield at most one result; each wildcard
// segment fans out across the elements (or sorted keys) it traverses.
// Shares Resolve's limit and not-found errors; never returns an empty
// slice without an error.
func ResolveAll(path []PathSegment, feature json.RawMessage) ([]ResolveResult, error) {
	if len(path) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}

	wildcardCount := 0
	for _, seg := range path {
		if seg.Wildcard {
			wildcardCount++
		}
	}
	if wildcardCount > types.MaxNestedWildcards {
		return nil, types.ErrTooManyWildcards
	}

	var parsed any
	if err := json.Unmarshal(feature, &parsed); err != nil {
		return nil, err
	}

	var out []ResolveResult
	resolveInto(path, parsed, nil, &out)
	if len(out) == 0 {
		return nil, types.ErrFieldNotFound
	}
	return out, nil
}

// resolveInto traverses nested structures following path segments,
// collecting every complete resolution. Accumulates the resolved path with
// actual indices/keys replacing wildcards.
func resolveInto(path []PathSegment, current any, resolvedSoFar []PathSegment, out *[]ResolveResult) {
	if len(path) == 0 {
		*out = append(*out, ResolveResult{
			Value:        current,
			ResolvedPath: resolvedSoFar,
			Found:        true,
		})
		return
	}

	seg := path[0]
	remaining := path[1:]

	switch v := current.(type) {
	case map[string]any:
		if seg.Wildcard {
			// Sorted keys keep wildcard enumeration deterministic
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				resolveInto(remaining, v[key], appendSegment(resolvedSoFar, PathSegment{Key: key}), out)
			}
			return
		}
		if seg.IsIndex {
			// Cannot index into object with integer
			return
		}
		val, ok := v[seg.Key]
		if !ok {
			return
		}
		resolveInto(remaining, val, appendSegment(resolvedSoFar, seg), out)

	case []any:
		if seg.Wildcard {
			for i, elem := range v {
				resolveInto(remaining, elem, appendSegment(resolvedSoFar, PathSegment{Index: i, IsIndex: true}), out)
			}
			return
		}
		if !seg.IsIndex {
			// Cannot use string key on array
			return
		}
		if seg.Index < 0 || seg.Index >= len(v) {
			return
		}
		resolveInto(remaining, v[seg.Index], appendSegment(resolvedSoFar, seg), out)
	}
	// Null or scalar at an intermediate position contributes nothing.
}

// appendSegment extends a resolved path without sharing backing arrays
// between sibling wildcard branches.
func appendSegment(path []PathSegment, seg PathSegment) []PathSegment {
	out := make([]PathSegment, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

// FormatPath renders a path in the expression syntax: a.b[0].c, items[*].tag.
func FormatPath(path []PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		switch {
		case seg.Wildcard:
			b.WriteString("[*]")
		case seg.IsIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg.Key)
		}
	}
	return b.String()
}
