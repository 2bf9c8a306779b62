// =============================================================================
// XML to JSON Converter - NFe Document Paths
// =============================================================================
//
// This module addresses values inside a converted document by dotted path.
//
// PATH SYNTAX:
//   nfeProc.NFe.infNFe.ide.nNF   -> object keys
//   enviNFe.NFe.0.infNFe         -> numeric segments are array indexes
//
// SINGLE OCCURRENCES:
//   The converter writes an element that occurs once as a bare value and
//   only wraps repeated elements in an array. Index 0 therefore also matches
//   a bare value, so one path reads both shapes.
//
// =============================================================================

package nfe

import (
	"strconv"
	"strings"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// Step is one hop of a Path: an object key or an array index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path addresses a value inside a converted document.
type Path []Step

// =============================================================================
// PARSING
// =============================================================================

// ParsePath splits a dotted path. Purely numeric segments are index steps,
// so "enviNFe.NFe.0.infNFe" reads the first NFe of a batch envelope.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if n, err := strconv.Atoi(part); err == nil && n >= 0 {
			p = append(p, Step{Index: n, IsIndex: true})
			continue
		}
		p = append(p, Step{Key: part})
	}
	return p
}

// Join returns p followed by the steps of rel.
func (p Path) Join(rel string) Path {
	out := make(Path, 0, len(p)+strings.Count(rel, ".")+1)
	out = append(out, p...)
	return append(out, ParsePath(rel)...)
}

// String renders the path in dotted form.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		if s.IsIndex {
			parts[i] = strconv.Itoa(s.Index)
		} else {
			parts[i] = s.Key
		}
	}
	return strings.Join(parts, ".")
}

// =============================================================================
// RESOLUTION
// =============================================================================

// Resolve walks p from v. An index 0 step on a value that is not an array
// resolves to the value itself, because a single occurrence of a repeatable
// element is not wrapped in an array by the converter.
//
// PARAMETERS:
//   - v: A converted document or any value inside one.
//   - p: The steps to follow.
//
// RETURNS:
//   - The value found, which may be null.
//   - false when a step names a missing key, an index past the end of an
//     array, or walks into a scalar.
func Resolve(v types.Value, p Path) (types.Value, bool) {
	cur := v
	for _, step := range p {
		if step.IsIndex {
			arr, ok := cur.([]types.Value)
			if !ok {
				if step.Index == 0 && cur != nil {
					continue
				}
				return nil, false
			}
			if step.Index >= len(arr) {
				return nil, false
			}
			cur = arr[step.Index]
			continue
		}

		obj, ok := cur.(*types.Object)
		if !ok {
			return nil, false
		}
		next, ok := obj.Get(step.Key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// asList returns v as a list, wrapping a single value.
func asList(v types.Value) []types.Value {
	switch t := v.(type) {
	case nil:
		return nil
	case []types.Value:
		return t
	}
	return []types.Value{v}
}
