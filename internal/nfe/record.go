// =============================================================================
// XML to JSON Converter - NFe Summary Record
// =============================================================================
//
// This module holds the result of an extraction: the flat field object, the
// product list, and the fields that were missing or left as written.
//
// OUTPUT SHAPES:
//   Object() - flat fields, quantidade_itens, produtos
//   Report() - {"nfe": Object(), "missing_fields", "unnormalized_fields"}
//
// =============================================================================

package nfe

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// =============================================================================
// WARNINGS
// =============================================================================

// FieldNotFoundWarning reports an expected field that none of its candidate
// paths could resolve. It is informational: extraction always completes.
type FieldNotFoundWarning struct {
	Field string
	Paths []string
}

// Error implements the error interface.
func (w *FieldNotFoundWarning) Error() string {
	return fmt.Sprintf("nfe field %q not found (tried %d paths)", w.Field, len(w.Paths))
}

// =============================================================================
// RECORD
// =============================================================================

// Record is the flat NFe summary extracted from a converted document.
type Record struct {
	// Fields holds every key of the field table in order; absent fields are nil.
	Fields *types.Object

	// Items holds one object per product (det) entry.
	Items []types.Value

	// Missing lists expected fields that were not found.
	Missing []string

	// Unnormalized lists fields whose value was passed through as written
	// because its format was not recognized.
	Unnormalized []string

	// Warnings carries one FieldNotFoundWarning per missing field.
	Warnings []*FieldNotFoundWarning

	// IsNFe is true when an infNFe node was located.
	IsNFe bool

	includeItems bool
}

// Get returns the string value of a field, or "" when it is absent.
func (r *Record) Get(name string) string {
	v, _ := r.Fields.Get(name)
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	}
	return ""
}

// Err joins the field warnings, or returns nil when every expected field
// was found.
func (r *Record) Err() error {
	if len(r.Warnings) == 0 {
		return nil
	}
	errs := make([]error, len(r.Warnings))
	for i, w := range r.Warnings {
		errs[i] = w
	}
	return errors.Join(errs...)
}

// Object renders the record as a flat object followed by the product list.
func (r *Record) Object() *types.Object {
	out := types.NewObject()
	r.Fields.Range(func(k string, v types.Value) bool {
		out.Set(k, v)
		return true
	})
	if r.includeItems {
		out.Set("quantidade_itens", json.Number(fmt.Sprint(len(r.Items))))
		items := r.Items
		if items == nil {
			items = []types.Value{}
		}
		out.Set("produtos", items)
	}
	return out
}

// MarshalJSON encodes the flat record.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.Object().MarshalJSON()
}

// Report wraps the record with its missing and unnormalized field lists.
//
// RETURNS:
//   - {"nfe": {...}, "missing_fields": [...], "unnormalized_fields": [...]}
//     with both lists present even when empty.
func (r *Record) Report() *types.Object {
	out := types.NewObject()
	out.Set("nfe", r.Object())
	out.Set("missing_fields", stringList(r.Missing))
	out.Set("unnormalized_fields", stringList(r.Unnormalized))
	return out
}

func stringList(in []string) []types.Value {
	out := make([]types.Value, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
