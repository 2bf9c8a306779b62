// =============================================================================
// XML to JSON Converter - NFe Field Extractor
// =============================================================================
//
// This module reads a converted NFe document (the JSON value produced by the
// structural converter) and builds a flat summary record of its well-known
// fiscal fields.
//
// LOOKUP:
//   Every field has an ordered list of candidate paths, because documents
//   differ in nesting depending on how they were emitted:
//     nfeProc.NFe.infNFe...      authorized invoice with protocol
//     NFe.infNFe...              invoice without protocol
//     enviNFe.NFe.0.infNFe...    batch submission envelope
//   The first candidate resolving to a usable value wins.
//
// NORMALIZATION:
//   - Money      : "1.234,56" / "1,234.56" / 1234.56 -> "1234.56"
//   - Dates      : recognized layouts -> ISO 8601, otherwise raw + flagged
//   - CNPJ/CPF/CEP: leading zeros restored, optionally punctuated
//   - Access key : "NFe" prefix of the infNFe Id stripped
//
// ERRORS:
//   Extraction never fails. Missing expected fields are listed on the record
//   and reported as FieldNotFoundWarning values.
//
// =============================================================================

package nfe

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options contains options for extraction.
type Options struct {
	// MoneyFormat selects the rendering of monetary fields.
	// Default: MoneyDecimal
	MoneyFormat MoneyFormat

	// FormatDocuments punctuates CNPJ, CPF and CEP values.
	// Default: true
	FormatDocuments bool

	// ExtractItems adds the product list to the record.
	// Default: true
	ExtractItems bool

	// ValueKey, AttributesKey and AttributePrefix must match the converter
	// options the document was produced with.
	ValueKey        string
	AttributesKey   string
	AttributePrefix string
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{
		MoneyFormat:     MoneyDecimal,
		FormatDocuments: true,
		ExtractItems:    true,
		ValueKey:        "_value",
		AttributesKey:   "@attributes",
		AttributePrefix: "@",
	}
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor builds summary records from converted NFe documents.
type Extractor struct {
	opts      Options
	fields    []Field
	items     []Field
	itemPaths []Path
	infPaths  []Path
	logger    *zap.Logger
}

// NewExtractor creates an Extractor using the default field tables.
func NewExtractor(opts Options, logger *zap.Logger) *Extractor {
	return NewExtractorWithFields(opts, DefaultFieldTable(), logger)
}

// NewExtractorWithFields creates an Extractor over a custom field table.
func NewExtractorWithFields(opts Options, fields []Field, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.MoneyFormat == "" {
		opts.MoneyFormat = def.MoneyFormat
	}
	if opts.ValueKey == "" {
		opts.ValueKey = def.ValueKey
	}
	if opts.AttributesKey == "" {
		opts.AttributesKey = def.AttributesKey
	}
	if opts.AttributePrefix == "" {
		opts.AttributePrefix = def.AttributePrefix
	}

	e := &Extractor{opts: opts, logger: logger}
	e.fields = e.remapFields(fields)
	e.items = e.remapFields(ItemFieldTable())
	e.itemPaths = itemListPaths()
	e.infPaths = infNFePaths()
	return e
}

// remapFields rewrites attribute steps to the configured attribute keys.
func (e *Extractor) remapFields(in []Field) []Field {
	out := make([]Field, len(in))
	for i, f := range in {
		f.Paths = e.remapPaths(f.Paths)
		out[i] = f
	}
	return out
}

func (e *Extractor) remapPaths(in []Path) []Path {
	out := make([]Path, len(in))
	for i, p := range in {
		np := make(Path, len(p))
		for j, s := range p {
			switch {
			case s.IsIndex:
			case s.Key == "@attributes":
				s.Key = e.opts.AttributesKey
			case strings.HasPrefix(s.Key, "@"):
				s.Key = e.opts.AttributePrefix + s.Key[1:]
			}
			np[j] = s
		}
		out[i] = np
	}
	return out
}

// =============================================================================
// EXTRACTION
// =============================================================================

// Extract builds the summary record for doc. It never fails; absent fields
// are nil and expected ones are listed in Missing.
func (e *Extractor) Extract(doc types.Value) *Record {
	rec := &Record{
		Fields:       types.NewObject(),
		includeItems: e.opts.ExtractItems,
	}

	for _, p := range e.infPaths {
		if v, ok := Resolve(doc, p); ok {
			if _, isObj := v.(*types.Object); isObj {
				rec.IsNFe = true
				break
			}
		}
	}

	for _, f := range e.fields {
		v, raw, found := e.lookup(doc, f)
		if !found {
			rec.Fields.Set(f.Name, nil)
			if f.Expected {
				rec.Missing = append(rec.Missing, f.Name)
				rec.Warnings = append(rec.Warnings, &FieldNotFoundWarning{Field: f.Name, Paths: pathStrings(f.Paths)})
			}
			continue
		}
		rec.Fields.Set(f.Name, v)
		if raw {
			rec.Unnormalized = append(rec.Unnormalized, f.Name)
		}
	}

	if e.opts.ExtractItems {
		rec.Items = e.extractItems(doc)
	}

	if len(rec.Missing) > 0 {
		e.logger.Debug("nfe fields not found", zap.Strings("fields", rec.Missing), zap.Bool("is_nfe", rec.IsNFe))
	}
	return rec
}

// lookup tries each candidate path of f. raw reports a value that was kept
// as written because it could not be normalized.
func (e *Extractor) lookup(doc types.Value, f Field) (v types.Value, raw bool, found bool) {
	for _, p := range f.Paths {
		val, ok := Resolve(doc, p)
		if !ok || val == nil {
			continue
		}
		if out, raw, ok := e.normalize(f, val); ok {
			return out, raw, true
		}
	}
	return nil, false, false
}

func (e *Extractor) extractItems(doc types.Value) []types.Value {
	var dets types.Value
	for _, p := range e.itemPaths {
		if v, ok := Resolve(doc, p); ok && v != nil {
			dets = v
			break
		}
	}

	list := asList(dets)
	items := make([]types.Value, 0, len(list))
	for _, det := range list {
		item := types.NewObject()
		for _, f := range e.items {
			if v, _, found := e.lookup(det, f); found {
				item.Set(f.Name, v)
			}
		}
		if item.Len() > 0 {
			items = append(items, item)
		}
	}
	return items
}

// =============================================================================
// NORMALIZATION
// =============================================================================

func (e *Extractor) normalize(f Field, v types.Value) (out types.Value, raw bool, ok bool) {
	if f.Kind == KindAddress {
		addr := e.address(v)
		return addr, false, addr != ""
	}

	text, numeric, ok := scalarText(v, e.opts.ValueKey)
	if !ok {
		return nil, false, false
	}

	switch f.Kind {
	case KindDigits:
		if numeric {
			return padDigits(text, f.Width), false, true
		}
		return text, false, true

	case KindMoney:
		r, ok := ParseMoney(text)
		if !ok {
			return text, true, true
		}
		return FormatMoney(r, e.opts.MoneyFormat), false, true

	case KindQuantity:
		if numeric {
			return json.Number(text), false, true
		}
		r, ok := ParseMoney(text)
		if !ok {
			return text, true, true
		}
		return json.Number(trimFraction(r.FloatString(6))), false, true

	case KindDate:
		s, ok := NormalizeDate(text)
		return s, !ok, true

	case KindCNPJ, KindCPF, KindCEP:
		d := OnlyDigits(text)
		if d == "" {
			return text, true, true
		}
		if numeric {
			d = padDigits(d, f.Width)
		}
		if !e.opts.FormatDocuments {
			return d, false, true
		}
		switch f.Kind {
		case KindCNPJ:
			return FormatCNPJ(d), false, true
		case KindCPF:
			return FormatCPF(d), false, true
		}
		return FormatCEP(d), false, true

	case KindChave:
		if c := ChaveFromID(text); c != "" {
			return c, false, true
		}
		return text, true, true
	}

	return text, false, true
}

// address joins street, number and complement of an address node.
func (e *Extractor) address(v types.Value) string {
	obj, ok := v.(*types.Object)
	if !ok {
		return ""
	}
	var parts []string
	for _, key := range []string{"xLgr", "nro", "xCpl"} {
		part, _ := obj.Get(key)
		if s, _, ok := scalarText(part, e.opts.ValueKey); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Summary condenses a record into the short executive summary printed by the
// nfe command.
func (e *Extractor) Summary(rec *Record) *types.Object {
	orNA := func(name string) string {
		if s := rec.Get(name); s != "" {
			return s
		}
		return "N/A"
	}

	out := types.NewObject()
	out.Set("tipo", "NFe - Nota Fiscal Eletrônica")
	out.Set("numero_serie", fmt.Sprintf("%s/%s", orNA("numero"), orNA("serie")))
	out.Set("emitente", orNA("emitente_nome"))
	out.Set("destinatario", orNA("destinatario_nome"))
	out.Set("valor_total", orNA("valor_total"))
	out.Set("data_emissao", orNA("data_emissao"))
	out.Set("status", orNA("status_descricao"))
	out.Set("itens", json.Number(fmt.Sprint(len(rec.Items))))
	return out
}

func pathStrings(paths []Path) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.String()
	}
	return out
}

// trimFraction drops trailing zeros after the decimal point.
func trimFraction(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
