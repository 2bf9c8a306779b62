// =============================================================================
// XML to JSON Converter - Structural Converter
// =============================================================================
//
// This module contains the core conversion logic: it walks an XML element
// tree depth-first and builds the equivalent JSON value.
//
// CONVERSION RULES:
//   - A leaf element with only text becomes a scalar (optionally coerced)
//   - An element with attributes becomes an object whose first entry holds
//     the attributes, followed by the text entry, followed by the children
//   - Sibling elements sharing a tag name collapse into an array in document
//     order; a tag that occurs once stays a bare value
//   - Namespace prefixes are stripped from element and attribute names when
//     CleanNamespaces is set; xmlns declarations are never emitted
//   - Empty elements become null (or "" under the empty-string policy)
//
// ENTRY POINTS:
//   ConvertFile, ConvertString, ConvertBytes, ConvertReader all parse the
//   input and wrap the root as {rootName: rootValue}. ConvertNode converts an
//   already parsed element without the wrapper.
//
// CONCURRENCY:
//   A Converter holds only immutable options and may be shared between
//   goroutines.
//
// =============================================================================

package converter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/types"
	"github.com/ginjaninja78/XML-to-JSON-conversion/internal/xmlparser"
)

// =============================================================================
// OPTIONS
// =============================================================================

// EmptyPolicy selects the JSON value of an element with no content.
type EmptyPolicy string

const (
	EmptyNull   EmptyPolicy = "null"
	EmptyString EmptyPolicy = "empty_string"
)

// AttributeStyle selects how attributes are placed in the element object.
type AttributeStyle string

const (
	// AttributesGrouped nests attributes under a single "@attributes" key.
	AttributesGrouped AttributeStyle = "grouped"

	// AttributesPrefixed writes each attribute as its own "@name" key.
	AttributesPrefixed AttributeStyle = "prefixed"
)

// Options contains options for the structural conversion.
type Options struct {
	// CleanNamespaces strips namespace prefixes from names.
	// Default: true
	CleanNamespaces bool

	// PreserveAttributes emits element attributes.
	// Default: true
	PreserveAttributes bool

	// AutoTypeConversion coerces leaf text and attribute values into
	// booleans and numbers.
	// Default: true
	AutoTypeConversion bool

	// EmptyValue is the value of an empty element.
	// Default: EmptyNull
	EmptyValue EmptyPolicy

	// AttributeStyle chooses grouped or prefixed attributes.
	// Default: AttributesGrouped
	AttributeStyle AttributeStyle

	// AttributesKey is the key of the grouped attribute object.
	// Default: "@attributes"
	AttributesKey string

	// AttributePrefix is prepended to attribute names in prefixed style.
	// Default: "@"
	AttributePrefix string

	// ValueKey holds the text of a childless element that has attributes.
	// Default: "_value"
	ValueKey string

	// TextKey holds the leading text of an element that has children.
	// Default: "_text"
	TextKey string

	// ForceArray lists tag names that always produce arrays, even when they
	// occur once.
	ForceArray []string

	// Parser controls decoding of raw input.
	Parser xmlparser.Options
}

// DefaultOptions returns the default conversion options.
func DefaultOptions() Options {
	return Options{
		CleanNamespaces:    true,
		PreserveAttributes: true,
		AutoTypeConversion: true,
		EmptyValue:         EmptyNull,
		AttributeStyle:     AttributesGrouped,
		AttributesKey:      "@attributes",
		AttributePrefix:    "@",
		ValueKey:           "_value",
		TextKey:            "_text",
		Parser:             xmlparser.DefaultOptions(),
	}
}

// =============================================================================
// STATISTICS
// =============================================================================

// Stats describes the converted document.
type Stats struct {
	Elements   int
	Attributes int
	Arrays     int
	MaxDepth   int
	Duration   time.Duration
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter converts XML documents into the JSON value model.
type Converter struct {
	opts   Options
	forced map[string]bool
	logger *zap.Logger
}

// New creates a Converter. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.EmptyValue == "" {
		opts.EmptyValue = def.EmptyValue
	}
	if opts.AttributeStyle == "" {
		opts.AttributeStyle = def.AttributeStyle
	}
	if opts.AttributesKey == "" {
		opts.AttributesKey = def.AttributesKey
	}
	if opts.AttributePrefix == "" {
		opts.AttributePrefix = def.AttributePrefix
	}
	if opts.ValueKey == "" {
		opts.ValueKey = def.ValueKey
	}
	if opts.TextKey == "" {
		opts.TextKey = def.TextKey
	}

	forced := make(map[string]bool, len(opts.ForceArray))
	for _, name := range opts.ForceArray {
		forced[name] = true
	}

	return &Converter{opts: opts, forced: forced, logger: logger}
}

// Options returns the options the converter runs with.
func (c *Converter) Options() Options {
	return c.opts
}

// =============================================================================
// ENTRY POINTS
// =============================================================================

// ConvertFile reads, parses and converts the XML file at path.
func (c *Converter) ConvertFile(path string) (types.Value, error) {
	v, _, err := c.ConvertFileWithStats(path)
	return v, err
}

// ConvertFileWithStats is ConvertFile that also reports document statistics.
func (c *Converter) ConvertFileWithStats(path string) (types.Value, Stats, error) {
	doc, err := xmlparser.ParseFile(path, c.opts.Parser)
	if err != nil {
		return nil, Stats{}, err
	}
	v, stats := c.ConvertDocument(doc)
	c.logger.Debug("converted file",
		zap.String("file", path),
		zap.Int("elements", stats.Elements),
		zap.Int("attributes", stats.Attributes),
		zap.Int("max_depth", stats.MaxDepth),
		zap.Duration("duration", stats.Duration),
	)
	return v, stats, nil
}

// ConvertString parses and converts an XML document held in s.
func (c *Converter) ConvertString(s string) (types.Value, error) {
	return c.ConvertBytes([]byte(s))
}

// ConvertBytes parses and converts an XML document held in data.
func (c *Converter) ConvertBytes(data []byte) (types.Value, error) {
	v, _, err := c.ConvertBytesWithStats(data)
	return v, err
}

// ConvertBytesWithStats is ConvertBytes that also reports statistics.
func (c *Converter) ConvertBytesWithStats(data []byte) (types.Value, Stats, error) {
	doc, err := xmlparser.Parse(data, c.opts.Parser)
	if err != nil {
		return nil, Stats{}, err
	}
	v, stats := c.ConvertDocument(doc)
	return v, stats, nil
}

// ConvertReader reads r to the end and converts it.
func (c *Converter) ConvertReader(r io.Reader) (types.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return c.ConvertBytes(data)
}

// ConvertDocument converts a parsed document and wraps its root element as
// {rootName: rootValue}.
func (c *Converter) ConvertDocument(doc *etree.Document) (types.Value, Stats) {
	start := time.Now()
	stats := Stats{}

	root := doc.Root()
	out := types.NewObject()
	out.Set(c.elementName(root), c.convertElement(root, 1, &stats))

	stats.Duration = time.Since(start)
	return out, stats
}

// ConvertNode converts a single element subtree. The element's own name is
// not included in the result.
func (c *Converter) ConvertNode(el *etree.Element) types.Value {
	var stats Stats
	return c.convertElement(el, 1, &stats)
}

// =============================================================================
// TREE WALK
// =============================================================================

func (c *Converter) convertElement(el *etree.Element, depth int, stats *Stats) types.Value {
	stats.Elements++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	attrs := c.collectAttributes(el, stats)
	children := el.ChildElements()
	text := strings.TrimSpace(el.Text())

	if len(children) == 0 && attrs == nil {
		if text == "" {
			return c.emptyValue()
		}
		return c.scalar(text)
	}

	obj := types.NewObject()
	c.putAttributes(obj, attrs)

	if len(children) == 0 {
		if text != "" {
			obj.Set(c.opts.ValueKey, c.scalar(text))
		}
		return obj
	}

	// Mixed content keeps its leading text as written.
	if text != "" {
		obj.Set(c.opts.TextKey, text)
	}

	names := make([]string, len(children))
	counts := make(map[string]int, len(children))
	if text != "" {
		counts[c.opts.TextKey]++
	}
	for i, child := range children {
		names[i] = c.elementName(child)
		counts[names[i]]++
	}

	// A child named like the text key joins the text in one array, text
	// first, under the usual multiplicity rule.
	for i, child := range children {
		name := names[i]
		v := c.convertElement(child, depth+1, stats)
		if counts[name] == 1 && !c.forced[name] {
			obj.Set(name, v)
			continue
		}
		existing, found := obj.Get(name)
		arr, ok := existing.([]types.Value)
		if !ok {
			stats.Arrays++
			if found {
				arr = []types.Value{existing}
			}
		}
		obj.Set(name, append(arr, v))
	}

	return obj
}

// collectAttributes returns the element's attributes as an ordered object,
// or nil when there are none to emit.
func (c *Converter) collectAttributes(el *etree.Element, stats *Stats) *types.Object {
	if !c.opts.PreserveAttributes || len(el.Attr) == 0 {
		return nil
	}

	var attrs *types.Object
	for _, a := range el.Attr {
		if isNamespaceDecl(a) {
			continue
		}
		if attrs == nil {
			attrs = types.NewObject()
		}
		stats.Attributes++

		name := a.Key
		if !c.opts.CleanNamespaces {
			name = a.FullKey()
		}
		v := c.attributeValue(a.Value)

		// Two prefixed attributes may share a local name once stripped.
		if existing, ok := attrs.Get(name); ok {
			arr, isArr := existing.([]types.Value)
			if !isArr {
				arr = []types.Value{existing}
			}
			attrs.Set(name, append(arr, v))
			continue
		}
		attrs.Set(name, v)
	}
	return attrs
}

func (c *Converter) putAttributes(obj *types.Object, attrs *types.Object) {
	if attrs == nil {
		return
	}
	if c.opts.AttributeStyle == AttributesPrefixed {
		attrs.Range(func(k string, v types.Value) bool {
			obj.Set(c.opts.AttributePrefix+k, v)
			return true
		})
		return
	}
	obj.Set(c.opts.AttributesKey, attrs)
}

func isNamespaceDecl(a etree.Attr) bool {
	return a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns")
}

// elementName returns the JSON key for an element.
func (c *Converter) elementName(el *etree.Element) string {
	if c.opts.CleanNamespaces {
		return localName(el.Tag)
	}
	return el.FullTag()
}

// localName drops a "{uri}" or "prefix:" qualifier.
func localName(name string) string {
	if i := strings.LastIndexByte(name, '}'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// =============================================================================
// SCALARS
// =============================================================================

func (c *Converter) scalar(text string) types.Value {
	if !c.opts.AutoTypeConversion {
		return text
	}
	return Coerce(text).Value()
}

func (c *Converter) attributeValue(raw string) types.Value {
	text := strings.TrimSpace(raw)
	if text == "" {
		return c.emptyValue()
	}
	return c.scalar(text)
}

func (c *Converter) emptyValue() types.Value {
	if c.opts.EmptyValue == EmptyString {
		return ""
	}
	return nil
}
