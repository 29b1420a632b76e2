package chtype

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

type (
	// Type represents any ClickHouse data type including primitives, parametric
	// types and composite types like arrays, maps and tuples.
	Type struct {
		// Nullable wrapper (e.g., Nullable(String))
		Nullable *NullableType `parser:"@@"`
		// LowCardinality wrapper (e.g., LowCardinality(String))
		LowCardinality *LowCardinalityType `parser:"| @@"`
		// Array types (e.g., Array(String))
		Array *ArrayType `parser:"| @@"`
		// Map types (e.g., Map(String, UInt32))
		Map *MapType `parser:"| @@"`
		// Tuple types (e.g., Tuple(name String, age UInt8))
		Tuple *TupleType `parser:"| @@"`
		// Nested types (e.g., Nested(id UInt32, name String))
		Nested *NestedType `parser:"| @@"`
		// Simple or parametric types (e.g., String, FixedString(10), Decimal(10,2))
		Simple *SimpleType `parser:"| @@"`
	}

	// NullableType represents Nullable(T)
	NullableType struct {
		Type *Type `parser:"'Nullable' '(' @@ ')'"`
	}

	// LowCardinalityType represents LowCardinality(T)
	LowCardinalityType struct {
		Type *Type `parser:"'LowCardinality' '(' @@ ')'"`
	}

	// ArrayType represents Array(T)
	ArrayType struct {
		Type *Type `parser:"'Array' '(' @@ ')'"`
	}

	// MapType represents Map(K, V)
	MapType struct {
		Key   *Type `parser:"'Map' '(' @@"`
		Value *Type `parser:"',' @@ ')'"`
	}

	// TupleType represents Tuple(T1, T2, ...) or Tuple(name1 T1, name2 T2, ...)
	TupleType struct {
		Elements []*Element `parser:"'Tuple' '(' @@ (',' @@)* ')'"`
	}

	// NestedType represents Nested(col1 Type1, col2 Type2, ...)
	NestedType struct {
		Columns []*Element `parser:"'Nested' '(' @@ (',' @@)* ')'"`
	}

	// Element is a tuple element or nested column. Tuple elements may be unnamed.
	Element struct {
		// Try to parse name + type first, then fall back to just type
		Name *string `parser:"@(Ident | BacktickIdent)"`
		Type *Type   `parser:"@@"`
		// For unnamed tuples, we just have the type
		UnnamedType *Type `parser:"| @@"`
	}

	// SimpleType represents basic data types and parametric types
	SimpleType struct {
		Name       string       `parser:"@(Ident | BacktickIdent)"`
		Parameters []*Parameter `parser:"('(' (@@ (',' @@)*)? ')')?"`
	}

	// Parameter is a parameter of a parametric type: a number, identifier,
	// string, enum value or nested function call (e.g. quantiles(0.5)).
	Parameter struct {
		Function  *Function  `parser:"@@"`
		EnumValue *EnumValue `parser:"| @@"`
		Number    *string    `parser:"| @Number"`
		Literal   *string    `parser:"| @String"`
		Ident     *string    `parser:"| @(Ident | BacktickIdent)"`
	}

	// EnumValue represents an enum value definition in Enum8/Enum16: 'name' = number
	EnumValue struct {
		Name  string `parser:"@String '='"`
		Value string `parser:"@Number"`
	}

	// Function represents a function call or parametric type within parameters
	Function struct {
		Name       string       `parser:"@(Ident | BacktickIdent)"`
		Parameters []*Parameter `parser:"'(' (@@ (',' @@)*)? ')'"`
	}
)

var (
	typeLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `'([^'\\]|\\.)*'`},
		{Name: "BacktickIdent", Pattern: "`([^`\\\\]|\\\\.)*`"},
		{Name: "Number", Pattern: `-?\d+(\.\d*)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
		{Name: "Punct", Pattern: `[(),=]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	typeParser = participle.MustBuild[Type](
		participle.Lexer(typeLexer),
		participle.Elide("Whitespace"),
		participle.UseLookahead(4),
	)
)

// Parse parses a ClickHouse type as reported by system.columns.
//
// Example:
//
//	t, err := chtype.Parse("Array(Nullable(String))")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Println(t.Array.Type.Nullable != nil) // true
func Parse(s string) (*Type, error) {
	t, err := typeParser.ParseString("", strings.TrimSpace(s))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse type %q", s)
	}

	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) *Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return t
}

// Name returns the outermost type name, e.g. "Nullable" or "DateTime64".
func (t *Type) Name() string {
	switch {
	case t.Nullable != nil:
		return "Nullable"
	case t.LowCardinality != nil:
		return "LowCardinality"
	case t.Array != nil:
		return "Array"
	case t.Map != nil:
		return "Map"
	case t.Tuple != nil:
		return "Tuple"
	case t.Nested != nil:
		return "Nested"
	case t.Simple != nil:
		return unquote(t.Simple.Name)
	}

	return ""
}

// IsNullable reports whether the type, ignoring LowCardinality, is Nullable.
func (t *Type) IsNullable() bool {
	if t.LowCardinality != nil {
		return t.LowCardinality.Type.IsNullable()
	}

	return t.Nullable != nil
}

func (t *Type) String() string {
	switch {
	case t.Nullable != nil:
		return "Nullable(" + t.Nullable.Type.String() + ")"
	case t.LowCardinality != nil:
		return "LowCardinality(" + t.LowCardinality.Type.String() + ")"
	case t.Array != nil:
		return "Array(" + t.Array.Type.String() + ")"
	case t.Map != nil:
		return "Map(" + t.Map.Key.String() + ", " + t.Map.Value.String() + ")"
	case t.Tuple != nil:
		return "Tuple(" + joinElements(t.Tuple.Elements) + ")"
	case t.Nested != nil:
		return "Nested(" + joinElements(t.Nested.Columns) + ")"
	case t.Simple != nil:
		return t.Simple.String()
	}

	return ""
}

func (s *SimpleType) String() string {
	if len(s.Parameters) == 0 {
		return s.Name
	}

	return s.Name + "(" + joinParameters(s.Parameters) + ")"
}

func (p *Parameter) String() string {
	switch {
	case p.Function != nil:
		return p.Function.Name + "(" + joinParameters(p.Function.Parameters) + ")"
	case p.EnumValue != nil:
		return p.EnumValue.Name + " = " + p.EnumValue.Value
	case p.Number != nil:
		return *p.Number
	case p.Literal != nil:
		return *p.Literal
	case p.Ident != nil:
		return *p.Ident
	}

	return ""
}

// ElementType returns the element's type whether or not it is named.
func (e *Element) ElementType() *Type {
	if e.UnnamedType != nil {
		return e.UnnamedType
	}

	return e.Type
}

func joinElements(elems []*Element) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		if e.Name != nil {
			parts[i] = *e.Name + " " + e.Type.String()
			continue
		}
		parts[i] = e.ElementType().String()
	}

	return strings.Join(parts, ", ")
}

func joinParameters(params []*Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}

	return strings.Join(parts, ", ")
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}

	return s
}
