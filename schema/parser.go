package schema

import (
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/cockroachdb/errors"
)

// --- Participle grammar structs ---
// These define the .ent schema grammar using struct tags.

// File is the top-level grammar: a sequence of entity definitions.
type File struct {
	Entities []*EntityDef `parser:"@@*"`
}

// EntityDef parses: entity Name [sub Parent] [@abstract] [@adapter("x")] [data DataName] { attr* }
type EntityDef struct {
	Pos        lexer.Position
	Name       string         `parser:"'entity' @Ident"`
	Parent     string         `parser:"( 'sub' @Ident )?"`
	Annots     []*EntityAnnot `parser:"@@*"`
	Data       *DataNameDef   `parser:"( 'data' @@ )?"`
	Attributes []*AttrDef     `parser:"'{' @@* '}'"`
}

// EntityAnnot is one of: @abstract or @adapter("name").
type EntityAnnot struct {
	Abstract bool    `parser:"  @'@abstract'"`
	Adapter  *string `parser:"| '@adapter' '(' @String ')'"`
}

// DataNameDef parses: "name" or { adapter: "name", ... }
type DataNameDef struct {
	Single *string           `parser:"  @String"`
	Map    []*AdapterNameDef `parser:"| '{' @@ ( ',' @@ )* ','? '}'"`
}

// AdapterNameDef parses: adapter: "name"
type AdapterNameDef struct {
	Adapter string `parser:"@Ident ':'"`
	Name    string `parser:"@String"`
}

// AttrDef parses: name: Type [multiplicity] [= default] [data DataName];
type AttrDef struct {
	Pos          lexer.Position
	Name         string       `parser:"@Ident ':'"`
	Type         string       `parser:"@Ident"`
	Multiplicity string       `parser:"( '[' @( Card | Number | '*' ) ']' )?"`
	Default      *Literal     `parser:"( '=' @@ )?"`
	Data         *DataNameDef `parser:"( 'data' @@ )? ';'"`
}

// Literal parses a default value: string, number, boolean or list.
type Literal struct {
	Str  *string  `parser:"  @String"`
	Num  *string  `parser:"| @Number"`
	Bool *Boolean `parser:"| @( 'true' | 'false' )"`
	List *ListLit `parser:"| @@"`
}

// ListLit parses: [ literal, ... ]
type ListLit struct {
	Open  string     `parser:"@'['"`
	Items []*Literal `parser:"( @@ ( ',' @@ )* )? ']'"`
}

// Boolean captures true and false.
type Boolean bool

// Capture implements participle.Capture.
func (b *Boolean) Capture(values []string) error {
	*b = values[0] == "true"
	return nil
}

var entLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Annot", Pattern: `@[a-zA-Z_]+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Card", Pattern: `[0-9]+\.\.(?:[0-9]+|\*)`},
	{Name: "Number", Pattern: `-?[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[;,:=()\[\]{}*]`},
})

var entParser = participle.MustBuild[File](
	participle.Lexer(entLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.UseLookahead(2),
)

// --- Parser entry points ---

// ParseSchema parses .ent schema text.
func ParseSchema(input string) (*ParsedSchema, error) {
	return parse("schema.ent", input)
}

// ParseSchemaFile reads and parses a .ent schema file.
func ParseSchemaFile(path string) (*ParsedSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read schema")
	}
	return parse(path, string(data))
}

func parse(filename, input string) (*ParsedSchema, error) {
	ast, err := entParser.ParseString(filename, input)
	if err != nil {
		return nil, errors.Wrap(err, "parse schema")
	}
	return convertAST(ast)
}

// convertAST converts the participle AST to the schema model.
func convertAST(file *File) (*ParsedSchema, error) {
	schema := &ParsedSchema{}
	for _, def := range file.Entities {
		spec, err := convertEntity(def)
		if err != nil {
			return nil, err
		}
		schema.Entities = append(schema.Entities, spec)
	}
	return schema, nil
}

func convertEntity(e *EntityDef) (EntitySpec, error) {
	spec := EntitySpec{
		Name:     e.Name,
		Parent:   e.Parent,
		DataName: convertDataName(e.Data),
		Line:     e.Pos.Line,
	}
	for _, ann := range e.Annots {
		if ann.Abstract {
			spec.Abstract = true
		}
		if ann.Adapter != nil {
			spec.Adapter = unquote(*ann.Adapter)
		}
	}
	for _, a := range e.Attributes {
		as := AttributeSpec{
			Name:         a.Name,
			Type:         a.Type,
			Multiplicity: a.Multiplicity,
			DataName:     convertDataName(a.Data),
		}
		if a.Default != nil {
			v, err := a.Default.value()
			if err != nil {
				return spec, errors.Wrapf(err, "%s: default of %s.%s", a.Pos, e.Name, a.Name)
			}
			as.Default, as.HasDefault = v, true
		}
		spec.Attributes = append(spec.Attributes, as)
	}
	return spec, nil
}

func convertDataName(d *DataNameDef) DataNameSpec {
	if d == nil {
		return DataNameSpec{}
	}
	if d.Single != nil {
		return DataNameSpec{Single: unquote(*d.Single)}
	}
	m := make(map[string]string, len(d.Map))
	for _, an := range d.Map {
		m[an.Adapter] = unquote(an.Name)
	}
	return DataNameSpec{PerAdapter: m}
}

// value converts a literal to string, int64, float64, bool or []any.
func (l *Literal) value() (any, error) {
	switch {
	case l.Str != nil:
		return unquote(*l.Str), nil
	case l.Num != nil:
		if !strings.Contains(*l.Num, ".") {
			n, err := strconv.ParseInt(*l.Num, 10, 64)
			if err == nil {
				return n, nil
			}
		}
		f, err := strconv.ParseFloat(*l.Num, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "number %q", *l.Num)
		}
		return f, nil
	case l.Bool != nil:
		return bool(*l.Bool), nil
	case l.List != nil:
		out := make([]any, 0, len(l.List.Items))
		for _, item := range l.List.Items {
			v, err := item.value()
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	return nil, errors.New("empty literal")
}

// unquote removes surrounding quotes from a string literal and resolves
// escapes.
func unquote(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
