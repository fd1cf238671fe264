package schema

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"
)

// RenderConfig specifies the settings for generating Go code from a schema.
type RenderConfig struct {
	// PackageName is the name of the Go package for the generated code.
	PackageName string
	// ModulePath is the import path of the entity package.
	ModulePath string
	// UseAcronyms, if true, applies Go acronym naming conventions (e.g., 'ID' instead of 'Id').
	UseAcronyms bool
	// AttributeConstants, if true, generates a name constant per attribute.
	AttributeConstants bool
	// SchemaVersion is an optional string included in the generated file header.
	SchemaVersion string
}

// DefaultConfig returns a standard RenderConfig with sensible defaults.
func DefaultConfig() RenderConfig {
	return RenderConfig{
		PackageName:        "models",
		ModulePath:         "github.com/CaliLuke/go-entity/entity",
		UseAcronyms:        true,
		AttributeConstants: true,
	}
}

// Render writes gofmt-formatted Go source that declares the schema's
// entities. The generated Register function specifies them on a tree,
// parents first.
func Render(w io.Writer, schema *ParsedSchema, cfg RenderConfig) error {
	if cfg.PackageName == "" {
		cfg.PackageName = "models"
	}
	if cfg.ModulePath == "" {
		cfg.ModulePath = DefaultConfig().ModulePath
	}

	ordered, err := schema.Order()
	if err != nil {
		return err
	}

	data := &renderData{
		PackageName:   cfg.PackageName,
		ModulePath:    cfg.ModulePath,
		SchemaVersion: cfg.SchemaVersion,
	}
	for _, e := range ordered {
		ctx, err := buildEntityCtx(e, cfg)
		if err != nil {
			return err
		}
		data.Entities = append(data.Entities, ctx)
	}

	var buf bytes.Buffer
	if err := renderTemplate.Execute(&buf, data); err != nil {
		return errors.Wrap(err, "execute template")
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "format generated code")
	}
	_, err = w.Write(src)
	return err
}

// --- Template context types ---

type renderData struct {
	PackageName   string
	ModulePath    string
	SchemaVersion string
	Entities      []entityCtx
}

type entityCtx struct {
	GoName     string
	Name       string
	Parent     string
	Abstract   bool
	DataName   string // Go literal, empty when undeclared
	Adapter    string
	Comment    string
	Attributes []attributeCtx
}

type attributeCtx struct {
	ConstName  string // empty when constants are disabled
	Name       string
	Descriptor string // Go literal of an entity.Descriptor
}

// --- Context builders ---

func buildEntityCtx(e EntitySpec, cfg RenderConfig) (entityCtx, error) {
	ctx := entityCtx{
		GoName:   goName(e.Name, cfg),
		Name:     e.Name,
		Parent:   e.Parent,
		Abstract: e.Abstract,
		DataName: dataNameLiteral(e.DataName),
		Adapter:  e.Adapter,
	}
	if e.Parent != "" {
		ctx.Comment = fmt.Sprintf("specializes %s", e.Parent)
	}
	for _, a := range e.Attributes {
		d, err := descriptorLiteral(a)
		if err != nil {
			return ctx, errors.Wrapf(err, "render %s.%s", e.Name, a.Name)
		}
		actx := attributeCtx{Name: a.Name, Descriptor: d}
		if cfg.AttributeConstants {
			actx.ConstName = ctx.GoName + goName(a.Name, cfg) + "Attribute"
		}
		ctx.Attributes = append(ctx.Attributes, actx)
	}
	return ctx, nil
}

func descriptorLiteral(a AttributeSpec) (string, error) {
	parts := []string{"Name: " + strconv.Quote(a.Name)}
	if a.Type != "" {
		parts = append(parts, "Type: "+strconv.Quote(a.Type))
	}
	if a.Multiplicity != "" {
		parts = append(parts, "Multiplicity: "+strconv.Quote(a.Multiplicity))
	}
	if a.HasDefault {
		lit, err := goLiteral(a.Default)
		if err != nil {
			return "", err
		}
		parts = append(parts, "Default: "+lit)
	}
	if dn := dataNameLiteral(a.DataName); dn != "" {
		parts = append(parts, "DataName: "+dn)
	}
	return "{" + strings.Join(parts, ", ") + "}", nil
}

func dataNameLiteral(d DataNameSpec) string {
	switch {
	case d.Single != "":
		return strconv.Quote(d.Single)
	case len(d.PerAdapter) > 0:
		keys := make([]string, 0, len(d.PerAdapter))
		for k := range d.PerAdapter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = strconv.Quote(k) + ": " + strconv.Quote(d.PerAdapter[k])
		}
		return "map[string]string{" + strings.Join(pairs, ", ") + "}"
	}
	return ""
}

// goLiteral renders a default value produced by the schema parsers.
func goLiteral(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "nil", nil
	case string:
		return strconv.Quote(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int64:
		return fmt.Sprintf("int64(%d)", t), nil
	case float64:
		return fmt.Sprintf("float64(%s)", strconv.FormatFloat(t, 'g', -1, 64)), nil
	case []any:
		elems := make([]string, len(t))
		for i, e := range t {
			lit, err := goLiteral(e)
			if err != nil {
				return "", err
			}
			elems[i] = lit
		}
		return "[]any{" + strings.Join(elems, ", ") + "}", nil
	}
	return "", errors.Newf("unsupported default literal %T", v)
}

// --- Go template ---

var renderTemplate = template.Must(template.New("entities").Parse(`// Code generated by entityc. DO NOT EDIT.
{{- if .SchemaVersion}}
// Schema version: {{.SchemaVersion}}
{{- end}}

package {{.PackageName}}

import (
	"github.com/cockroachdb/errors"

	"{{.ModulePath}}"
)

// Entity names.
const (
{{- range .Entities}}
	{{.GoName}}Entity = {{printf "%q" .Name}}
{{- end}}
)
{{range .Entities}}
{{- if .Attributes}}
{{- if (index .Attributes 0).ConstName}}

// {{.Name}} attribute names.
const (
{{- range .Attributes}}
	{{.ConstName}} = {{printf "%q" .Name}}
{{- end}}
)
{{- end}}
{{- end}}
{{- end}}

// Register specifies the schema entities on tree, parents first, and
// returns the classes by name.
func Register(tree *entity.Tree) (map[string]*entity.Class, error) {
	out := make(map[string]*entity.Class, {{len .Entities}})
	general := func(name string) (*entity.Class, error) {
		if name == "" {
			return tree.Root(), nil
		}
		if c, ok := out[name]; ok {
			return c, nil
		}
		if c, ok := tree.Lookup(name); ok {
			return c, nil
		}
		return nil, errors.WithStack(&entity.EntityNotFoundError{Name: name})
	}
{{range .Entities}}
	{{- if .Comment}}
	// {{.Name}} {{.Comment}}.
	{{- end}}
	{
		g, err := general({{printf "%q" .Parent}})
		if err != nil {
			return out, err
		}
		c, err := g.Specify(entity.SpecificationConfig{
			Name: {{.GoName}}Entity,
			Attributes: []entity.Descriptor{
{{- range .Attributes}}
				{{.Descriptor}},
{{- end}}
			},
{{- if .Abstract}}
			IsAbstract: true,
{{- end}}
{{- if .DataName}}
			DataName: {{.DataName}},
{{- end}}
{{- if .Adapter}}
			AdapterName: {{printf "%q" .Adapter}},
{{- end}}
		})
		if err != nil {
			return out, errors.Wrapf(err, "register %s", {{.GoName}}Entity)
		}
		out[c.Name()] = c
	}
{{end}}
	return out, nil
}
`))
