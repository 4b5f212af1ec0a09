package main

import (
	"bytes"
	"go/ast"
	"go/token"
	"strings"
	"text/template"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/tools/imports"
)

const marker = "ecs:component"

// Component is one type marked for registration.
type Component struct {
	Type string
	// Name overrides the registered name when set by name=... on the marker.
	Name string
	Pos  token.Position
}

// Var is the identifier of the generated ComponentType variable.
func (c Component) Var() string {
	return c.Type + "Type"
}

// Collect returns the marked types of files in source order. Generic types
// cannot be registered statically and are returned as errors.
func Collect(fset *token.FileSet, files []*ast.File) ([]Component, []error) {
	var (
		components []Component
		errs       []error
	)
	for _, file := range files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				args, ok := markerArgs(doc)
				if !ok {
					continue
				}
				pos := fset.Position(ts.Pos())
				if ts.TypeParams != nil {
					errs = append(errs, eris.Errorf("%s: generic type %s cannot be marked %s", pos, ts.Name.Name, marker))
					continue
				}
				c := Component{Type: ts.Name.Name, Pos: pos}
				valid := true
				for _, arg := range args {
					key, value, _ := strings.Cut(arg, "=")
					switch key {
					case "name":
						c.Name = value
					default:
						errs = append(errs, eris.Errorf("%s: unknown %s option %q", pos, marker, arg))
						valid = false
					}
				}
				if valid {
					components = append(components, c)
				}
			}
		}
	}
	return components, errs
}

func markerArgs(doc *ast.CommentGroup) ([]string, bool) {
	if doc == nil {
		return nil, false
	}
	for _, c := range doc.List {
		text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
		if rest, ok := strings.CutPrefix(text, marker); ok {
			if rest != "" && !unicode.IsSpace(rune(rest[0])) {
				continue
			}
			return strings.Fields(rest), true
		}
	}
	return nil, false
}

var fileTemplate = template.Must(template.New("gen").Parse(`// Code generated by ecs-gen. DO NOT EDIT.

package {{.Package}}

import "github.com/plus3/ecsrt/ecs"

var (
{{- range .Components}}
	{{.Var}} = ecs.RegisterComponent[{{.Type}}]({{$.Registry}}{{if .Name}}, ecs.WithName[{{.Type}}]({{printf "%q" .Name}}){{end}})
{{- end}}
)
`))

// Render produces the formatted registration file for pkg. registry is the
// Go expression of the registry the components are registered with.
func Render(filename, pkg, registry string, components []Component) ([]byte, error) {
	var buf bytes.Buffer
	err := fileTemplate.Execute(&buf, struct {
		Package    string
		Registry   string
		Components []Component
	}{pkg, registry, components})
	if err != nil {
		return nil, eris.Wrap(err, "render")
	}
	src, err := imports.Process(filename, buf.Bytes(), nil)
	if err != nil {
		return nil, eris.Wrapf(err, "format %s", filename)
	}
	return src, nil
}
