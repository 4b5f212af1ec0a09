// Package cql compiles component query expressions such as
//
//	CONTAINS(Transform, Sprite) & !EXACT(Transform)
//
// into filters over entity masks. Operators bind left to right; use
// parentheses to group.
package cql

import (
	"github.com/alecthomas/participle/v2"
	"github.com/rotisserie/eris"

	"github.com/plus3/ecsrt/ecs"
)

// ErrUnknownComponent is returned when an expression names a component that
// is not registered.
var ErrUnknownComponent = eris.New("unknown component")

type operator int

const (
	opAnd operator = iota
	opOr
)

var operators = map[string]operator{"&": opAnd, "|": opOr}

// Capture converts the matched token into an operator.
func (o *operator) Capture(s []string) error {
	if len(s) == 0 {
		return eris.New("invalid operator")
	}
	op, ok := operators[s[0]]
	if !ok {
		return eris.Errorf("invalid operator %q", s[0])
	}
	*o = op
	return nil
}

type component struct {
	Name string `@Ident`
}

type all struct {
	Keyword string `@"ALL" "(" ")"`
}

type not struct {
	Value *value `"!" @@`
}

type exact struct {
	Components []*component `"EXACT" "(" (@@ ",")* @@ ")"`
}

type contains struct {
	Components []*component `"CONTAINS" "(" (@@ ",")* @@ ")"`
}

type value struct {
	All      *all      `  @@`
	Exact    *exact    `| @@`
	Contains *contains `| @@`
	Not      *not      `| @@`
	Group    *term     `| "(" @@ ")"`
}

type opValue struct {
	Operator operator `@("&" | "|")`
	Value    *value   `@@`
}

type term struct {
	Left  *value     `@@`
	Right []*opValue `@@*`
}

var parser = participle.MustBuild[term]()

type compiler struct {
	registry *ecs.ComponentRegistry
}

// Compile parses expr and resolves its component names against registry.
func Compile(expr string, registry *ecs.ComponentRegistry) (Filter, error) {
	t, err := parser.ParseString("", expr)
	if err != nil {
		return nil, eris.Wrapf(err, "parse %q", expr)
	}
	c := compiler{registry: registry}
	return c.term(t)
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string, registry *ecs.ComponentRegistry) Filter {
	f, err := Compile(expr, registry)
	if err != nil {
		panic(err)
	}
	return f
}

func (c compiler) term(t *term) (Filter, error) {
	acc, err := c.value(t.Left)
	if err != nil {
		return nil, err
	}
	for _, right := range t.Right {
		f, err := c.value(right.Value)
		if err != nil {
			return nil, err
		}
		switch right.Operator {
		case opAnd:
			acc = andFilter{left: acc, right: f}
		case opOr:
			acc = orFilter{left: acc, right: f}
		}
	}
	return acc, nil
}

func (c compiler) value(v *value) (Filter, error) {
	switch {
	case v.All != nil:
		return allFilter{}, nil
	case v.Exact != nil:
		mask, names, err := c.mask(v.Exact.Components)
		if err != nil {
			return nil, err
		}
		return exactFilter{mask: mask, names: names}, nil
	case v.Contains != nil:
		mask, names, err := c.mask(v.Contains.Components)
		if err != nil {
			return nil, err
		}
		return containsFilter{mask: mask, names: names}, nil
	case v.Not != nil:
		inner, err := c.value(v.Not.Value)
		if err != nil {
			return nil, err
		}
		return notFilter{inner: inner}, nil
	case v.Group != nil:
		return c.term(v.Group)
	}
	return nil, eris.New("empty expression")
}

func (c compiler) mask(components []*component) (ecs.Mask, []string, error) {
	var mask ecs.Mask
	names := make([]string, 0, len(components))
	for _, comp := range components {
		id, ok := c.registry.Lookup(comp.Name)
		if !ok {
			return ecs.Mask{}, nil, eris.Wrap(ErrUnknownComponent, comp.Name)
		}
		mask.Set(id)
		names = append(names, comp.Name)
	}
	return mask, names, nil
}
