package generator

import (
	"strconv"
	"strings"

	"github.com/mcncl/jsonsieve/internal/models"
	"github.com/mcncl/jsonsieve/internal/stack"
)

// RootPath names the document root in generated paths.
const RootPath = "$"

// Line is one leaf of the extracted tree.
type Line struct {
	Path  string
	Value string
}

// Generator turns an extracted tree into a flat path listing
type Generator struct{}

// NewGenerator creates a new Generator instance
func NewGenerator() *Generator {
	return &Generator{}
}

type entry struct {
	v    models.Value
	path string
}

// Generate lists every scalar and every empty container in document order.
// Strings are Go-quoted; empty containers show as {} and [].
func (g *Generator) Generate(v models.Value) []Line {
	if v.IsAbsent() {
		return nil
	}

	var lines []Line
	work := stack.NewWithCapacity[entry](16)
	work.Push(entry{v: v, path: RootPath})

	for !work.IsEmpty() {
		e, _ := work.Pop()

		switch e.v.Kind() {
		case models.KindObject:
			obj := e.v.Object()
			if obj.Len() == 0 {
				lines = append(lines, Line{Path: e.path, Value: "{}"})
				continue
			}
			keys := obj.Keys()
			for i := len(keys) - 1; i >= 0; i-- {
				child, _ := obj.Get(keys[i])
				work.Push(entry{v: child, path: memberPath(e.path, keys[i])})
			}

		case models.KindArray:
			items := e.v.Items()
			if len(items) == 0 {
				lines = append(lines, Line{Path: e.path, Value: "[]"})
				continue
			}
			for i := len(items) - 1; i >= 0; i-- {
				work.Push(entry{v: items[i], path: e.path + "[" + strconv.Itoa(i) + "]"})
			}

		default:
			lines = append(lines, Line{Path: e.path, Value: scalarText(e.v)})
		}
	}
	return lines
}

func scalarText(v models.Value) string {
	switch v.Kind() {
	case models.KindString:
		return strconv.Quote(v.Text())
	case models.KindNumber:
		return v.Text()
	case models.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	default:
		return "null"
	}
}

// memberPath uses dotted notation for plain names and bracket notation for
// anything a reader could misparse.
func memberPath(parent, name string) string {
	if isPlainName(name) {
		return parent + "." + name
	}
	return parent + "[" + strconv.Quote(name) + "]"
}

func isPlainName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return !(r == '_' || r == '-' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
}
