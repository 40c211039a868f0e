// Package path tracks the breadcrumb of member names and array indices that
// leads to the value currently being read from a token stream.
package path

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: a member name or an array index.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Key returns the segment as a string. Indices render in decimal so that
// array positions can be compared with selector values.
func (s Segment) Key() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

// Path is the location inside the document. Each open container contributes
// one segment naming the slot of its current child.
type Path struct {
	segs []Segment
}

// New returns an empty Path with room for depth segments.
func New(depth int) *Path {
	return &Path{segs: make([]Segment, 0, depth)}
}

// Of builds a Path from already known segments.
func Of(segs ...Segment) *Path {
	return &Path{segs: segs}
}

// Name is a shorthand for a member-name segment.
func Name(name string) Segment { return Segment{Name: name} }

// Index is a shorthand for an array-index segment.
func Index(i int) Segment { return Segment{Index: i, IsIndex: true} }

// Push enters a container. Arrays start before their first element.
func (p *Path) Push(array bool) {
	if array {
		p.segs = append(p.segs, Segment{Index: -1, IsIndex: true})
		return
	}
	p.segs = append(p.segs, Segment{})
}

// SetName records the member about to be read in the innermost object.
func (p *Path) SetName(name string) {
	p.segs[len(p.segs)-1].Name = name
}

// NextIndex advances to the next element of the innermost array.
func (p *Path) NextIndex() {
	p.segs[len(p.segs)-1].Index++
}

// Pop leaves the innermost container.
func (p *Path) Pop() {
	p.segs = p.segs[:len(p.segs)-1]
}

// Len returns the number of segments.
func (p *Path) Len() int { return len(p.segs) }

// At returns the i-th segment.
func (p *Path) At(i int) Segment { return p.segs[i] }

// Last returns the innermost segment and false when the path is empty.
func (p *Path) Last() (Segment, bool) {
	if len(p.segs) == 0 {
		return Segment{}, false
	}
	return p.segs[len(p.segs)-1], true
}

// Segments exposes the segments without copying. Callers must not modify them.
func (p *Path) Segments() []Segment { return p.segs }

// String renders the path as a.b[0].c
func (p *Path) String() string {
	var b strings.Builder
	for i, s := range p.segs {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Name)
	}
	return b.String()
}
