// Package builder assembles a models.Value from container and scalar events
// using an explicit stack, so document depth is limited by memory rather than
// by the goroutine stack.
package builder

import (
	"errors"
	"fmt"

	"github.com/mcncl/jsonsieve/internal/models"
	"github.com/mcncl/jsonsieve/internal/stack"
)

// ErrBuilderState is returned when events arrive in an order the builder
// cannot attach. Bracket kinds are not checked; the token source does that.
var ErrBuilderState = errors.New("builder: invalid event order")

type frame struct {
	kind   models.Kind
	items  []models.Value
	obj    *models.Object
	key    string
	hasKey bool
}

// Builder constructs one value. It is not safe for concurrent use and must
// not be reused once Done reports true.
type Builder struct {
	frames *stack.Stack[frame]
	result models.Value
	done   bool
}

// New creates a Builder. depthHint sizes the frame stack.
func New(depthHint int) *Builder {
	return &Builder{frames: stack.NewWithCapacity[frame](depthHint)}
}

// BeginContainer pushes an empty array or object frame.
func (b *Builder) BeginContainer(kind models.Kind) error {
	if b.done || !kind.IsContainer() {
		return fmt.Errorf("%w: begin %s", ErrBuilderState, kind)
	}
	f := frame{kind: kind}
	if kind == models.KindObject {
		f.obj = models.NewObject()
	}
	b.frames.Push(f)
	return nil
}

// OnKey records the member name awaiting its value in the top object frame.
func (b *Builder) OnKey(name string) error {
	top := b.frames.PeekRef()
	if top == nil || top.kind != models.KindObject {
		return fmt.Errorf("%w: member name %q outside object", ErrBuilderState, name)
	}
	top.key = name
	top.hasKey = true
	return nil
}

// OnValue attaches a completed value to the top frame. With no open frame
// the value is the whole result.
func (b *Builder) OnValue(v models.Value) error {
	if b.done {
		return fmt.Errorf("%w: value after result", ErrBuilderState)
	}
	top := b.frames.PeekRef()
	if top == nil {
		b.result = v
		b.done = true
		return nil
	}
	if top.kind == models.KindArray {
		top.items = append(top.items, v)
		return nil
	}
	if !top.hasKey {
		return fmt.Errorf("%w: object value without member name", ErrBuilderState)
	}
	top.obj.Set(top.key, v)
	top.key = ""
	top.hasKey = false
	return nil
}

// EndContainer pops the top frame and attaches it as a completed value.
func (b *Builder) EndContainer() error {
	f, ok := b.frames.Pop()
	if !ok {
		return fmt.Errorf("%w: end without open container", ErrBuilderState)
	}
	var v models.Value
	if f.kind == models.KindArray {
		v = models.Array(f.items...)
	} else {
		v = models.ObjectValue(f.obj)
	}
	return b.OnValue(v)
}

// Depth returns the number of open containers.
func (b *Builder) Depth() int { return b.frames.Size() }

// Done reports whether the root value is complete.
func (b *Builder) Done() bool { return b.done }

// Result returns the completed value. It is absent until Done is true.
func (b *Builder) Result() (models.Value, bool) {
	if !b.done {
		return models.Value{}, false
	}
	return b.result, true
}
