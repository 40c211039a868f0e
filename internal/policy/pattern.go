package policy

import (
	"fmt"
	"strings"

	"github.com/theory/jsonpath"
	"github.com/theory/jsonpath/spec"

	"github.com/mcncl/jsonsieve/internal/errors"
	"github.com/mcncl/jsonsieve/internal/path"
)

// maxPatternSteps bounds a pattern so its matcher state fits in a uint64.
const maxPatternSteps = 63

type stepKind uint8

const (
	// stepKey compares against Segment.Key, so "0" matches index 0 and a member named "0".
	stepKey stepKind = iota
	stepName
	stepIndex
	stepAny
)

type step struct {
	kind  stepKind
	name  string
	index int
	// descendant lets the step skip any number of segments before matching.
	descendant bool
}

func (s step) matches(seg path.Segment) bool {
	switch s.kind {
	case stepAny:
		return true
	case stepName:
		return !seg.IsIndex && seg.Name == s.name
	case stepIndex:
		return seg.IsIndex && seg.Index == s.index
	default:
		return seg.Key() == s.name
	}
}

// Pattern identifies containers by their path.
//
// Dotted patterns ("members", "profiles.*.members") match the trailing
// segments of a path. JSONPath patterns ("$.profiles[*].members",
// "$..members") are anchored at the root unless they use descendant segments.
type Pattern struct {
	src   string
	steps []step
}

// ParsePattern compiles a trigger pattern.
func ParsePattern(src string) (Pattern, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return Pattern{}, fmt.Errorf("%w: empty pattern", errors.ErrInvalidPattern)
	}

	var (
		steps []step
		err   error
	)
	if strings.HasPrefix(src, "$") {
		steps, err = parseJSONPath(src)
	} else {
		steps, err = parseDotted(src)
	}
	if err != nil {
		return Pattern{}, err
	}
	if len(steps) > maxPatternSteps {
		return Pattern{}, fmt.Errorf("%w: %q has more than %d steps", errors.ErrInvalidPattern, src, maxPatternSteps)
	}
	return Pattern{src: src, steps: steps}, nil
}

// MustParsePattern is like ParsePattern but panics on error.
func MustParsePattern(src string) Pattern {
	p, err := ParsePattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string { return p.src }

func parseDotted(src string) ([]step, error) {
	parts := strings.Split(src, ".")
	steps := make([]step, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: %q has an empty segment", errors.ErrInvalidPattern, src)
		}
		if part == "*" {
			steps = append(steps, step{kind: stepAny})
			continue
		}
		steps = append(steps, step{kind: stepKey, name: part})
	}
	// suffix match
	steps[0].descendant = true
	return steps, nil
}

func parseJSONPath(src string) ([]step, error) {
	p, err := jsonpath.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidPattern, err)
	}

	segments := p.Query().Segments()
	steps := make([]step, 0, len(segments))
	for _, seg := range segments {
		selectors := seg.Selectors()
		if len(selectors) != 1 {
			return nil, fmt.Errorf("%w: %q: segment %v must have exactly one selector", errors.ErrInvalidPattern, src, seg)
		}

		st := step{descendant: seg.IsDescendant()}
		switch sel := selectors[0].(type) {
		case spec.Name:
			st.kind = stepName
			st.name = string(sel)
		case spec.Index:
			if sel < 0 {
				return nil, fmt.Errorf("%w: %q: negative index %d", errors.ErrInvalidPattern, src, int(sel))
			}
			st.kind = stepIndex
			st.index = int(sel)
		default:
			if sel.String() != "*" {
				return nil, fmt.Errorf("%w: %q: unsupported selector %v", errors.ErrInvalidPattern, src, sel)
			}
			st.kind = stepAny
		}
		steps = append(steps, st)
	}
	return steps, nil
}

// eachMatch calls fn with every k for which segs[:k] matches p, in increasing
// order, until fn returns false. It simulates the pattern as an NFA over the
// path, so a single pass covers all prefixes.
func (p Pattern) eachMatch(segs []path.Segment, fn func(k int) bool) {
	states := p.start()
	if p.accepts(states) && !fn(0) {
		return
	}
	for j, seg := range segs {
		states = p.advance(states, seg)
		if states == 0 {
			return
		}
		if p.accepts(states) && !fn(j+1) {
			return
		}
	}
}

// start is the matcher state before any segment is consumed.
func (p Pattern) start() uint64 { return 1 }

// advance consumes one segment. Bit i is set while step i is the next to match.
func (p Pattern) advance(states uint64, seg path.Segment) uint64 {
	var next uint64
	for i, st := range p.steps {
		if states&(1<<i) == 0 {
			continue
		}
		if st.descendant {
			next |= 1 << i
		}
		if st.matches(seg) {
			next |= 1 << (i + 1)
		}
	}
	return next
}

func (p Pattern) accepts(states uint64) bool {
	return states&(1<<len(p.steps)) != 0
}

// Match reports whether the whole of segs matches p.
func (p Pattern) Match(segs []path.Segment) bool {
	matched := false
	p.eachMatch(segs, func(k int) bool {
		if k == len(segs) {
			matched = true
			return false
		}
		return true
	})
	return matched
}

// splitDotted turns "a.b.0" into its segments for allow entries.
func splitDotted(src string) ([]string, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("%w: empty allow entry", errors.ErrInvalidPattern)
	}
	parts := strings.Split(src, ".")
	for _, part := range parts {
		if part == "" {
			return nil, fmt.Errorf("%w: allow entry %q has an empty segment", errors.ErrInvalidPattern, src)
		}
	}
	return parts, nil
}
