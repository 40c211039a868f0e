// Package policy decides, for each value of a streamed document, whether it
// is materialized or skipped.
//
// Two independent axes are combined with OR semantics:
//
//   - a global blacklist of member names that are dropped wherever they occur;
//   - scoped rules: under each container matching a rule's trigger pattern,
//     only the child whose key matches the selector is kept. Other children
//     are skipped except for the sub-paths named by the rule's allow list.
//     Containers on the way to an allow entry are kept, scalars there are not.
//
// The decision is a pure function of the current path and the compiled
// configuration, so sibling entities never influence each other.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mcncl/jsonsieve/internal/errors"
	"github.com/mcncl/jsonsieve/internal/path"
)

// Reason records which axis caused a skip.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonBlacklist
	ReasonScope
	ReasonDrop
)

func (r Reason) String() string {
	switch r {
	case ReasonBlacklist:
		return "blacklist"
	case ReasonScope:
		return "scope"
	case ReasonDrop:
		return "drop"
	default:
		return "none"
	}
}

// Decision is the verdict for one value.
type Decision struct {
	Skip   bool
	Reason Reason
	// ContainerOnly keeps the value only when it is an object or array. It
	// marks slots that lie on the way to an allow entry; a scalar in such a
	// slot is skipped for Reason.
	ContainerOnly bool
}

var (
	keep          = Decision{}
	blacklisted   = Decision{Skip: true, Reason: ReasonBlacklist}
	dropped       = Decision{Skip: true, Reason: ReasonDrop}
	outOfScope    = Decision{Skip: true, Reason: ReasonScope}
	containerOnly = Decision{Reason: ReasonScope, ContainerOnly: true}
)

// SelectorFormat controls how entity keys are compared with the selector.
type SelectorFormat string

const (
	// FormatRaw compares keys byte for byte.
	FormatRaw SelectorFormat = "raw"
	// FormatUUID parses both sides as UUIDs, so dashed and undashed
	// spellings of the same identifier match.
	FormatUUID SelectorFormat = "uuid"
)

// Selector identifies the entity to keep under each trigger container.
type Selector struct {
	Value  string
	Format SelectorFormat
}

// Rule is the plain-data form of a scoped-skip rule.
type Rule struct {
	// Trigger is a pattern naming the collection container.
	Trigger string
	// Allow lists dotted paths, relative to an entity, that stay visible
	// inside entities that do not match the selector.
	Allow []string
	// Drop lists member names removed anywhere inside this rule's entities.
	Drop []string
}

// Config is the externally supplied skip configuration.
type Config struct {
	Blacklist []string
	Rules     []Rule
}

type compiledRule struct {
	trigger Pattern
	allow   [][]string
	drop    map[string]struct{}
}

// Policy is a compiled Config bound to a selector. It is immutable and safe
// for concurrent use.
type Policy struct {
	blacklist map[string]struct{}
	rules     []compiledRule
	selector  string
	format    SelectorFormat
	selUUID   uuid.UUID
}

// Compile validates cfg and binds it to sel.
func Compile(cfg Config, sel Selector) (*Policy, error) {
	p := &Policy{
		blacklist: toSet(cfg.Blacklist),
		selector:  sel.Value,
		format:    sel.Format,
	}
	if p.format == "" {
		p.format = FormatRaw
	}

	switch p.format {
	case FormatRaw:
	case FormatUUID:
		id, err := uuid.Parse(sel.Value)
		if err != nil {
			return nil, fmt.Errorf("selector %q is not a UUID: %w", sel.Value, err)
		}
		p.selUUID = id
	default:
		return nil, fmt.Errorf("unknown selector format %q", sel.Format)
	}

	if len(cfg.Rules) > 0 && sel.Value == "" {
		return nil, errors.ErrNoSelector
	}

	for i, r := range cfg.Rules {
		trigger, err := ParsePattern(r.Trigger)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		cr := compiledRule{trigger: trigger, drop: toSet(r.Drop)}
		for _, entry := range r.Allow {
			parts, err := splitDotted(entry)
			if err != nil {
				return nil, fmt.Errorf("rule %d: %w", i, err)
			}
			cr.allow = append(cr.allow, parts)
		}
		p.rules = append(p.rules, cr)
	}
	return p, nil
}

// Passthrough returns a policy that keeps everything.
func Passthrough() *Policy {
	return &Policy{format: FormatRaw}
}

// Selector returns the selector value the policy was compiled with.
func (p *Policy) Selector() string { return p.selector }

// Decide returns the verdict for the value whose slot is the last segment of
// at. An empty path denotes the root, which is always kept.
//
// Decide rescans the whole path. A Tracker gives the same answers while
// walking a document in constant time per value.
func (p *Policy) Decide(at *path.Path) Decision {
	segs := at.Segments()
	n := len(segs)
	if n == 0 {
		return keep
	}
	if p.isBlacklisted(segs[n-1]) {
		return blacklisted
	}

	verdict := keep
	for i := range p.rules {
		d := p.decideRule(&p.rules[i], segs)
		if d.Skip {
			return d
		}
		if d.ContainerOnly {
			verdict = d
		}
	}
	return verdict
}

func (p *Policy) decideRule(r *compiledRule, segs []path.Segment) Decision {
	n := len(segs)
	last := segs[n-1]
	verdict := keep

	// the trigger container must be a strict ancestor of the value
	r.trigger.eachMatch(segs[:n-1], func(k int) bool {
		if k < n-1 && r.drops(last) {
			verdict = dropped
			return false
		}
		if p.selects(segs[k]) {
			return true
		}
		switch allowedAt(r.allow, segs[k+1:]) {
		case denied:
			verdict = outOfScope
			return false
		case onTheWay:
			verdict = containerOnly
		}
		return true
	})
	return verdict
}

func (p *Policy) isBlacklisted(seg path.Segment) bool {
	if seg.IsIndex {
		return false
	}
	_, ok := p.blacklist[seg.Name]
	return ok
}

func (r *compiledRule) drops(seg path.Segment) bool {
	if seg.IsIndex {
		return false
	}
	_, ok := r.drop[seg.Name]
	return ok
}

func (p *Policy) selects(entity path.Segment) bool {
	key := entity.Key()
	if p.format != FormatUUID {
		return key == p.selector
	}
	id, err := uuid.Parse(key)
	if err != nil {
		return false
	}
	return id == p.selUUID
}

// allowance is where a path relative to a non-selected entity stands
// against the rule's allow entries.
type allowance uint8

const (
	denied   allowance = iota
	onTheWay           // a proper prefix of some entry
	inside             // at or below some entry
)

// allowedAt classifies rel. With no entries the entity is skipped whole.
func allowedAt(entries [][]string, rel []path.Segment) allowance {
	result := denied
	for _, entry := range entries {
		if !prefixMatch(entry, rel) {
			continue
		}
		if len(entry) <= len(rel) {
			return inside
		}
		result = onTheWay
	}
	return result
}

func prefixMatch(entry []string, rel []path.Segment) bool {
	m := min(len(entry), len(rel))
	for i := 0; i < m; i++ {
		if entry[i] != "*" && entry[i] != rel[i].Key() {
			return false
		}
	}
	return true
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
