package policy

import "github.com/mcncl/jsonsieve/internal/path"

// Tracker answers the same question as Decide while a document is walked
// depth first. It keeps the trigger matcher state of every open container,
// so a decision looks at the newest segment only and deep nesting stays
// linear. A Tracker serves one walk and is not safe for concurrent use.
type Tracker struct {
	p      *Policy
	levels []int // start of each open container's entries in pending
	states []ruleState
	// pending holds the non-selected entities, per open container, whose
	// allow entries are not yet fully matched.
	pending []pendingEntity
}

// ruleState is one rule's view of one open container.
type ruleState struct {
	nfa    uint64 // trigger matcher after the container's own slot
	here   bool   // the container matches the trigger
	inside bool   // a strict ancestor matches the trigger
}

type pendingEntity struct {
	rule int
	k    int // index of the entity segment
}

// NewTracker returns a Tracker with room for depth open containers.
func (p *Policy) NewTracker(depth int) *Tracker {
	return &Tracker{
		p:       p,
		levels:  make([]int, 0, depth),
		states:  make([]ruleState, 0, depth*len(p.rules)),
		pending: make([]pendingEntity, 0, depth),
	}
}

// Enter records a container that was just pushed onto at.
func (t *Tracker) Enter(at *path.Path) {
	segs := at.Segments()
	n := len(segs)
	nr := len(t.p.rules)
	depth := len(t.levels)

	prevStart := len(t.pending)
	if depth > 0 {
		prevStart = t.levels[depth-1]
	}
	prevEnd := len(t.pending)
	t.levels = append(t.levels, prevEnd)

	for r := range t.p.rules {
		rule := &t.p.rules[r]
		st := ruleState{nfa: rule.trigger.start()}

		if depth > 0 {
			prev := t.states[(depth-1)*nr+r]
			slot := segs[n-2]
			st.nfa = rule.trigger.advance(prev.nfa, slot)
			st.inside = prev.inside || prev.here

			if prev.here && !t.p.selects(slot) && len(rule.allow) > 0 {
				t.pending = append(t.pending, pendingEntity{rule: r, k: n - 2})
			}
		}
		st.here = rule.trigger.accepts(st.nfa)
		t.states = append(t.states, st)
	}

	// carry forward the entities whose allow entries are still unmatched
	for i := prevStart; i < prevEnd; i++ {
		pe := t.pending[i]
		if allowedAt(t.p.rules[pe.rule].allow, segs[pe.k+1:n-1]) != inside {
			t.pending = append(t.pending, pe)
		}
	}
}

// Leave records that the innermost container was popped.
func (t *Tracker) Leave() {
	depth := len(t.levels) - 1
	t.pending = t.pending[:t.levels[depth]]
	t.states = t.states[:depth*len(t.p.rules)]
	t.levels = t.levels[:depth]
}

// Decide returns the verdict for the value in the last slot of at, which
// must be the innermost container's slot.
func (t *Tracker) Decide(at *path.Path) Decision {
	segs := at.Segments()
	n := len(segs)
	if n == 0 || len(t.levels) == 0 {
		return keep
	}
	last := segs[n-1]
	if t.p.isBlacklisted(last) {
		return blacklisted
	}

	depth := len(t.levels) - 1
	nr := len(t.p.rules)
	pending := t.pending[t.levels[depth]:]
	verdict := keep

	for r := range t.p.rules {
		rule := &t.p.rules[r]
		st := t.states[depth*nr+r]

		if st.inside && rule.drops(last) {
			return dropped
		}
		for _, pe := range pending {
			if pe.rule != r {
				continue
			}
			switch allowedAt(rule.allow, segs[pe.k+1:]) {
			case denied:
				return outOfScope
			case onTheWay:
				verdict = containerOnly
			}
		}
		if st.here && !t.p.selects(last) {
			if len(rule.allow) == 0 {
				return outOfScope
			}
			verdict = containerOnly
		}
	}
	return verdict
}
