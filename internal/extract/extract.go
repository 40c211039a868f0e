// Package extract drives a token source through the skip policy and the tree
// builder in a single pass. Skipped subtrees are consumed with a depth
// counter only, so they cost constant memory whatever their size.
package extract

import (
	"fmt"
	"log/slog"

	"github.com/mcncl/jsonsieve/internal/builder"
	"github.com/mcncl/jsonsieve/internal/errors"
	"github.com/mcncl/jsonsieve/internal/models"
	"github.com/mcncl/jsonsieve/internal/path"
	"github.com/mcncl/jsonsieve/internal/policy"
	"github.com/mcncl/jsonsieve/internal/tokens"
)

const defaultDepthHint = 16

// Stats describes one extraction.
type Stats struct {
	Tokens        int // every token read, skipped ones included
	SkippedValues int // values dropped by the policy
	SkippedTokens int // tokens consumed by structural skips
	MaxDepth      int // deepest level of kept containers
	SkippedBy     map[policy.Reason]int
}

// Result is a successfully extracted value.
type Result struct {
	Value models.Value
	Stats Stats
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger logs one debug record per extraction.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithDepthHint presizes the builder and path stacks.
func WithDepthHint(depth int) Option {
	return func(e *Extractor) {
		if depth > 0 {
			e.depthHint = depth
		}
	}
}

// Extractor holds only immutable configuration, so one Extractor may serve
// concurrent extractions as long as each has its own token source.
type Extractor struct {
	policy    *policy.Policy
	logger    *slog.Logger
	depthHint int
}

// New creates an Extractor. A nil policy keeps everything.
func New(pol *policy.Policy, opts ...Option) *Extractor {
	if pol == nil {
		pol = policy.Passthrough()
	}
	e := &Extractor{policy: pol, depthHint: defaultDepthHint}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract compiles cfg for selector and extracts from src.
func Extract(src tokens.Source, selector string, cfg policy.Config) (models.Value, error) {
	pol, err := policy.Compile(cfg, policy.Selector{Value: selector})
	if err != nil {
		return models.Value{}, errors.NewConfigError("invalid skip configuration", err)
	}
	res, err := New(pol).Extract(src)
	if err != nil {
		return models.Value{}, err
	}
	return res.Value, nil
}

// run is the per-call state. Nothing in it outlives Extract.
type run struct {
	src   tokens.Source
	path  *path.Path
	track *policy.Tracker
	build *builder.Builder
	stats Stats
}

// Extract consumes src completely and returns the kept subset. On error no
// partial value is returned.
func (e *Extractor) Extract(src tokens.Source) (Result, error) {
	r := &run{
		src:   src,
		path:  path.New(e.depthHint),
		track: e.policy.NewTracker(e.depthHint),
		build: builder.New(e.depthHint),
		stats: Stats{SkippedBy: make(map[policy.Reason]int)},
	}

	v, err := r.document()
	if err != nil {
		if e.logger != nil {
			e.logger.Debug("extraction failed", "tokens", r.stats.Tokens, "path", r.path.String(), "error", err)
		}
		return Result{}, err
	}

	if e.logger != nil {
		e.logger.Debug("extraction finished",
			"selector", e.policy.Selector(),
			"tokens", r.stats.Tokens,
			"skipped_values", r.stats.SkippedValues,
			"skipped_tokens", r.stats.SkippedTokens,
			"max_depth", r.stats.MaxDepth,
			"root", v.Kind().String(),
		)
	}
	return Result{Value: v, Stats: r.stats}, nil
}

func (r *run) next() (tokens.Token, error) {
	tok, err := r.src.Next()
	if err != nil {
		return tokens.Token{}, err
	}
	r.stats.Tokens++
	return tok, nil
}

func (r *run) document() (models.Value, error) {
	tok, err := r.next()
	if err != nil {
		return models.Value{}, err
	}

	switch {
	case tok.Kind == tokens.EOF:
		return models.Value{}, errors.NewUnexpectedEOFError("no JSON value in input", -1, errors.ErrEmptyInput)
	case tok.Kind.IsScalar():
		// the policy has nothing to decide for a bare root scalar
		if err := r.build.OnValue(scalar(tok)); err != nil {
			return models.Value{}, err
		}
	case tok.Kind.IsBegin():
		if err := r.begin(tok.Kind); err != nil {
			return models.Value{}, err
		}
		if err := r.containers(); err != nil {
			return models.Value{}, err
		}
	default:
		return models.Value{}, unexpected(tok, r.path)
	}

	if err := r.expectEOF(); err != nil {
		return models.Value{}, err
	}
	v, _ := r.build.Result()
	return v, nil
}

// containers runs until the root container closes.
func (r *run) containers() error {
	for !r.build.Done() {
		tok, err := r.next()
		if err != nil {
			return err
		}

		switch tok.Kind {
		case tokens.Name:
			if !r.inObject() {
				return unexpected(tok, r.path)
			}
			r.path.SetName(tok.Text)
			d := r.track.Decide(r.path)
			if d.Skip {
				if err := r.skipValue(d.Reason); err != nil {
					return err
				}
				continue
			}
			if d.ContainerOnly {
				if err := r.memberContainer(tok.Text, d.Reason); err != nil {
					return err
				}
				continue
			}
			if err := r.build.OnKey(tok.Text); err != nil {
				return outOfOrder(err, r.path)
			}

		case tokens.BeginObject, tokens.BeginArray:
			if r.arrayElement() {
				if d := r.track.Decide(r.path); d.Skip {
					if err := r.skipContainer(d.Reason); err != nil {
						return err
					}
					continue
				}
			}
			if err := r.begin(tok.Kind); err != nil {
				return err
			}

		case tokens.EndObject, tokens.EndArray:
			if err := r.build.EndContainer(); err != nil {
				return outOfOrder(err, r.path)
			}
			r.path.Pop()
			r.track.Leave()

		case tokens.String, tokens.Number, tokens.Bool, tokens.Null:
			if r.arrayElement() {
				if d := r.track.Decide(r.path); d.Skip || d.ContainerOnly {
					r.skipped(d.Reason, 1)
					continue
				}
			}
			if err := r.build.OnValue(scalar(tok)); err != nil {
				return outOfOrder(err, r.path)
			}

		case tokens.EOF:
			return errors.NewUnexpectedEOFError(fmt.Sprintf("stream ended at %s", describe(r.path)), -1, nil)

		default:
			return unexpected(tok, r.path)
		}
	}
	return nil
}

func (r *run) begin(kind tokens.Kind) error {
	mk := models.KindObject
	if kind == tokens.BeginArray {
		mk = models.KindArray
	}
	if err := r.build.BeginContainer(mk); err != nil {
		return outOfOrder(err, r.path)
	}
	r.path.Push(kind == tokens.BeginArray)
	r.track.Enter(r.path)
	r.stats.MaxDepth = max(r.stats.MaxDepth, r.path.Len())
	return nil
}

func (r *run) inObject() bool {
	last, ok := r.path.Last()
	return ok && !last.IsIndex
}

// arrayElement advances the index when the next value belongs to an array.
func (r *run) arrayElement() bool {
	last, ok := r.path.Last()
	if !ok || !last.IsIndex {
		return false
	}
	r.path.NextIndex()
	return true
}

// skipValue discards the value following a member name.
func (r *run) skipValue(reason policy.Reason) error {
	tok, err := r.next()
	if err != nil {
		return err
	}
	switch {
	case tok.Kind.IsScalar():
		r.skipped(reason, 1)
		return nil
	case tok.Kind.IsBegin():
		return r.skipContainer(reason)
	case tok.Kind == tokens.EOF:
		return errors.NewUnexpectedEOFError(fmt.Sprintf("stream ended before value of %s", describe(r.path)), -1, nil)
	default:
		return unexpected(tok, r.path)
	}
}

// memberContainer reads the value of a member that is kept only when it is
// a container.
func (r *run) memberContainer(name string, reason policy.Reason) error {
	tok, err := r.next()
	if err != nil {
		return err
	}
	switch {
	case tok.Kind.IsScalar():
		r.skipped(reason, 1)
		return nil
	case tok.Kind.IsBegin():
		if err := r.build.OnKey(name); err != nil {
			return outOfOrder(err, r.path)
		}
		return r.begin(tok.Kind)
	case tok.Kind == tokens.EOF:
		return errors.NewUnexpectedEOFError(fmt.Sprintf("stream ended before value of %s", describe(r.path)), -1, nil)
	default:
		return unexpected(tok, r.path)
	}
}

// skipContainer consumes tokens until the container whose begin token was
// just read is closed. Only a depth counter is kept.
func (r *run) skipContainer(reason policy.Reason) error {
	depth := 1
	count := 1
	for depth > 0 {
		tok, err := r.next()
		if err != nil {
			return err
		}
		count++
		switch {
		case tok.Kind.IsBegin():
			depth++
		case tok.Kind.IsEnd():
			depth--
		case tok.Kind == tokens.EOF:
			return errors.NewUnexpectedEOFError(fmt.Sprintf("stream ended inside skipped value at %s", describe(r.path)), -1, nil)
		}
	}
	r.skipped(reason, count)
	return nil
}

func (r *run) skipped(reason policy.Reason, count int) {
	r.stats.SkippedValues++
	r.stats.SkippedTokens += count
	r.stats.SkippedBy[reason]++
}

func (r *run) expectEOF() error {
	tok, err := r.next()
	if err != nil {
		return err
	}
	if tok.Kind != tokens.EOF {
		return errors.NewMalformedError(fmt.Sprintf("unexpected %s after root value", tok.Kind), -1, nil)
	}
	return nil
}

func scalar(tok tokens.Token) models.Value {
	switch tok.Kind {
	case tokens.String:
		return models.String(tok.Text)
	case tokens.Number:
		return models.Number(tok.Text)
	case tokens.Bool:
		return models.Bool(tok.Bool)
	default:
		return models.Null()
	}
}

func unexpected(tok tokens.Token, at *path.Path) error {
	return errors.NewMalformedError(fmt.Sprintf("unexpected %s at %s", tok.Kind, describe(at)), -1, nil)
}

// outOfOrder reports builder rejections as malformed input; a validating
// token source never triggers them.
func outOfOrder(err error, at *path.Path) error {
	return errors.NewMalformedError(fmt.Sprintf("token out of order at %s", describe(at)), -1, err)
}

func describe(at *path.Path) string {
	if at.Len() == 0 {
		return "document root"
	}
	return at.String()
}
