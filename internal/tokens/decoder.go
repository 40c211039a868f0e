package tokens

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/mcncl/jsonsieve/internal/errors"
)

// Decoder lexes one JSON document from a reader. It wraps encoding/json's
// tokenizer, which validates the grammar, and adds the distinction between
// member names and string values that the tokenizer does not report.
type Decoder struct {
	dec *json.Decoder
	// open holds one entry per unclosed container, true for objects.
	open       []bool
	expectName bool
	started    bool
	done       bool
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec}
}

// InputOffset returns the byte offset just past the last token read.
func (d *Decoder) InputOffset() int64 {
	return d.dec.InputOffset()
}

// Next implements Source.
func (d *Decoder) Next() (Token, error) {
	if d.done {
		return d.expectEnd()
	}

	raw, err := d.dec.Token()
	if err != nil {
		return Token{}, d.classify(err)
	}
	d.started = true

	var tok Token
	switch v := raw.(type) {
	case json.Delim:
		switch v {
		case '{':
			d.open = append(d.open, true)
			d.expectName = true
			return Token{Kind: BeginObject}, nil
		case '[':
			d.open = append(d.open, false)
			d.expectName = false
			return Token{Kind: BeginArray}, nil
		case '}':
			tok = Token{Kind: EndObject}
		default:
			tok = Token{Kind: EndArray}
		}
		d.open = d.open[:len(d.open)-1]
	case string:
		if d.expectName {
			d.expectName = false
			return Token{Kind: Name, Text: v}, nil
		}
		tok = Token{Kind: String, Text: v}
	case json.Number:
		tok = Token{Kind: Number, Text: v.String()}
	case bool:
		tok = Token{Kind: Bool, Bool: v}
	case nil:
		tok = Token{Kind: Null}
	default:
		return Token{}, errors.NewMalformedError(fmt.Sprintf("unexpected token %v", raw), d.dec.InputOffset(), nil)
	}

	// a value just completed
	if len(d.open) == 0 {
		d.done = true
	} else {
		d.expectName = d.open[len(d.open)-1]
	}
	return tok, nil
}

// expectEnd runs after the root value: only whitespace may follow.
func (d *Decoder) expectEnd() (Token, error) {
	_, err := d.dec.Token()
	if stderrors.Is(err, io.EOF) {
		return Token{Kind: EOF}, nil
	}
	if err != nil {
		return Token{}, d.classify(err)
	}
	return Token{}, errors.NewMalformedError("trailing data after root value", d.dec.InputOffset(), nil)
}

func (d *Decoder) classify(err error) error {
	offset := d.dec.InputOffset()

	var syntaxErr *json.SyntaxError
	switch {
	case stderrors.Is(err, io.EOF):
		if !d.started {
			return errors.NewUnexpectedEOFError("no JSON value in input", offset, errors.ErrEmptyInput)
		}
		return errors.NewUnexpectedEOFError(fmt.Sprintf("stream ended with %d open containers", len(d.open)), offset, nil)
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return errors.NewUnexpectedEOFError("stream ended inside a value", offset, err)
	case stderrors.As(err, &syntaxErr):
		return errors.NewMalformedError(syntaxErr.Error(), syntaxErr.Offset, nil)
	default:
		return errors.NewIOError("reading input", err)
	}
}
