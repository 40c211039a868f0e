// Package tokens defines the forward-only JSON event stream consumed by the
// extractor and a lexer that produces it from an io.Reader.
package tokens

// Kind is the type of a lexical JSON event.
type Kind uint8

const (
	EOF Kind = iota
	BeginObject
	EndObject
	BeginArray
	EndArray
	Name
	String
	Number
	Bool
	Null
)

var kindNames = [...]string{
	EOF:         "EOF",
	BeginObject: "BeginObject",
	EndObject:   "EndObject",
	BeginArray:  "BeginArray",
	EndArray:    "EndArray",
	Name:        "Name",
	String:      "String",
	Number:      "Number",
	Bool:        "Bool",
	Null:        "Null",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsBegin reports whether k opens a container.
func (k Kind) IsBegin() bool { return k == BeginObject || k == BeginArray }

// IsEnd reports whether k closes a container.
func (k Kind) IsEnd() bool { return k == EndObject || k == EndArray }

// IsScalar reports whether k is a complete value on its own.
func (k Kind) IsScalar() bool { return k >= String && k <= Null }

// Token is one event. Text holds member names, string values and the raw
// text of numbers; Bool holds boolean values.
type Token struct {
	Kind Kind
	Text string
	Bool bool
}

// Source yields tokens until it returns a Token of Kind EOF. Grammar
// violations, truncation and transport failures are returned as errors and
// are never retried by the caller.
type Source interface {
	Next() (Token, error)
}

// Slice replays a fixed sequence of tokens and then reports EOF.
type Slice struct {
	toks []Token
	pos  int
}

// NewSlice creates a Source over toks.
func NewSlice(toks ...Token) *Slice {
	return &Slice{toks: toks}
}

// Next implements Source.
func (s *Slice) Next() (Token, error) {
	if s.pos >= len(s.toks) {
		return Token{Kind: EOF}, nil
	}
	t := s.toks[s.pos]
	s.pos++
	return t, nil
}
