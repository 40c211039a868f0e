package tokens

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mcncl/jsonsieve/internal/errors"
)

func readAll(t *testing.T, src Source) ([]Token, error) {
	t.Helper()
	var out []Token
	for {
		tok, err := src.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

func TestDecoder_NamesAndValues(t *testing.T) {
	input := `{"a": "x", "b": [1, "y", {"c": null}], "d": true, "e": -1.5e300}`
	got, err := readAll(t, NewDecoder(strings.NewReader(input)))
	require.NoError(t, err)

	want := []Token{
		{Kind: BeginObject},
		{Kind: Name, Text: "a"},
		{Kind: String, Text: "x"},
		{Kind: Name, Text: "b"},
		{Kind: BeginArray},
		{Kind: Number, Text: "1"},
		{Kind: String, Text: "y"},
		{Kind: BeginObject},
		{Kind: Name, Text: "c"},
		{Kind: Null},
		{Kind: EndObject},
		{Kind: EndArray},
		{Kind: Name, Text: "d"},
		{Kind: Bool, Bool: true},
		{Kind: Name, Text: "e"},
		{Kind: Number, Text: "-1.5e300"},
		{Kind: EndObject},
		{Kind: EOF},
	}
	assert.Equal(t, want, got)
}

func TestDecoder_StringThatLooksLikeName(t *testing.T) {
	// values equal to member names must still come back as String
	got, err := readAll(t, NewDecoder(strings.NewReader(`{"k":"k","arr":["k"]}`)))
	require.NoError(t, err)
	assert.Equal(t, Token{Kind: String, Text: "k"}, got[2])
	assert.Equal(t, Token{Kind: String, Text: "k"}, got[5])
}

func TestDecoder_RootScalar(t *testing.T) {
	got, err := readAll(t, NewDecoder(strings.NewReader(` "hello" `)))
	require.NoError(t, err)
	assert.Equal(t, []Token{{Kind: String, Text: "hello"}, {Kind: EOF}}, got)
}

func TestDecoder_NumbersKeepRawText(t *testing.T) {
	got, err := readAll(t, NewDecoder(strings.NewReader(`[123456789012345678901234567890, 0.10]`)))
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", got[1].Text)
	assert.Equal(t, "0.10", got[2].Text)
}

func TestDecoder_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		malformed bool
		eof       bool
	}{
		{name: "empty", input: "", eof: true},
		{name: "whitespace only", input: "   \n", eof: true},
		{name: "missing closing brace", input: `{"a":{"b":1}`, eof: true},
		{name: "truncated string", input: `{"a":"abc`, eof: true},
		{name: "missing colon", input: `{"a" 1}`, malformed: true},
		{name: "mismatched bracket", input: `{"a":[1}`, malformed: true},
		{name: "trailing value", input: `{} {}`, malformed: true},
		{name: "trailing garbage", input: `[1] x`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readAll(t, NewDecoder(strings.NewReader(tt.input)))
			require.Error(t, err)
			assert.Equal(t, tt.malformed, apperrors.IsMalformed(err), "malformed: %v", err)
			assert.Equal(t, tt.eof, apperrors.IsUnexpectedEOF(err), "eof: %v", err)
			assert.False(t, apperrors.IsIOFailure(err))
		})
	}
}

func TestDecoder_IOFailure(t *testing.T) {
	boom := errors.New("connection reset by peer")
	r := io.MultiReader(strings.NewReader(`{"a":[1,2,`), iotest.ErrReader(boom))

	_, err := readAll(t, NewDecoder(r))
	require.Error(t, err)
	assert.True(t, apperrors.IsIOFailure(err))
	assert.ErrorIs(t, err, boom)
}

func TestSlice(t *testing.T) {
	src := NewSlice(Token{Kind: Null})
	tok, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, Null, tok.Kind)

	tok, err = src.Next()
	require.NoError(t, err)
	assert.Equal(t, EOF, tok.Kind)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "BeginArray", BeginArray.String())
	assert.True(t, BeginObject.IsBegin())
	assert.True(t, EndArray.IsEnd())
	assert.True(t, Null.IsScalar())
	assert.False(t, Name.IsScalar())
	assert.Equal(t, "Unknown", Kind(200).String())
}
