package parser

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mcncl/jsonsieve/internal/errors"
	"github.com/mcncl/jsonsieve/internal/extract"
	"github.com/mcncl/jsonsieve/internal/tokens"
)

// Parse runs the document read from reader through ex. A nil ex keeps
// everything. Grammar errors found after the lexer, such as a stream ending
// inside a skipped value, get the reader's byte offset attached.
func Parse(reader io.Reader, ex *extract.Extractor) (extract.Result, error) {
	if ex == nil {
		ex = extract.New(nil)
	}

	dec := tokens.NewDecoder(reader)
	res, err := ex.Extract(dec)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Offset < 0 &&
			(appErr.Type == errors.ErrorTypeMalformed || appErr.Type == errors.ErrorTypeUnexpectedEOF) {
			appErr.Offset = dec.InputOffset()
		}
		return extract.Result{}, err
	}
	return res, nil
}

// ParseString parses JSON from a string
func ParseString(jsonString string, ex *extract.Extractor) (extract.Result, error) {
	if strings.TrimSpace(jsonString) == "" {
		return extract.Result{}, errors.NewInputError("input string is empty", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(jsonString), ex)
}

// ParseFile parses JSON from a file path
func ParseFile(filePath string, ex *extract.Extractor) (extract.Result, error) {
	if strings.TrimSpace(filePath) == "" {
		return extract.Result{}, errors.NewInputError("file path is empty", errors.ErrFileNotFound)
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return extract.Result{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return extract.Result{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() { _ = file.Close() }()

	return Parse(file, ex)
}
