package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/artpar/templatecheck/internal/core/domain"
)

// FormatterURL is suggested to authors whose file does not parse.
const FormatterURL = "https://jsonformatter.curiousconcept.com/"

// ParseDocument parses data as a JSON object.
// Surrounding whitespace is ignored. Numbers are kept as json.Number so the
// document can be re-encoded without losing precision.
func ParseDocument(path string, data []byte) (map[string]any, error) {
	data = bytes.TrimSpace(data)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, parseError(path, data, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, parseError(path, data, fmt.Errorf("unexpected data after top-level value at offset %d", dec.InputOffset()))
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, parseError(path, data, errors.New("top-level value must be an object"))
	}
	return obj, nil
}

func parseError(path string, data []byte, err error) error {
	detail := err.Error()
	var syn *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		detail = "document is empty"
	case errors.As(err, &syn):
		line, col := position(data, syn.Offset)
		detail = fmt.Sprintf("line %d, column %d: %s", line, col, syn.Error())
	case errors.Is(err, io.ErrUnexpectedEOF):
		detail = "unexpected end of document"
	}

	msg := fmt.Sprintf("%s is not valid JSON. Copy and paste the contents to %s and correct the syntax errors. Error: %s",
		path, FormatterURL, detail)
	return &domain.BundleError{Op: "ParseDocument", Message: msg, Err: domain.ErrParse}
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col = 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
