// Package tdump writes a table as editable text and reads it back.
//
// A dump is up to three files: the data file (one line per row, every
// token quoted and space separated), the column definition file (one line
// per column) and the header file (card images).
package tdump

import (
	"errors"
	"fmt"
	"strings"
)

// VLAMarker precedes the element count of a variable-length cell.
const VLAMarker = "VLA_Length="

const absent = `""`

var ErrMalformed = errors.New("tdump: malformed input")

// Files names the artifacts of a dump. An empty path skips that artifact.
type Files struct {
	Data    string
	ColDefs string
	Header  string
}

func (f Files) paths() []string {
	var out []string
	for _, p := range []string{f.Data, f.ColDefs, f.Header} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExistsError names every target that already holds data.
type ExistsError struct {
	Paths []string
}

func (e *ExistsError) Error() string {
	return "tdump: refusing to overwrite existing files: " + strings.Join(e.Paths, ", ")
}

// ParseError locates a bad token in the data file. Row is the 1-based
// line and Column the 1-based token position within it.
type ParseError struct {
	Row    int
	Column int
	Token  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tdump: row %d column %d: bad token %q: %v", e.Row, e.Column, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
