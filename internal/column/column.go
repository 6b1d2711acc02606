// Package column describes the fields of a table: storage format, layout,
// scaling and null semantics. A ColumnSet is the single source of truth for
// row layout in both binary and ASCII tables.
package column

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Kind selects between the two table layouts.
type Kind uint8

const (
	Binary Kind = iota + 1
	ASCII
)

// Extension is the XTENSION keyword value for the kind.
func (k Kind) Extension() string {
	if k == ASCII {
		return "TABLE"
	}
	return "BINTABLE"
}

func (k Kind) String() string {
	switch k {
	case Binary:
		return "binary"
	case ASCII:
		return "ascii"
	default:
		return "unknown"
	}
}

// ParseKind accepts "binary"/"bintable" and "ascii"/"table".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary", "bintable", "a3dtable":
		return Binary, nil
	case "ascii", "table":
		return ASCII, nil
	default:
		return 0, fmt.Errorf("column: unknown table kind %q", s)
	}
}

// Binding is the live view a column exposes once attached to a table.
type Binding interface {
	Len() int
}

// Column is one field definition.
type Column struct {
	Name   string
	Format string // TFORM text as supplied
	Disp   string
	Unit   string
	Dim    string
	Null   string

	// Physical value = raw*Scale + Zero. A zero Scale means unset (1).
	Scale float64
	Zero  float64

	// ASCII only: 1-based byte column of the field (TBCOL); 0 derives it.
	Start int

	// Phantom columns are placeholders with no storage.
	Phantom bool

	// Array is the loosely typed source data used to build a table.
	Array any

	bound Binding
}

// Bind attaches the column to a table field view. It is called again each
// time the owning table's storage is replaced.
func (c *Column) Bind(b Binding) { c.bound = b }

// Bound returns the attached field view, nil when detached.
func (c *Column) Bound() Binding { return c.bound }

// Data returns the bound view when attached, otherwise the source array.
func (c *Column) Data() any {
	if c.bound != nil {
		return c.bound
	}
	return c.Array
}

// Rows is the number of rows the column's data can provide.
func (c *Column) Rows() int {
	return Len(c.Data())
}

// ScaleFactor returns Scale, with unset meaning 1.
func (c *Column) ScaleFactor() float64 {
	if c.Scale == 0 {
		return 1
	}
	return c.Scale
}

// Scaled reports whether reads apply a non-trivial affine transform.
func (c *Column) Scaled() bool {
	return c.ScaleFactor() != 1 || c.Zero != 0
}

// Clone copies the definition. The copy is detached and carries the
// current data as its source.
func (c *Column) Clone() *Column {
	cp := *c
	cp.Array = c.Data()
	cp.bound = nil
	return &cp
}

// Len returns the row count of a column source: a Binding, a slice or an
// array. Anything else has no rows.
func Len(v any) int {
	if v == nil {
		return 0
	}
	if b, ok := v.(Binding); ok {
		return b.Len()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len()
	}
	return 0
}

// DuplicateNameError lists every field name used more than once.
type DuplicateNameError struct {
	Names []string
}

func (e *DuplicateNameError) Error() string {
	return "column: duplicate field names: " + strings.Join(e.Names, ", ")
}

func findDuplicates(cols []*Column) []string {
	seen := make(map[string]int, len(cols))
	for _, c := range cols {
		if c.Name == "" {
			continue
		}
		seen[c.Name]++
	}
	var dup []string
	for name, n := range seen {
		if n > 1 {
			dup = append(dup, name)
		}
	}
	sort.Strings(dup)
	return dup
}
