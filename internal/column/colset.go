package column

import (
	"fmt"
	"strings"

	"github.com/tuannm99/novafits/internal/format"
)

// ColumnSet is an ordered set of uniquely named columns plus the layout
// derived from them.
type ColumnSet struct {
	kind Kind
	all  []*Column

	// derived, indexed by field (non-phantom column) position
	fields  []*Column
	formats []format.Format
	offsets []int
	starts  []int // ASCII, 1-based
	spans   []int // ASCII
	rowLen  int
}

// New builds a column set, parsing every format and rejecting duplicate
// names.
func New(kind Kind, cols ...*Column) (*ColumnSet, error) {
	if kind != Binary && kind != ASCII {
		return nil, fmt.Errorf("column: invalid table kind %d", kind)
	}
	cs := &ColumnSet{kind: kind, all: append([]*Column(nil), cols...)}
	if err := cs.layout(); err != nil {
		return nil, err
	}
	return cs, nil
}

// MustNew is New for fixed definitions known to be valid.
func MustNew(kind Kind, cols ...*Column) *ColumnSet {
	cs, err := New(kind, cols...)
	if err != nil {
		panic(err)
	}
	return cs
}

func parseFormat(kind Kind, s string) (format.Format, error) {
	if kind == Binary {
		return format.Parse(s)
	}
	if f, err := format.ParseASCII(s); err == nil {
		return f, nil
	}
	f, err := format.Parse(s)
	if err != nil {
		return format.Format{}, err
	}
	return format.ToASCII(f)
}

// layout recomputes every derived attribute.
func (cs *ColumnSet) layout() error {
	if err := cs.Validate(); err != nil {
		return err
	}
	cs.fields = cs.fields[:0]
	cs.formats = cs.formats[:0]
	for _, c := range cs.all {
		if c.Phantom {
			continue
		}
		f, err := parseFormat(cs.kind, c.Format)
		if err != nil {
			return fmt.Errorf("column %q: %w", c.Name, err)
		}
		cs.fields = append(cs.fields, c)
		cs.formats = append(cs.formats, f)
	}

	n := len(cs.fields)
	cs.offsets = make([]int, n)
	cs.rowLen = 0
	if cs.kind == Binary {
		cs.starts, cs.spans = nil, nil
		for i, f := range cs.formats {
			cs.offsets[i] = cs.rowLen
			cs.rowLen += f.ByteWidth()
		}
		return nil
	}

	cs.starts = make([]int, n)
	cs.spans = make([]int, n)
	end := 0
	for i, f := range cs.formats {
		start := cs.fields[i].Start
		if start <= 0 {
			start = end + 1
		}
		cs.starts[i] = start
		cs.spans[i] = f.Width
		cs.offsets[i] = start - 1
		end = start + f.Width - 1
		cs.rowLen = max(cs.rowLen, end)
	}
	cs.extendLast(cs.rowLen)
	return nil
}

// extendLast stretches the final ASCII span to reach rowLen.
func (cs *ColumnSet) extendLast(rowLen int) {
	last := len(cs.spans) - 1
	if last < 0 {
		return
	}
	if need := rowLen - cs.starts[last] + 1; need > cs.spans[last] {
		cs.spans[last] = need
	}
	cs.rowLen = cs.spans[last] + cs.starts[last] - 1
}

// Validate rejects duplicate field names.
func (cs *ColumnSet) Validate() error {
	var live []*Column
	for _, c := range cs.all {
		if !c.Phantom {
			live = append(live, c)
		}
	}
	if dup := findDuplicates(live); len(dup) > 0 {
		return &DuplicateNameError{Names: dup}
	}
	return nil
}

func (cs *ColumnSet) Kind() Kind { return cs.kind }

// Len is the public field count; phantom columns are not counted.
func (cs *ColumnSet) Len() int { return len(cs.fields) }

// Columns returns the non-phantom columns in field order.
func (cs *ColumnSet) Columns() []*Column { return append([]*Column(nil), cs.fields...) }

// All returns every column including phantoms.
func (cs *ColumnSet) All() []*Column { return append([]*Column(nil), cs.all...) }

func (cs *ColumnSet) Column(i int) *Column { return cs.fields[i] }

// Index finds a field by name, exact match first, then case-insensitive.
// It returns -1 when absent.
func (cs *ColumnSet) Index(name string) int {
	for i, c := range cs.fields {
		if c.Name == name {
			return i
		}
	}
	for i, c := range cs.fields {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

func (cs *ColumnSet) Names() []string {
	out := make([]string, len(cs.fields))
	for i, c := range cs.fields {
		out[i] = c.Name
	}
	return out
}

// Format is the native storage format (recformat) of field i.
func (cs *ColumnSet) Format(i int) format.Format { return cs.formats[i] }

func (cs *ColumnSet) Formats() []format.Format {
	return append([]format.Format(nil), cs.formats...)
}

// SetFormat replaces the storage format of field i. Only the variable
// length maximum may change without altering the row layout.
func (cs *ColumnSet) SetFormat(i int, f format.Format) error {
	old := cs.formats[i]
	if old.ByteWidth() != f.ByteWidth() || old.Kind != f.Kind {
		return fmt.Errorf("column %q: format %s does not fit layout of %s",
			cs.fields[i].Name, f.TForm(), old.TForm())
	}
	cs.formats[i] = f
	cs.fields[i].Format = f.TForm()
	return nil
}

// TForm is the header text for field i: the original spelling when it is
// equivalent to the storage format, the canonical rendering otherwise.
func (cs *ColumnSet) TForm(i int) string {
	return format.Canonical(cs.formats[i], cs.fields[i].Format)
}

// Offset is the byte offset of field i inside a row.
func (cs *ColumnSet) Offset(i int) int { return cs.offsets[i] }

// Width is the byte width of field i inside a row.
func (cs *ColumnSet) Width(i int) int {
	if cs.kind == ASCII {
		return cs.spans[i]
	}
	return cs.formats[i].ByteWidth()
}

// Starts are the 1-based ASCII field columns; nil for binary tables.
func (cs *ColumnSet) Starts() []int { return append([]int(nil), cs.starts...) }

// Spans are the ASCII field widths; nil for binary tables.
func (cs *ColumnSet) Spans() []int { return append([]int(nil), cs.spans...) }

// RowLen is the row width in bytes.
func (cs *ColumnSet) RowLen() int { return cs.rowLen }

// SetRowLen applies a declared row width. ASCII tables hand the slack to
// the last field; binary rows must match the computed width.
func (cs *ColumnSet) SetRowLen(n int) error {
	if n < cs.rowLen {
		return fmt.Errorf("column: row width %d smaller than fields need (%d)", n, cs.rowLen)
	}
	if cs.kind == Binary {
		if n != cs.rowLen {
			return fmt.Errorf("column: row width %d does not match fields (%d)", n, cs.rowLen)
		}
		return nil
	}
	cs.extendLast(n)
	return nil
}

// Add appends a column and recomputes the layout.
func (cs *ColumnSet) Add(c *Column) error {
	cs.all = append(cs.all, c)
	if err := cs.layout(); err != nil {
		cs.all = cs.all[:len(cs.all)-1]
		_ = cs.layout()
		return err
	}
	return nil
}

func (cs *ColumnSet) fieldIndex(c *Column) int {
	for i, f := range cs.fields {
		if f == c {
			return i
		}
	}
	return -1
}

// Copy returns an independent set whose columns carry the current data
// of this set as their source arrays.
func (cs *ColumnSet) Copy() *ColumnSet {
	out, _ := cs.As(cs.kind)
	return out
}

// As copies the set for a table of the given kind, converting formats
// where needed.
func (cs *ColumnSet) As(kind Kind) (*ColumnSet, error) {
	cols := make([]*Column, 0, len(cs.all))
	for _, c := range cs.all {
		cp := c.Clone()
		if kind != cs.kind {
			cp.Start = 0
			if idx := cs.fieldIndex(c); idx >= 0 {
				f := format.FromASCII(cs.formats[idx])
				if kind == ASCII {
					var err error
					if f, err = format.ToASCII(cs.formats[idx]); err != nil {
						return nil, fmt.Errorf("column %q: %w", c.Name, err)
					}
				}
				cp.Format = f.TForm()
			}
		}
		cols = append(cols, cp)
	}
	return New(kind, cols...)
}
