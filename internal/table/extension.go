package table

import (
	"fmt"
	"io"
	"strings"

	"github.com/tuannm99/novafits/internal/checksum"
	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/header"
)

// Extension is one table data unit: its header plus a table that is only
// materialized from the raw bytes when first asked for.
type Extension struct {
	Header *header.Header

	raw   []byte
	table *Table
}

// NewExtension wraps stored header and data bytes. Nothing is parsed yet.
func NewExtension(h *header.Header, raw []byte) *Extension {
	return &Extension{Header: h, raw: raw}
}

// FromTable wraps an in-memory table. A nil header starts empty.
func FromTable(t *Table, h *header.Header) *Extension {
	if h == nil {
		h = header.New()
	}
	e := &Extension{Header: h, table: t}
	t.Update(h)
	return e
}

// Name is the EXTNAME keyword, or empty.
func (e *Extension) Name() string {
	s, _ := e.Header.String("EXTNAME")
	return s
}

func (e *Extension) Kind() Kind {
	k, err := column.KindOf(e.Header)
	if err != nil {
		return Binary
	}
	return k
}

// Loaded reports whether the table has been materialized.
func (e *Extension) Loaded() bool { return e.table != nil }

// Table materializes the table on first use.
func (e *Extension) Table() (*Table, error) {
	if e.table != nil {
		return e.table, nil
	}
	t, err := Open(e.Header, e.raw)
	if err != nil {
		return nil, err
	}
	e.table = t
	return t, nil
}

// SetTable replaces the data. Assigning the current table is a no-op;
// otherwise the header is updated to describe t.
func (e *Extension) SetTable(t *Table) {
	if t == e.table {
		return
	}
	e.table = t
	e.raw = nil
	for _, f := range t.fields {
		f.col.Bind(f)
	}
	t.Update(e.Header)
}

// WriteData synchronizes the header and writes the data unit.
func (e *Extension) WriteData(w io.Writer) (int64, error) {
	t, err := e.Table()
	if err != nil {
		return 0, err
	}
	t.SyncHeader(e.Header)
	return t.WriteTo(w)
}

// Datasum synchronizes the header and checksums the data unit.
func (e *Extension) Datasum() (checksum.Result, error) {
	t, err := e.Table()
	if err != nil {
		return checksum.Result{}, err
	}
	t.SyncHeader(e.Header)
	return t.Datasum(), nil
}

// Copy duplicates header and table.
func (e *Extension) Copy() (*Extension, error) {
	t, err := e.Table()
	if err != nil {
		return nil, err
	}
	nt, err := t.Copy()
	if err != nil {
		return nil, err
	}
	return FromTable(nt, e.Header.Copy()), nil
}

// Summary is the one-line description of an extension.
type Summary struct {
	Name    string
	Type    string
	Cards   int
	Dims    string
	Formats []string
}

func (s Summary) String() string {
	return fmt.Sprintf("%-10s %-9s %5d  %-12s %s",
		s.Name, s.Type, s.Cards, s.Dims, strings.Join(s.Formats, ", "))
}

// Summary describes the extension without materializing its table.
func (e *Extension) Summary() Summary {
	s := Summary{
		Name:  e.Name(),
		Type:  strings.TrimSpace(e.Kind().Extension()),
		Cards: e.Header.Len(),
	}
	nrows := e.Header.IntOr("NAXIS2", 0)
	nfields := e.Header.IntOr("TFIELDS", 0)
	if e.table != nil {
		nrows, nfields = int64(e.table.nrows), int64(len(e.table.fields))
	}
	s.Dims = fmt.Sprintf("%dR x %dC", nrows, nfields)

	cs, err := column.FromHeader(e.Header)
	if e.table != nil {
		cs, err = e.table.cols, nil
	}
	if err == nil {
		for i := 0; i < cs.Len(); i++ {
			s.Formats = append(s.Formats, cs.TForm(i))
		}
	}
	return s
}
