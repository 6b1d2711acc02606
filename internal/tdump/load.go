package tdump

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/format"
	"github.com/tuannm99/novafits/internal/header"
	"github.com/tuannm99/novafits/internal/storage"
	"github.com/tuannm99/novafits/internal/table"
)

// LoadOptions controls Load.
type LoadOptions struct {
	// Header is the existing header the loaded one is merged into. It is
	// not modified.
	Header *header.Header
	// Replace discards Header in favor of the header file instead of
	// merging the two.
	Replace bool
	// Kind forces the table kind; zero takes it from the header's XTENSION,
	// then from the column definition formats, defaulting to binary.
	Kind table.Kind
}

// Load rebuilds a table extension from dump files. Without a column
// definition file the columns are inferred from the data: one column per
// token slot, typed by the narrowest format that holds every value.
func Load(files Files, opts LoadOptions) (*table.Extension, error) {
	h := header.New()
	if opts.Header != nil {
		h = opts.Header.Copy()
	}
	if files.Header != "" {
		fh, err := readHeader(files.Header)
		if err != nil {
			return nil, err
		}
		if opts.Replace {
			h = fh
		} else {
			h.Extend(fh, true)
		}
	}

	var cols []*column.Column
	if files.ColDefs != "" {
		var err error
		if cols, err = readColDefs(files.ColDefs); err != nil {
			return nil, err
		}
	}

	kind := opts.Kind
	if kind == 0 {
		kind = kindOf(h, cols)
	}

	var cs *column.ColumnSet
	if cols != nil {
		var err error
		if cs, err = column.New(kind, cols...); err != nil {
			return nil, err
		}
	}

	var t *table.Table
	var err error
	switch {
	case files.Data != "":
		t, err = loadData(files.Data, kind, cs)
	case cs != nil:
		t, err = table.New(kind, cs, table.Options{Fill: true})
	case h.Has("TFIELDS"):
		if cs, err = column.FromHeader(h); err == nil {
			t, err = table.New(kind, cs, table.Options{Fill: true})
		}
	default:
		t, err = table.New(kind, []*column.Column{}, table.Options{})
	}
	if err != nil {
		return nil, err
	}
	return table.FromTable(t, h), nil
}

func readHeader(path string) (*header.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer storage.CloseFile(f)
	return header.ReadText(f)
}

// kindOf picks the table kind when none is forced: the header's XTENSION
// when present, otherwise ASCII if some column format reads only as an
// ASCII table format, otherwise binary.
func kindOf(h *header.Header, cols []*column.Column) table.Kind {
	if h.Has("XTENSION") {
		if k, err := column.KindOf(h); err == nil {
			return k
		}
	}
	for _, c := range cols {
		if _, err := format.Parse(c.Format); err == nil {
			continue
		}
		if _, err := format.ParseASCII(c.Format); err == nil {
			return table.ASCII
		}
	}
	return table.Binary
}

// ReadColDefs parses a column definition file.
func ReadColDefs(r io.Reader, kind table.Kind) (*column.ColumnSet, error) {
	cols, err := readColumns(r)
	if err != nil {
		return nil, err
	}
	return column.New(kind, cols...)
}

func readColumns(r io.Reader) ([]*column.Column, error) {
	var cols []*column.Column
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		words := strings.Fields(sc.Text())
		if len(words) == 0 {
			continue
		}
		if len(words) != 8 {
			return nil, fmt.Errorf("%w: column definition line %d has %d words",
				ErrMalformed, line, len(words))
		}
		for i, w := range words {
			if w == absent {
				words[i] = ""
			}
		}
		c := &column.Column{
			Name: words[0], Format: words[1], Disp: words[2],
			Unit: words[3], Dim: words[4], Null: words[5],
		}
		var err error
		if c.Scale, err = floatWord(words[6]); err != nil {
			return nil, fmt.Errorf("%w: column definition line %d: scale %q", ErrMalformed, line, words[6])
		}
		if c.Zero, err = floatWord(words[7]); err != nil {
			return nil, fmt.Errorf("%w: column definition line %d: zero %q", ErrMalformed, line, words[7])
		}
		cols = append(cols, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cols, nil
}

func readColDefs(path string) ([]*column.Column, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer storage.CloseFile(f)
	return readColumns(f)
}

func floatWord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// scan streams the records of a data file. Rows are 1-based.
func scan(path string, fn func(row int, rec []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer storage.CloseFile(f)

	r := csv.NewReader(bufio.NewReaderSize(f, 64*storage.OneKB))
	r.Comma = ' '
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	for row := 1; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if err := fn(row, rec); err != nil {
			return err
		}
	}
}

// slot is one inferred column.
type slot struct {
	f     format.Format
	vla   bool
	max   int
	width int // longest scalar token
}

func (s slot) tform() string {
	if !s.vla {
		f := s.f
		if f.Code == format.Char {
			f.Repeat = max(f.Repeat, s.width)
		}
		return f.TForm()
	}
	code := s.f.Code
	if code == 0 {
		code = format.Float64
	}
	return fmt.Sprintf("P%s(%d)", code, s.max)
}

// infer walks every record once, counting rows and widening each slot.
func infer(path string) ([]slot, int, error) {
	var slots []slot
	nrows := 0
	err := scan(path, func(row int, rec []string) error {
		nrows = row
		n := 0
		for i := 0; i < len(rec); n++ {
			if n == len(slots) {
				if row > 1 {
					return fmt.Errorf("%w: row %d has more cells than row 1", ErrMalformed, row)
				}
				slots = append(slots, slot{vla: rec[i] == VLAMarker})
			}
			s := &slots[n]
			if (rec[i] == VLAMarker) != s.vla {
				return fmt.Errorf("%w: row %d cell %d changes between array and scalar", ErrMalformed, row, n+1)
			}
			if !s.vla {
				s.f = format.Widen(s.f, format.Infer(rec[i]))
				s.width = max(s.width, len(rec[i]))
				i++
				continue
			}
			elems, next, err := vlaTokens(rec, i, row)
			if err != nil {
				return err
			}
			for _, tok := range elems {
				s.f = format.Widen(s.f, format.Infer(tok))
			}
			s.max = max(s.max, len(elems))
			i = next
		}
		if n != len(slots) {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformed, row, n, len(slots))
		}
		return nil
	})
	return slots, nrows, err
}

// vlaTokens returns the element tokens of the variable-length cell at
// rec[i] and the index just past it.
func vlaTokens(rec []string, i, row int) ([]string, int, error) {
	if i+1 >= len(rec) {
		return nil, 0, &ParseError{Row: row, Column: i + 1, Token: rec[i], Err: ErrMalformed}
	}
	n, err := strconv.Atoi(strings.TrimSpace(rec[i+1]))
	if err != nil || n < 0 {
		return nil, 0, &ParseError{Row: row, Column: i + 2, Token: rec[i+1], Err: ErrMalformed}
	}
	end := i + 2 + n
	if end > len(rec) {
		return nil, 0, &ParseError{Row: row, Column: i + 2, Token: rec[i+1],
			Err: fmt.Errorf("%w: %d elements, %d tokens left", ErrMalformed, n, len(rec)-i-2)}
	}
	return rec[i+2 : end], end, nil
}

func loadData(path string, kind table.Kind, cs *column.ColumnSet) (*table.Table, error) {
	var nrows int
	if cs == nil {
		slots, n, err := infer(path)
		if err != nil {
			return nil, err
		}
		cols := make([]*column.Column, len(slots))
		for i, s := range slots {
			cols[i] = &column.Column{Name: "col" + strconv.Itoa(i+1), Format: s.tform()}
		}
		if cs, err = column.New(kind, cols...); err != nil {
			return nil, err
		}
		nrows = n
	} else {
		err := scan(path, func(row int, _ []string) error {
			nrows = row
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	t, err := table.New(kind, cs, table.Options{Rows: nrows, Fill: true})
	if err != nil {
		return nil, err
	}

	err = scan(path, func(row int, rec []string) error {
		i := 0
		for _, f := range t.Fields() {
			v, next, err := cellValue(f.Format(), rec, i, row)
			if err != nil {
				return err
			}
			if err := f.SetValue(row-1, v); err != nil {
				return &ParseError{Row: row, Column: i + 1, Token: strings.Join(rec[i:next], " "), Err: err}
			}
			i = next
		}
		if i != len(rec) {
			return fmt.Errorf("%w: row %d has %d extra tokens", ErrMalformed, row, len(rec)-i)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	t.RecordMax()
	slog.Debug("tdump: loaded", "path", path, "rows", nrows, "fields", t.NumFields())
	return t, nil
}

// cellValue consumes the tokens of one field starting at rec[i].
func cellValue(fm format.Format, rec []string, i, row int) (any, int, error) {
	take := func(n int) ([]string, error) {
		if i+n > len(rec) {
			return nil, fmt.Errorf("%w: row %d ends inside a %s cell", ErrMalformed, row, fm.TForm())
		}
		return rec[i : i+n], nil
	}

	switch {
	case fm.ASCII, fm.Kind == format.Scalar && fm.Code == format.Char:
		toks, err := take(1)
		if err != nil {
			return nil, 0, err
		}
		v, err := parseToken(fm.Code, toks[0])
		if err != nil {
			return nil, 0, &ParseError{Row: row, Column: i + 1, Token: toks[0], Err: err}
		}
		return v, i + 1, nil

	case fm.Kind == format.VarLen:
		if i >= len(rec) || rec[i] != VLAMarker {
			tok := ""
			if i < len(rec) {
				tok = rec[i]
			}
			return nil, 0, &ParseError{Row: row, Column: i + 1, Token: tok,
				Err: fmt.Errorf("%w: want %s", ErrMalformed, VLAMarker)}
		}
		toks, next, err := vlaTokens(rec, i, row)
		if err != nil {
			return nil, 0, err
		}
		if fm.Code == format.Char {
			var sb strings.Builder
			for _, tok := range toks {
				if tok == "" {
					sb.WriteByte(' ')
				} else {
					sb.WriteByte(tok[0])
				}
			}
			return sb.String(), next, nil
		}
		vals, err := parseTokens(fm.Code, toks, row, i+2)
		return vals, next, err
	}

	n := fm.Repeat
	code := fm.Code
	if fm.Kind == format.BitArray {
		code = format.Logical
	}
	toks, err := take(n)
	if err != nil {
		return nil, 0, err
	}
	vals, err := parseTokens(code, toks, row, i)
	if err != nil {
		return nil, 0, err
	}
	if n == 1 {
		return vals[0], i + 1, nil
	}
	return vals, i + n, nil
}

func parseTokens(code format.Code, toks []string, row, col int) ([]any, error) {
	vals := make([]any, len(toks))
	for j, tok := range toks {
		v, err := parseToken(code, tok)
		if err != nil {
			return nil, &ParseError{Row: row, Column: col + j + 1, Token: tok, Err: err}
		}
		vals[j] = v
	}
	return vals, nil
}

// parseToken converts one token to the Go value of an element of code.
// Logical elements are written as 1 or 0.
func parseToken(code format.Code, tok string) (any, error) {
	if code == format.Char {
		return strings.TrimRight(tok, " "), nil
	}
	s := strings.TrimSpace(tok)
	switch {
	case code == format.Logical:
		switch s {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
		return nil, strconv.ErrSyntax
	case code.IsInteger():
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, unwrapNum(err)
		}
		return n, nil
	case code.IsFloat():
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, unwrapNum(err)
		}
		return x, nil
	case code.IsComplex():
		return format.ParseComplex(s)
	}
	return nil, fmt.Errorf("%w: element type %s", ErrMalformed, code)
}

func unwrapNum(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}
