package tdump

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/format"
	"github.com/tuannm99/novafits/internal/header"
	"github.com/tuannm99/novafits/internal/storage"
	"github.com/tuannm99/novafits/internal/table"
)

// DumpOptions controls Dump.
type DumpOptions struct {
	// Overwrite replaces existing non-empty files instead of failing.
	Overwrite bool
}

// Dump writes the table, its column definitions and h to the named files.
// Every target is checked before any is opened: without Overwrite, one
// existing non-empty file fails the whole dump.
func Dump(t *table.Table, h *header.Header, files Files, opts DumpOptions) error {
	var exists []string
	for _, p := range files.paths() {
		ok, err := storage.NonEmpty(p)
		if err != nil {
			return err
		}
		if ok {
			exists = append(exists, p)
		}
	}
	if len(exists) > 0 && !opts.Overwrite {
		return &ExistsError{Paths: exists}
	}
	for _, p := range exists {
		slog.Warn("tdump: overwriting existing file", "path", p)
	}

	var g errgroup.Group
	if files.Data != "" {
		g.Go(func() error {
			return storage.WriteFile(files.Data, func(w io.Writer) error { return WriteData(w, t) })
		})
	}
	if files.ColDefs != "" {
		g.Go(func() error {
			return storage.WriteFile(files.ColDefs, func(w io.Writer) error { return WriteColDefs(w, t.Columns()) })
		})
	}
	if files.Header != "" && h != nil {
		g.Go(func() error {
			return storage.WriteFile(files.Header, h.WriteText)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("tdump: dump: %w", err)
	}
	slog.Debug("tdump: dumped", "rows", t.Rows(), "fields", t.NumFields(), "files", files.paths())
	return nil
}

// WriteData writes one line per row.
func WriteData(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	var line []string
	for r := 0; r < t.Rows(); r++ {
		line = line[:0]
		for _, f := range t.Fields() {
			line = appendCell(line, f, r)
		}
		if err := writeRecord(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeRecord quotes every token, doubling embedded quotes.
func writeRecord(w *bufio.Writer, tokens []string) error {
	for i, tok := range tokens {
		if i > 0 {
			if err := w.WriteByte(' '); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(tok, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func appendCell(line []string, f *table.Field, row int) []string {
	fm := f.Format()
	switch {
	case fm.ASCII:
		switch fm.Code {
		case format.Char:
			return append(line, fmt.Sprintf("%-*s", fm.Width, f.String(row)))
		case format.Int16:
			return append(line, formatElem(f.Int(row)))
		default:
			return append(line, formatElem(f.Float(row)))
		}
	case fm.Kind == format.VarLen:
		a := f.Array(row)
		line = append(line, VLAMarker, fmt.Sprintf("%-21d", a.Len()))
		for i := 0; i < a.Len(); i++ {
			line = append(line, formatElem(a.Value(i)))
		}
		return line
	case fm.Kind == format.BitArray:
		for _, bit := range f.Bits(row) {
			line = append(line, formatElem(bit))
		}
		return line
	case fm.Code == format.Char:
		return append(line, fmt.Sprintf("%-*s", fm.Repeat, f.String(row)))
	}
	for _, v := range elements(f.Value(row)) {
		line = append(line, formatElem(v))
	}
	return line
}

func elements(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// formatElem renders one element: integers %21d, floats %#21.15g, complex
// numbers as real and signed imaginary parts with a j suffix.
func formatElem(v any) string {
	switch x := v.(type) {
	case bool:
		n := 0
		if x {
			n = 1
		}
		return fmt.Sprintf("%21d", n)
	case int64:
		return fmt.Sprintf("%21d", x)
	case float64:
		return fmt.Sprintf("%#21.15g", x)
	case complex128:
		return fmt.Sprintf("%21.15g%+.15gj", real(x), imag(x))
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// WriteColDefs writes one line per column: name, format, display format,
// unit, dimension, null, scale and zero, each in a 16-character field.
func WriteColDefs(w io.Writer, cs *column.ColumnSet) error {
	bw := bufio.NewWriter(w)
	for i, c := range cs.Columns() {
		vals := []string{
			c.Name, cs.TForm(i), c.Disp, c.Unit, c.Dim, c.Null,
			floatAttr(c.Scale), floatAttr(c.Zero),
		}
		for j, v := range vals {
			if v == "" {
				v = absent
			}
			vals[j] = fmt.Sprintf("%-16s", v)
		}
		if _, err := bw.WriteString(strings.Join(vals, " ") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func floatAttr(x float64) string {
	if x == 0 {
		return ""
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
