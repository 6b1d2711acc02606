package column

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tuannm99/novafits/internal/header"
)

// Per-column definition keywords, each suffixed with the 1-based field
// number.
const (
	KeyType  = "TTYPE"
	KeyForm  = "TFORM"
	KeyUnit  = "TUNIT"
	KeyNull  = "TNULL"
	KeyScale = "TSCAL"
	KeyZero  = "TZERO"
	KeyDisp  = "TDISP"
	KeyStart = "TBCOL"
	KeyDim   = "TDIM"
)

var tdefRE = regexp.MustCompile(`^(TTYPE|TFORM|TUNIT|TNULL|TSCAL|TZERO|TDISP|TBCOL|TDIM)([0-9]+)$`)

// IsDefinitionKey reports whether key is a per-column definition keyword.
func IsDefinitionKey(key string) bool {
	return tdefRE.MatchString(key)
}

func key(prefix string, i int) string { return prefix + strconv.Itoa(i+1) }

// KindOf derives the table kind from the XTENSION keyword.
func KindOf(h *header.Header) (Kind, error) {
	x, ok := h.String("XTENSION")
	if !ok {
		return Binary, nil
	}
	return ParseKind(strings.TrimSpace(x))
}

// FromHeader reads the column definitions described by h.
func FromHeader(h *header.Header) (*ColumnSet, error) {
	kind, err := KindOf(h)
	if err != nil {
		return nil, err
	}
	n, ok := h.Int("TFIELDS")
	if !ok {
		return nil, fmt.Errorf("column: header has no TFIELDS")
	}
	cols := make([]*Column, 0, n)
	for i := 0; i < int(n); i++ {
		form, ok := h.String(key(KeyForm, i))
		if !ok {
			return nil, fmt.Errorf("column: missing %s", key(KeyForm, i))
		}
		c := &Column{Format: form}
		c.Name, _ = h.String(key(KeyType, i))
		c.Unit, _ = h.String(key(KeyUnit, i))
		c.Disp, _ = h.String(key(KeyDisp, i))
		c.Dim, _ = h.String(key(KeyDim, i))
		c.Null, _ = h.String(key(KeyNull, i))
		c.Scale, _ = h.Float(key(KeyScale, i))
		c.Zero, _ = h.Float(key(KeyZero, i))
		if kind == ASCII {
			start, ok := h.Int(key(KeyStart, i))
			if !ok {
				return nil, fmt.Errorf("column: missing %s", key(KeyStart, i))
			}
			c.Start = int(start)
		}
		cols = append(cols, c)
	}
	cs, err := New(kind, cols...)
	if err != nil {
		return nil, err
	}
	if w, ok := h.Int("NAXIS1"); ok && kind == ASCII {
		if err := cs.SetRowLen(int(w)); err != nil {
			return nil, err
		}
	}
	return cs, nil
}

// ClearHeader removes every per-column definition keyword from h.
func ClearHeader(h *header.Header) int {
	return h.DeleteFunc(IsDefinitionKey)
}

// ToHeader regenerates the per-column definition keywords in h. Existing
// definitions are cleared first.
func (cs *ColumnSet) ToHeader(h *header.Header) {
	ClearHeader(h)
	for i, c := range cs.fields {
		if c.Name != "" {
			h.Set(key(KeyType, i), c.Name)
		}
		h.Set(key(KeyForm, i), cs.TForm(i))
		if cs.kind == ASCII {
			h.Set(key(KeyStart, i), cs.starts[i])
		}
		if c.Unit != "" {
			h.Set(key(KeyUnit, i), c.Unit)
		}
		if c.Null != "" {
			if n, err := strconv.ParseInt(c.Null, 10, 64); err == nil && cs.kind == Binary {
				h.Set(key(KeyNull, i), n)
			} else {
				h.Set(key(KeyNull, i), c.Null)
			}
		}
		if c.Scale != 0 {
			h.Set(key(KeyScale, i), c.Scale)
		}
		if c.Zero != 0 {
			h.Set(key(KeyZero, i), c.Zero)
		}
		if c.Disp != "" {
			h.Set(key(KeyDisp, i), c.Disp)
		}
		if c.Dim != "" {
			h.Set(key(KeyDim, i), c.Dim)
		}
	}
}
