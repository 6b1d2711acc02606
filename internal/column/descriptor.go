package column

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/tuannm99/novafits/internal/format"
)

var ErrBadValue = errors.New("column: value does not match format")

// Descriptor is a loosely typed column definition as written in a YAML
// table description.
type Descriptor struct {
	Name   string  `yaml:"name"`
	Format string  `yaml:"format"`
	Disp   string  `yaml:"disp,omitempty"`
	Unit   string  `yaml:"unit,omitempty"`
	Dim    string  `yaml:"dim,omitempty"`
	Null   string  `yaml:"null,omitempty"`
	Scale  float64 `yaml:"scale,omitempty"`
	Zero   float64 `yaml:"zero,omitempty"`
	Start  int     `yaml:"start,omitempty"`
	Values any     `yaml:"values,omitempty"`
}

// TableDescriptor is the document form: a kind, an optional row count and
// the column list.
type TableDescriptor struct {
	Name    string       `yaml:"name,omitempty"`
	Kind    string       `yaml:"kind,omitempty"`
	Rows    int          `yaml:"rows,omitempty"`
	Columns []Descriptor `yaml:"columns"`
}

// LoadDescriptors decodes a YAML table description.
func LoadDescriptors(r io.Reader) (*TableDescriptor, error) {
	var td TableDescriptor
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&td); err != nil {
		return nil, fmt.Errorf("column: decode descriptors: %w", err)
	}
	return &td, nil
}

// ColumnSet converts the description into a column set whose sources are
// coerced to the slice types their formats need.
func (td *TableDescriptor) ColumnSet() (*ColumnSet, error) {
	kind, err := ParseKind(td.Kind)
	if err != nil {
		return nil, err
	}
	cols := make([]*Column, 0, len(td.Columns))
	for _, d := range td.Columns {
		c, err := d.Column(kind)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return New(kind, cols...)
}

// Column converts one descriptor.
func (d Descriptor) Column(kind Kind) (*Column, error) {
	f, err := parseFormat(kind, d.Format)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", d.Name, err)
	}
	c := &Column{
		Name: d.Name, Format: d.Format, Disp: d.Disp, Unit: d.Unit,
		Dim: d.Dim, Null: d.Null, Scale: d.Scale, Zero: d.Zero, Start: d.Start,
	}
	if d.Values == nil {
		return c, nil
	}
	arr, err := Coerce(f, d.Values)
	if err != nil {
		return nil, fmt.Errorf("column %q: %w", d.Name, err)
	}
	c.Array = arr
	return c, nil
}

// Coerce turns decoded YAML values (a []any) into the typed source slice
// for format f.
func Coerce(f format.Format, v any) (any, error) {
	rows, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: values must be a list", ErrBadValue)
	}
	perRow := f.Kind == format.VarLen || f.Kind == format.BitArray ||
		(f.Kind == format.Scalar && f.Code != format.Char && f.Repeat != 1 && !f.ASCII)

	if !perRow {
		return coerceList(elemCode(f), rows)
	}
	if f.Kind == format.VarLen && f.Code == format.Char {
		return coerceList(format.Char, rows)
	}
	code := elemCode(f)
	if f.Kind == format.BitArray {
		code = format.Logical
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		cells, ok := r.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d must be a list", ErrBadValue, i)
		}
		vals, err := coerceList(code, cells)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = vals
	}
	return typedRows(code, out), nil
}

func elemCode(f format.Format) format.Code {
	if f.ASCII {
		switch f.Code {
		case format.Int16:
			return format.Int64
		case format.Char:
			return format.Char
		default:
			return format.Float64
		}
	}
	return f.Code
}

func coerceList(code format.Code, vals []any) (any, error) {
	switch {
	case code == format.Char:
		out := make([]string, len(vals))
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %v is not a string", ErrBadValue, v)
			}
			out[i] = s
		}
		return out, nil
	case code == format.Logical:
		out := make([]bool, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case bool:
				out[i] = x
			case int:
				out[i] = x != 0
			default:
				return nil, fmt.Errorf("%w: %v is not a boolean", ErrBadValue, v)
			}
		}
		return out, nil
	case code.IsInteger():
		out := make([]int64, len(vals))
		for i, v := range vals {
			x, ok := v.(int)
			if !ok {
				return nil, fmt.Errorf("%w: %v is not an integer", ErrBadValue, v)
			}
			out[i] = int64(x)
		}
		return out, nil
	case code.IsComplex():
		out := make([]complex128, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case string:
				c, err := format.ParseComplex(x)
				if err != nil {
					return nil, fmt.Errorf("%w: %q is not complex", ErrBadValue, x)
				}
				out[i] = c
			case int:
				out[i] = complex(float64(x), 0)
			case float64:
				out[i] = complex(x, 0)
			default:
				return nil, fmt.Errorf("%w: %v is not complex", ErrBadValue, v)
			}
		}
		return out, nil
	default:
		out := make([]float64, len(vals))
		for i, v := range vals {
			switch x := v.(type) {
			case int:
				out[i] = float64(x)
			case float64:
				out[i] = x
			default:
				return nil, fmt.Errorf("%w: %v is not a number", ErrBadValue, v)
			}
		}
		return out, nil
	}
}

// typedRows narrows a []any of per-row slices to [][]T.
func typedRows(code format.Code, rows []any) any {
	switch {
	case code == format.Logical:
		out := make([][]bool, len(rows))
		for i, r := range rows {
			out[i] = r.([]bool)
		}
		return out
	case code.IsInteger():
		out := make([][]int64, len(rows))
		for i, r := range rows {
			out[i] = r.([]int64)
		}
		return out
	case code.IsComplex():
		out := make([][]complex128, len(rows))
		for i, r := range rows {
			out[i] = r.([]complex128)
		}
		return out
	default:
		out := make([][]float64, len(rows))
		for i, r := range rows {
			out[i] = r.([]float64)
		}
		return out
	}
}

// DescriptorSchema is the JSON Schema of a YAML table description.
func DescriptorSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true, FieldNameTag: "yaml"}
	s := r.Reflect(&TableDescriptor{})
	s.Title = "table description"
	return json.MarshalIndent(s, "", "  ")
}
