package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tuannm99/novafits/internal/checksum"
	"github.com/tuannm99/novafits/internal/column"
	"github.com/tuannm99/novafits/internal/header"
	"github.com/tuannm99/novafits/internal/storage"
	"github.com/tuannm99/novafits/internal/table"
	"github.com/tuannm99/novafits/internal/tdump"
)

var errMissingFlag = errors.New("missing required flag")

// need checks name/value pairs for empty values.
func need(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w -%s", errMissingFlag, pairs[i])
		}
	}
	return nil
}

func readHeader(path string) (*header.Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer storage.CloseFile(f)
	return header.ReadText(f)
}

// readExtension loads a header text file and the data unit it describes.
// The table itself is materialized lazily.
func readExtension(headerPath, dataPath string) (*table.Extension, error) {
	h, err := readHeader(headerPath)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw, err := storage.LocalFile{Path: dataPath}.ReadRegion(0, table.LayoutOf(h).Size())
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	return table.NewExtension(h, raw), nil
}

// writeExtension writes the data unit first so the header reflects the
// final heap layout.
func writeExtension(e *table.Extension, dataPath, headerPath string) error {
	err := storage.WriteFile(dataPath, func(w io.Writer) error {
		_, err := e.WriteData(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("write data: %w", err)
	}
	if err := storage.WriteFile(headerPath, e.Header.WriteText); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func runBuild(args []string) error {
	g := newFlagSet("build")
	columns := g.fs.String("columns", "", "YAML column description")
	rows := g.fs.Int("rows", 0, "Row count; 0 takes the longest column")
	kind := g.fs.String("kind", "", "Table kind (binary, ascii)")
	out := g.fs.String("out", "", "Data file to write")
	hdr := g.fs.String("header", "", "Header text file to write")
	cfg, err := g.parse(args)
	if err != nil {
		return err
	}
	if err := need("columns", *columns, "out", *out, "header", *hdr); err != nil {
		return err
	}

	f, err := os.Open(*columns)
	if err != nil {
		return err
	}
	defer storage.CloseFile(f)
	td, err := column.LoadDescriptors(f)
	if err != nil {
		return err
	}
	cs, err := td.ColumnSet()
	if err != nil {
		return err
	}

	k := cs.Kind()
	switch {
	case g.isSet("kind"):
		if k, err = column.ParseKind(*kind); err != nil {
			return err
		}
	case td.Kind == "":
		if k, err = column.ParseKind(cfg.Build.Kind); err != nil {
			return err
		}
	}
	n := cfg.Build.Rows
	if td.Rows != 0 {
		n = td.Rows
	}
	if g.isSet("rows") {
		n = *rows
	}

	t, err := table.New(k, cs, table.Options{Rows: n})
	if err != nil {
		return err
	}
	h := header.New()
	if td.Name != "" {
		h.Set("EXTNAME", td.Name)
	}
	if err := writeExtension(table.FromTable(t, h), *out, *hdr); err != nil {
		return err
	}
	slog.Info("built table", "kind", k, "rows", t.Rows(), "fields", t.NumFields(), "out", *out)
	return nil
}

func runDump(args []string) error {
	g := newFlagSet("dump")
	hdr := g.fs.String("header", "", "Header text file of the table")
	data := g.fs.String("data", "", "Data file of the table")
	files := tdump.Files{}
	g.fs.StringVar(&files.Data, "datafile", "", "Text data file to write")
	g.fs.StringVar(&files.ColDefs, "cdfile", "", "Column definition file to write")
	g.fs.StringVar(&files.Header, "hfile", "", "Header file to write")
	overwrite := g.fs.Bool("overwrite", false, "Replace existing files")
	cfg, err := g.parse(args)
	if err != nil {
		return err
	}
	if err := need("header", *hdr, "data", *data, "datafile", files.Data); err != nil {
		return err
	}

	e, err := readExtension(*hdr, *data)
	if err != nil {
		return err
	}
	t, err := e.Table()
	if err != nil {
		return err
	}
	opts := tdump.DumpOptions{Overwrite: cfg.Dump.Overwrite}
	if g.isSet("overwrite") {
		opts.Overwrite = *overwrite
	}
	return tdump.Dump(t, e.Header, files, opts)
}

func runLoad(args []string) error {
	g := newFlagSet("load")
	files := tdump.Files{}
	g.fs.StringVar(&files.Data, "datafile", "", "Text data file to read")
	g.fs.StringVar(&files.ColDefs, "cdfile", "", "Column definition file to read")
	g.fs.StringVar(&files.Header, "hfile", "", "Header file to read")
	base := g.fs.String("base", "", "Existing header text file to merge into")
	replace := g.fs.Bool("replace", false, "Use -hfile as the whole header instead of merging")
	kind := g.fs.String("kind", "", "Table kind (binary, ascii); default from the header")
	out := g.fs.String("out", "", "Data file to write")
	hdr := g.fs.String("header", "", "Header text file to write")
	if _, err := g.parse(args); err != nil {
		return err
	}
	if err := need("out", *out, "header", *hdr); err != nil {
		return err
	}

	opts := tdump.LoadOptions{Replace: *replace}
	if *base != "" {
		h, err := readHeader(*base)
		if err != nil {
			return err
		}
		opts.Header = h
	}
	if *kind != "" {
		k, err := column.ParseKind(*kind)
		if err != nil {
			return err
		}
		opts.Kind = k
	}
	e, err := tdump.Load(files, opts)
	if err != nil {
		return err
	}
	if err := writeExtension(e, *out, *hdr); err != nil {
		return err
	}
	t, _ := e.Table()
	slog.Info("loaded table", "rows", t.Rows(), "fields", t.NumFields(), "out", *out)
	return nil
}

func runChecksum(args []string) error {
	g := newFlagSet("checksum")
	hdr := g.fs.String("header", "", "Header text file of the table")
	data := g.fs.String("data", "", "Data file of the table")
	if _, err := g.parse(args); err != nil {
		return err
	}
	if err := need("header", *hdr, "data", *data); err != nil {
		return err
	}
	e, err := readExtension(*hdr, *data)
	if err != nil {
		return err
	}
	res, err := e.Datasum()
	if err != nil {
		return err
	}
	return writeSums(os.Stdout, res)
}

// writeSums prints the data sum and its complemented ASCII encoding. The
// encoding covers the data unit only, so it is not a header CHECKSUM.
func writeSums(w io.Writer, res checksum.Result) error {
	_, err := fmt.Fprintf(w, "DATASUM            = '%s'\nDATASUM complement = '%s'\n",
		res.Text, checksum.Encode(res.Sum, true))
	return err
}

func runSchema(args []string) error {
	g := newFlagSet("schema")
	if _, err := g.parse(args); err != nil {
		return err
	}
	b, err := column.DescriptorSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}
