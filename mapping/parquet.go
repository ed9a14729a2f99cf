package mapping

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/dendrascience/filecoder/util"
)

// parquetFormat stores the mapping as a two-column parquet file.
type parquetFormat struct{}

func (parquetFormat) Name() string         { return "parquet" }
func (parquetFormat) Extensions() []string { return []string{".parquet"} }

func (parquetFormat) Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, &util.FormatError{Path: path, Reason: "not a readable parquet file", Err: err}
	}
	fields := pf.Schema().Fields()
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name())
	}
	if len(names) != 2 || names[0] != "code" || names[1] != "identity" {
		return nil, &util.FormatError{Path: path, Reason: fmt.Sprintf("columns %v, want [code identity]", names)}
	}

	r := parquet.NewGenericReader[Entry](pf)
	defer r.Close()

	entries := make([]Entry, r.NumRows())
	read := 0
	for read < len(entries) {
		n, err := r.Read(entries[read:])
		read += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &util.FormatError{Path: path, Row: read + 1, Reason: "unreadable row", Err: err}
		}
		if n == 0 {
			break
		}
	}
	return numbered(entries[:read]), nil
}

func (parquetFormat) Write(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := parquet.NewGenericWriter[Entry](f)
	n, err := w.Write(entries)
	if err != nil {
		return err
	}
	if n != len(entries) {
		return errors.New("parquet writer did not write all rows")
	}
	if err := w.Close(); err != nil {
		return err
	}
	return f.Close()
}
