package mapping

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/dendrascience/filecoder/util"
)

var csvHeader = []string{"code", "identity"}

// knownHeaders are the first rows Read accepts as column titles: the one
// this package writes and the Code/imageID pair of older spreadsheets.
var knownHeaders = [][]string{
	csvHeader,
	{"code", "imageid"},
}

// isHeader reports whether rec is one of knownHeaders, ignoring case,
// surrounding space and a leading byte order mark.
func isHeader(rec []string) bool {
	if len(rec) != 2 {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(rec[0], "\ufeff")))
	b := strings.ToLower(strings.TrimSpace(rec[1]))
	for _, h := range knownHeaders {
		if a == h[0] && b == h[1] {
			return true
		}
	}
	return false
}

// csvFormat is the default two-column snapshot. A header row is written;
// on read it is optional.
type csvFormat struct{}

func (csvFormat) Name() string         { return "csv" }
func (csvFormat) Extensions() []string { return []string{".csv"} }

func (csvFormat) Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var (
		records []Record
		row     int
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &util.FormatError{Path: path, Row: row, Reason: "malformed csv", Err: err}
		}
		if row == 1 {
			if isHeader(rec) {
				continue
			}
			if len(rec) > 0 {
				rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			}
		}
		if len(rec) != 2 {
			return nil, &util.FormatError{Path: path, Row: row, Reason: "expected 2 columns"}
		}
		records = append(records, Record{Entry: Entry{Code: strings.TrimSpace(rec[0]), Identity: rec[1]}, Row: row})
	}
	return records, nil
}

func (csvFormat) Write(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Code, e.Identity}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}
