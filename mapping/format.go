package mapping

import (
	"path/filepath"
	"strings"

	"github.com/dendrascience/filecoder/util"
)

// Format reads and writes one on-disk snapshot encoding. Write is always
// handed a fresh temp path; atomic publication is handled by Persist.
type Format interface {
	Name() string
	Extensions() []string
	Read(path string) ([]Record, error)
	Write(path string, entries []Entry) error
}

// Record is an entry as read back from a snapshot. Row is the 1-based row
// of the source file it came from, counting any header row.
type Record struct {
	Entry
	Row int
}

// numbered assigns rows to entries read from a headerless source.
func numbered(entries []Entry) []Record {
	records := make([]Record, len(entries))
	for i, e := range entries {
		records[i] = Record{Entry: e, Row: i + 1}
	}
	return records
}

// DefaultFormat is used when neither a format name nor a prior snapshot is given.
const DefaultFormat = "csv"

var formats = []Format{
	csvFormat{},
	jsonFormat{},
	sqliteFormat{},
	parquetFormat{},
	xlsxFormat{},
}

// FormatNames lists the supported format names.
func FormatNames() []string {
	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.Name())
	}
	return names
}

// FormatByName returns the format called name.
func FormatByName(name string) (Format, error) {
	for _, f := range formats {
		if f.Name() == strings.ToLower(name) {
			return f, nil
		}
	}
	return nil, &util.ConfigurationError{
		Field:  "format",
		Value:  name,
		Reason: "unknown snapshot format (want one of " + strings.Join(FormatNames(), ", ") + ")",
	}
}

// FormatForPath picks the format from the snapshot file extension.
func FormatForPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range formats {
		for _, e := range f.Extensions() {
			if e == ext {
				return f, nil
			}
		}
	}
	return nil, &util.ConfigurationError{
		Field:  "snapshot",
		Value:  path,
		Reason: "cannot tell the snapshot format from extension " + ext,
	}
}

// ResolveFormat applies the precedence name > prior snapshot extension > DefaultFormat.
func ResolveFormat(name, snapshot string) (Format, error) {
	switch {
	case name != "":
		return FormatByName(name)
	case snapshot != "":
		return FormatForPath(snapshot)
	default:
		return FormatByName(DefaultFormat)
	}
}

// ValidCode reports whether code is a non-empty run of decimal digits without
// a leading zero.
func ValidCode(code string) bool {
	if code == "" || code[0] == '0' {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
