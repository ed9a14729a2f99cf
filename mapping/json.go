package mapping

import (
	"encoding/json"
	"os"

	"github.com/dendrascience/filecoder/util"
)

// jsonFormat stores the mapping as {"entries":[{"code":..,"identity":..}]}.
type jsonFormat struct{}

type jsonSnapshot struct {
	Entries []Entry `json:"entries"`
}

func (jsonFormat) Name() string         { return "json" }
func (jsonFormat) Extensions() []string { return []string{".json"} }

func (jsonFormat) Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	var snap jsonSnapshot
	if err := dec.Decode(&snap); err != nil {
		return nil, &util.FormatError{Path: path, Reason: "malformed json", Err: err}
	}
	if dec.More() {
		return nil, &util.FormatError{Path: path, Reason: "trailing data after snapshot object"}
	}
	return numbered(snap.Entries), nil
}

func (jsonFormat) Write(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if entries == nil {
		entries = []Entry{}
	}
	if err := json.NewEncoder(f).Encode(jsonSnapshot{Entries: entries}); err != nil {
		return err
	}
	return f.Close()
}
