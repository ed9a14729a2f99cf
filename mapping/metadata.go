package mapping

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dendrascience/filecoder/util"
	"github.com/dendrascience/filecoder/version"
)

// MetadataSuffix is appended to a snapshot path to name its sidecar.
const MetadataSuffix = ".meta.json"

// Metadata describes the run that produced a snapshot.
type Metadata struct {
	CodeLength       int       `json:"code_length"`
	CreatedAt        time.Time `json:"created_at"`
	FilecoderVersion string    `json:"filecoder_version"`
	FilecoderCommit  string    `json:"filecoder_commit,omitempty"`
	Format           string    `json:"format"`
	NewEntryCount    int       `json:"new_entry_count"`
	Parent           string    `json:"parent,omitempty"`
	RunID            string    `json:"run_id"`
	TotalEntryCount  int       `json:"total_entry_count"`
}

// GenerateMetadata creates a Metadata struct for a snapshot of the store.
func (s *Store) GenerateMetadata(runID string, length int, format Format, now time.Time) Metadata {
	return Metadata{
		CodeLength:       length,
		CreatedAt:        now.UTC(),
		FilecoderVersion: version.GetVersion(),
		FilecoderCommit:  version.GetCommit(),
		Format:           format.Name(),
		NewEntryCount:    s.Len() - s.Loaded(),
		Parent:           s.Source(),
		RunID:            runID,
		TotalEntryCount:  s.Len(),
	}
}

// MetadataPath returns the sidecar path for a snapshot.
func MetadataPath(snapshot string) string {
	return snapshot + MetadataSuffix
}

// Save writes m next to the snapshot it describes.
func (m Metadata) Save(snapshot string) error {
	return util.WriteJSONFile(MetadataPath(snapshot), m)
}

// LoadMetadata reads the sidecar of a snapshot. A missing sidecar returns an
// error satisfying os.IsNotExist.
func LoadMetadata(snapshot string) (Metadata, error) {
	var m Metadata
	f, err := os.Open(MetadataPath(snapshot))
	if err != nil {
		return m, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return m, &util.FormatError{Path: MetadataPath(snapshot), Reason: "malformed metadata", Err: err}
	}
	return m, nil
}
