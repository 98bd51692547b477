package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/cherrycore/internal/sim"
)

type ExportData struct {
	Run   RunMetadata      `json:"run"`
	Stats []sim.FrameStats `json:"stats,omitempty"`
}

// ExportJSON writes the run metadata, and the per-frame statistics when
// withStats is set, as indented JSON.
func (s *Store) ExportJSON(w io.Writer, runID string, withStats bool) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	data := ExportData{Run: *meta}
	if withStats {
		if data.Stats, err = s.LoadStats(runID); err != nil {
			return err
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONFile is ExportJSON into a new file at path.
func (s *Store) ExportJSONFile(path, runID string, withStats bool) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return s.ExportJSON(file, runID, withStats)
}
