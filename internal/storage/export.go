package storage

import (
	"encoding/json"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/bench"
)

type ExportSample struct {
	Time        float64 `json:"t"`
	Truth       float64 `json:"truth"`
	Reading     float64 `json:"reading"`
	Target      float64 `json:"target"`
	Reference   float64 `json:"reference"`
	Human       float64 `json:"human"`
	Power       float64 `json:"power"`
	Kind        string  `json:"kind"`
	State       string  `json:"state"`
	Calibrated  bool    `json:"calibrated"`
	SensorFault bool    `json:"sensor_fault,omitempty"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

func NewExportData(meta RunMetadata, samples []bench.Sample) ExportData {
	data := ExportData{
		Run:     meta,
		Samples: make([]ExportSample, len(samples)),
	}
	for i, s := range samples {
		data.Samples[i] = ExportSample{
			Time:        s.Time,
			Truth:       s.Truth,
			Reading:     s.Reading,
			Target:      s.Target,
			Reference:   s.Reference,
			Human:       s.Human,
			Power:       s.Power,
			Kind:        s.Kind.String(),
			State:       s.State.String(),
			Calibrated:  s.Calibrated,
			SensorFault: s.SensorFault,
		}
	}
	return data
}

// Export writes a stored run as a single JSON document.
func (s *Store) Export(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadTrace(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return pkgerrors.Wrap(enc.Encode(NewExportData(*meta, samples)), "encode export")
}

func (s *Store) ExportFile(path, runID string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", path)
	}
	defer f.Close()
	return s.Export(f, runID)
}
