package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/calibration"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/control"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	configFile   = "config.yaml"
)

var traceHeader = []string{
	"time", "truth", "reading", "target", "reference", "human", "power",
	"kind", "state", "calibrated", "sensor_fault",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return pkgerrors.Wrapf(os.MkdirAll(s.baseDir, 0755), "create %s", s.baseDir)
}

type RunMetadata struct {
	ID          string                 `json:"id"`
	Mechanism   string                 `json:"mechanism"`
	Preset      string                 `json:"preset,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
	Integrator  string                 `json:"integrator"`
	Cycle       float64                `json:"cycle"`
	Duration    float64                `json:"duration"`
	Cycles      int                    `json:"cycles"`
	Transitions int                    `json:"transitions"`
	Profiled    bool                   `json:"profiled"`
	PID         config.PIDConfig       `json:"pid"`
	Calibration calibration.Transition `json:"calibration"`
	Metrics     map[string]float64     `json:"metrics"`
}

// Save writes the run's metadata, its configuration and the per-cycle
// trace into a new directory and returns the run ID.
func (s *Store) Save(cfg *config.Config, result *bench.Result) (string, error) {
	runID, runDir, err := s.newRunDir(cfg)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Mechanism:   cfg.Mechanism,
		Preset:      cfg.Name,
		Timestamp:   time.Now(),
		Integrator:  cfg.Integrator,
		Cycle:       cfg.Cycle,
		Duration:    cfg.Duration,
		Cycles:      result.Cycles,
		Transitions: result.Transitions,
		Profiled:    cfg.Profile.Enabled,
		PID:         cfg.PID,
		Calibration: result.Calibration,
		Metrics:     result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeTrace(filepath.Join(runDir, traceFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) newRunDir(cfg *config.Config) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := cfg.Mechanism
	if cfg.Name != "" {
		base += "_" + cfg.Name
	}
	base = fmt.Sprintf("%s_%d", base, time.Now().Unix())

	runID := base
	for i := 1; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", pkgerrors.Wrapf(err, "create run dir %s", runDir)
		}
		runID = fmt.Sprintf("%s-%d", base, i)
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return pkgerrors.Wrapf(enc.Encode(v), "encode %s", path)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeTrace(path string, samples []bench.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(traceHeader); err != nil {
		return pkgerrors.Wrapf(err, "write %s", path)
	}
	for _, s := range samples {
		row := []string{
			formatFloat(s.Time),
			formatFloat(s.Truth),
			formatFloat(s.Reading),
			formatFloat(s.Target),
			formatFloat(s.Reference),
			formatFloat(s.Human),
			formatFloat(s.Power),
			s.Kind.String(),
			s.State.String(),
			strconv.FormatBool(s.Calibrated),
			strconv.FormatBool(s.SensorFault),
		}
		if err := w.Write(row); err != nil {
			return pkgerrors.Wrapf(err, "write %s", path)
		}
	}
	w.Flush()
	return pkgerrors.Wrapf(w.Error(), "flush %s", path)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, pkgerrors.Wrapf(err, "read %s", s.baseDir)
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, pkgerrors.Wrapf(err, "decode %s", metaPath)
	}
	return &meta, nil
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadTrace reads the per-cycle samples back. Rows that do not parse are
// skipped.
func (s *Store) LoadTrace(runID string) ([]bench.Sample, error) {
	csvPath := filepath.Join(s.baseDir, runID, traceFile)
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "run %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "read %s", csvPath)
	}
	if len(records) < 2 {
		return []bench.Sample{}, nil
	}

	samples := make([]bench.Sample, 0, len(records)-1)
	for _, record := range records[1:] {
		s, ok := parseSample(record)
		if !ok {
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(record []string) (bench.Sample, bool) {
	if len(record) != len(traceHeader) {
		return bench.Sample{}, false
	}

	var nums [7]float64
	for i := range nums {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return bench.Sample{}, false
		}
		nums[i] = v
	}
	calibrated, err1 := strconv.ParseBool(record[9])
	fault, err2 := strconv.ParseBool(record[10])
	if err1 != nil || err2 != nil {
		return bench.Sample{}, false
	}

	return bench.Sample{
		Time:        nums[0],
		Truth:       nums[1],
		Reading:     nums[2],
		Target:      nums[3],
		Reference:   nums[4],
		Human:       nums[5],
		Power:       nums[6],
		Kind:        parseKind(record[7]),
		State:       parseState(record[8]),
		Calibrated:  calibrated,
		SensorFault: fault,
	}, true
}

func parseKind(name string) control.Kind {
	for k := control.Coast; k <= control.UncalibratedFallback; k++ {
		if k.String() == name {
			return k
		}
	}
	return 0
}

func parseState(name string) control.State {
	for st := control.Uncalibrated; st <= control.MachineControlled; st++ {
		if st.String() == name {
			return st
		}
	}
	return control.Uncalibrated
}
