package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/setpoint/internal/bench"
	"github.com/san-kum/setpoint/internal/calibration"
	"github.com/san-kum/setpoint/internal/config"
	"github.com/san-kum/setpoint/internal/control"
)

func testResult() *bench.Result {
	return &bench.Result{
		Samples: []bench.Sample{
			{Time: 0, Reading: -1.2, Target: -1.2, Reference: -1.2, Kind: control.Coast, State: control.Coasting, Calibrated: true},
			{Time: 0.02, Truth: -1.19, Reading: -1.19, Target: 1.2, Reference: -1.18, Power: 0.4, Kind: control.MachineControl, State: control.MachineControlled, Calibrated: true},
			{Time: 0.04, Human: 0.5, Power: 0.525, Kind: control.HumanControl, State: control.HumanControlled, Calibrated: true, SensorFault: false},
		},
		Metrics:     map[string]float64{"tracking_rms": 0.05},
		Cycles:      3,
		Transitions: 2,
		Calibration: calibration.Transition{Method: calibration.MethodReference, Raw: -1.2, Known: -1.2},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	cfg := config.GetPreset("arm", "stow")
	runID, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Mechanism != "arm" || meta.Preset != "stow" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Metrics["tracking_rms"] != 0.05 {
		t.Errorf("expected tracking_rms 0.05, got %v", meta.Metrics["tracking_rms"])
	}
	if meta.Calibration.Method != calibration.MethodReference {
		t.Errorf("calibration record lost: %+v", meta.Calibration)
	}

	samples, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[1].Kind != control.MachineControl || samples[2].State != control.HumanControlled {
		t.Errorf("kinds not restored: %+v", samples)
	}
	if samples[1].Power != 0.4 || samples[2].Human != 0.5 {
		t.Errorf("values not restored: %+v", samples)
	}

	loaded, err := st.LoadConfig(runID)
	if err != nil {
		t.Fatalf("load config failed: %v", err)
	}
	if loaded.PID != cfg.PID {
		t.Errorf("expected gains %+v, got %+v", cfg.PID, loaded.PID)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	cfg := config.GetPreset("elevator", "lift")
	first, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	second, err := st.Save(cfg, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first == second {
		t.Error("run IDs must be unique")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{metadataFile, traceFile, configFile} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(config.DefaultConfig(), testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var buf bytes.Buffer
	if err := st.Export(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if data.Run.ID != runID || len(data.Samples) != 3 {
		t.Errorf("unexpected export %+v", data.Run)
	}
	if data.Samples[2].Kind != "HumanControl" {
		t.Errorf("expected kind names in export, got %q", data.Samples[2].Kind)
	}

	if err := st.Export(&buf, "missing"); err == nil {
		t.Error("expected error for missing run")
	}
}
