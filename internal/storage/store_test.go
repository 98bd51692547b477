package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/cherrycore/internal/sim"
)

func record(t *testing.T, st *Store, frames int) string {
	t.Helper()

	s, err := sim.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := st.Create(RunMetadata{Preset: "test", Seed: 42, Particles: 8, Radius: 0.1, Dt: 0.016, Params: s.Params()})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	s.AddObserver(rec)
	s.Initialize(8, 0.1, 42)

	sum, err := s.Run(context.Background(), frames, 0.016)
	if err != nil {
		t.Fatal(err)
	}
	sum.Metrics["energy"] = 1.5
	if err := rec.Close(sum); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	return rec.ID()
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID := record(t, st, 5)
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "test" {
		t.Errorf("expected preset 'test', got '%s'", meta.Preset)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Frames != 5 {
		t.Errorf("expected 5 frames, got %d", meta.Frames)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if meta.Params != sim.DefaultParams() {
		t.Errorf("expected default params, got %+v", meta.Params)
	}

	stats, err := st.LoadStats(runID)
	if err != nil {
		t.Fatalf("load stats failed: %v", err)
	}
	if len(stats) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(stats))
	}
	if stats[4].Frame != 4 {
		t.Errorf("expected last frame 4, got %d", stats[4].Frame)
	}
	if stats[0].Dt != 0.016 {
		t.Errorf("expected dt 0.016, got %v", stats[0].Dt)
	}
	if stats[0].Steering != sim.SteeringSkipped {
		t.Errorf("expected skipped steering, got %s", stats[0].Steering)
	}
}

func TestStatsRowRoundTrip(t *testing.T) {
	in := sim.FrameStats{
		Frame: 12, Time: 0.192, Dt: 0.016, Contacts: 7, Steering: sim.SteeringRan,
		Tetrahedra: 310, Steered: 48, Fallbacks: 2,
		KineticEnergy: 0.0123, Momentum: 1e-9, MeanSpeed: 0.04,
	}
	out, err := parseRow(formatRow(in))
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	a := record(t, st, 1)
	b := record(t, st, 1)
	if a == b {
		t.Errorf("expected distinct run ids, got %s twice", a)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID := record(t, st, 2)
	runDir := filepath.Join(tmpDir, runID)

	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "stats.csv")); os.IsNotExist(err) {
		t.Error("stats.csv not created")
	}
}

func TestColumn(t *testing.T) {
	stats := []sim.FrameStats{{Contacts: 1, KineticEnergy: 0.5}, {Contacts: 3, KineticEnergy: 0.25}}

	got, err := Column(stats, "contacts")
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 || got[1] != 3 {
		t.Errorf("expected [1 3], got %v", got)
	}

	if _, err := Column(stats, "steering"); err == nil {
		t.Error("expected error for non-numeric column")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID := record(t, st, 3)

	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID, true); err != nil {
		t.Fatal(err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data.Run.ID != runID {
		t.Errorf("expected id %s, got %s", runID, data.Run.ID)
	}
	if len(data.Stats) != 3 {
		t.Errorf("expected 3 stats rows, got %d", len(data.Stats))
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportJSONFile(path, runID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

type closeFailWriter struct {
	bytes.Buffer
	err error
}

func (w *closeFailWriter) Close() error { return w.err }

func TestEncodeMetadataReportsClose(t *testing.T) {
	errDisk := errors.New("disk full")
	w := &closeFailWriter{err: errDisk}

	err := encodeMetadata(w, RunMetadata{ID: "run_1", Preset: "test"})
	if !errors.Is(err, errDisk) {
		t.Fatalf("expected close error, got %v", err)
	}
	if !bytes.Contains(w.Bytes(), []byte(`"id": "run_1"`)) {
		t.Errorf("expected encoded metadata, got %q", w.String())
	}

	ok := &closeFailWriter{}
	if err := encodeMetadata(ok, RunMetadata{ID: "run_2"}); err != nil {
		t.Errorf("expected success, got %v", err)
	}
}
