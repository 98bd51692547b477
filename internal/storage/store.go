package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/cherrycore/internal/particle"
	"github.com/san-kum/cherrycore/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statsFile    = "stats.csv"
)

// Columns of stats.csv, in order.
var Columns = []string{
	"frame", "time", "dt", "contacts", "steering", "tetrahedra", "steered",
	"fallbacks", "kinetic_energy", "momentum", "mean_speed",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string     `json:"id"`
	Preset    string     `json:"preset"`
	Timestamp time.Time  `json:"timestamp"`
	Seed      int64      `json:"seed"`
	Particles int        `json:"particles"`
	Radius    float64    `json:"radius"`
	Dt        float64    `json:"dt"`
	Frames    int        `json:"frames"`
	Params    sim.Params `json:"params"`

	SteeringRuns     int                `json:"steering_runs"`
	SteeringFailures int                `json:"steering_failures"`
	Metrics          map[string]float64 `json:"metrics"`
}

// Recorder streams per-frame statistics of one run to disk. It implements
// sim.Observer; write errors are kept and reported by Close.
type Recorder struct {
	store *Store
	meta  RunMetadata
	file  *os.File
	w     *csv.Writer
	err   error
}

// Create allocates a run directory and returns a recorder for it. meta.ID
// and meta.Timestamp are filled in.
func (s *Store) Create(meta RunMetadata) (*Recorder, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.Unix())
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.baseDir, meta.ID)); os.IsNotExist(err) {
			break
		}
		meta.ID = fmt.Sprintf("%s_%d_%d", name, meta.Timestamp.Unix(), i)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(filepath.Join(runDir, statsFile))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		return nil, err
	}
	return &Recorder{store: s, meta: meta, file: f, w: w}, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

func (r *Recorder) OnFrame(st sim.FrameStats, _ []particle.Particle) {
	if r.err != nil {
		return
	}
	r.err = r.w.Write(formatRow(st))
}

// Close flushes the statistics and writes metadata.json with the run
// summary.
func (r *Recorder) Close(sum sim.Summary) error {
	r.w.Flush()
	if r.err == nil {
		r.err = r.w.Error()
	}
	if err := r.file.Close(); err != nil && r.err == nil {
		r.err = err
	}
	if r.err != nil {
		return r.err
	}

	r.meta.Frames = sum.Frames
	r.meta.SteeringRuns = sum.SteeringRuns
	r.meta.SteeringFailures = sum.SteeringFailures
	r.meta.Metrics = sum.Metrics
	return r.store.writeMetadata(r.meta)
}

func (s *Store) writeMetadata(meta RunMetadata) error {
	metaFile, err := os.Create(filepath.Join(s.baseDir, meta.ID, metadataFile))
	if err != nil {
		return err
	}
	return encodeMetadata(metaFile, meta)
}

// encodeMetadata writes meta as indented JSON and closes w. A failed close
// is reported when the encode itself succeeded.
func encodeMetadata(w io.WriteCloser, meta RunMetadata) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns all runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
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
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStats reads back the per-frame statistics of a run.
func (s *Store) LoadStats(runID string) ([]sim.FrameStats, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(Columns)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.FrameStats{}, nil
	}

	out := make([]sim.FrameStats, 0, len(records)-1)
	for i, rec := range records[1:] {
		st, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", statsFile, i+2, err)
		}
		out = append(out, st)
	}
	return out, nil
}

// Column extracts one numeric column by name.
func Column(stats []sim.FrameStats, name string) ([]float64, error) {
	get, ok := columnGetters[name]
	if !ok {
		return nil, fmt.Errorf("storage: unknown column %q", name)
	}
	out := make([]float64, len(stats))
	for i, st := range stats {
		out[i] = get(st)
	}
	return out, nil
}

var columnGetters = map[string]func(sim.FrameStats) float64{
	"frame":          func(s sim.FrameStats) float64 { return float64(s.Frame) },
	"time":           func(s sim.FrameStats) float64 { return s.Time },
	"dt":             func(s sim.FrameStats) float64 { return float64(s.Dt) },
	"contacts":       func(s sim.FrameStats) float64 { return float64(s.Contacts) },
	"tetrahedra":     func(s sim.FrameStats) float64 { return float64(s.Tetrahedra) },
	"steered":        func(s sim.FrameStats) float64 { return float64(s.Steered) },
	"fallbacks":      func(s sim.FrameStats) float64 { return float64(s.Fallbacks) },
	"kinetic_energy": func(s sim.FrameStats) float64 { return s.KineticEnergy },
	"momentum":       func(s sim.FrameStats) float64 { return s.Momentum },
	"mean_speed":     func(s sim.FrameStats) float64 { return s.MeanSpeed },
}

func formatRow(st sim.FrameStats) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		strconv.Itoa(st.Frame),
		f(st.Time),
		strconv.FormatFloat(float64(st.Dt), 'g', -1, 32),
		strconv.Itoa(st.Contacts),
		string(st.Steering),
		strconv.Itoa(st.Tetrahedra),
		strconv.Itoa(st.Steered),
		strconv.Itoa(st.Fallbacks),
		f(st.KineticEnergy),
		f(st.Momentum),
		f(st.MeanSpeed),
	}
}

func parseRow(rec []string) (sim.FrameStats, error) {
	var st sim.FrameStats
	ints := []*int{&st.Frame, &st.Contacts, &st.Tetrahedra, &st.Steered, &st.Fallbacks}
	for k, idx := range []int{0, 3, 5, 6, 7} {
		v, err := strconv.Atoi(rec[idx])
		if err != nil {
			return st, err
		}
		*ints[k] = v
	}

	floatsAt := []*float64{&st.Time, &st.KineticEnergy, &st.Momentum, &st.MeanSpeed}
	for k, idx := range []int{1, 8, 9, 10} {
		v, err := strconv.ParseFloat(rec[idx], 64)
		if err != nil {
			return st, err
		}
		*floatsAt[k] = v
	}

	dt, err := strconv.ParseFloat(rec[2], 32)
	if err != nil {
		return st, err
	}
	st.Dt = float32(dt)
	st.Steering = sim.SteeringStatus(rec[4])
	return st, nil
}
