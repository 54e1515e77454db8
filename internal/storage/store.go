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

	"github.com/san-kum/nebula/internal/grid"
)

const (
	metadataFile    = "metadata.json"
	diagnosticsFile = "diagnostics.csv"
	positionsFile   = "positions.csv"
)

// Store keeps one directory per run under baseDir.
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
	ID          string             `json:"id"`
	Preset      string             `json:"preset"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Ticks       int                `json:"ticks"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Solver      string             `json:"solver"`
	Backend     string             `json:"backend"`
	Workers     int                `json:"workers"`
	Generation  uint64             `json:"generation"`
	Elapsed     float64            `json:"elapsed"`
	WallSeconds float64            `json:"wall_seconds"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Sample is one row of diagnostics taken after tick Tick.
type Sample struct {
	Tick   int
	Time   float64
	Values []float64
}

// Save writes a run directory and returns its ID. The ID and Timestamp in
// meta are filled in.
func (s *Store) Save(meta RunMetadata, columns []string, samples []Sample, shape grid.Shape, final []grid.Cell) (string, error) {
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_s%d_%d", meta.Preset, meta.Seed, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeDiagnostics(filepath.Join(runDir, diagnosticsFile), columns, samples); err != nil {
		return "", err
	}
	if err := writePositions(filepath.Join(runDir, positionsFile), shape, final); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeDiagnostics(path string, columns []string, samples []Sample) error {
	return writeCSV(path, func(w *csv.Writer) error {
		header := append([]string{"tick", "time"}, columns...)
		if err := w.Write(header); err != nil {
			return err
		}
		for _, smp := range samples {
			row := []string{strconv.Itoa(smp.Tick), formatFloat(smp.Time)}
			for _, v := range smp.Values {
				row = append(row, formatFloat(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writePositions(path string, shape grid.Shape, cells []grid.Cell) error {
	return writeCSV(path, func(w *csv.Writer) error {
		if err := w.Write([]string{"gx", "gy", "x", "y", "z", "mass"}); err != nil {
			return err
		}
		for i, c := range cells {
			gx, gy := shape.Coord(i)
			row := []string{
				strconv.Itoa(gx), strconv.Itoa(gy),
				formatFloat(c.X), formatFloat(c.Y), formatFloat(c.Z), formatFloat(c.Mass),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns every readable run, oldest first.
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
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
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

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// LoadDiagnostics returns the diagnostic column names and samples of a run.
func (s *Store) LoadDiagnostics(runID string) ([]string, []Sample, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, diagnosticsFile))
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, nil, fmt.Errorf("%s: missing header", diagnosticsFile)
	}

	columns := records[0][2:]
	samples := make([]Sample, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) != len(columns)+2 {
			return nil, nil, fmt.Errorf("%s line %d: %d fields", diagnosticsFile, line+2, len(record))
		}
		tick, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", diagnosticsFile, line+2, err)
		}
		vals, err := parseFloats(record[1:])
		if err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", diagnosticsFile, line+2, err)
		}
		samples = append(samples, Sample{Tick: tick, Time: vals[0], Values: vals[1:]})
	}
	return columns, samples, nil
}

// Column extracts one named diagnostic as a series.
func Column(columns []string, samples []Sample, name string) ([]float64, error) {
	idx := -1
	for i, c := range columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("unknown diagnostic: %s (available: %v)", name, columns)
	}
	out := make([]float64, len(samples))
	for i, smp := range samples {
		out[i] = smp.Values[idx]
	}
	return out, nil
}

// LoadPositions reads the final generation of a run in grid order.
func (s *Store) LoadPositions(runID string) ([]grid.Cell, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, positionsFile))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", positionsFile)
	}

	cells := make([]grid.Cell, 0, len(records)-1)
	for line, record := range records[1:] {
		if len(record) != 6 {
			return nil, fmt.Errorf("%s line %d: %d fields", positionsFile, line+2, len(record))
		}
		v, err := parseFloats(record[2:])
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", positionsFile, line+2, err)
		}
		cells = append(cells, grid.Cell{X: v[0], Y: v[1], Z: v[2], Mass: v[3]})
	}
	return cells, nil
}

// ExportPositions writes the final generation of a run to w as x,y,z,mass
// CSV rows in grid order.
func (s *Store) ExportPositions(runID string, w io.Writer) error {
	cells, err := s.LoadPositions(runID)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z", "mass"}); err != nil {
		return err
	}
	for _, c := range cells {
		row := []string{formatFloat(c.X), formatFloat(c.Y), formatFloat(c.Z), formatFloat(c.Mass)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
