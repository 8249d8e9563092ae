// Package storage persists scenario runs: one directory per run holding
// metadata.json and the sampled response as response.csv.
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

	"github.com/nmoray/cruisesim/internal/config"
	"github.com/nmoray/cruisesim/internal/scenario"
)

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
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Vref       float64            `json:"vref"`
	Gear       int                `json:"gear"`
	GradeDeg   float64            `json:"grade_deg"`
	HillTime   float64            `json:"t_hill"`
	Kp         float64            `json:"kp"`
	Ki         float64            `json:"ki"`
	Integrator string             `json:"integrator"`
	TrimState  []float64          `json:"trim_state"`
	TrimInput  []float64          `json:"trim_input"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run directory and returns its id.
func (s *Store) Save(cfg *config.Config, out *scenario.Outcome) (string, error) {
	runID := fmt.Sprintf("cruise_%d", time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	integ := cfg.Solver.Integrator
	if integ == "" {
		integ = "rk45"
	}
	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		Vref:       cfg.Scenario.Vref,
		Gear:       cfg.Scenario.Gear,
		GradeDeg:   cfg.Scenario.GradeDeg,
		HillTime:   cfg.Scenario.HillTime,
		Kp:         cfg.Controller.Kp,
		Ki:         cfg.Controller.Ki,
		Integrator: integ,
		TrimState:  out.Trim.X,
		TrimInput:  out.Trim.U,
		Metrics:    out.Metrics,
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "response.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()
	w := csv.NewWriter(csvFile)
	defer w.Flush()

	res := out.Result
	if err := w.Write([]string{"t", "v", "u", "theta"}); err != nil {
		return "", err
	}
	for k := range res.T {
		row := []string{
			strconv.FormatFloat(res.T[k], 'g', -1, 64),
			strconv.FormatFloat(res.Y[out.VIdx][k], 'g', -1, 64),
			strconv.FormatFloat(res.Y[out.UIdx][k], 'g', -1, 64),
			strconv.FormatFloat(out.Inputs[2][k], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns run metadata ordered by timestamp.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var runs []RunMetadata
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

// Response holds a stored run's sampled trajectories.
type Response struct {
	T     []float64
	V     []float64
	U     []float64
	Theta []float64
}

func (s *Store) LoadResponse(runID string) (*Response, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "response.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("storage: run %s has no samples", runID)
	}

	resp := &Response{}
	for _, rec := range records[1:] {
		if len(rec) != 4 {
			return nil, fmt.Errorf("storage: run %s has a malformed row", runID)
		}
		vals := make([]float64, 4)
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: run %s: %w", runID, err)
			}
			vals[i] = v
		}
		resp.T = append(resp.T, vals[0])
		resp.V = append(resp.V, vals[1])
		resp.U = append(resp.U, vals[2])
		resp.Theta = append(resp.Theta, vals[3])
	}
	return resp, nil
}
