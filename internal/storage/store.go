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

	"github.com/lithammer/shortuuid/v4"
	"github.com/samber/lo"

	"github.com/san-kum/velctl/internal/dynamo"
	"github.com/san-kum/velctl/internal/sim"
)

const (
	metadataFile = "metadata.json"
	forcesFile   = "forces.csv"
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
	ID          string                        `json:"id"`
	Scenario    string                        `json:"scenario"`
	Source      string                        `json:"source"`
	Timestamp   time.Time                     `json:"timestamp"`
	Dt          float64                       `json:"dt"`
	Ticks       int                           `json:"ticks"`
	Envs        int                           `json:"envs"`
	Dim         int                           `json:"dim"`
	Agents      []string                      `json:"agents"`
	Controllers map[string]map[string]float64 `json:"controllers"`
	Metrics     map[string]map[string]float64 `json:"metrics"`
}

// Save writes the run metadata and every recorded force to a new run
// directory and returns the run id.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Scenario, shortuuid.New()[:8])
	meta.Timestamp = time.Now()
	meta.Agents = result.Agents
	meta.Controllers = result.Params
	meta.Metrics = result.Metrics
	meta.Ticks = result.StepsTaken

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, forcesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := []string{"tick", "time", "agent", "env"}
	for k := 0; k < meta.Dim; k++ {
		header = append(header, fmt.Sprintf("f%d", k))
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for tick, t := range result.Times {
		for i, name := range result.Agents {
			f := result.Forces[i][tick]
			for env := 0; env < f.Rows; env++ {
				row := []string{
					strconv.Itoa(tick),
					strconv.FormatFloat(t, 'g', -1, 64),
					name,
					strconv.Itoa(env),
				}
				for _, v := range f.Row(env) {
					row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
				}
				if err := w.Write(row); err != nil {
					return "", err
				}
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// List returns all readable runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() })
	runs := make([]RunMetadata, 0, len(dirs))
	for _, entry := range dirs {
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
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

// LoadResult rebuilds the recorded forces of a run.
func (s *Store) LoadResult(runID string) (*RunMetadata, *sim.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, forcesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 4 + meta.Dim

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	result := &sim.Result{
		Name:       meta.Scenario,
		Times:      make([]float64, meta.Ticks),
		Agents:     meta.Agents,
		Forces:     make([][]dynamo.Batch, len(meta.Agents)),
		Metrics:    meta.Metrics,
		Params:     meta.Controllers,
		StepsTaken: meta.Ticks,
	}
	for i := range result.Forces {
		result.Forces[i] = make([]dynamo.Batch, meta.Ticks)
		for tick := range result.Forces[i] {
			result.Forces[i][tick] = dynamo.NewBatch(meta.Envs, meta.Dim)
		}
	}

	for line, rec := range records {
		if line == 0 {
			continue
		}
		tick, err := strconv.Atoi(rec[0])
		if err != nil || tick < 0 || tick >= meta.Ticks {
			return nil, nil, fmt.Errorf("%s line %d: bad tick %q", forcesFile, line+1, rec[0])
		}
		agentIdx := result.AgentIndex(rec[2])
		env, err := strconv.Atoi(rec[3])
		if agentIdx < 0 || err != nil || env < 0 || env >= meta.Envs {
			return nil, nil, fmt.Errorf("%s line %d: bad agent/env %q/%q", forcesFile, line+1, rec[2], rec[3])
		}
		if result.Times[tick], err = strconv.ParseFloat(rec[1], 64); err != nil {
			return nil, nil, fmt.Errorf("%s line %d: %w", forcesFile, line+1, err)
		}

		row := result.Forces[agentIdx][tick].Row(env)
		for k := range row {
			if row[k], err = strconv.ParseFloat(rec[4+k], 64); err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %w", forcesFile, line+1, err)
			}
		}
	}

	return meta, result, nil
}
