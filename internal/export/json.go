package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/velctl/internal/sim"
	"github.com/san-kum/velctl/internal/storage"
)

type AgentData struct {
	Name       string             `json:"name"`
	Controller map[string]float64 `json:"controller"`
	Metrics    map[string]float64 `json:"metrics"`
	// Forces is indexed [tick][env][axis].
	Forces [][][]float64 `json:"forces"`
}

type RunData struct {
	ID       string      `json:"id"`
	Scenario string      `json:"scenario"`
	Source   string      `json:"source"`
	Dt       float64     `json:"dt"`
	Envs     int         `json:"envs"`
	Dim      int         `json:"dim"`
	Steps    int         `json:"steps"`
	Times    []float64   `json:"times"`
	Agents   []AgentData `json:"agents"`
}

func NewRunData(meta *storage.RunMetadata, result *sim.Result) RunData {
	data := RunData{
		ID:       meta.ID,
		Scenario: meta.Scenario,
		Source:   meta.Source,
		Dt:       meta.Dt,
		Envs:     meta.Envs,
		Dim:      meta.Dim,
		Steps:    len(result.Times),
		Times:    result.Times,
		Agents:   make([]AgentData, len(result.Agents)),
	}

	for i, name := range result.Agents {
		a := AgentData{
			Name:       name,
			Controller: result.Params[name],
			Metrics:    result.Metrics[name],
			Forces:     make([][][]float64, len(result.Forces[i])),
		}
		for t, f := range result.Forces[i] {
			rows := make([][]float64, f.Rows)
			for env := range rows {
				rows[env] = f.Row(env)
			}
			a.Forces[t] = rows
		}
		data.Agents[i] = a
	}
	return data
}

// WriteJSON encodes a stored run as indented JSON.
func WriteJSON(w io.Writer, meta *storage.RunMetadata, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewRunData(meta, result))
}

func ExportJSON(path string, meta *storage.RunMetadata, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, meta, result)
}
