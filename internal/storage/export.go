package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/episim/internal/dynamo"
)

type ExportData struct {
	Model        string             `json:"model"`
	Integrator   string             `json:"integrator"`
	Dt           float64            `json:"dt"`
	Duration     float64            `json:"duration"`
	Params       map[string]float64 `json:"params"`
	Compartments []string           `json:"compartments"`
	Steps        int                `json:"steps"`
	Times        []float64          `json:"times"`
	States       [][]float64        `json:"states"`
	Metrics      map[string]float64 `json:"metrics"`
}

func NewExportData(info RunInfo, result *dynamo.Result) ExportData {
	data := ExportData{
		Model:        info.Model,
		Integrator:   info.Integrator,
		Dt:           info.Dt,
		Duration:     info.Duration,
		Params:       info.Params,
		Compartments: result.Compartments,
		Steps:        len(result.Times),
		Times:        result.Times,
		States:       make([][]float64, len(result.States)),
		Metrics:      result.Metrics,
	}
	for i, s := range result.States {
		data.States[i] = s
	}
	return data
}

func WriteJSON(w io.Writer, info RunInfo, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(info, result))
}

// ExportJSON writes the run to path, or to stdout when path is "-".
func ExportJSON(path string, info RunInfo, result *dynamo.Result) error {
	if path == "-" {
		return WriteJSON(os.Stdout, info, result)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, info, result)
}

// InfoFrom recovers the run description stored in metadata.
func InfoFrom(meta *RunMetadata) RunInfo {
	return RunInfo{
		Model:      meta.Model,
		Integrator: meta.Integrator,
		Params:     meta.Params,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
	}
}
