package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/springsim/internal/dynamo"
)

type ExportBone struct {
	Name string     `json:"name"`
	Head [3]float64 `json:"head"`
	Tail [3]float64 `json:"tail"`
}

type ExportFrame struct {
	Time  float64      `json:"time"`
	Bones []ExportBone `json:"bones"`
}

type ExportData struct {
	Rig      string             `json:"rig"`
	Dt       float64            `json:"dt"`
	Duration float64            `json:"duration"`
	Steps    int                `json:"steps"`
	Bones    []BoneMetadata     `json:"bones"`
	Frames   []ExportFrame      `json:"frames"`
	Metrics  map[string]float64 `json:"metrics"`
}

func newExportData(meta RunMetadata, result *dynamo.Result) ExportData {
	data := ExportData{
		Rig:      meta.Rig,
		Dt:       meta.Dt,
		Duration: meta.Duration,
		Steps:    result.StepsTaken,
		Bones:    meta.Bones,
		Frames:   make([]ExportFrame, len(result.Frames)),
		Metrics:  result.Metrics,
	}

	for i, f := range result.Frames {
		bones := f.Bones()
		ef := ExportFrame{Time: f.Time, Bones: make([]ExportBone, len(bones))}
		for j, b := range bones {
			ef.Bones[j] = ExportBone{Name: b.Name, Head: b.Head, Tail: b.Tail}
		}
		data.Frames[i] = ef
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, result *dynamo.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return ExportJSONWriter(file, meta, result)
}

func ExportJSONWriter(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(newExportData(meta, result))
}
