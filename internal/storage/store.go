package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/springsim/internal/config"
	"github.com/san-kum/springsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	tailsFile    = "tails.csv"
	rigFile      = "rig.yaml"
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

type BoneMetadata struct {
	Name   string  `json:"name"`
	Chain  string  `json:"chain"`
	Length float64 `json:"length"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Rig       string             `json:"rig"`
	Timestamp time.Time          `json:"timestamp"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Bones     []BoneMetadata     `json:"bones"`
	Metrics   map[string]float64 `json:"metrics"`
}

// NewMetadata describes a finished run of cfg. The bone list is taken from
// the first frame.
func NewMetadata(cfg *config.Config, result *dynamo.Result) RunMetadata {
	meta := RunMetadata{
		Rig:       cfg.Name,
		Timestamp: time.Now(),
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Steps:     result.StepsTaken,
		Metrics:   result.Metrics,
	}
	if len(result.Frames) > 0 {
		for _, c := range result.Frames[0].Chains {
			for _, b := range c.Bones {
				meta.Bones = append(meta.Bones, BoneMetadata{Name: b.Name, Chain: c.Comment, Length: b.Length})
			}
		}
	}
	return meta
}

// Save writes a run directory with the metadata, the rig that produced it
// and the tail trajectory of every bone.
func (s *Store) Save(cfg *config.Config, result *dynamo.Result) (string, error) {
	meta := NewMetadata(cfg, result)
	runID := fmt.Sprintf("%s_%d", cfg.Name, meta.Timestamp.UnixNano())
	meta.ID = runID
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, rigFile), cfg); err != nil {
		return "", err
	}
	if err := writeTails(filepath.Join(runDir, tailsFile), result); err != nil {
		return "", err
	}

	return runID, nil
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

func writeTails(path string, result *dynamo.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	defer w.Flush()

	if len(result.Frames) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.Frames[0].Bones() {
		header = append(header, fmt.Sprintf("b%d_x", i), fmt.Sprintf("b%d_y", i), fmt.Sprintf("b%d_z", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, fr := range result.Frames {
		t := fr.Time
		if i < len(result.Times) {
			t = result.Times[i]
		}
		row := []string{strconv.FormatFloat(t, 'f', 6, 64)}
		for _, b := range fr.Bones() {
			for k := 0; k < 3; k++ {
				row = append(row, strconv.FormatFloat(b.Tail[k], 'f', 6, 64))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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

// LoadConfig returns the rig a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, rigFile))
}

// LoadTails reads the tail trajectory back: tails[frame][bone].
func (s *Store) LoadTails(runID string) ([][]mgl64.Vec3, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, tailsFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]mgl64.Vec3{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	tails := make([][]mgl64.Vec3, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}

		frame := make([]mgl64.Vec3, 0, (len(record)-1)/3)
		for j := 1; j+2 < len(record); j += 3 {
			var v mgl64.Vec3
			for k := 0; k < 3; k++ {
				if v[k], err = strconv.ParseFloat(record[j+k], 64); err != nil {
					return nil, nil, fmt.Errorf("%s: time %s: %w", tailsFile, record[0], err)
				}
			}
			frame = append(frame, v)
		}
		times = append(times, t)
		tails = append(tails, frame)
	}

	return tails, times, nil
}
